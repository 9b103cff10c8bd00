// Package auth implements the authentication collaborator: registration,
// credential checks, password rotation and session tokens.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/equitysim/paper-trading/internal/ledger"
	"github.com/equitysim/paper-trading/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrValidation covers malformed registration or password input.
	ErrValidation = errors.New("invalid input")

	// ErrInvalidCredentials is returned for a wrong username or password.
	// One error for both cases, so callers cannot enumerate usernames.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Service manages user accounts on top of the ledger store.
type Service struct {
	store        ledger.Store
	passwords    Passwords
	startingCash decimal.Decimal
	logger       *zap.Logger
}

// NewService creates an auth service. New accounts are seeded with
// startingCash.
func NewService(store ledger.Store, passwords Passwords, startingCash decimal.Decimal, logger *zap.Logger) *Service {
	return &Service{
		store:        store,
		passwords:    passwords,
		startingCash: startingCash,
		logger:       logger,
	}
}

// Register creates a new user. A duplicate username surfaces as
// ledger.ErrUsernameTaken.
func (s *Service) Register(ctx context.Context, username, password, confirmation string) (models.User, error) {
	if username == "" {
		return models.User{}, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if password == "" {
		return models.User{}, fmt.Errorf("%w: password is required", ErrValidation)
	}
	if password != confirmation {
		return models.User{}, fmt.Errorf("%w: passwords don't match", ErrValidation)
	}

	digest, err := s.passwords.Hash(password)
	if err != nil {
		return models.User{}, err
	}

	userID, err := s.store.CreateUser(ctx, username, digest, s.startingCash)
	if err != nil {
		return models.User{}, err
	}

	s.logger.Info("User registered", zap.Int64("user_id", userID), zap.String("username", username))
	return models.User{ID: userID, Username: username, Cash: s.startingCash}, nil
}

// Login checks the credentials and returns the user on success.
func (s *Service) Login(ctx context.Context, username, password string) (models.User, error) {
	user, err := s.store.UserByUsername(ctx, username)
	if errors.Is(err, ledger.ErrUserNotFound) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, err
	}
	if !s.passwords.Verify(user.PasswordDigest, password) {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// ChangePassword rotates the user's credential. The current password is
// verified before the digest is overwritten.
func (s *Service) ChangePassword(ctx context.Context, userID int64, current, newPassword, confirmation string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: new password is required", ErrValidation)
	}
	if newPassword != confirmation {
		return fmt.Errorf("%w: passwords don't match", ErrValidation)
	}

	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.passwords.Verify(user.PasswordDigest, current) {
		return ErrInvalidCredentials
	}

	digest, err := s.passwords.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.store.SetPasswordDigest(ctx, userID, digest); err != nil {
		return err
	}

	s.logger.Info("Password changed", zap.Int64("user_id", userID))
	return nil
}
