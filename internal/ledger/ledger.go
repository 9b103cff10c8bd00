// Package ledger implements the ledger store: durable storage of users and
// the append-only transaction ledger, the single source of truth for all
// balance and holding derivations.
package ledger

import (
	"context"
	"errors"

	"github.com/equitysim/paper-trading/internal/models"
	"github.com/shopspring/decimal"
)

var (
	// ErrUserNotFound is returned when a referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken is returned when registering a username that
	// already exists.
	ErrUsernameTaken = errors.New("username already taken")
)

// TradeTx is the view of the store inside one atomic trade. All reads and
// writes made through it commit together or not at all.
type TradeTx interface {
	// CashBalance reads the user's cash balance, locking the row for the
	// duration of the trade where the backend supports it.
	CashBalance(userID int64) (decimal.Decimal, error)

	// SetCashBalance overwrites the stored balance. The caller must have
	// already validated the new amount is non-negative.
	SetCashBalance(userID int64, cash decimal.Decimal) error

	// SharesOwned returns the net signed share sum for one symbol.
	SharesOwned(userID int64, symbol string) (int64, error)

	// Append inserts one immutable ledger entry.
	Append(txn models.Transaction) error
}

// Store is the ledger store consumed by the portfolio engine and the auth
// service.
type Store interface {
	CreateUser(ctx context.Context, username, digest string, startingCash decimal.Decimal) (int64, error)
	UserByUsername(ctx context.Context, username string) (models.User, error)
	UserByID(ctx context.Context, userID int64) (models.User, error)
	SetPasswordDigest(ctx context.Context, userID int64, digest string) error

	CashBalance(ctx context.Context, userID int64) (decimal.Decimal, error)
	SharesOwned(ctx context.Context, userID int64, symbol string) (int64, error)

	// Transactions lists the user's ledger entries in insertion order.
	Transactions(ctx context.Context, userID int64) ([]models.Transaction, error)

	// Holdings aggregates the ledger into one row per symbol: net signed
	// shares plus the most recently recorded execution price. Rows whose
	// net share count is zero may or may not be present; callers filter.
	Holdings(ctx context.Context, userID int64) ([]models.Holding, error)

	// Trade runs fn inside a single storage transaction. Any error from fn
	// rolls back every write made through the TradeTx.
	Trade(ctx context.Context, userID int64, fn func(TradeTx) error) error
}
