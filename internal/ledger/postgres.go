package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/equitysim/paper-trading/internal/models"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Postgres is the PostgreSQL-backed ledger store.
type Postgres struct {
	db *sql.DB
}

var _ Store = (*Postgres)(nil)

// NewPostgres creates a ledger store on top of an open connection pool.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// CreateUser inserts a new user row seeded with the starting cash balance.
func (s *Postgres) CreateUser(ctx context.Context, username, digest string, startingCash decimal.Decimal) (int64, error) {
	var userID int64
	err := s.db.QueryRowContext(ctx, `
        INSERT INTO users (username, password_digest, cash)
        VALUES ($1, $2, $3)
        RETURNING id
    `, username, digest, startingCash).Scan(&userID)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return 0, ErrUsernameTaken
	}
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return userID, nil
}

func (s *Postgres) UserByUsername(ctx context.Context, username string) (models.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
        SELECT id, username, password_digest, cash, created_at
        FROM users
        WHERE username = $1
    `, username))
}

func (s *Postgres) UserByID(ctx context.Context, userID int64) (models.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
        SELECT id, username, password_digest, cash, created_at
        FROM users
        WHERE id = $1
    `, userID))
}

func (s *Postgres) scanUser(row *sql.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordDigest, &u.Cash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

func (s *Postgres) SetPasswordDigest(ctx context.Context, userID int64, digest string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET password_digest = $1 WHERE id = $2",
		digest, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update password digest: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *Postgres) CashBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var cash decimal.Decimal
	err := s.db.QueryRowContext(ctx,
		"SELECT cash FROM users WHERE id = $1",
		userID,
	).Scan(&cash)

	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, ErrUserNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query cash balance: %w", err)
	}
	return cash, nil
}

func (s *Postgres) SharesOwned(ctx context.Context, userID int64, symbol string) (int64, error) {
	var shares int64
	err := s.db.QueryRowContext(ctx, `
        SELECT COALESCE(SUM(shares), 0)
        FROM transactions
        WHERE user_id = $1 AND symbol = $2
    `, userID, symbol).Scan(&shares)
	if err != nil {
		return 0, fmt.Errorf("failed to query shares owned: %w", err)
	}
	return shares, nil
}

func (s *Postgres) Transactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, user_id, symbol, name, shares, price, kind, created_at
        FROM transactions
        WHERE user_id = $1
        ORDER BY id
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	txns := make([]models.Transaction, 0)
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Symbol, &t.Name, &t.Shares, &t.Price, &t.Kind, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

func (s *Postgres) Holdings(ctx context.Context, userID int64) ([]models.Holding, error) {
	// Ordered array_agg picks the name and price of the most recent entry
	// per symbol in the same pass as the share sum.
	rows, err := s.db.QueryContext(ctx, `
        SELECT symbol,
               (array_agg(name ORDER BY id DESC))[1]  AS name,
               SUM(shares)                            AS shares,
               (array_agg(price ORDER BY id DESC))[1] AS price
        FROM transactions
        WHERE user_id = $1
        GROUP BY symbol
        ORDER BY symbol
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	holdings := make([]models.Holding, 0)
	for rows.Next() {
		var h models.Holding
		if err := rows.Scan(&h.Symbol, &h.Name, &h.Shares, &h.LastPrice); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

// Trade runs fn inside one database transaction so the cash update and the
// ledger append commit together or not at all.
func (s *Postgres) Trade(ctx context.Context, userID int64, fn func(TradeTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin trade: %w", err)
	}
	defer tx.Rollback() // Rollback if we don't commit

	if err := fn(&pgTradeTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit trade: %w", err)
	}
	return nil
}

type pgTradeTx struct {
	tx *sql.Tx
}

func (t *pgTradeTx) CashBalance(userID int64) (decimal.Decimal, error) {
	var cash decimal.Decimal
	err := t.tx.QueryRow(
		"SELECT cash FROM users WHERE id = $1 FOR UPDATE",
		userID,
	).Scan(&cash)

	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, ErrUserNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query cash balance: %w", err)
	}
	return cash, nil
}

func (t *pgTradeTx) SetCashBalance(userID int64, cash decimal.Decimal) error {
	res, err := t.tx.Exec(
		"UPDATE users SET cash = $1 WHERE id = $2",
		cash, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update cash balance: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (t *pgTradeTx) SharesOwned(userID int64, symbol string) (int64, error) {
	var shares int64
	err := t.tx.QueryRow(`
        SELECT COALESCE(SUM(shares), 0)
        FROM transactions
        WHERE user_id = $1 AND symbol = $2
    `, userID, symbol).Scan(&shares)
	if err != nil {
		return 0, fmt.Errorf("failed to query shares owned: %w", err)
	}
	return shares, nil
}

func (t *pgTradeTx) Append(txn models.Transaction) error {
	_, err := t.tx.Exec(`
        INSERT INTO transactions (user_id, symbol, name, shares, price, kind, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, txn.UserID, txn.Symbol, txn.Name, txn.Shares, txn.Price, string(txn.Kind), txn.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}
