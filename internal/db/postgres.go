package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/equitysim/paper-trading/internal/config"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// Open connects to PostgreSQL and configures the connection pool.
func Open(cfg *config.Database) (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode,
	)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err = conn.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	return conn, nil
}

// EnsureSchema creates the users and transactions tables if they are missing.
// The transactions table is append-only; holdings are derived from it.
func EnsureSchema(conn *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id              SERIAL PRIMARY KEY,
			username        TEXT NOT NULL UNIQUE,
			password_digest TEXT NOT NULL,
			cash            NUMERIC(20,2) NOT NULL,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id         SERIAL PRIMARY KEY,
			user_id    INTEGER NOT NULL REFERENCES users(id),
			symbol     TEXT NOT NULL,
			name       TEXT NOT NULL,
			shares     BIGINT NOT NULL,
			price      NUMERIC(20,2) NOT NULL,
			kind       TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user_symbol
			ON transactions (user_id, symbol)`,
	}

	for _, stmt := range schema {
		if _, err := conn.Exec(stmt); err != nil {
			return fmt.Errorf("error creating schema: %w", err)
		}
	}
	return nil
}
