package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind tags a ledger entry as a buy or a sell. The signed share
// count carries the same fact; the tag is kept for history display.
type TransactionKind string

const (
	KindBuy  TransactionKind = "buy"
	KindSell TransactionKind = "sell"
)

// User represents a registered user and their cash balance.
type User struct {
	ID             int64           `json:"id"`
	Username       string          `json:"username"`
	PasswordDigest string          `json:"-"`
	Cash           decimal.Decimal `json:"cash"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Transaction is one immutable entry in the append-only ledger.
// Shares is signed: positive for buys, negative for sells, never zero.
// Price is the unit price at execution time.
type Transaction struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Symbol    string          `json:"symbol"`
	Name      string          `json:"name"`
	Shares    int64           `json:"shares"`
	Price     decimal.Decimal `json:"price"`
	Kind      TransactionKind `json:"kind"`
	CreatedAt time.Time       `json:"created_at"`
}

// Holding is the aggregated position for one (user, symbol) pair, derived
// from the ledger. LastPrice is the most recently recorded execution price.
type Holding struct {
	Symbol    string          `json:"symbol"`
	Name      string          `json:"name"`
	Shares    int64           `json:"shares"`
	LastPrice decimal.Decimal `json:"last_price"`
}

// PortfolioRow is one valued position in the portfolio view.
type PortfolioRow struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Shares int64           `json:"shares"`
	Price  decimal.Decimal `json:"price"`
	Value  decimal.Decimal `json:"value"`
}

// PortfolioView is the display-ready portfolio: non-zero positions valued at
// their last recorded execution price, plus cash and the combined total.
type PortfolioView struct {
	Rows       []PortfolioRow  `json:"rows"`
	Cash       decimal.Decimal `json:"cash"`
	TotalValue decimal.Decimal `json:"total_value"`
}

// TradeRequest - what the client sends to buy or sell shares.
type TradeRequest struct {
	Symbol string `json:"symbol" binding:"required"`
	Shares int64  `json:"shares" binding:"required,min=1"`
}

// RegisterRequest - new account creation.
type RegisterRequest struct {
	Username     string `json:"username" binding:"required"`
	Password     string `json:"password" binding:"required"`
	Confirmation string `json:"confirmation" binding:"required"`
}

// LoginRequest - credentials for an existing account.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ChangePasswordRequest - credential rotation; the current password is
// verified before the digest is overwritten.
type ChangePasswordRequest struct {
	Current      string `json:"current" binding:"required"`
	New          string `json:"new" binding:"required"`
	Confirmation string `json:"confirmation" binding:"required"`
}
