// Package quotes resolves stock symbols to a display name and current price.
package quotes

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a symbol does not resolve. Absence of a
// symbol is a first-class outcome callers must handle, not a failure of
// the provider.
var ErrNotFound = errors.New("unknown symbol")

// Quote is a symbol's current display name and price.
type Quote struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
}

// Service looks up quotes. Implementations: Client (HTTP provider) and
// Simulated (fixed table, used when no API token is configured).
type Service interface {
	Lookup(ctx context.Context, symbol string) (Quote, error)
}
