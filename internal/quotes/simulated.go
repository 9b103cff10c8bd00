package quotes

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// Simulated serves quotes from a fixed table. It is used when no provider
// token is configured, so the application works out of the box.
type Simulated struct {
	table map[string]Quote
}

var _ Service = (*Simulated)(nil)

// NewSimulated creates a provider seeded with a handful of demo symbols.
func NewSimulated() *Simulated {
	s := &Simulated{table: make(map[string]Quote)}

	seed := []struct {
		symbol string
		name   string
		price  string
	}{
		{"AAPL", "Apple Inc.", "150.00"},
		{"GOOGL", "Alphabet Inc.", "140.00"},
		{"MSFT", "Microsoft Corporation", "380.00"},
		{"TSLA", "Tesla, Inc.", "250.00"},
		{"AMZN", "Amazon.com, Inc.", "180.00"},
	}
	for _, q := range seed {
		s.table[q.symbol] = Quote{
			Symbol: q.symbol,
			Name:   q.name,
			Price:  decimal.RequireFromString(q.price),
		}
	}
	return s
}

func (s *Simulated) Lookup(_ context.Context, symbol string) (Quote, error) {
	q, ok := s.table[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return Quote{}, ErrNotFound
	}
	return q, nil
}
