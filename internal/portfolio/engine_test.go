package portfolio

import (
	"context"
	"sync"
	"testing"

	"github.com/equitysim/paper-trading/internal/ledger"
	"github.com/equitysim/paper-trading/internal/models"
	"github.com/equitysim/paper-trading/internal/quotes"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubQuotes serves quotes from a mutable map so tests can move prices
// between calls.
type stubQuotes struct {
	mu    sync.Mutex
	table map[string]quotes.Quote
}

func newStubQuotes() *stubQuotes {
	return &stubQuotes{table: make(map[string]quotes.Quote)}
}

func (s *stubQuotes) set(symbol, name, price string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table[symbol] = quotes.Quote{Symbol: symbol, Name: name, Price: decimal.RequireFromString(price)}
}

func (s *stubQuotes) Lookup(_ context.Context, symbol string) (quotes.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.table[symbol]
	if !ok {
		return quotes.Quote{}, quotes.ErrNotFound
	}
	return q, nil
}

func setupEngine(t *testing.T, cash string) (*Engine, *ledger.Memory, *stubQuotes, int64) {
	t.Helper()
	store := ledger.NewMemory()
	userID, err := store.CreateUser(context.Background(), "alice", "digest", decimal.RequireFromString(cash))
	require.NoError(t, err)

	qs := newStubQuotes()
	return NewEngine(store, qs, zap.NewNop()), store, qs, userID
}

func cashOf(t *testing.T, store *ledger.Memory, userID int64) decimal.Decimal {
	t.Helper()
	cash, err := store.CashBalance(context.Background(), userID)
	require.NoError(t, err)
	return cash
}

func ledgerLen(t *testing.T, store *ledger.Memory, userID int64) int {
	t.Helper()
	txns, err := store.Transactions(context.Background(), userID)
	require.NoError(t, err)
	return len(txns)
}

func TestBuyThenSell_Scenario(t *testing.T) {
	engine, store, qs, userID := setupEngine(t, "10000.00")
	qs.set("AAA", "AAA Corp.", "50.00")

	// Buy 10 at 50.00
	require.NoError(t, engine.Buy(context.Background(), userID, "AAA", 10))
	assert.True(t, cashOf(t, store, userID).Equal(decimal.RequireFromString("9500.00")),
		"cash after buy: %s", cashOf(t, store, userID))

	txns, err := store.Transactions(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, int64(10), txns[0].Shares)
	assert.True(t, txns[0].Price.Equal(decimal.RequireFromString("50.00")))
	assert.Equal(t, models.KindBuy, txns[0].Kind)

	// Price moves to 60.00, sell 4
	qs.set("AAA", "AAA Corp.", "60.00")
	require.NoError(t, engine.Sell(context.Background(), userID, "AAA", 4))
	assert.True(t, cashOf(t, store, userID).Equal(decimal.RequireFromString("9740.00")),
		"cash after sell: %s", cashOf(t, store, userID))

	txns, err = store.Transactions(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, int64(-4), txns[1].Shares)
	assert.True(t, txns[1].Price.Equal(decimal.RequireFromString("60.00")))
	assert.Equal(t, models.KindSell, txns[1].Kind)

	owned, err := store.SharesOwned(context.Background(), userID, "AAA")
	require.NoError(t, err)
	assert.Equal(t, int64(6), owned)
}

func TestBuy_InsufficientFunds_NoMutation(t *testing.T) {
	engine, store, qs, userID := setupEngine(t, "100.00")
	qs.set("AAA", "AAA Corp.", "50.00")

	err := engine.Buy(context.Background(), userID, "AAA", 10) // costs 500.00
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	assert.True(t, cashOf(t, store, userID).Equal(decimal.RequireFromString("100.00")))
	assert.Equal(t, 0, ledgerLen(t, store, userID))
}

func TestSell_InsufficientShares_NoMutation(t *testing.T) {
	engine, store, qs, userID := setupEngine(t, "10000.00")
	qs.set("AAA", "AAA Corp.", "50.00")

	require.NoError(t, engine.Buy(context.Background(), userID, "AAA", 3))
	cashBefore := cashOf(t, store, userID)
	lenBefore := ledgerLen(t, store, userID)

	err := engine.Sell(context.Background(), userID, "AAA", 5)
	assert.ErrorIs(t, err, ErrInsufficientShares)

	assert.True(t, cashOf(t, store, userID).Equal(cashBefore))
	assert.Equal(t, lenBefore, ledgerLen(t, store, userID))
}

func TestSell_NeverOwned(t *testing.T) {
	engine, _, qs, userID := setupEngine(t, "10000.00")
	qs.set("AAA", "AAA Corp.", "50.00")

	err := engine.Sell(context.Background(), userID, "AAA", 1)
	assert.ErrorIs(t, err, ErrInsufficientShares)
}

func TestBuySellRoundTrip_RestoresCash(t *testing.T) {
	engine, store, qs, userID := setupEngine(t, "10000.00")
	qs.set("AAA", "AAA Corp.", "50.00")

	require.NoError(t, engine.Buy(context.Background(), userID, "AAA", 7))
	require.NoError(t, engine.Sell(context.Background(), userID, "AAA", 7))

	assert.True(t, cashOf(t, store, userID).Equal(decimal.RequireFromString("10000.00")),
		"round trip should restore cash, got %s", cashOf(t, store, userID))
}

func TestBuy_Validation(t *testing.T) {
	engine, store, qs, userID := setupEngine(t, "10000.00")
	qs.set("AAA", "AAA Corp.", "50.00")

	assert.ErrorIs(t, engine.Buy(context.Background(), userID, "", 1), ErrValidation)
	assert.ErrorIs(t, engine.Buy(context.Background(), userID, "  ", 1), ErrValidation)
	assert.ErrorIs(t, engine.Buy(context.Background(), userID, "AAA", 0), ErrValidation)
	assert.ErrorIs(t, engine.Buy(context.Background(), userID, "AAA", -3), ErrValidation)
	assert.ErrorIs(t, engine.Sell(context.Background(), userID, "AAA", 0), ErrValidation)

	assert.Equal(t, 0, ledgerLen(t, store, userID))
}

func TestBuy_UnknownSymbol(t *testing.T) {
	engine, store, _, userID := setupEngine(t, "10000.00")

	err := engine.Buy(context.Background(), userID, "ZZZZ", 1)
	assert.ErrorIs(t, err, ErrSymbolNotFound)
	assert.Equal(t, 0, ledgerLen(t, store, userID))
}

func TestBuy_SymbolCaseNormalized(t *testing.T) {
	engine, store, qs, userID := setupEngine(t, "10000.00")
	qs.set("AAA", "AAA Corp.", "50.00")

	require.NoError(t, engine.Buy(context.Background(), userID, "aaa", 2))

	txns, err := store.Transactions(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "AAA", txns[0].Symbol)
}

func TestView_FiltersSoldOffSymbols(t *testing.T) {
	engine, _, qs, userID := setupEngine(t, "10000.00")
	qs.set("AAA", "AAA Corp.", "50.00")
	qs.set("BBB", "BBB Corp.", "20.00")

	require.NoError(t, engine.Buy(context.Background(), userID, "AAA", 5))
	require.NoError(t, engine.Buy(context.Background(), userID, "BBB", 2))
	require.NoError(t, engine.Sell(context.Background(), userID, "BBB", 2))

	view, err := engine.View(context.Background(), userID)
	require.NoError(t, err)

	require.Len(t, view.Rows, 1)
	assert.Equal(t, "AAA", view.Rows[0].Symbol)
	assert.Equal(t, int64(5), view.Rows[0].Shares)
	// Valued at last recorded execution price
	assert.True(t, view.Rows[0].Value.Equal(decimal.RequireFromString("250.00")))

	// cash 10000 - 250 - 40 + 40 = 9750; total = 9750 + 250
	assert.True(t, view.Cash.Equal(decimal.RequireFromString("9750.00")), "cash %s", view.Cash)
	assert.True(t, view.TotalValue.Equal(decimal.RequireFromString("10000.00")), "total %s", view.TotalValue)
}

func TestView_EmptyPortfolio(t *testing.T) {
	engine, _, _, userID := setupEngine(t, "10000.00")

	view, err := engine.View(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, view.Rows)
	assert.True(t, view.TotalValue.Equal(decimal.RequireFromString("10000.00")))
}

func TestHistory_InsertionOrder(t *testing.T) {
	engine, _, qs, userID := setupEngine(t, "10000.00")
	qs.set("AAA", "AAA Corp.", "50.00")

	require.NoError(t, engine.Buy(context.Background(), userID, "AAA", 2))
	require.NoError(t, engine.Sell(context.Background(), userID, "AAA", 1))
	require.NoError(t, engine.Buy(context.Background(), userID, "AAA", 3))

	txns, err := engine.History(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, txns, 3)
	assert.Equal(t, models.KindBuy, txns[0].Kind)
	assert.Equal(t, models.KindSell, txns[1].Kind)
	assert.Equal(t, models.KindBuy, txns[2].Kind)
}

func TestConcurrentBuys_SameUser(t *testing.T) {
	engine, store, qs, userID := setupEngine(t, "10000.00")
	qs.set("AAA", "AAA Corp.", "100.00")

	const numTrades = 10
	var wg sync.WaitGroup
	errs := make(chan error, numTrades)

	for i := 0; i < numTrades; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- engine.Buy(context.Background(), userID, "AAA", 1)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	assert.True(t, cashOf(t, store, userID).Equal(decimal.RequireFromString("9000.00")),
		"race detected: cash %s", cashOf(t, store, userID))

	owned, err := store.SharesOwned(context.Background(), userID, "AAA")
	require.NoError(t, err)
	assert.Equal(t, int64(numTrades), owned)
}

func TestCashNeverNegative(t *testing.T) {
	engine, store, qs, userID := setupEngine(t, "150.00")
	qs.set("AAA", "AAA Corp.", "100.00")

	// Two concurrent buys of 1 share at 100: only one can succeed
	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- engine.Buy(context.Background(), userID, "AAA", 1)
		}()
	}
	wg.Wait()
	close(errs)

	var failures int
	for err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, ErrInsufficientFunds)
			failures++
		}
	}
	assert.Equal(t, 1, failures)

	cash := cashOf(t, store, userID)
	assert.False(t, cash.IsNegative(), "cash went negative: %s", cash)
	assert.True(t, cash.Equal(decimal.RequireFromString("50.00")))
}
