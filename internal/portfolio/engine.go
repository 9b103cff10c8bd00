// Package portfolio implements the portfolio engine: buy and sell as atomic
// read-validate-write sequences over the ledger store, and the display-ready
// portfolio view derived from it.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/equitysim/paper-trading/internal/ledger"
	"github.com/equitysim/paper-trading/internal/models"
	"github.com/equitysim/paper-trading/internal/quotes"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Engine orchestrates trading operations. Every operation takes the user id
// explicitly; the engine holds no ambient session state.
type Engine struct {
	store  ledger.Store
	quotes quotes.Service
	locks  *userLocks
	logger *zap.Logger
}

// NewEngine creates a portfolio engine.
func NewEngine(store ledger.Store, quoteSvc quotes.Service, logger *zap.Logger) *Engine {
	return &Engine{
		store:  store,
		quotes: quoteSvc,
		locks:  newUserLocks(),
		logger: logger,
	}
}

func validateOrder(symbol string, shares int64) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", fmt.Errorf("%w: symbol is required", ErrValidation)
	}
	if shares <= 0 {
		return "", fmt.Errorf("%w: shares must be a positive integer", ErrValidation)
	}
	return symbol, nil
}

func (e *Engine) lookup(ctx context.Context, symbol string) (quotes.Quote, error) {
	q, err := e.quotes.Lookup(ctx, symbol)
	if errors.Is(err, quotes.ErrNotFound) {
		return quotes.Quote{}, fmt.Errorf("%w: %q", ErrSymbolNotFound, symbol)
	}
	if err != nil {
		return quotes.Quote{}, fmt.Errorf("quote lookup for %q: %w", symbol, err)
	}
	return q, nil
}

// Buy purchases shares at the current quoted price. The cash debit and the
// ledger append are a single atomic unit; any rejection leaves the ledger
// untouched.
func (e *Engine) Buy(ctx context.Context, userID int64, symbol string, shares int64) error {
	symbol, err := validateOrder(symbol, shares)
	if err != nil {
		return err
	}

	q, err := e.lookup(ctx, symbol)
	if err != nil {
		return err
	}
	totalCost := q.Price.Mul(decimal.NewFromInt(shares))

	// Lock the trading state for THIS USER ONLY (not global!)
	e.locks.Lock(userID)
	defer e.locks.Unlock(userID)

	err = e.store.Trade(ctx, userID, func(tx ledger.TradeTx) error {
		cash, err := tx.CashBalance(userID)
		if err != nil {
			return err
		}
		if cash.LessThan(totalCost) {
			return ErrInsufficientFunds
		}
		if err := tx.SetCashBalance(userID, cash.Sub(totalCost)); err != nil {
			return err
		}
		return tx.Append(models.Transaction{
			UserID:    userID,
			Symbol:    symbol,
			Name:      q.Name,
			Shares:    shares,
			Price:     q.Price,
			Kind:      models.KindBuy,
			CreatedAt: time.Now().UTC(),
		})
	})
	if err != nil {
		return err
	}

	e.logger.Info("Buy executed",
		zap.Int64("user_id", userID),
		zap.String("symbol", symbol),
		zap.Int64("shares", shares),
		zap.String("price", q.Price.String()))
	return nil
}

// Sell disposes of shares at the current quoted price, recording a negative
// share count. Selling more than the net shares owned is rejected before
// anything is written.
func (e *Engine) Sell(ctx context.Context, userID int64, symbol string, shares int64) error {
	symbol, err := validateOrder(symbol, shares)
	if err != nil {
		return err
	}

	q, err := e.lookup(ctx, symbol)
	if err != nil {
		return err
	}
	proceeds := q.Price.Mul(decimal.NewFromInt(shares))

	e.locks.Lock(userID)
	defer e.locks.Unlock(userID)

	err = e.store.Trade(ctx, userID, func(tx ledger.TradeTx) error {
		owned, err := tx.SharesOwned(userID, symbol)
		if err != nil {
			return err
		}
		if shares > owned {
			return ErrInsufficientShares
		}
		cash, err := tx.CashBalance(userID)
		if err != nil {
			return err
		}
		if err := tx.SetCashBalance(userID, cash.Add(proceeds)); err != nil {
			return err
		}
		return tx.Append(models.Transaction{
			UserID:    userID,
			Symbol:    symbol,
			Name:      q.Name,
			Shares:    -shares,
			Price:     q.Price,
			Kind:      models.KindSell,
			CreatedAt: time.Now().UTC(),
		})
	})
	if err != nil {
		return err
	}

	e.logger.Info("Sell executed",
		zap.Int64("user_id", userID),
		zap.String("symbol", symbol),
		zap.Int64("shares", shares),
		zap.String("price", q.Price.String()))
	return nil
}

// View derives the portfolio for display. Fully sold-off symbols are
// filtered out; each remaining row is valued at its last recorded execution
// price, and the total adds the cash balance.
func (e *Engine) View(ctx context.Context, userID int64) (models.PortfolioView, error) {
	cash, err := e.store.CashBalance(ctx, userID)
	if err != nil {
		return models.PortfolioView{}, err
	}

	holdings, err := e.store.Holdings(ctx, userID)
	if err != nil {
		return models.PortfolioView{}, err
	}

	view := models.PortfolioView{
		Rows:       make([]models.PortfolioRow, 0, len(holdings)),
		Cash:       cash,
		TotalValue: cash,
	}
	for _, h := range holdings {
		if h.Shares == 0 {
			continue
		}
		value := h.LastPrice.Mul(decimal.NewFromInt(h.Shares))
		view.Rows = append(view.Rows, models.PortfolioRow{
			Symbol: h.Symbol,
			Name:   h.Name,
			Shares: h.Shares,
			Price:  h.LastPrice,
			Value:  value,
		})
		view.TotalValue = view.TotalValue.Add(value)
	}
	return view, nil
}

// History lists the user's transactions in insertion order.
func (e *Engine) History(ctx context.Context, userID int64) ([]models.Transaction, error) {
	return e.store.Transactions(ctx, userID)
}
