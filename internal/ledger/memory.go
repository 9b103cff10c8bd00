package ledger

import (
	"context"
	"sort"
	"sync"

	"github.com/equitysim/paper-trading/internal/models"
	"github.com/shopspring/decimal"
)

// Memory is an in-memory ledger store with the same semantics as Postgres.
// It backs the "memory" database driver for local development and is the
// store used throughout the engine and handler tests.
type Memory struct {
	mu         sync.RWMutex
	users      map[int64]*models.User
	byUsername map[string]int64
	txns       []models.Transaction
	nextUserID int64
	nextTxnID  int64
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory ledger store.
func NewMemory() *Memory {
	return &Memory{
		users:      make(map[int64]*models.User),
		byUsername: make(map[string]int64),
		nextUserID: 1,
		nextTxnID:  1,
	}
}

func (m *Memory) CreateUser(_ context.Context, username, digest string, startingCash decimal.Decimal) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byUsername[username]; exists {
		return 0, ErrUsernameTaken
	}

	id := m.nextUserID
	m.nextUserID++
	m.users[id] = &models.User{
		ID:             id,
		Username:       username,
		PasswordDigest: digest,
		Cash:           startingCash,
	}
	m.byUsername[username] = id
	return id, nil
}

func (m *Memory) UserByUsername(_ context.Context, username string) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byUsername[username]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return *m.users[id], nil
}

func (m *Memory) UserByID(_ context.Context, userID int64) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[userID]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return *u, nil
}

func (m *Memory) SetPasswordDigest(_ context.Context, userID int64, digest string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.PasswordDigest = digest
	return nil
}

func (m *Memory) CashBalance(_ context.Context, userID int64) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[userID]
	if !ok {
		return decimal.Zero, ErrUserNotFound
	}
	return u.Cash, nil
}

func (m *Memory) SharesOwned(_ context.Context, userID int64, symbol string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sharesOwnedLocked(userID, symbol), nil
}

func (m *Memory) sharesOwnedLocked(userID int64, symbol string) int64 {
	var shares int64
	for _, t := range m.txns {
		if t.UserID == userID && t.Symbol == symbol {
			shares += t.Shares
		}
	}
	return shares
}

func (m *Memory) Transactions(_ context.Context, userID int64) ([]models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	txns := make([]models.Transaction, 0)
	for _, t := range m.txns {
		if t.UserID == userID {
			txns = append(txns, t)
		}
	}
	return txns, nil
}

func (m *Memory) Holdings(_ context.Context, userID int64) ([]models.Holding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Ledger replay: later entries overwrite name and price, shares sum.
	bySymbol := make(map[string]*models.Holding)
	for _, t := range m.txns {
		if t.UserID != userID {
			continue
		}
		h, ok := bySymbol[t.Symbol]
		if !ok {
			h = &models.Holding{Symbol: t.Symbol}
			bySymbol[t.Symbol] = h
		}
		h.Name = t.Name
		h.Shares += t.Shares
		h.LastPrice = t.Price
	}

	holdings := make([]models.Holding, 0, len(bySymbol))
	for _, h := range bySymbol {
		holdings = append(holdings, *h)
	}
	sort.Slice(holdings, func(i, j int) bool { return holdings[i].Symbol < holdings[j].Symbol })
	return holdings, nil
}

func (m *Memory) Trade(_ context.Context, userID int64, fn func(TradeTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return ErrUserNotFound
	}

	// Snapshot for rollback: cash is the only mutable field and the ledger
	// only grows, so restoring both undoes every write fn could make.
	prevCash := u.Cash
	prevLen := len(m.txns)
	prevNextID := m.nextTxnID

	if err := fn(&memTradeTx{store: m}); err != nil {
		u.Cash = prevCash
		m.txns = m.txns[:prevLen]
		m.nextTxnID = prevNextID
		return err
	}
	return nil
}

// memTradeTx operates on the store while Trade holds the write lock.
type memTradeTx struct {
	store *Memory
}

func (t *memTradeTx) CashBalance(userID int64) (decimal.Decimal, error) {
	u, ok := t.store.users[userID]
	if !ok {
		return decimal.Zero, ErrUserNotFound
	}
	return u.Cash, nil
}

func (t *memTradeTx) SetCashBalance(userID int64, cash decimal.Decimal) error {
	u, ok := t.store.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.Cash = cash
	return nil
}

func (t *memTradeTx) SharesOwned(userID int64, symbol string) (int64, error) {
	return t.store.sharesOwnedLocked(userID, symbol), nil
}

func (t *memTradeTx) Append(txn models.Transaction) error {
	txn.ID = t.store.nextTxnID
	t.store.nextTxnID++
	t.store.txns = append(t.store.txns, txn)
	return nil
}
