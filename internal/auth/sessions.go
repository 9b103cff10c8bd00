package auth

import (
	"sync"

	"github.com/google/uuid"
)

// Sessions maps opaque tokens to user ids. Tokens are random UUIDs handed
// to the client as a cookie; the mapping lives in memory, so restarting the
// server logs everyone out.
type Sessions struct {
	mu      sync.RWMutex
	byToken map[string]int64
}

// NewSessions creates an empty session store.
func NewSessions() *Sessions {
	return &Sessions{byToken: make(map[string]int64)}
}

// Create issues a new session token for the user.
func (s *Sessions) Create(userID int64) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.byToken[token] = userID
	s.mu.Unlock()
	return token
}

// UserID resolves a token to the logged-in user.
func (s *Sessions) UserID(token string) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.byToken[token]
	return userID, ok
}

// Destroy forgets a session token.
func (s *Sessions) Destroy(token string) {
	s.mu.Lock()
	delete(s.byToken, token)
	s.mu.Unlock()
}
