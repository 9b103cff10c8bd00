package portfolio

import (
	"sync"
)

// userLocks serializes trades per user. Operations on different users are
// independent and proceed in parallel; only same-user trades queue.
type userLocks struct {
	locks    map[int64]*sync.Mutex // Map of user id → mutex
	mapMutex sync.RWMutex          // Protects the map itself
}

func newUserLocks() *userLocks {
	return &userLocks{
		locks: make(map[int64]*sync.Mutex),
	}
}

// Lock locks the trading state for a specific user.
func (ul *userLocks) Lock(userID int64) {
	// First, get or create the mutex for this user
	ul.mapMutex.Lock()

	if ul.locks[userID] == nil {
		ul.locks[userID] = &sync.Mutex{}
	}

	userMutex := ul.locks[userID]
	ul.mapMutex.Unlock()

	// Now lock that user's mutex
	userMutex.Lock()
}

// Unlock unlocks the trading state for a specific user.
func (ul *userLocks) Unlock(userID int64) {
	ul.mapMutex.RLock()
	userMutex := ul.locks[userID]
	ul.mapMutex.RUnlock()

	if userMutex != nil {
		userMutex.Unlock()
	}
}
