package services

import "sync"

// customerLocks serializes writes per customer id. Writes touching the same
// customer must not interleave between reading the balance and appending the
// history row, and the database row lock alone does not cover the history
// ordering.
type customerLocks struct {
	mu    sync.Mutex
	locks map[int64]*customerLock
}

type customerLock struct {
	mu   sync.Mutex
	refs int
}

func newCustomerLocks() *customerLocks {
	return &customerLocks{locks: make(map[int64]*customerLock)}
}

func (l *customerLocks) Lock(id int64) {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &customerLock{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
}

func (l *customerLocks) Unlock(id int64) {
	l.mu.Lock()
	entry := l.locks[id]
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, id)
	}
	l.mu.Unlock()

	entry.mu.Unlock()
}
