package application

import "sync"

// eventLocks serializes pool-mutating operations per event. Placing a wager
// and settling the same event must not interleave, or pool totals read for
// pricing could go stale before commit. Locks are reference counted so the
// map does not grow with the number of events ever seen.
type eventLocks struct {
	mu    sync.Mutex
	locks map[int64]*eventLock
}

type eventLock struct {
	mu   sync.Mutex
	refs int
}

func newEventLocks() *eventLocks {
	return &eventLocks{locks: make(map[int64]*eventLock)}
}

// Lock acquires the lock for the given event, blocking until available
func (l *eventLocks) Lock(eventID int64) {
	l.mu.Lock()
	entry, ok := l.locks[eventID]
	if !ok {
		entry = &eventLock{}
		l.locks[eventID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
}

// Unlock releases the lock for the given event
func (l *eventLocks) Unlock(eventID int64) {
	l.mu.Lock()
	entry, ok := l.locks[eventID]
	if !ok {
		l.mu.Unlock()
		panic("unlock of unheld event lock")
	}
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, eventID)
	}
	l.mu.Unlock()

	entry.mu.Unlock()
}
