package lifecycle

import "sync"

// reporterLocks serializes location confirmations per reporter so concurrent
// submissions from the same reporter cannot double-confirm a draft. Entries
// are refcounted and evicted once uncontended, so the map only holds
// reporters with a confirmation in flight.
type reporterLocks struct {
	mu    sync.Mutex
	locks map[string]*reporterLock
}

type reporterLock struct {
	sync.Mutex
	refs int
}

func newReporterLocks() *reporterLocks {
	return &reporterLocks{locks: make(map[string]*reporterLock)}
}

// lock acquires the reporter's mutex and returns its release function.
func (r *reporterLocks) lock(key string) func() {
	r.mu.Lock()
	l, ok := r.locks[key]
	if !ok {
		l = &reporterLock{}
		r.locks[key] = l
	}
	l.refs++
	r.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, key)
		}
		r.mu.Unlock()
	}
}
