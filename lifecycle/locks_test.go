package lifecycle

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReporterLocksEvictWhenUncontended(t *testing.T) {
	locks := newReporterLocks()

	unlock := locks.lock("r-1")
	assert.Len(t, locks.locks, 1)
	unlock()
	assert.Empty(t, locks.locks, "an uncontended entry is evicted on release")
}

func TestReporterLocksSerializeSameKey(t *testing.T) {
	locks := newReporterLocks()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock("r-1")
			defer unlock()
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen, "the same reporter key must never run concurrently")
	assert.Empty(t, locks.locks, "the map drains once every holder releases")
}

func TestReporterLocksIndependentKeys(t *testing.T) {
	locks := newReporterLocks()

	unlockA := locks.lock("r-1")
	done := make(chan struct{})
	go func() {
		unlockB := locks.lock("r-2")
		unlockB()
		close(done)
	}()
	<-done // r-2 proceeds while r-1 is held
	unlockA()
	assert.Empty(t, locks.locks)
}
