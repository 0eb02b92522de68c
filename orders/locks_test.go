package orders

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func (l *orderLocks) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func TestOrderLocksSerialiseOneID(t *testing.T) {
	var l orderLocks
	unlock := l.lock("order1")

	entered := make(chan struct{})
	go func() {
		defer l.lock("order1")()
		close(entered)
	}()

	// a different order is not held up
	l.lock("order2")()

	select {
	case <-entered:
		t.Fatal("second holder got in while order1 was locked")
	case <-time.After(50 * time.Millisecond):
	}
	unlock()
	<-entered
}

func TestOrderLocksAreReleased(t *testing.T) {
	var l orderLocks
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer l.lock("order1")()
		}()
	}
	wg.Wait()
	assert.Zero(t, l.held())
}
