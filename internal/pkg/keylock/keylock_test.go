package keylock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockerSerializesSameKey(t *testing.T) {
	l := New()

	var (
		wg      sync.WaitGroup
		inside  int
		maxSeen int
		mu      sync.Mutex
	)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("court-1|2026-02-08")
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

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, l.Len(), "idle keys must be released")
}

func TestLockerIndependentKeys(t *testing.T) {
	l := New()

	unlockA := l.Lock("a")
	done := make(chan struct{})
	go func() {
		unlockB := l.Lock("b")
		unlockB()
		close(done)
	}()
	<-done

	assert.Equal(t, 1, l.Len())
	unlockA()
	unlockA()
	assert.Equal(t, 0, l.Len())
}
