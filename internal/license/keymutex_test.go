package license

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyMutexSerializesSameKey(t *testing.T) {
	km := newKeyMutex()

	const workers = 64
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("QTX-0001")
			counter++
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, counter)
}

func TestKeyMutexIndependentKeys(t *testing.T) {
	km := newKeyMutex()

	unlockA := km.Lock("QTX-A")
	done := make(chan struct{})
	go func() {
		unlockB := km.Lock("QTX-B")
		unlockB()
		close(done)
	}()

	// A held lock on one key must not block another key.
	<-done
	unlockA()
}

func TestKeyMutexReleasesEntries(t *testing.T) {
	km := newKeyMutex()

	unlock := km.Lock("QTX-0001")
	unlock()

	km.mu.Lock()
	defer km.mu.Unlock()
	assert.Empty(t, km.locks)
}
