package kb

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestKeyedLock_ReleasesEntries(t *testing.T) {
	var l keyedLock
	for i := 0; i < 1000; i++ {
		unlock := l.lock(fmt.Sprintf("hash-%d", i))
		unlock()
	}
	if got := l.size(); got != 0 {
		t.Errorf("size() after all unlocks = %d, want 0", got)
	}
}

func TestKeyedLock_SerializesSameKey(t *testing.T) {
	var l keyedLock
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
			unlock := l.lock("same")
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Errorf("holders at once = %d, want 1", maxSeen)
	}
	if got := l.size(); got != 0 {
		t.Errorf("size() after all unlocks = %d, want 0", got)
	}
}

func TestKeyedLock_KeepsEntryWhileWaiting(t *testing.T) {
	var l keyedLock
	unlock := l.lock("a")

	acquired := make(chan func())
	go func() { acquired <- l.lock("a") }()

	// The waiter registers before blocking on the mutex.
	deadline := time.Now().Add(time.Second)
	for {
		l.mu.Lock()
		refs := l.locks["a"].refs
		l.mu.Unlock()
		if refs == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("waiter never registered, refs = %d", refs)
		}
		time.Sleep(time.Millisecond)
	}

	unlock()
	second := <-acquired
	if got := l.size(); got != 1 {
		t.Errorf("size() while held = %d, want 1", got)
	}
	second()
	if got := l.size(); got != 0 {
		t.Errorf("size() after release = %d, want 0", got)
	}
}
