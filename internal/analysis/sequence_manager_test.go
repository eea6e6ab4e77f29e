package analysis

import (
	"sync"
	"testing"
)

func TestSequenceManager_Next(t *testing.T) {
	sm := NewSequenceManager()

	if current := sm.GetCurrent(); current != 0 {
		t.Errorf("Expected initial current to be 0, got %d", current)
	}
	for want := int64(1); want <= 3; want++ {
		if got := sm.Next(); got != want {
			t.Errorf("Expected ID %d, got %d", want, got)
		}
	}
	if current := sm.GetCurrent(); current != 3 {
		t.Errorf("Expected current to be 3, got %d", current)
	}
}

func TestSequenceManager_ConcurrentWorkers(t *testing.T) {
	sm := NewSequenceManager()
	const workers = 32
	const perWorker = 500

	var mu sync.Mutex
	seen := make(map[int64]bool, workers*perWorker)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids := make([]int64, perWorker)
			for j := range ids {
				ids[j] = sm.Next()
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range ids {
				if seen[id] {
					t.Errorf("Duplicate ID found: %d", id)
				}
				seen[id] = true
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Errorf("Expected %d unique IDs, got %d", workers*perWorker, len(seen))
	}
}
