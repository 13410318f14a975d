package services

import (
	"strconv"
	"sync"
	"testing"
	"time"
)

func TestIDAllocator_SameMillisecondStillIncreases(t *testing.T) {
	ts := time.UnixMilli(1_700_000_000_000)
	a := &IDAllocator{now: fixedClock(ts)}

	got := []string{a.Next(), a.Next(), a.Next()}
	want := []string{"1700000000000", "1700000000001", "1700000000002"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("id %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestIDAllocator_ClockStepsBack(t *testing.T) {
	now := time.UnixMilli(2_000)
	a := &IDAllocator{now: func() time.Time { return now }}
	first := a.Next()
	now = time.UnixMilli(1_000)
	second := a.Next()
	if second != "2001" || first != "2000" {
		t.Fatalf("expected 2000 then 2001, got %s then %s", first, second)
	}
}

func TestIDAllocator_ConcurrentUnique(t *testing.T) {
	a := NewIDAllocator()
	const n = 200
	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, n)
		wg   sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := a.Next()
			if _, err := strconv.ParseInt(id, 10, 64); err != nil {
				t.Errorf("id %q is not decimal", id)
			}
			mu.Lock()
			seen[id] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()
	if len(seen) != n {
		t.Fatalf("expected %d unique ids, got %d", n, len(seen))
	}
}
