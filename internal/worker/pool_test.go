package worker

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPool_PreservesOrderPerKey(t *testing.T) {
	var mu sync.Mutex
	seen := map[int][]int{}

	type item struct{ key, seq int }
	p := NewPool(3, 2, func(it item) {
		// uneven work so lanes interleave
		if it.seq%3 == 0 {
			time.Sleep(time.Millisecond)
		}
		mu.Lock()
		seen[it.key] = append(seen[it.key], it.seq)
		mu.Unlock()
	})

	for seq := 0; seq < 50; seq++ {
		for key := 0; key < 5; key++ {
			p.Submit(key, item{key: key, seq: seq})
		}
	}
	p.Close()

	for key := 0; key < 5; key++ {
		got := seen[key]
		if len(got) != 50 {
			t.Fatalf("key %d: expected 50 items, got %d", key, len(got))
		}
		for i, seq := range got {
			if seq != i {
				t.Fatalf("key %d: out of order at %d: %v", key, i, got)
			}
		}
	}
}

func TestPool_RunsLanesConcurrently(t *testing.T) {
	release := make(chan struct{})
	started := make(chan int, 2)

	p := NewPool(2, 0, func(key int) {
		started <- key
		<-release
	})

	p.Submit(0, 0)
	p.Submit(1, 1)

	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatalf("lanes did not run concurrently")
		}
	}
	close(release)
	p.Close()
}

func TestPool_CloseDrains(t *testing.T) {
	var handled atomic.Int32
	p := NewPool(2, 10, func(int) {
		time.Sleep(time.Millisecond)
		handled.Add(1)
	})

	for i := 0; i < 20; i++ {
		p.Submit(i, i)
	}
	p.Close()
	p.Close()

	if got := handled.Load(); got != 20 {
		t.Fatalf("expected 20 handled after close, got %d", got)
	}
}

func TestPool_NegativeKeyAndDefaults(t *testing.T) {
	var handled atomic.Int32
	p := NewPool(0, -1, func(int) { handled.Add(1) })

	if p.Lanes() != 1 {
		t.Fatalf("expected one lane, got %d", p.Lanes())
	}
	p.Submit(-7, 1)
	p.Close()

	if handled.Load() != 1 {
		t.Fatalf("item with negative key not handled")
	}
}
