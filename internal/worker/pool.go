package worker

import (
	"sync"

	"golang.org/x/sync/errgroup"
)

// Pool runs a handler over a fixed set of lanes. Items submitted with the
// same key land on the same lane and are handled in submission order;
// different lanes run concurrently.
type Pool[T any] struct {
	lanes     []chan T
	group     errgroup.Group
	closeOnce sync.Once
}

func NewPool[T any](lanes, buffer int, handle func(T)) *Pool[T] {
	if lanes < 1 {
		lanes = 1
	}
	if buffer < 0 {
		buffer = 0
	}

	p := &Pool[T]{lanes: make([]chan T, lanes)}
	for i := range p.lanes {
		ch := make(chan T, buffer)
		p.lanes[i] = ch
		p.group.Go(func() error {
			for item := range ch {
				handle(item)
			}
			return nil
		})
	}
	return p
}

// Lanes reports the number of lanes.
func (p *Pool[T]) Lanes() int {
	return len(p.lanes)
}

// Submit blocks while the target lane is full. It must not be called after Close.
func (p *Pool[T]) Submit(key int, item T) {
	p.lanes[p.laneFor(key)] <- item
}

// Close stops accepting work and waits until every submitted item was handled.
func (p *Pool[T]) Close() {
	p.closeOnce.Do(func() {
		for _, ch := range p.lanes {
			close(ch)
		}
	})
	_ = p.group.Wait()
}

func (p *Pool[T]) laneFor(key int) int {
	lane := key % len(p.lanes)
	if lane < 0 {
		lane += len(p.lanes)
	}
	return lane
}
