package gochan

import (
	"context"
	"sync"
)

// TaskHandle is a completion handle for one submitted task: it resolves
// exactly once, with either a value or an error.
type TaskHandle interface {
	// Result blocks until the task completes or ctx is cancelled.
	Result(ctx context.Context) (any, error)
}

// WaitGroup aggregates a dynamic set of outstanding TaskHandles and
// resolves once every one of them has completed, or rejects with the first
// failure observed.
type WaitGroup struct {
	mu      sync.Mutex
	handles []TaskHandle
	pending int
}

// NewWaitGroup returns an empty, immediately reusable WaitGroup.
func NewWaitGroup() *WaitGroup {
	return &WaitGroup{}
}

// Add appends a completion handle and increments the unfinished counter.
func (g *WaitGroup) Add(handle TaskHandle) {
	g.mu.Lock()
	g.handles = append(g.handles, handle)
	g.pending++
	g.mu.Unlock()
}

// Count returns the current unfinished count. It is advisory: a concurrent
// Add or Wait may change it immediately after it is read.
func (g *WaitGroup) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending
}

// Wait blocks until every added handle has resolved, returning their
// results in addition order, or returns the first error observed across
// them. After Wait returns (successfully or not) the group is empty and
// can be reused.
func (g *WaitGroup) Wait(ctx context.Context) ([]any, error) {
	g.mu.Lock()
	handles := g.handles
	g.handles = nil
	g.pending = 0
	g.mu.Unlock()

	type outcome struct {
		index int
		value any
		err   error
	}

	results := make([]any, len(handles))
	outcomes := make(chan outcome, len(handles))

	for i, h := range handles {
		go func(i int, h TaskHandle) {
			v, err := h.Result(ctx)
			outcomes <- outcome{index: i, value: v, err: err}
		}(i, h)
	}

	var firstErr error
	for range handles {
		o := <-outcomes
		if o.err != nil && firstErr == nil {
			firstErr = o.err
			continue
		}
		results[o.index] = o.value
	}

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}
