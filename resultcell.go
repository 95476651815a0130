package task_go

import (
	"context"
	"sync"
)

// ResultCell is a single-writer, multi-reader value slot shared by a task and
// everyone awaiting its result. Exactly one Set succeeds per cell; any number
// of readers may block on the value and read it repeatedly without consuming
// it. A cell is never reused across runs — re-arming a task installs a fresh
// cell, so read handles obtained before a reset keep returning the old value.
type ResultCell[T any] struct {
	mu    sync.Mutex
	done  chan struct{}
	set   bool
	value T
}

// NewResultCell creates an empty cell.
func NewResultCell[T any]() *ResultCell[T] {
	return &ResultCell[T]{done: make(chan struct{})}
}

// Set publishes value into the cell and wakes every reader. Returns
// ErrResultAlreadySet when the cell was already written in this run.
func (c *ResultCell[T]) Set(value T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.set {
		return ErrResultAlreadySet
	}
	c.value = value
	c.set = true
	close(c.done)
	return nil
}

// Done returns a channel that is closed once the value has been published.
// Use it to select on the cell alongside other channels.
func (c *ResultCell[T]) Done() <-chan struct{} {
	return c.done
}

// Get blocks until the value is published and returns it. Safe to call from
// any number of goroutines; the value is immutable after publication.
func (c *ResultCell[T]) Get() T {
	<-c.done
	return c.value
}

// GetContext blocks until the value is published or ctx fires, whichever
// happens first.
func (c *ResultCell[T]) GetContext(ctx context.Context) (T, error) {
	select {
	case <-c.done:
		return c.value, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// TryGet returns the value and true when it has been published, or the zero
// value and false otherwise. It never blocks.
func (c *ResultCell[T]) TryGet() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.set {
		var zero T
		return zero, false
	}
	return c.value, true
}
