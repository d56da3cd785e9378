package coalescer

import (
	"context"
	"fmt"
	"sync"
)

// call is an in-flight operation shared by every caller attached to its key.
// val and err are written once before done is closed and only read after.
type call[V any] struct {
	done chan struct{}
	val  V
	err  error
}

// Coalescer collapses concurrent Do calls sharing a key into a single
// execution of the supplied operation. Safe for concurrent use.
type Coalescer[K comparable, V any] struct {
	mu      sync.Mutex
	flights map[K]*call[V]
}

// New creates an empty coalescer.
func New[K comparable, V any]() *Coalescer[K, V] {
	return &Coalescer[K, V]{
		flights: make(map[K]*call[V]),
	}
}

// Do executes fn for key, or attaches to an in-flight execution if one
// exists. Every caller attached to the same flight receives the identical
// value or error. The flight's bookkeeping is removed before waiters are
// released, so a call issued right after settlement always starts fresh work.
//
// Context cancellation detaches the waiting caller (it receives ctx.Err())
// without interrupting the flight; fn itself is never canceled by the
// coalescer. If fn panics, the panic propagates to the caller that started
// the flight and attached waiters receive an error.
func (c *Coalescer[K, V]) Do(ctx context.Context, key K, fn func() (V, error)) (V, error) {
	c.mu.Lock()
	if fl, ok := c.flights[key]; ok {
		c.mu.Unlock()
		return await(ctx, fl)
	}

	fl := &call[V]{done: make(chan struct{})}
	c.flights[key] = fl
	c.mu.Unlock()

	c.settle(key, fl, fn)
	return fl.val, fl.err
}

// settle runs fn, records the outcome on fl, drops the flight's map entry,
// and releases waiters, in that order.
func (c *Coalescer[K, V]) settle(key K, fl *call[V], fn func() (V, error)) {
	defer func() {
		c.remove(key, fl)
		close(fl.done)
	}()
	defer func() {
		if r := recover(); r != nil {
			fl.err = fmt.Errorf("operation panicked: %v", r)
			panic(r)
		}
	}()

	fl.val, fl.err = fn()
}

// remove deletes the flight's map entry unless a Forget call already cleared
// it and a successor flight took the key.
func (c *Coalescer[K, V]) remove(key K, fl *call[V]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.flights[key]; ok && cur == fl {
		delete(c.flights, key)
	}
}

// await blocks until the flight settles or ctx is done.
func await[V any](ctx context.Context, fl *call[V]) (V, error) {
	select {
	case <-fl.done:
		return fl.val, fl.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// IsPending reports whether an operation is currently in flight for key.
func (c *Coalescer[K, V]) IsPending(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.flights[key]
	return ok
}

// PendingCount returns the number of distinct keys currently in flight.
func (c *Coalescer[K, V]) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.flights)
}

// Forget drops the bookkeeping for key without affecting already-attached
// callers: their flight still settles with its original outcome, while the
// next Do call for key starts new work immediately instead of attaching.
func (c *Coalescer[K, V]) Forget(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.flights, key)
}

// ForgetAll drops the bookkeeping for every in-flight key.
func (c *Coalescer[K, V]) ForgetAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.flights)
}
