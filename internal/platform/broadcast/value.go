// Package broadcast provides a latest-value broadcast primitive.
//
// A Value always holds a current value. Subscribers receive the current value as soon as they
// subscribe and then every later value in publication order. A subscriber that falls behind skips
// intermediate values and receives the newest one, so Publish never waits for subscribers.
package broadcast

import (
	"context"
	"sync"
	"sync/atomic"
)

type Value[T any] struct {
	mu      sync.Mutex
	current T
	version uint64
	changed chan struct{}
	done    chan struct{}
	closed  bool
	err     error

	subscribers atomic.Int64
}

func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		current: initial,
		changed: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Publish replaces the current value. It reports false when the value was already closed.
func (v *Value[T]) Publish(value T) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return false
	}
	v.current = value
	v.version++
	close(v.changed)
	v.changed = make(chan struct{})
	return true
}

// Load returns the current value.
func (v *Value[T]) Load() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Version counts the values published so far; the initial value is version 0.
func (v *Value[T]) Version() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.version
}

// Close completes every subscription after its pending value is delivered.
// A non-nil err is reported by Err to subscribers that need to tell failure from completion.
func (v *Value[T]) Close(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return
	}
	v.closed = true
	v.err = err
	close(v.changed)
	close(v.done)
}

// Done is closed once Close has been called.
func (v *Value[T]) Done() <-chan struct{} {
	return v.done
}

// Err returns the error passed to Close.
func (v *Value[T]) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// Subscribers reports the number of active subscriptions.
func (v *Value[T]) Subscribers() int {
	return int(v.subscribers.Load())
}

// Once calls fn with the current value.
func (v *Value[T]) Once(fn func(T)) {
	if fn == nil {
		return
	}
	fn(v.Load())
}

// Subscribe streams the current value and every later one until ctx is cancelled or the value is closed.
// The returned channel is closed when the subscription ends.
func (v *Value[T]) Subscribe(ctx context.Context) <-chan T {
	out := make(chan T)
	v.subscribers.Add(1)
	go func() {
		defer v.subscribers.Add(-1)
		defer close(out)
		v.deliver(ctx, out)
	}()
	return out
}

func (v *Value[T]) snapshot() (T, uint64, <-chan struct{}, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current, v.version, v.changed, v.closed
}

func (v *Value[T]) deliver(ctx context.Context, out chan<- T) {
	var delivered uint64
	pending := true

	for {
		value, version, changed, closed := v.snapshot()
		if pending || version != delivered {
			// A closed value never changes again; waiting on its closed channel would spin.
			wake := changed
			if closed {
				wake = nil
			}
			select {
			case out <- value:
				pending = false
				delivered = version
			case <-wake:
			case <-ctx.Done():
				return
			}
			continue
		}

		if closed {
			return
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return
		}
	}
}

// Map applies fn to every value received from in. The returned channel closes when in closes or ctx ends.
func Map[T, U any](ctx context.Context, in <-chan T, fn func(T) U) <-chan U {
	out := make(chan U)
	go func() {
		defer close(out)
		for {
			select {
			case value, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- fn(value):
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
