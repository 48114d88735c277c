package resilience

import (
	"context"
	"fmt"
	"sync"
)

// SingleFlight deduplicates concurrent calls for the same key. Callers that arrive while a call is
// running share its result.
type SingleFlight[T any] struct {
	mu    sync.Mutex
	calls map[string]*call[T]
}

type call[T any] struct {
	done chan struct{}
	val  T
	err  error

	// waiters counts callers still waiting; a DoContext run is cancelled when it drops to zero.
	waiters int
	cancel  context.CancelFunc
}

// Do runs fn once per key at a time. shared reports whether the result came from another caller's run.
func (g *SingleFlight[T]) Do(key string, fn func() (T, error)) (val T, err error, shared bool) {
	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[string]*call[T])
	}

	if c, ok := g.calls[key]; ok && !c.abandoned() {
		c.waiters++
		g.mu.Unlock()
		<-c.done
		return c.val, c.err, true
	}

	c := &call[T]{done: make(chan struct{}), waiters: 1}
	g.calls[key] = c
	g.mu.Unlock()

	defer g.finish(key, c)

	c.val, c.err = fn()
	return c.val, c.err, false
}

// DoContext is Do for cancellable work. fn gets a context that keeps the first caller's values but
// not its cancellation, and is cancelled once every waiting caller has returned. A caller whose ctx
// ends returns ctx.Err() without waiting for the run.
func (g *SingleFlight[T]) DoContext(ctx context.Context, key string, fn func(context.Context) (T, error)) (val T, err error, shared bool) {
	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[string]*call[T])
	}

	c, shared := g.calls[key]
	if shared && !c.abandoned() {
		c.waiters++
	} else {
		shared = false
		runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		c = &call[T]{done: make(chan struct{}), waiters: 1, cancel: cancel}
		g.calls[key] = c
		go g.run(runCtx, key, c, fn)
	}
	g.mu.Unlock()

	select {
	case <-c.done:
		return c.val, c.err, shared
	case <-ctx.Done():
		g.mu.Lock()
		c.waiters--
		if c.abandoned() && c.cancel != nil {
			c.cancel()
		}
		g.mu.Unlock()
		var zero T
		return zero, ctx.Err(), shared
	}
}

func (g *SingleFlight[T]) run(ctx context.Context, key string, c *call[T], fn func(context.Context) (T, error)) {
	defer g.finish(key, c)
	defer func() {
		if r := recover(); r != nil {
			c.err = fmt.Errorf("singleflight %s: panic: %v", key, r)
		}
	}()

	c.val, c.err = fn(ctx)
}

func (g *SingleFlight[T]) finish(key string, c *call[T]) {
	g.mu.Lock()
	if g.calls[key] == c {
		delete(g.calls, key)
	}
	g.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	close(c.done)
}

// abandoned reports whether every caller has stopped waiting. Must be called with g.mu held.
func (c *call[T]) abandoned() bool {
	return c.waiters <= 0
}

// InFlight reports whether a call for key is running.
func (g *SingleFlight[T]) InFlight(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.calls[key]
	return ok && !c.abandoned()
}
