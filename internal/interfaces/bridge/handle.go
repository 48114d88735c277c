package bridge

import (
	"context"
	"sync/atomic"
)

// Handle detaches a watch. Close never waits for the delivery loop, so it is safe to call from a callback.
type Handle struct {
	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool
	done   chan struct{}
}

func newHandle(parent context.Context) *Handle {
	ctx, cancel := context.WithCancel(parent)
	return &Handle{
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Close stops delivery. At most a callback already running completes after Close returns.
func (h *Handle) Close() {
	if h.closed.CompareAndSwap(false, true) {
		h.cancel()
	}
}

// Done is closed when the delivery loop has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

func (h *Handle) isClosed() bool {
	return h.closed.Load()
}

func (h *Handle) finish() {
	h.cancel()
	close(h.done)
}
