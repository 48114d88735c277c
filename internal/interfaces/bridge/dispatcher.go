// Package bridge adapts channel subscriptions to the callback and handle style used by runtimes that
// cannot range over Go channels.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/riskibarqy/fpl-datasync/internal/platform/logging"
)

const defaultMaxWorkers = 64

// ErrDispatcherClosed is reported through OnError when a watch is started after Close.
var ErrDispatcherClosed = errors.New("bridge dispatcher closed")

// Source streams a collection: the current value first, then every update until ctx ends.
// Publisher.SubscribeTeams and friends satisfy it as method values.
type Source[T any] func(ctx context.Context) <-chan T

type Callbacks[T any] struct {
	OnValue    func(T)
	OnComplete func()
	OnError    func(error)
}

// Dispatcher runs every delivery loop on a bounded ants pool. Each active watch holds one worker.
type Dispatcher struct {
	pool   *ants.Pool
	logger *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

func NewDispatcher(maxWorkers int, logger *logging.Logger) (*Dispatcher, error) {
	if maxWorkers <= 0 {
		maxWorkers = defaultMaxWorkers
	}
	if logger == nil {
		logger = logging.Default()
	}

	pool, err := ants.NewPool(maxWorkers, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("create bridge worker pool: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		pool:   pool,
		logger: logger.Named("bridge"),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Active reports the number of running delivery loops.
func (d *Dispatcher) Active() int {
	return d.pool.Running()
}

// Close completes every active watch and releases the pool.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
	d.pool.Release()
}

// Watch delivers every value of source to cb.OnValue until the handle is closed.
// OnComplete runs when the source ends on its own or the dispatcher closes; closing the handle is silent.
// A panicking callback or a full pool ends the watch through OnError.
func Watch[T any](d *Dispatcher, source Source[T], cb Callbacks[T]) *Handle {
	return start(d, source, cb, false)
}

// Once delivers the first value of source to fn and detaches.
func Once[T any](d *Dispatcher, source Source[T], fn func(T)) *Handle {
	return start(d, source, Callbacks[T]{OnValue: fn}, true)
}

func start[T any](d *Dispatcher, source Source[T], cb Callbacks[T], once bool) *Handle {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		h := newHandle(context.Background())
		h.finish()
		cb.fail(ErrDispatcherClosed)
		return h
	}
	h := newHandle(d.ctx)
	d.wg.Add(1)
	d.mu.Unlock()

	ch := source(h.ctx)
	err := d.pool.Submit(func() {
		defer d.wg.Done()
		defer h.finish()
		deliver(d.logger, h, ch, cb, once)
	})
	if err != nil {
		d.wg.Done()
		h.Close()
		h.finish()
		d.logger.Warn("watch rejected", "error", err)
		cb.fail(fmt.Errorf("start watch: %w", err))
	}
	return h
}

func deliver[T any](logger *logging.Logger, h *Handle, ch <-chan T, cb Callbacks[T], once bool) {
	defer func() {
		if r := recover(); r != nil {
			h.Close()
			logger.Error("watch callback panicked", "panic", r)
			cb.fail(fmt.Errorf("watch callback panicked: %v", r))
		}
	}()

	for value := range ch {
		if h.isClosed() {
			return
		}
		if cb.OnValue != nil {
			cb.OnValue(value)
		}
		if once {
			h.Close()
			return
		}
	}

	if !h.isClosed() && cb.OnComplete != nil {
		cb.OnComplete()
	}
}

func (cb Callbacks[T]) fail(err error) {
	if cb.OnError != nil {
		cb.OnError(err)
	}
}
