// Package worker runs protocol episodes and fire-and-forget actions on a
// bounded set of goroutines. Every task gets a handle that can be waited on
// or cancelled.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mj1618/a11y-probe/internal/logging"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// ErrClosed is returned by tasks submitted after Close.
var ErrClosed = errors.New("worker pool closed")

// Pool bounds how many tasks run at once. Tasks beyond the bound wait for a
// slot and can be cancelled while waiting.
type Pool struct {
	sem    *semaphore.Weighted
	ctx    context.Context
	cancel context.CancelFunc
	logger zerolog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewPool returns a pool running at most size tasks concurrently.
func NewPool(size int, logger zerolog.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		sem:    semaphore.NewWeighted(int64(size)),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// Handle tracks one submitted task.
type Handle struct {
	name   string
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Name returns the name the task was submitted with.
func (h *Handle) Name() string { return h.name }

// Done is closed when the task has finished.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Cancel asks the task to stop. It does not wait.
func (h *Handle) Cancel() { h.cancel() }

// Wait blocks until the task finishes and returns its error.
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}

// Err returns the task's error once finished, nil before that.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

// Submit runs fn on the pool. fn must return when its context is done.
// Panics are recovered, logged and reported as the task's error.
func (p *Pool) Submit(name string, fn func(ctx context.Context) error) *Handle {
	ctx, cancel := context.WithCancel(p.ctx)
	h := &Handle{name: name, cancel: cancel, done: make(chan struct{})}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		cancel()
		h.err = ErrClosed
		close(h.done)
		return h
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		defer close(h.done)
		defer cancel()

		if err := p.sem.Acquire(ctx, 1); err != nil {
			h.err = fmt.Errorf("%s: waiting for worker: %w", name, err)
			return
		}
		defer p.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				logging.Panic(p.logger, r, name)
				h.err = fmt.Errorf("%s: panic: %v", name, r)
			}
		}()

		p.logger.Debug().Str("task", name).Msg("task started")
		h.err = fn(ctx)
		if h.err != nil && !errors.Is(h.err, context.Canceled) {
			p.logger.Error().Err(h.err).Str("task", name).Msg("task failed")
		}
	}()
	return h
}

// Close cancels every task and waits for all of them to return.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cancel()
	p.wg.Wait()
}

// Future is a Handle carrying a typed result.
type Future[T any] struct {
	*Handle
	value T
}

// Go submits fn and returns a Future for its result.
func Go[T any](p *Pool, name string, fn func(ctx context.Context) (T, error)) *Future[T] {
	f := &Future[T]{}
	f.Handle = p.Submit(name, func(ctx context.Context) error {
		v, err := fn(ctx)
		f.value = v
		return err
	})
	return f
}

// Get waits for the task and returns its result and error.
func (f *Future[T]) Get() (T, error) {
	err := f.Wait()
	return f.value, err
}
