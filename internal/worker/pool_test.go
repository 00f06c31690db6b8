package worker

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSubmit_ReturnsError(t *testing.T) {
	p := NewPool(2, zerolog.Nop())
	defer p.Close()

	want := errors.New("boom")
	h := p.Submit("fail", func(ctx context.Context) error { return want })
	if err := h.Wait(); !errors.Is(err, want) {
		t.Errorf("Wait: got %v, want %v", err, want)
	}
	if h.Name() != "fail" {
		t.Errorf("Name: got %q", h.Name())
	}
}

func TestSubmit_Cancel(t *testing.T) {
	p := NewPool(1, zerolog.Nop())
	defer p.Close()

	h := p.Submit("long wait", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Second):
			return nil
		}
	})
	start := time.Now()
	h.Cancel()
	if err := h.Wait(); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait: got %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Errorf("cancel should end the task promptly, took %s", time.Since(start))
	}
}

func TestSubmit_BoundsConcurrency(t *testing.T) {
	p := NewPool(2, zerolog.Nop())
	defer p.Close()

	var running, peak int32
	release := make(chan struct{})
	var handles []*Handle
	for i := 0; i < 5; i++ {
		handles = append(handles, p.Submit("task", func(ctx context.Context) error {
			n := atomic.AddInt32(&running, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
					break
				}
			}
			<-release
			atomic.AddInt32(&running, -1)
			return nil
		}))
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	for _, h := range handles {
		if err := h.Wait(); err != nil {
			t.Errorf("task error: %v", err)
		}
	}
	if peak > 2 {
		t.Errorf("peak concurrency: got %d, want <= 2", peak)
	}
}

func TestSubmit_CancelWhileQueued(t *testing.T) {
	p := NewPool(1, zerolog.Nop())
	defer p.Close()

	block := make(chan struct{})
	started := make(chan struct{})
	first := p.Submit("first", func(ctx context.Context) error {
		close(started)
		<-block
		return nil
	})
	<-started

	ran := false
	second := p.Submit("second", func(ctx context.Context) error { ran = true; return nil })
	second.Cancel()
	if err := second.Wait(); !errors.Is(err, context.Canceled) {
		t.Errorf("queued task: got %v, want context.Canceled", err)
	}
	close(block)
	first.Wait()
	if ran {
		t.Error("cancelled queued task must not run")
	}
}

func TestSubmit_RecoversPanic(t *testing.T) {
	p := NewPool(1, zerolog.Nop())
	defer p.Close()

	h := p.Submit("panicky", func(ctx context.Context) error { panic("oops") })
	err := h.Wait()
	if err == nil || !strings.Contains(err.Error(), "oops") {
		t.Errorf("expected panic error, got %v", err)
	}
	// The slot must be released after a panic.
	if err := p.Submit("after", func(ctx context.Context) error { return nil }).Wait(); err != nil {
		t.Errorf("pool unusable after panic: %v", err)
	}
}

func TestHandle_ErrBeforeDone(t *testing.T) {
	p := NewPool(1, zerolog.Nop())
	defer p.Close()

	block := make(chan struct{})
	h := p.Submit("blocked", func(ctx context.Context) error { <-block; return errors.New("late") })
	if h.Err() != nil {
		t.Error("Err should be nil while running")
	}
	close(block)
	<-h.Done()
	if h.Err() == nil {
		t.Error("Err should report the error once done")
	}
}

func TestClose_CancelsAndRejects(t *testing.T) {
	p := NewPool(1, zerolog.Nop())
	h := p.Submit("waits", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	p.Close()
	if err := h.Err(); !errors.Is(err, context.Canceled) {
		t.Errorf("running task after Close: got %v", err)
	}
	if err := p.Submit("late", func(ctx context.Context) error { return nil }).Wait(); !errors.Is(err, ErrClosed) {
		t.Errorf("Submit after Close: got %v, want ErrClosed", err)
	}
}

func TestGo_Future(t *testing.T) {
	p := NewPool(1, zerolog.Nop())
	defer p.Close()

	f := Go(p, "answer", func(ctx context.Context) (int, error) { return 42, nil })
	v, err := f.Get()
	if err != nil || v != 42 {
		t.Errorf("Get: got %d, %v", v, err)
	}
}
