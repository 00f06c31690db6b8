// Package eventbus is the single shared point between the platform's event
// delivery goroutine and the wait protocols running on workers.
package eventbus

import (
	"sync"
	"time"

	"github.com/mj1618/a11y-probe/internal/model"
)

// Bus buffers UI events while a capture episode is recording and tracks the
// time of the most recent event regardless of recording state.
//
// All critical sections only touch memory, so Record never blocks the
// delivery goroutine for longer than a slice append.
type Bus struct {
	mu        sync.Mutex
	recording bool
	pending   []model.Event
	lastEvent time.Time
	changed   chan struct{}
}

// New returns an idle bus.
func New() *Bus {
	return &Bus{changed: make(chan struct{})}
}

// Record is the single ingress point for UI events. It is safe to call from
// any goroutine.
func (b *Bus) Record(ev model.Event) {
	b.mu.Lock()
	if ev.Time.After(b.lastEvent) {
		b.lastEvent = ev.Time
	}
	if b.recording {
		b.pending = append(b.pending, ev)
	}
	b.broadcastLocked()
	b.mu.Unlock()
}

// BeginRecording clears any pending events and starts buffering.
func (b *Bus) BeginRecording() {
	b.mu.Lock()
	b.pending = nil
	b.recording = true
	b.mu.Unlock()
}

// EndRecording stops buffering and drops whatever was not drained.
func (b *Bus) EndRecording() {
	b.mu.Lock()
	b.recording = false
	b.pending = nil
	b.broadcastLocked()
	b.mu.Unlock()
}

// Drain removes and returns all pending events in arrival order. It returns
// nil when nothing is pending.
func (b *Bus) Drain() []model.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pending) == 0 {
		return nil
	}
	out := b.pending
	b.pending = nil
	return out
}

// Changed returns a channel that is closed by the next Record or
// EndRecording. Waiters must take the channel before draining, then re-check
// their own deadlines after every wake.
func (b *Bus) Changed() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.changed
}

// LastEventTime returns the time of the latest event seen, or the zero time.
func (b *Bus) LastEventTime() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastEvent
}

// SeedLastEventTime sets the last event time only if no event was ever seen,
// so the idle watchdog has a baseline.
func (b *Bus) SeedLastEventTime(t time.Time) {
	b.mu.Lock()
	if b.lastEvent.IsZero() {
		b.lastEvent = t
	}
	b.mu.Unlock()
}

// Recording reports whether an episode is currently buffering events.
func (b *Bus) Recording() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.recording
}

// Pending returns the number of buffered events.
func (b *Bus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

func (b *Bus) broadcastLocked() {
	close(b.changed)
	b.changed = make(chan struct{})
}
