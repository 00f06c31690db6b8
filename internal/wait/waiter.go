// Package wait runs the event-synchronized wait protocols: trigger an
// action, watch the event bus for a structural UI change, and capture the
// screen when something unexpected happens.
package wait

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mj1618/a11y-probe/internal/eventbus"
	"github.com/mj1618/a11y-probe/internal/model"
	"github.com/mj1618/a11y-probe/internal/platform"
	"github.com/rs/zerolog"
)

// Capturer writes artifacts for a capture id.
type Capturer interface {
	DumpTree(ctx context.Context, id string) (string, error)
	Screenshot(ctx context.Context, id string) (string, error)
}

// Timing bounds the wait loops.
type Timing struct {
	TransitionTimeout time.Duration
	IdleThreshold     time.Duration
	IdleTimeout       time.Duration
	PollInterval      time.Duration
}

// DefaultTiming returns the standard bounds.
func DefaultTiming() Timing {
	return Timing{
		TransitionTimeout: 3 * time.Second,
		IdleThreshold:     time.Second,
		IdleTimeout:       10 * time.Second,
		PollInterval:      20 * time.Millisecond,
	}
}

// Options configures a Waiter.
type Options struct {
	Bus      *eventbus.Bus
	Gestures platform.GestureDispatcher
	Tree     platform.TreeProvider
	Actions  platform.ActionPerformer
	Sink     Capturer
	Timing   Timing
	Clock    func() time.Time
	Logger   zerolog.Logger
}

// Waiter runs wait episodes against one bus. Episodes that record events
// must not overlap; the caller serializes them.
type Waiter struct {
	opts   Options
	now    func() time.Time
	logger zerolog.Logger

	mu     sync.RWMutex
	timing Timing
}

// New returns a Waiter. A nil bus is a programming error.
func New(opts Options) *Waiter {
	if opts.Bus == nil {
		panic("wait: nil event bus")
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	if opts.Timing == (Timing{}) {
		opts.Timing = DefaultTiming()
	}
	return &Waiter{opts: opts, now: now, logger: opts.Logger, timing: opts.Timing}
}

// SetTiming replaces the bounds used by episodes started afterwards.
func (w *Waiter) SetTiming(t Timing) {
	w.mu.Lock()
	w.timing = t
	w.mu.Unlock()
}

// Timing returns the current bounds.
func (w *Waiter) Timing() Timing {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.timing
}

// GestureLogger returns a completion callback that logs the gesture's
// status code once it finishes.
func (w *Waiter) GestureLogger(id string) func(platform.GestureStatus) {
	return func(st platform.GestureStatus) {
		w.logger.Info().Str("id", id).Int("code", st.Code()).Msgf("SWIPE %d", st.Code())
	}
}

// SwipeWaitCapture dispatches path, then waits for a transition event or the
// transition timeout. Either one is an anomaly and captures the tree and a
// screenshot under id.
func (w *Waiter) SwipeWaitCapture(ctx context.Context, path model.GesturePath, id string) Result {
	res := Result{ID: id, Action: "swipe"}
	w.logger.Info().Str("id", id).Msg("start to swipe and wait")
	return w.run(ctx, &res, func(ctx context.Context) error {
		return w.opts.Gestures.Dispatch(ctx, path, w.GestureLogger(id))
	})
}

// ClickWaitCapture clicks the node holding accessibility focus and then
// waits like SwipeWaitCapture. A missing focus is logged and the wait still
// runs.
func (w *Waiter) ClickWaitCapture(ctx context.Context, long bool, id string) Result {
	res := Result{ID: id, Action: clickName(long)}
	w.logger.Info().Str("id", id).Msgf("start to %s and wait", res.Action)
	return w.run(ctx, &res, func(ctx context.Context) error {
		ok, err := w.ClickFocused(ctx, long, id)
		res.ActionOK = &ok
		return err
	})
}

// ClickFocused performs a click or long click on the accessibility-focused
// node and logs the raw result. ok is false when nothing is focused.
func (w *Waiter) ClickFocused(ctx context.Context, long bool, id string) (bool, error) {
	node, found, err := w.opts.Tree.AccessibilityFocus(ctx)
	if err != nil {
		return false, fmt.Errorf("find focus: %w", err)
	}
	if !found {
		w.logger.Warn().Str("id", id).Msg("no focused node to click")
		return false, nil
	}
	action := platform.ActionClick
	if long {
		action = platform.ActionLongClick
	}
	ok, err := w.opts.Actions.PerformAction(ctx, node.Ref, action)
	if err != nil {
		return false, fmt.Errorf("%s %s: %w", action, node.Label(), err)
	}
	w.logger.Info().Str("id", id).Str("node", node.Label()).Bool("res", ok).Msgf("%s result", action)
	return ok, nil
}

func clickName(long bool) string {
	if long {
		return "long_click"
	}
	return "click"
}

func (w *Waiter) run(ctx context.Context, res *Result, trigger func(context.Context) error) Result {
	timing := w.Timing()
	bus := w.opts.Bus
	bus.BeginRecording()
	defer bus.EndRecording()

	if err := trigger(ctx); err != nil {
		res.Started = w.now()
		res.fail(err)
		if ctx.Err() != nil {
			res.Outcome = OutcomeCancelled
			res.Cause = "cancelled before trigger completed"
			w.logger.Info().Str("id", res.ID).Msg(res.Cause)
			return *res
		}
		res.Outcome = OutcomeFailed
		res.Cause = res.Action + " failed"
		w.logger.Error().Err(err).Str("id", res.ID).Msg(res.Cause)
		w.capture(ctx, res)
		return *res
	}

	start := w.now()
	res.Started = start
	w.poll(ctx, start, timing, res)
	res.Elapsed = w.now().Sub(start)

	if res.Outcome == OutcomeCancelled {
		w.logger.Info().Str("id", res.ID).Dur("elapsed", res.Elapsed).Msg("wait cancelled")
		return *res
	}
	w.logger.Warn().
		Str("id", res.ID).
		Str("outcome", res.Outcome.String()).
		Str("cause", res.Cause).
		Strs("received", res.Received).
		Msgf("%s exception", res.Action)
	w.capture(ctx, res)
	return *res
}

// poll drains the bus until a transition arrives, the timeout passes or ctx
// is done. Events stamped before start belong to an earlier action.
func (w *Waiter) poll(ctx context.Context, start time.Time, timing Timing, res *Result) {
	bus := w.opts.Bus
	timer := time.NewTimer(timing.PollInterval)
	defer timer.Stop()

	for {
		changed := bus.Changed()
		for _, ev := range bus.Drain() {
			res.Received = append(res.Received, ev.TypeName())
			if ev.Time.Before(start) {
				res.Stale++
				continue
			}
			if ev.Kind.IsTransition() {
				res.Outcome = OutcomeTransition
				res.Cause = "window transition observed: " + ev.TypeName()
				return
			}
		}
		if past := w.now().Sub(start); past > timing.TransitionTimeout {
			res.Outcome = OutcomeTimeout
			res.Cause = fmt.Sprintf("event not received, timed out after %s", past.Round(time.Millisecond))
			return
		}

		timer.Reset(timing.PollInterval)
		select {
		case <-ctx.Done():
			res.Outcome = OutcomeCancelled
			res.Cause = ctx.Err().Error()
			return
		case <-changed:
		case <-timer.C:
		}
	}
}

// capture dumps the tree and then takes a screenshot. Failures are logged
// but never abort the episode.
func (w *Waiter) capture(ctx context.Context, res *Result) {
	if w.opts.Sink == nil {
		return
	}
	if path, err := w.opts.Sink.DumpTree(ctx, res.ID); err != nil {
		w.logger.Error().Err(err).Str("id", res.ID).Msg("tree dump failed")
	} else {
		res.Artifacts = append(res.Artifacts, path)
	}
	if path, err := w.opts.Sink.Screenshot(ctx, res.ID); err != nil {
		w.logger.Error().Err(err).Str("id", res.ID).Msg("screenshot failed")
	} else {
		res.Artifacts = append(res.Artifacts, path)
	}
}

// CaptureWhenIdle waits until no event has arrived for the idle threshold,
// or the idle timeout passes, then takes a screenshot under id. It does not
// touch the event queue.
func (w *Waiter) CaptureWhenIdle(ctx context.Context, id string) IdleResult {
	timing := w.Timing()
	bus := w.opts.Bus
	res := IdleResult{ID: id}
	w.logger.Info().Str("id", id).Msg("start to wait for idle")

	start := w.now()
	bus.SeedLastEventTime(start)

	ticker := time.NewTicker(timing.PollInterval)
	defer ticker.Stop()

	for {
		now := w.now()
		res.Elapsed = now.Sub(start)
		res.Quiet = now.Sub(bus.LastEventTime())
		if res.Elapsed > timing.IdleTimeout {
			res.Outcome = IdleTimedOut
			break
		}
		if res.Quiet > timing.IdleThreshold {
			res.Outcome = IdleObserved
			break
		}
		select {
		case <-ctx.Done():
			res.Outcome = IdleCancelled
			res.Err = ctx.Err()
			res.Error = res.Err.Error()
			w.logger.Info().Str("id", id).Msg("idle wait cancelled")
			return res
		case <-ticker.C:
		}
	}

	ev := w.logger.Info()
	if res.Outcome == IdleTimedOut {
		ev = w.logger.Warn()
	}
	ev.Str("id", id).Dur("elapsed", res.Elapsed).Dur("quiet", res.Quiet).Msgf("idle %s", res.Outcome)

	if w.opts.Sink != nil {
		path, err := w.opts.Sink.Screenshot(ctx, id)
		if err != nil {
			res.Err = err
			res.Error = err.Error()
			w.logger.Error().Err(err).Str("id", id).Msg("screenshot failed")
		} else {
			res.Artifact = path
		}
	}
	return res
}
