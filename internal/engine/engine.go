// Package engine is the entry point for every operation: it owns the event
// bus, wires it to the platform's event source and runs each request on the
// worker pool.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mj1618/a11y-probe/internal/eventbus"
	"github.com/mj1618/a11y-probe/internal/model"
	"github.com/mj1618/a11y-probe/internal/navigate"
	"github.com/mj1618/a11y-probe/internal/platform"
	"github.com/mj1618/a11y-probe/internal/store"
	"github.com/mj1618/a11y-probe/internal/wait"
	"github.com/mj1618/a11y-probe/internal/worker"
	"github.com/rs/zerolog"
)

// Ledger records finished episodes.
type Ledger interface {
	Add(ctx context.Context, ep store.Episode) error
}

// Options configures an Engine.
type Options struct {
	Provider *platform.Provider
	Sink     wait.Capturer
	Ledger   Ledger // optional
	Timing   wait.Timing
	Gesture  model.GestureBounds
	Workers  int
	Clock    func() time.Time
	Logger   zerolog.Logger
}

// Engine runs operations against one device.
type Engine struct {
	bus      *eventbus.Bus
	provider *platform.Provider
	sink     wait.Capturer
	ledger   Ledger
	waiter   *wait.Waiter
	nav      *navigate.Navigator
	pool     *worker.Pool
	now      func() time.Time
	logger   zerolog.Logger

	// episode admits one recording episode at a time.
	episode chan struct{}

	mu      sync.RWMutex
	gesture model.GestureBounds
}

// Artifact is the file written by a direct capture.
type Artifact struct {
	ID   string `json:"id"   yaml:"id"`
	Path string `json:"path" yaml:"path"`
}

// New builds an engine and subscribes its bus to the provider's events.
func New(opts Options) (*Engine, error) {
	p := opts.Provider
	if p == nil || p.Tree == nil || p.Gestures == nil || p.Actions == nil || p.Events == nil {
		return nil, errors.New("engine: provider is missing tree, gesture, action or event backends")
	}
	if opts.Sink == nil {
		return nil, errors.New("engine: capture sink is required")
	}
	if opts.Gesture == (model.GestureBounds{}) {
		opts.Gesture = model.DefaultGestureBounds
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	bus := eventbus.New()
	e := &Engine{
		bus:      bus,
		provider: p,
		sink:     opts.Sink,
		ledger:   opts.Ledger,
		now:      now,
		logger:   opts.Logger,
		episode:  make(chan struct{}, 1),
		gesture:  opts.Gesture,
		pool:     worker.NewPool(opts.Workers, opts.Logger.With().Str("component", "pool").Logger()),
		waiter: wait.New(wait.Options{
			Bus:      bus,
			Gestures: p.Gestures,
			Tree:     p.Tree,
			Actions:  p.Actions,
			Sink:     opts.Sink,
			Timing:   opts.Timing,
			Clock:    opts.Clock,
			Logger:   opts.Logger.With().Str("component", "wait").Logger(),
		}),
		nav: navigate.New(navigate.Options{
			Tree:    p.Tree,
			Actions: p.Actions,
			Logger:  opts.Logger.With().Str("component", "navigate").Logger(),
		}),
	}
	p.Events.SetListener(bus.Record)
	return e, nil
}

// Bus returns the engine's event bus.
func (e *Engine) Bus() *eventbus.Bus { return e.bus }

// Timing returns the wait bounds in effect.
func (e *Engine) Timing() wait.Timing { return e.waiter.Timing() }

// SetTiming applies new wait bounds to episodes started afterwards.
func (e *Engine) SetTiming(t wait.Timing) {
	e.waiter.SetTiming(t)
	e.logger.Info().
		Dur("transition_timeout", t.TransitionTimeout).
		Dur("idle_threshold", t.IdleThreshold).
		Dur("idle_timeout", t.IdleTimeout).
		Msg("timing updated")
}

// SetGestureBounds changes the coordinate box swipes are built from.
func (e *Engine) SetGestureBounds(b model.GestureBounds) {
	e.mu.Lock()
	e.gesture = b
	e.mu.Unlock()
}

func (e *Engine) swipePath(dir model.Direction) model.GesturePath {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return model.NewSwipePath(dir, e.gesture)
}

// Close cancels running tasks and waits for them.
func (e *Engine) Close() {
	e.pool.Close()
}

// NewID returns id, or a fresh random id when id is empty.
func NewID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

// acquireEpisode blocks until no other recording episode runs.
func (e *Engine) acquireEpisode(ctx context.Context) error {
	select {
	case e.episode <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) releaseEpisode() { <-e.episode }

// SwipeWaitCapture swipes in dir and captures under id if a transition or
// timeout ends the wait.
func (e *Engine) SwipeWaitCapture(dir model.Direction, id string) *worker.Future[wait.Result] {
	id = NewID(id)
	path := e.swipePath(dir)
	return worker.Go(e.pool, "swipe-wait "+id, func(ctx context.Context) (wait.Result, error) {
		if err := e.acquireEpisode(ctx); err != nil {
			return e.cancelled(id, "swipe", dir.String(), err), err
		}
		defer e.releaseEpisode()
		res := e.waiter.SwipeWaitCapture(ctx, path, id)
		e.recordResult(ctx, res, dir.String())
		return res, nil
	})
}

// ClickWaitCapture clicks the focused node and captures under id if a
// transition or timeout ends the wait.
func (e *Engine) ClickWaitCapture(long bool, id string) *worker.Future[wait.Result] {
	id = NewID(id)
	return worker.Go(e.pool, "click-wait "+id, func(ctx context.Context) (wait.Result, error) {
		if err := e.acquireEpisode(ctx); err != nil {
			return e.cancelled(id, clickAction(long), "", err), err
		}
		defer e.releaseEpisode()
		res := e.waiter.ClickWaitCapture(ctx, long, id)
		e.recordResult(ctx, res, "")
		return res, nil
	})
}

// Swipe dispatches a swipe without waiting for UI events.
func (e *Engine) Swipe(dir model.Direction, id string) *worker.Future[wait.Result] {
	id = NewID(id)
	path := e.swipePath(dir)
	return worker.Go(e.pool, "swipe "+id, func(ctx context.Context) (wait.Result, error) {
		res := wait.Result{ID: id, Action: "swipe", Started: e.now()}
		err := e.provider.Gestures.Dispatch(ctx, path, e.waiter.GestureLogger(id))
		res.Elapsed = e.now().Sub(res.Started)
		if err != nil {
			res.Outcome = wait.OutcomeFailed
			res.Err, res.Error = err, err.Error()
		}
		e.recordResult(ctx, res, dir.String())
		return res, err
	})
}

// Click clicks the focused node without waiting for UI events.
func (e *Engine) Click(long bool, id string) *worker.Future[wait.Result] {
	id = NewID(id)
	return worker.Go(e.pool, "click "+id, func(ctx context.Context) (wait.Result, error) {
		res := wait.Result{ID: id, Action: clickAction(long), Started: e.now()}
		ok, err := e.waiter.ClickFocused(ctx, long, id)
		res.Elapsed = e.now().Sub(res.Started)
		res.ActionOK = &ok
		if err != nil {
			res.Outcome = wait.OutcomeFailed
			res.Err, res.Error = err, err.Error()
		}
		e.recordResult(ctx, res, "")
		return res, err
	})
}

// CaptureWhenIdle takes a screenshot once the UI has been quiet for the idle
// threshold, or when the idle timeout passes.
func (e *Engine) CaptureWhenIdle(id string) *worker.Future[wait.IdleResult] {
	id = NewID(id)
	return worker.Go(e.pool, "idle "+id, func(ctx context.Context) (wait.IdleResult, error) {
		started := e.now()
		res := e.waiter.CaptureWhenIdle(ctx, id)
		ep := store.Episode{
			ID:      id,
			Kind:    "idle",
			Outcome: res.Outcome.String(),
			Error:   res.Error,
			Started: started,
			Elapsed: res.Elapsed,
		}
		if res.Artifact != "" {
			ep.Artifacts = []string{res.Artifact}
		}
		e.record(ctx, ep)
		return res, nil
	})
}

// Focus moves accessibility focus to the next node matching sel.
func (e *Engine) Focus(sel navigate.Selection, dir navigate.Direction) *worker.Future[navigate.Result] {
	return worker.Go(e.pool, "focus "+sel.String(), func(ctx context.Context) (navigate.Result, error) {
		return e.nav.Focus(ctx, sel, dir)
	})
}

// Tree reads the current node tree without writing it anywhere.
func (e *Engine) Tree() *worker.Future[*model.Node] {
	return worker.Go(e.pool, "tree", func(ctx context.Context) (*model.Node, error) {
		root, err := e.provider.Tree.Root(ctx)
		if err != nil {
			return nil, fmt.Errorf("read tree: %w", err)
		}
		return root, nil
	})
}

// DumpTree writes the tree under id.
func (e *Engine) DumpTree(id string) *worker.Future[Artifact] {
	id = NewID(id)
	return worker.Go(e.pool, "dump "+id, func(ctx context.Context) (Artifact, error) {
		started := e.now()
		path, err := e.sink.DumpTree(ctx, id)
		e.recordCapture(ctx, id, "dump", started, path, err)
		return Artifact{ID: id, Path: path}, err
	})
}

// Screenshot writes a screenshot under id.
func (e *Engine) Screenshot(id string) *worker.Future[Artifact] {
	id = NewID(id)
	return worker.Go(e.pool, "screenshot "+id, func(ctx context.Context) (Artifact, error) {
		started := e.now()
		path, err := e.sink.Screenshot(ctx, id)
		e.recordCapture(ctx, id, "screenshot", started, path, err)
		return Artifact{ID: id, Path: path}, err
	})
}

// Announce speaks text through the screen reader.
func (e *Engine) Announce(text string) *worker.Handle {
	return e.pool.Submit("announce", func(ctx context.Context) error {
		if e.provider.Announcer == nil {
			return fmt.Errorf("announce: %w", platform.ErrUnsupported)
		}
		if err := e.provider.Announcer.Announce(ctx, text); err != nil {
			return fmt.Errorf("announce: %w", err)
		}
		e.logger.Info().Str("text", text).Msg("announced")
		return nil
	})
}

func clickAction(long bool) string {
	if long {
		return "long_click"
	}
	return "click"
}

func (e *Engine) cancelled(id, action, detail string, err error) wait.Result {
	res := wait.Result{ID: id, Action: action, Outcome: wait.OutcomeCancelled, Started: e.now(), Cause: "cancelled while waiting for a running episode"}
	res.Err, res.Error = err, err.Error()
	e.recordResult(context.Background(), res, detail)
	return res
}

func (e *Engine) recordResult(ctx context.Context, res wait.Result, detail string) {
	e.record(ctx, store.Episode{
		ID:        res.ID,
		Kind:      res.Action,
		Detail:    detail,
		Outcome:   res.Outcome.String(),
		Cause:     res.Cause,
		Error:     res.Error,
		Started:   res.Started,
		Elapsed:   res.Elapsed,
		Events:    res.Received,
		Artifacts: res.Artifacts,
	})
}

func (e *Engine) recordCapture(ctx context.Context, id, kind string, started time.Time, path string, err error) {
	ep := store.Episode{ID: id, Kind: kind, Outcome: wait.OutcomeCompleted.String(), Started: started, Elapsed: e.now().Sub(started)}
	if err != nil {
		ep.Outcome = wait.OutcomeFailed.String()
		ep.Error = err.Error()
	} else {
		ep.Artifacts = []string{path}
	}
	e.record(ctx, ep)
}

type deviceNamer interface {
	Device() string
}

// record appends ep to the ledger. Ledger errors are logged only.
func (e *Engine) record(ctx context.Context, ep store.Episode) {
	if e.ledger == nil {
		return
	}
	if d, ok := e.provider.Connector.(deviceNamer); ok {
		ep.Device = d.Device()
	}
	if err := e.ledger.Add(context.WithoutCancel(ctx), ep); err != nil {
		e.logger.Warn().Err(err).Str("id", ep.ID).Msg("failed to record episode")
	}
}
