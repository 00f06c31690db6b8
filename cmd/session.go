package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mj1618/a11y-probe/internal/capture"
	"github.com/mj1618/a11y-probe/internal/config"
	"github.com/mj1618/a11y-probe/internal/engine"
	"github.com/mj1618/a11y-probe/internal/logging"
	"github.com/mj1618/a11y-probe/internal/model"
	"github.com/mj1618/a11y-probe/internal/platform"
	_ "github.com/mj1618/a11y-probe/internal/platform/bridge" // registers the websocket backend
	"github.com/mj1618/a11y-probe/internal/store"
	"github.com/mj1618/a11y-probe/internal/wait"
	"github.com/mj1618/a11y-probe/internal/worker"
)

// session is a connected device plus the engine driving it.
type session struct {
	provider *platform.Provider
	ledger   *store.Store
	engine   *engine.Engine
}

// openSession starts the bridge, waits for a device agent when waitAgent is
// set and builds the engine from c.
func openSession(ctx context.Context, c config.Config, waitAgent bool) (*session, error) {
	logger := logging.For("session")

	provider, err := platform.NewProvider(platform.Options{
		Listen:         c.Bridge.Listen,
		Path:           c.Bridge.Path,
		RequestTimeout: c.Bridge.RequestTimeout,
		Logger:         logging.For("bridge"),
	})
	if err != nil {
		return nil, err
	}
	s := &session{provider: provider}

	if waitAgent && provider.Connector != nil {
		logger.Info().Str("listen", c.Bridge.Listen).Str("path", c.Bridge.Path).Msg("waiting for device agent")
		waitCtx, cancel := context.WithTimeout(ctx, c.Bridge.ConnectTimeout)
		err := provider.Connector.WaitConnected(waitCtx)
		cancel()
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("waiting for device agent on %s%s: %w", c.Bridge.Listen, c.Bridge.Path, err)
		}
	}

	if err := os.MkdirAll(c.CaptureDir, 0755); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create capture directory: %w", err)
	}
	sink, err := capture.NewSink(capture.Options{
		Dir:      c.CaptureDir,
		Scale:    c.ScreenshotScale,
		Annotate: c.AnnotateScreenshots,
		Tree:     provider.Tree,
		Screen:   provider.Screenshot,
		Logger:   logging.For("capture"),
	})
	if err != nil {
		s.Close()
		return nil, err
	}

	opts := engine.Options{
		Provider: provider,
		Sink:     sink,
		Timing:   timingFromConfig(c.Timing),
		Gesture:  gestureFromConfig(c.Gesture),
		Workers:  c.Workers,
		Logger:   logging.For("engine"),
	}
	if c.Store.Path != "" {
		s.ledger, err = store.Open(c.Store.Path)
		if err != nil {
			s.Close()
			return nil, err
		}
		opts.Ledger = s.ledger
	}

	s.engine, err = engine.New(opts)
	if err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close stops the engine and releases the device and ledger.
func (s *session) Close() {
	if s.engine != nil {
		s.engine.Close()
	}
	if s.ledger != nil {
		s.ledger.Close()
	}
	s.provider.Close()
}

func timingFromConfig(t config.Timing) wait.Timing {
	return wait.Timing{
		TransitionTimeout: t.TransitionTimeout,
		IdleThreshold:     t.IdleThreshold,
		IdleTimeout:       t.IdleTimeout,
		PollInterval:      t.PollInterval,
	}
}

func gestureFromConfig(g config.Gesture) model.GestureBounds {
	return model.GestureBounds{Min: g.MinPosition, Max: g.MaxPosition, Duration: g.Duration}
}

// get waits for f, cancelling it when ctx is done first.
func get[T any](ctx context.Context, f *worker.Future[T]) (T, error) {
	select {
	case <-f.Done():
	case <-ctx.Done():
		f.Cancel()
	}
	return f.Get()
}
