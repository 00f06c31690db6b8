package platform

import (
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// Provider bundles all platform backends for one device.
type Provider struct {
	Tree       TreeProvider
	Gestures   GestureDispatcher
	Actions    ActionPerformer
	Screenshot Screenshotter
	Announcer  Announcer
	Events     EventSource
	Connector  Connector // optional
	Closer     io.Closer // optional
}

var (
	// ErrUnsupported is returned when no backend is registered or a backend
	// lacks an operation.
	ErrUnsupported = errors.New("operation not supported by this platform backend")

	// ErrNoFocus is returned by focus-dependent operations when no node holds
	// accessibility focus and the caller asked for one.
	ErrNoFocus = errors.New("no node holds accessibility focus")

	// ErrNotConnected is returned when no device agent is attached.
	ErrNotConnected = errors.New("no device agent connected")
)

// Options configures a backend.
type Options struct {
	Listen         string
	Path           string
	RequestTimeout time.Duration
	Logger         zerolog.Logger
}

// NewProviderFunc is set by backend packages via init().
// See internal/platform/bridge for the websocket device bridge.
var NewProviderFunc func(opts Options) (*Provider, error)

// NewProvider returns a Provider from the registered backend.
func NewProvider(opts Options) (*Provider, error) {
	if NewProviderFunc == nil {
		return nil, ErrUnsupported
	}
	return NewProviderFunc(opts)
}

// Close releases the provider's resources, if it holds any.
func (p *Provider) Close() error {
	if p == nil || p.Closer == nil {
		return nil
	}
	return p.Closer.Close()
}
