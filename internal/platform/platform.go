package platform

import (
	"context"
	"image"

	"github.com/mj1618/a11y-probe/internal/model"
)

// TreeProvider reads the accessibility node tree of the device.
type TreeProvider interface {
	// Root returns a copied-out snapshot of the active window's tree, or nil
	// when no window is active.
	Root(ctx context.Context) (*model.Node, error)

	// AccessibilityFocus returns the node currently holding accessibility
	// focus. ok is false when nothing is focused.
	AccessibilityFocus(ctx context.Context) (n *model.Node, ok bool, err error)
}

// GestureDispatcher performs touch gestures.
type GestureDispatcher interface {
	// Dispatch starts path and returns once the gesture was accepted. done is
	// called exactly once when the gesture completes or is cancelled. When
	// Dispatch returns an error, done is never called.
	Dispatch(ctx context.Context, path model.GesturePath, done func(GestureStatus)) error
}

// ActionPerformer performs accessibility actions on nodes.
type ActionPerformer interface {
	// PerformAction runs action on the node identified by ref and reports the
	// platform's raw result.
	PerformAction(ctx context.Context, ref string, action Action) (bool, error)
}

// Screenshotter captures the device screen.
type Screenshotter interface {
	Screenshot(ctx context.Context) (image.Image, error)
}

// Announcer speaks text through the screen reader.
type Announcer interface {
	Announce(ctx context.Context, text string) error
}

// EventSource delivers UI events. The listener is called synchronously on
// the source's delivery goroutine and must not block.
type EventSource interface {
	SetListener(fn func(model.Event))
}

// Connector is implemented by providers that need a device to attach first.
type Connector interface {
	WaitConnected(ctx context.Context) error
}
