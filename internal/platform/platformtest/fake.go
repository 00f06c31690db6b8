// Package platformtest provides an in-memory platform backend for tests.
package platformtest

import (
	"context"
	"image"
	"image/color"
	"sync"

	"github.com/mj1618/a11y-probe/internal/model"
	"github.com/mj1618/a11y-probe/internal/platform"
)

// ActionCall records one PerformAction invocation.
type ActionCall struct {
	Ref    string
	Action platform.Action
}

// Fake implements every platform interface. Zero value is usable: an empty
// tree, no focus, gestures that complete immediately and a 10x10 white
// screenshot. Hooks override individual operations.
type Fake struct {
	mu sync.Mutex

	RootNode *model.Node
	FocusRef string // ref of the accessibility-focused node within RootNode
	Image    image.Image

	// Hooks. When set they replace the default behaviour.
	OnDispatch func(path model.GesturePath, done func(platform.GestureStatus)) error
	OnAction   func(ref string, action platform.Action) (bool, error)
	RootErr    error
	ShotErr    error

	listener    func(model.Event)
	gestures    []model.GesturePath
	actions     []ActionCall
	announces   []string
	screenshots int
	roots       int
}

// Provider returns a Provider bundle backed by f.
func (f *Fake) Provider() *platform.Provider {
	return &platform.Provider{
		Tree:       f,
		Gestures:   f,
		Actions:    f,
		Screenshot: f,
		Announcer:  f,
		Events:     f,
	}
}

func (f *Fake) Root(ctx context.Context) (*model.Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roots++
	if f.RootErr != nil {
		return nil, f.RootErr
	}
	return f.RootNode, nil
}

func (f *Fake) AccessibilityFocus(ctx context.Context) (*model.Node, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FocusRef == "" {
		return nil, false, nil
	}
	n := model.FindByRef(f.RootNode, f.FocusRef)
	return n, n != nil, nil
}

// Dispatch records path. Without a hook the gesture completes synchronously.
func (f *Fake) Dispatch(ctx context.Context, path model.GesturePath, done func(platform.GestureStatus)) error {
	f.mu.Lock()
	f.gestures = append(f.gestures, path)
	hook := f.OnDispatch
	f.mu.Unlock()
	if hook != nil {
		return hook(path, done)
	}
	if done != nil {
		done(platform.GestureCompleted)
	}
	return nil
}

// PerformAction records the call. Without a hook, accessibility-focus actions
// move FocusRef and every action succeeds.
func (f *Fake) PerformAction(ctx context.Context, ref string, action platform.Action) (bool, error) {
	f.mu.Lock()
	f.actions = append(f.actions, ActionCall{Ref: ref, Action: action})
	hook := f.OnAction
	if hook == nil && action == platform.ActionAccessibilityFocus {
		f.FocusRef = ref
	}
	f.mu.Unlock()
	if hook != nil {
		return hook(ref, action)
	}
	return true, nil
}

func (f *Fake) Screenshot(ctx context.Context) (image.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.screenshots++
	if f.ShotErr != nil {
		return nil, f.ShotErr
	}
	if f.Image != nil {
		return f.Image, nil
	}
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.Set(x, y, color.White)
		}
	}
	return img, nil
}

func (f *Fake) Announce(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.announces = append(f.announces, text)
	return nil
}

func (f *Fake) SetListener(fn func(model.Event)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listener = fn
}

// Emit delivers ev to the registered listener, as the platform's event
// goroutine would.
func (f *Fake) Emit(ev model.Event) {
	f.mu.Lock()
	fn := f.listener
	f.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

// Gestures returns the dispatched paths.
func (f *Fake) Gestures() []model.GesturePath {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.GesturePath(nil), f.gestures...)
}

// Actions returns the performed actions.
func (f *Fake) Actions() []ActionCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ActionCall(nil), f.actions...)
}

// Announcements returns the announced texts.
func (f *Fake) Announcements() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.announces...)
}

// Screenshots returns how many screenshots were taken.
func (f *Fake) Screenshots() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.screenshots
}

// RootCalls returns how many times the tree was read.
func (f *Fake) RootCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.roots
}

// SetFocus sets the focused ref.
func (f *Fake) SetFocus(ref string) {
	f.mu.Lock()
	f.FocusRef = ref
	f.mu.Unlock()
}

// Focus returns the focused ref.
func (f *Fake) Focus() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.FocusRef
}
