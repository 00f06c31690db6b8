package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mj1618/a11y-probe/internal/model"
	"github.com/mj1618/a11y-probe/internal/navigate"
	"github.com/mj1618/a11y-probe/internal/platform"
	"github.com/mj1618/a11y-probe/internal/platform/platformtest"
	"github.com/mj1618/a11y-probe/internal/store"
	"github.com/mj1618/a11y-probe/internal/wait"
	"github.com/rs/zerolog"
)

type fakeSink struct {
	mu    sync.Mutex
	dumps []string
	shots []string
	err   error
}

func (s *fakeSink) DumpTree(ctx context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.dumps = append(s.dumps, id)
	return "/tmp/a11y-" + id + ".xml", nil
}

func (s *fakeSink) Screenshot(ctx context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.shots = append(s.shots, id)
	return "/tmp/" + id + ".png", nil
}

func (s *fakeSink) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.dumps), len(s.shots)
}

func fastTiming() wait.Timing {
	return wait.Timing{
		TransitionTimeout: 40 * time.Millisecond,
		IdleThreshold:     20 * time.Millisecond,
		IdleTimeout:       time.Second,
		PollInterval:      5 * time.Millisecond,
	}
}

func newTestEngine(t *testing.T, fake *platformtest.Fake) (*Engine, *fakeSink, *store.Store) {
	t.Helper()
	ledger, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { ledger.Close() })
	sink := &fakeSink{}
	e, err := New(Options{
		Provider: fake.Provider(),
		Sink:     sink,
		Ledger:   ledger,
		Timing:   fastTiming(),
		Workers:  2,
		Logger:   zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(e.Close)
	return e, sink, ledger
}

func TestNew_RequiresBackends(t *testing.T) {
	if _, err := New(Options{Sink: &fakeSink{}}); err == nil {
		t.Error("expected error without provider")
	}
	fake := &platformtest.Fake{}
	if _, err := New(Options{Provider: fake.Provider()}); err == nil {
		t.Error("expected error without sink")
	}
}

func TestNew_SubscribesBus(t *testing.T) {
	fake := &platformtest.Fake{}
	e, _, _ := newTestEngine(t, fake)

	e.Bus().BeginRecording()
	fake.Emit(model.Event{Kind: model.EventWindowsChanged, Time: time.Now()})
	evs := e.Bus().Drain()
	e.Bus().EndRecording()

	if len(evs) != 1 || evs[0].Kind != model.EventWindowsChanged {
		t.Errorf("events: got %v", evs)
	}
}

func TestNewID(t *testing.T) {
	if got := NewID("abc"); got != "abc" {
		t.Errorf("NewID kept id: got %q", got)
	}
	a, b := NewID(""), NewID("")
	if a == "" || a == b {
		t.Errorf("generated ids should be unique: %q %q", a, b)
	}
}

func TestSwipeWaitCapture_TimeoutRecordsEpisode(t *testing.T) {
	fake := &platformtest.Fake{}
	e, sink, ledger := newTestEngine(t, fake)

	res, err := e.SwipeWaitCapture(model.SwipeRight, "s1").Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if res.Outcome != wait.OutcomeTimeout {
		t.Errorf("outcome: got %s", res.Outcome)
	}
	if d, s := sink.counts(); d != 1 || s != 1 {
		t.Errorf("captures: got %d dumps and %d screenshots", d, s)
	}

	gestures := fake.Gestures()
	if len(gestures) != 1 || gestures[0].Points[0].X != model.DefaultGestureBounds.Min {
		t.Errorf("gesture: got %+v", gestures)
	}

	ep, err := ledger.Get(context.Background(), "s1")
	if err != nil {
		t.Fatalf("ledger Get: %v", err)
	}
	if ep.Kind != "swipe" || ep.Detail != "right" || ep.Outcome != "timeout" || len(ep.Artifacts) != 2 {
		t.Errorf("episode: got %+v", ep)
	}
}

func TestSwipeWaitCapture_GeneratesID(t *testing.T) {
	e, sink, _ := newTestEngine(t, &platformtest.Fake{})
	res, _ := e.SwipeWaitCapture(model.SwipeLeft, "").Get()
	if res.ID == "" {
		t.Fatal("expected generated id")
	}
	if len(sink.dumps) != 1 || sink.dumps[0] != res.ID {
		t.Errorf("capture id: got %v, want %s", sink.dumps, res.ID)
	}
}

func TestSwipeWaitCapture_TransitionCaptures(t *testing.T) {
	fake := &platformtest.Fake{}
	e, sink, _ := newTestEngine(t, fake)
	timing := fastTiming()
	timing.TransitionTimeout = 5 * time.Second
	e.SetTiming(timing)

	fake.OnDispatch = func(path model.GesturePath, done func(platform.GestureStatus)) error {
		done(platform.GestureCompleted)
		go func() {
			time.Sleep(10 * time.Millisecond)
			fake.Emit(model.Event{Kind: model.EventWindowStateChanged, Time: time.Now()})
		}()
		return nil
	}

	res, _ := e.SwipeWaitCapture(model.SwipeUp, "s2").Get()
	if res.Outcome != wait.OutcomeTransition {
		t.Fatalf("outcome: got %s (%s)", res.Outcome, res.Cause)
	}
	if d, s := sink.counts(); d != 1 || s != 1 {
		t.Errorf("transition should capture once, got %d dumps and %d screenshots", d, s)
	}
}

func TestEpisodesAreSerialized(t *testing.T) {
	e, _, _ := newTestEngine(t, &platformtest.Fake{})

	a := e.SwipeWaitCapture(model.SwipeLeft, "a")
	b := e.SwipeWaitCapture(model.SwipeRight, "b")
	ra, err := a.Get()
	if err != nil {
		t.Fatal(err)
	}
	rb, err := b.Get()
	if err != nil {
		t.Fatal(err)
	}

	first, second := ra, rb
	if rb.Started.Before(ra.Started) {
		first, second = rb, ra
	}
	if second.Started.Before(first.Started.Add(first.Elapsed)) {
		t.Errorf("episodes overlapped: %s+%s vs %s", first.Started, first.Elapsed, second.Started)
	}
}

func TestEpisodeWaitCancelled(t *testing.T) {
	e, _, ledger := newTestEngine(t, &platformtest.Fake{})
	timing := fastTiming()
	timing.TransitionTimeout = 500 * time.Millisecond
	e.SetTiming(timing)

	a := e.SwipeWaitCapture(model.SwipeLeft, "long")
	time.Sleep(20 * time.Millisecond)
	b := e.SwipeWaitCapture(model.SwipeLeft, "queued")
	time.Sleep(20 * time.Millisecond)
	b.Cancel()

	rb, err := b.Get()
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("queued episode err: got %v", err)
	}
	if rb.Outcome != wait.OutcomeCancelled {
		t.Errorf("queued outcome: got %s", rb.Outcome)
	}
	if ep, err := ledger.Get(context.Background(), "queued"); err != nil || ep.Outcome != "cancelled" {
		t.Errorf("queued episode: %+v %v", ep, err)
	}
	if ra, _ := a.Get(); ra.Outcome != wait.OutcomeTimeout {
		t.Errorf("running episode outcome: got %s", ra.Outcome)
	}
}

func TestClickWaitCapture_NoFocus(t *testing.T) {
	fake := &platformtest.Fake{RootNode: &model.Node{Ref: "root"}}
	e, sink, ledger := newTestEngine(t, fake)

	res, _ := e.ClickWaitCapture(false, "c1").Get()
	if res.ActionOK == nil || *res.ActionOK {
		t.Errorf("click without focus should report false, got %v", res.ActionOK)
	}
	if d, _ := sink.counts(); d != 1 {
		t.Errorf("expected timeout capture, got %d dumps", d)
	}
	ep, err := ledger.Get(context.Background(), "c1")
	if err != nil || ep.Kind != "click" {
		t.Errorf("episode: %+v %v", ep, err)
	}
}

func TestSwipe_FireAndForget(t *testing.T) {
	fake := &platformtest.Fake{}
	e, sink, _ := newTestEngine(t, fake)

	res, err := e.Swipe(model.SwipeDown, "f1").Get()
	if err != nil {
		t.Fatalf("Swipe: %v", err)
	}
	if res.Outcome != wait.OutcomeCompleted {
		t.Errorf("outcome: got %s", res.Outcome)
	}
	if d, s := sink.counts(); d != 0 || s != 0 {
		t.Error("fire-and-forget swipe must not capture")
	}
	if e.Bus().Recording() {
		t.Error("fire-and-forget swipe must not record")
	}
}

func TestSwipe_DispatchError(t *testing.T) {
	fake := &platformtest.Fake{}
	fake.OnDispatch = func(model.GesturePath, func(platform.GestureStatus)) error {
		return platform.ErrNotConnected
	}
	e, _, ledger := newTestEngine(t, fake)

	res, err := e.Swipe(model.SwipeDown, "f2").Get()
	if !errors.Is(err, platform.ErrNotConnected) {
		t.Fatalf("err: got %v", err)
	}
	if res.Outcome != wait.OutcomeFailed {
		t.Errorf("outcome: got %s", res.Outcome)
	}
	ep, _ := ledger.Get(context.Background(), "f2")
	if ep.Outcome != "failed" || ep.Error == "" {
		t.Errorf("episode: %+v", ep)
	}
}

func TestClick_PerformsOnFocused(t *testing.T) {
	fake := &platformtest.Fake{
		RootNode: &model.Node{Ref: "root", Children: []*model.Node{{Ref: "btn", Clickable: true}}},
		FocusRef: "btn",
	}
	e, _, _ := newTestEngine(t, fake)

	res, err := e.Click(true, "k1").Get()
	if err != nil {
		t.Fatalf("Click: %v", err)
	}
	if res.ActionOK == nil || !*res.ActionOK {
		t.Errorf("ActionOK: got %v", res.ActionOK)
	}
	acts := fake.Actions()
	if len(acts) != 1 || acts[0].Ref != "btn" || acts[0].Action != platform.ActionLongClick {
		t.Errorf("actions: got %+v", acts)
	}
}

func TestCaptureWhenIdle(t *testing.T) {
	e, sink, ledger := newTestEngine(t, &platformtest.Fake{})

	res, _ := e.CaptureWhenIdle("i1").Get()
	if res.Outcome != wait.IdleObserved {
		t.Errorf("outcome: got %s", res.Outcome)
	}
	if _, s := sink.counts(); s != 1 {
		t.Errorf("expected one screenshot, got %d", s)
	}
	ep, err := ledger.Get(context.Background(), "i1")
	if err != nil || ep.Kind != "idle" || ep.Outcome != "idle" {
		t.Errorf("episode: %+v %v", ep, err)
	}
}

func TestFocus(t *testing.T) {
	fake := &platformtest.Fake{RootNode: &model.Node{Ref: "root", Children: []*model.Node{
		{Ref: "a", Text: "Settings"},
		{Ref: "b", Heading: true},
	}}}
	e, _, _ := newTestEngine(t, fake)

	res, err := e.Focus(navigate.Selection{Kind: navigate.ByHeading}, navigate.Forward).Get()
	if err != nil {
		t.Fatalf("Focus: %v", err)
	}
	if res.Selected == nil || res.Selected.Ref != "b" {
		t.Errorf("selected: got %+v", res.Selected)
	}
	if fake.Focus() != "b" {
		t.Errorf("focus: got %q", fake.Focus())
	}
}

func TestDumpAndScreenshot(t *testing.T) {
	e, sink, ledger := newTestEngine(t, &platformtest.Fake{})

	art, err := e.DumpTree("d1").Get()
	if err != nil || art.Path != "/tmp/a11y-d1.xml" {
		t.Errorf("dump: %+v %v", art, err)
	}
	art, err = e.Screenshot("d1").Get()
	if err != nil || art.Path != "/tmp/d1.png" {
		t.Errorf("screenshot: %+v %v", art, err)
	}
	if d, s := sink.counts(); d != 1 || s != 1 {
		t.Errorf("captures: %d %d", d, s)
	}

	eps, err := ledger.List(context.Background(), store.ListOptions{})
	if err != nil || len(eps) != 2 {
		t.Fatalf("ledger: %v %v", eps, err)
	}

	sink.err = errors.New("disk full")
	if _, err := e.DumpTree("d2").Get(); err == nil {
		t.Error("expected sink error")
	}
	ep, _ := ledger.Get(context.Background(), "d2")
	if ep.Outcome != "failed" {
		t.Errorf("failed capture outcome: got %q", ep.Outcome)
	}
}

func TestTree(t *testing.T) {
	fake := &platformtest.Fake{RootNode: &model.Node{Ref: "root"}}
	e, _, _ := newTestEngine(t, fake)
	root, err := e.Tree().Get()
	if err != nil || root == nil || root.Ref != "root" {
		t.Errorf("Tree: %+v %v", root, err)
	}

	fake.RootErr = errors.New("agent gone")
	if _, err := e.Tree().Get(); err == nil {
		t.Error("expected error")
	}
}

func TestAnnounce(t *testing.T) {
	fake := &platformtest.Fake{}
	e, _, _ := newTestEngine(t, fake)
	if err := e.Announce("hello").Wait(); err != nil {
		t.Fatalf("Announce: %v", err)
	}
	if got := fake.Announcements(); len(got) != 1 || got[0] != "hello" {
		t.Errorf("announcements: %v", got)
	}
}

func TestAnnounce_Unsupported(t *testing.T) {
	fake := &platformtest.Fake{}
	p := fake.Provider()
	p.Announcer = nil
	e, err := New(Options{Provider: p, Sink: &fakeSink{}, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()
	if err := e.Announce("x").Wait(); !errors.Is(err, platform.ErrUnsupported) {
		t.Errorf("err: got %v", err)
	}
}

func TestSetTiming(t *testing.T) {
	e, _, _ := newTestEngine(t, &platformtest.Fake{})
	tm := fastTiming()
	tm.IdleThreshold = 77 * time.Millisecond
	e.SetTiming(tm)
	if e.Timing() != tm {
		t.Errorf("timing: got %+v", e.Timing())
	}
}
