package model

import (
	"testing"
	"time"
)

func TestNewSwipePath_Straight(t *testing.T) {
	b := DefaultGestureBounds
	tests := []struct {
		dir        Direction
		start, end Point
	}{
		{SwipeLeft, Point{1000, 500}, Point{100, 500}},
		{SwipeRight, Point{100, 500}, Point{1000, 500}},
		{SwipeUp, Point{500, 1000}, Point{500, 100}},
		{SwipeDown, Point{500, 100}, Point{500, 1000}},
	}
	for _, tt := range tests {
		p := NewSwipePath(tt.dir, b)
		if len(p.Points) != 2 {
			t.Fatalf("%s: expected 2 points, got %d", tt.dir, len(p.Points))
		}
		if p.Points[0] != tt.start || p.Points[1] != tt.end {
			t.Errorf("%s: got %v -> %v, want %v -> %v", tt.dir, p.Points[0], p.Points[1], tt.start, tt.end)
		}
		if p.Duration != b.Duration {
			t.Errorf("%s: duration got %s, want %s", tt.dir, p.Duration, b.Duration)
		}
	}
}

func TestNewSwipePath_LShaped(t *testing.T) {
	p := NewSwipePath(SwipeUpRight, DefaultGestureBounds)
	if len(p.Points) != 3 {
		t.Fatalf("up-right: expected 3 points, got %d", len(p.Points))
	}
	if p.Points[2] != (Point{1000, 100}) {
		t.Errorf("up-right: unexpected end point %v", p.Points[2])
	}

	p = NewSwipePath(SwipeUpLeft, DefaultGestureBounds)
	if len(p.Points) != 3 {
		t.Fatalf("up-left: expected 3 points, got %d", len(p.Points))
	}
	if p.Duration != 300*time.Millisecond || p.StartOffset != 0 {
		t.Errorf("up-left: got offset %s duration %s", p.StartOffset, p.Duration)
	}
}

func TestParseDirection(t *testing.T) {
	for _, s := range []string{"left", "RIGHT", " up ", "down", "up-right", "up_left"} {
		if _, err := ParseDirection(s); err != nil {
			t.Errorf("ParseDirection(%q): unexpected error %v", s, err)
		}
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Error("expected error for unknown direction")
	}
}

func TestParseEventKind(t *testing.T) {
	tests := map[string]EventKind{
		"windows_changed":                  EventWindowsChanged,
		"TYPE_WINDOW_STATE_CHANGED":        EventWindowStateChanged,
		"view-accessibility-focused":       EventViewAccessibilityFocused,
		"announcement":                     EventAnnouncement,
		"TYPE_VIEW_TEXT_SELECTION_CHANGED": EventOther,
	}
	for in, want := range tests {
		if got := ParseEventKind(in); got != want {
			t.Errorf("ParseEventKind(%q): got %s, want %s", in, got, want)
		}
	}
}

func TestEventKind_IsTransition(t *testing.T) {
	for _, k := range []EventKind{EventWindowsChanged, EventWindowStateChanged, EventViewAccessibilityFocused} {
		if !k.IsTransition() {
			t.Errorf("%s should be a transition", k)
		}
	}
	for _, k := range []EventKind{EventOther, EventAnnouncement, EventWindowContentChanged, EventViewScrolled} {
		if k.IsTransition() {
			t.Errorf("%s should not be a transition", k)
		}
	}
}

func TestRect_ShortString(t *testing.T) {
	r := Rect{Left: 0, Top: 63, Right: 1080, Bottom: 210}
	if got := r.ShortString(); got != "[0,63][1080,210]" {
		t.Errorf("ShortString: got %q", got)
	}
	if r.Empty() {
		t.Error("non-empty rect reported empty")
	}
}
