package model

import (
	"strings"
	"time"
)

// EventKind is the type of a UI event. Kinds the engine does not care about
// are kept opaque as EventOther with the wire name preserved on the Event.
type EventKind int

const (
	EventOther EventKind = iota
	EventAnnouncement
	EventWindowStateChanged
	EventWindowsChanged
	EventViewAccessibilityFocused
	EventWindowContentChanged
	EventViewClicked
	EventViewScrolled
)

var eventKindNames = map[EventKind]string{
	EventOther:                    "other",
	EventAnnouncement:             "announcement",
	EventWindowStateChanged:       "window_state_changed",
	EventWindowsChanged:           "windows_changed",
	EventViewAccessibilityFocused: "view_accessibility_focused",
	EventWindowContentChanged:     "window_content_changed",
	EventViewClicked:              "view_clicked",
	EventViewScrolled:             "view_scrolled",
}

// String returns the wire name of k.
func (k EventKind) String() string {
	if s, ok := eventKindNames[k]; ok {
		return s
	}
	return "other"
}

// ParseEventKind maps a wire name to an EventKind. Both snake_case names and the
// platform's TYPE_* constants are accepted; anything else is EventOther.
func ParseEventKind(s string) EventKind {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.TrimPrefix(norm, "type_")
	norm = strings.ReplaceAll(norm, "-", "_")
	for k, name := range eventKindNames {
		if name == norm {
			return k
		}
	}
	return EventOther
}

// IsTransition reports whether k signals a structural UI change: the window
// set changed, a window's state changed, or accessibility focus moved.
func (k EventKind) IsTransition() bool {
	switch k {
	case EventWindowsChanged, EventWindowStateChanged, EventViewAccessibilityFocused:
		return true
	}
	return false
}

// Event is a UI event as delivered by the platform. Time is on the host's
// clock so it can be compared against episode start times.
type Event struct {
	Kind   EventKind
	Name   string // wire name as received, kept for opaque kinds
	Source *Node  // may be nil
	Time   time.Time
	Text   []string
}

// TypeName returns the wire name when present, otherwise the kind's name.
func (e Event) TypeName() string {
	if e.Name != "" {
		return e.Name
	}
	return e.Kind.String()
}
