package platform

import (
	"fmt"
	"strings"
)

// GestureStatus is the terminal state of a dispatched gesture.
type GestureStatus int

const (
	GestureCompleted GestureStatus = iota
	GestureCancelled
)

func (s GestureStatus) String() string {
	if s == GestureCompleted {
		return "completed"
	}
	return "cancelled"
}

// Code is the status code written to the log for a finished gesture.
func (s GestureStatus) Code() int {
	if s == GestureCompleted {
		return 200
	}
	return 400
}

// ParseGestureStatus converts a wire value to a GestureStatus.
func ParseGestureStatus(s string) (GestureStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "completed", "200":
		return GestureCompleted, nil
	case "cancelled", "canceled", "400":
		return GestureCancelled, nil
	}
	return GestureCancelled, fmt.Errorf("unknown gesture status: %q", s)
}

// Action is an accessibility action id. Values match the platform's ids so
// they can be sent to the device unchanged.
type Action int

const (
	ActionFocus                   Action = 0x1
	ActionClick                   Action = 0x10
	ActionLongClick               Action = 0x20
	ActionAccessibilityFocus      Action = 0x40
	ActionClearAccessibilityFocus Action = 0x80
)

var actionNames = map[Action]string{
	ActionFocus:                   "focus",
	ActionClick:                   "click",
	ActionLongClick:               "long_click",
	ActionAccessibilityFocus:      "accessibility_focus",
	ActionClearAccessibilityFocus: "clear_accessibility_focus",
}

func (a Action) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// ParseAction converts a flag value to an Action.
func ParseAction(s string) (Action, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for a, name := range actionNames {
		if name == norm {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown action: %q (expected click, long_click, focus, accessibility_focus, or clear_accessibility_focus)", s)
}
