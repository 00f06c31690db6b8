package navigate

import (
	"fmt"
	"strings"

	"github.com/mj1618/a11y-probe/internal/model"
)

// Kind selects which node property a Selection matches.
type Kind int

const (
	ByID      Kind = iota // resource id substring, case-insensitive
	ByText                // text substring, case-insensitive
	ByClass               // exact class name
	ByHeading             // heading flag
)

var kindNames = map[Kind]string{
	ByID:      "id",
	ByText:    "text",
	ByClass:   "class",
	ByHeading: "heading",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind converts a flag value to a Kind.
func ParseKind(s string) (Kind, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == norm {
			return k, nil
		}
	}
	return ByID, fmt.Errorf("unknown selection kind: %q (expected id, text, class, or heading)", s)
}

// Selection names the nodes a focus move may land on.
type Selection struct {
	Kind  Kind
	Value string
}

// Predicate returns the matcher for s.
func (s Selection) Predicate() model.Predicate {
	switch s.Kind {
	case ByID:
		return model.IDContains(s.Value)
	case ByText:
		return model.TextContains(s.Value)
	case ByClass:
		return model.ClassEquals(s.Value)
	default:
		return model.IsHeading()
	}
}

// Unordered reports whether s searches the whole tree regardless of the
// current focus. Id and text matches are not directional.
func (s Selection) Unordered() bool {
	return s.Kind == ByID || s.Kind == ByText
}

// Validate checks that kinds needing a value have one.
func (s Selection) Validate() error {
	if s.Kind != ByHeading && s.Value == "" {
		return fmt.Errorf("selection by %s needs a value", s.Kind)
	}
	return nil
}

func (s Selection) String() string {
	if s.Kind == ByHeading {
		return "heading"
	}
	return fmt.Sprintf("%s=%q", s.Kind, s.Value)
}

// Direction orders the search relative to the current focus.
type Direction int

const (
	Forward Direction = iota
	Backward
	Unordered
)

var directionNames = map[Direction]string{
	Forward:   "forward",
	Backward:  "backward",
	Unordered: "unordered",
}

func (d Direction) String() string {
	if s, ok := directionNames[d]; ok {
		return s
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

// ParseDirection converts a flag value to a Direction. "next" and
// "previous" are accepted as aliases.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "forward", "next", "":
		return Forward, nil
	case "backward", "previous", "prev":
		return Backward, nil
	case "unordered", "any":
		return Unordered, nil
	}
	return Forward, fmt.Errorf("unknown direction: %q (expected forward, backward, or unordered)", s)
}
