package model

import (
	"fmt"
	"strings"
	"time"
)

// Point is a 2-D screen coordinate.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// GesturePath is a single-stroke gesture: an ordered polyline plus timing.
type GesturePath struct {
	Points      []Point       `json:"points"       yaml:"points"`
	StartOffset time.Duration `json:"start_offset" yaml:"start_offset"`
	Duration    time.Duration `json:"duration"     yaml:"duration"`
}

// Direction names a supported swipe gesture.
type Direction int

const (
	SwipeLeft    Direction = iota // right to left
	SwipeRight                    // left to right
	SwipeUp                       // bottom to top
	SwipeDown                     // top to bottom
	SwipeUpRight                  // up, then right
	SwipeUpLeft                   // up, then left
)

var directionNames = map[Direction]string{
	SwipeLeft:    "left",
	SwipeRight:   "right",
	SwipeUp:      "up",
	SwipeDown:    "down",
	SwipeUpRight: "up-right",
	SwipeUpLeft:  "up-left",
}

func (d Direction) String() string {
	if s, ok := directionNames[d]; ok {
		return s
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

// ParseDirection converts a flag value to a Direction.
func ParseDirection(s string) (Direction, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "_", "-")
	for d, name := range directionNames {
		if name == norm {
			return d, nil
		}
	}
	return SwipeLeft, fmt.Errorf("unknown swipe direction: %q (expected left, right, up, down, up-right, or up-left)", s)
}

// GestureBounds are the fixed coordinate limits swipes are built from.
type GestureBounds struct {
	Min      float64
	Max      float64
	Duration time.Duration // default stroke duration
}

// DefaultGestureBounds matches the coordinate box the device agent expects.
var DefaultGestureBounds = GestureBounds{Min: 100, Max: 1000, Duration: 200 * time.Millisecond}

// NewSwipePath builds the gesture path for d within b. Horizontal and vertical
// swipes are two-point strokes through the middle of the box; up-right and
// up-left are L-shaped three-point strokes.
func NewSwipePath(d Direction, b GestureBounds) GesturePath {
	mid := b.Max / 2
	p := GesturePath{Duration: b.Duration}
	switch d {
	case SwipeLeft:
		p.Points = []Point{{b.Max, mid}, {b.Min, mid}}
	case SwipeRight:
		p.Points = []Point{{b.Min, mid}, {b.Max, mid}}
	case SwipeUp:
		p.Points = []Point{{mid, b.Max}, {mid, b.Min}}
	case SwipeDown:
		p.Points = []Point{{mid, b.Min}, {mid, b.Max}}
	case SwipeUpRight:
		p.Points = []Point{{b.Min, b.Max}, {b.Min, b.Min}, {b.Max, b.Min}}
	case SwipeUpLeft:
		p.Points = []Point{{mid, b.Max}, {mid, b.Min}, {b.Min, b.Min}}
		p.StartOffset = 0
		p.Duration = 300 * time.Millisecond
	}
	return p
}
