package wait

import (
	"fmt"
	"time"
)

// Outcome is how a wait episode ended.
type Outcome int

const (
	// OutcomeCompleted is used by operations that do not wait, such as a
	// fire-and-forget swipe.
	OutcomeCompleted Outcome = iota
	OutcomeTransition
	OutcomeTimeout
	OutcomeCancelled
	OutcomeFailed
)

var outcomeNames = map[Outcome]string{
	OutcomeCompleted:  "completed",
	OutcomeTransition: "transition",
	OutcomeTimeout:    "timeout",
	OutcomeCancelled:  "cancelled",
	OutcomeFailed:     "failed",
}

func (o Outcome) String() string {
	if s, ok := outcomeNames[o]; ok {
		return s
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// MarshalText renders the outcome name in YAML and JSON output.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Anomaly reports whether the outcome triggers a capture.
func (o Outcome) Anomaly() bool {
	return o == OutcomeTransition || o == OutcomeTimeout || o == OutcomeFailed
}

// Result describes one gesture-wait episode.
type Result struct {
	ID        string        `json:"id"                  yaml:"id"`
	Action    string        `json:"action"              yaml:"action"`
	Outcome   Outcome       `json:"outcome"             yaml:"outcome"`
	Cause     string        `json:"cause,omitempty"     yaml:"cause,omitempty"`
	Err       error         `json:"-"                   yaml:"-"`
	Error     string        `json:"error,omitempty"     yaml:"error,omitempty"`
	Started   time.Time     `json:"started"             yaml:"started"`
	Elapsed   time.Duration `json:"elapsed"             yaml:"elapsed"`
	Received  []string      `json:"received,omitempty"  yaml:"received,omitempty"`
	Stale     int           `json:"stale,omitempty"     yaml:"stale,omitempty"`
	ActionOK  *bool         `json:"action_ok,omitempty" yaml:"action_ok,omitempty"`
	Artifacts []string      `json:"artifacts,omitempty" yaml:"artifacts,omitempty"`
}

func (r *Result) fail(err error) {
	r.Err = err
	if err != nil {
		r.Error = err.Error()
	}
}

// IdleOutcome is how an idle watch ended.
type IdleOutcome int

const (
	IdleObserved IdleOutcome = iota
	IdleTimedOut
	IdleCancelled
)

var idleOutcomeNames = map[IdleOutcome]string{
	IdleObserved:  "idle",
	IdleTimedOut:  "timeout",
	IdleCancelled: "cancelled",
}

func (o IdleOutcome) String() string {
	if s, ok := idleOutcomeNames[o]; ok {
		return s
	}
	return fmt.Sprintf("idle_outcome(%d)", int(o))
}

// MarshalText renders the outcome name in YAML and JSON output.
func (o IdleOutcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// IdleResult describes one idle watch.
type IdleResult struct {
	ID       string        `json:"id"                 yaml:"id"`
	Outcome  IdleOutcome   `json:"outcome"            yaml:"outcome"`
	Elapsed  time.Duration `json:"elapsed"            yaml:"elapsed"`
	Quiet    time.Duration `json:"quiet"              yaml:"quiet"` // time since the last event when the watch ended
	Artifact string        `json:"artifact,omitempty" yaml:"artifact,omitempty"`
	Err      error         `json:"-"                  yaml:"-"`
	Error    string        `json:"error,omitempty"    yaml:"error,omitempty"`
}
