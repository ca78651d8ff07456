package types

import (
	"errors"
	"fmt"
	"time"
)

// DefaultLane is the lane label for jobs without a work center.
const DefaultLane = "Unassigned"

var ErrInvalidWindow = errors.New("window end must be after window start")

// ScheduledJob is one production order placed on the timeline.
type ScheduledJob struct {
	ID       string    `json:"id" yaml:"id"`
	Product  string    `json:"product,omitempty" yaml:"product"`
	Lane     string    `json:"lane" yaml:"lane"`
	Start    time.Time `json:"start" yaml:"start"`
	End      time.Time `json:"end" yaml:"end"`
	Status   string    `json:"status,omitempty" yaml:"status"`
	Priority string    `json:"priority,omitempty" yaml:"priority"`
	Progress float64   `json:"progress,omitempty" yaml:"progress"`
}

// Normalize fills the defaults upstream data may omit: a missing end
// collapses onto the start and a missing lane falls back to DefaultLane.
func (j ScheduledJob) Normalize() ScheduledJob {
	if j.End.IsZero() || j.End.Before(j.Start) {
		j.End = j.Start
	}
	if j.Lane == "" {
		j.Lane = DefaultLane
	}
	return j
}

func (j ScheduledJob) Span() Span {
	return Span{Start: j.Start, End: j.End}
}

func (j ScheduledJob) Duration() time.Duration {
	return j.End.Sub(j.Start)
}

// Span is a start/end pair, either tentative or persisted.
type Span struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (s Span) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

func (s Span) String() string {
	return fmt.Sprintf("%s → %s", s.Start.Format(time.RFC3339), s.End.Format(time.RFC3339))
}

// Window is the visible time range of the timeline.
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (w Window) Validate() error {
	if !w.To.After(w.From) {
		return fmt.Errorf("%w: from=%s to=%s", ErrInvalidWindow,
			w.From.Format(time.RFC3339), w.To.Format(time.RFC3339))
	}
	return nil
}

// Span returns the window length, never less than a millisecond.
func (w Window) Span() time.Duration {
	if d := w.To.Sub(w.From); d > time.Millisecond {
		return d
	}
	return time.Millisecond
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// ConflictPair is an unordered pair of job ids whose intervals overlap.
type ConflictPair struct {
	A string `json:"a"`
	B string `json:"b"`
}

// Has reports whether id is one side of the pair.
func (p ConflictPair) Has(id string) bool {
	return p.A == id || p.B == id
}

// Level is the severity of a user-facing notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)
