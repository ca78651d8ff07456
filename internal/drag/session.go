package drag

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/0xPuncker/production-timeline/pkg/timeaxis"
	"github.com/0xPuncker/production-timeline/pkg/types"
)

// MinDuration is the shortest interval a job can be resized to.
const MinDuration = time.Hour

var (
	ErrInvalidMode   = errors.New("invalid drag mode")
	ErrSessionActive = errors.New("a drag session is already active")
)

// Mode is what a pointer-down grabbed: the job body or one of its edges.
type Mode string

const (
	ModeMove        Mode = "move"
	ModeResizeStart Mode = "resize-start"
	ModeResizeEnd   Mode = "resize-end"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeMove, ModeResizeStart, ModeResizeEnd:
		return m, nil
	case "":
		return ModeMove, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Session translates pointer movement over one job into tentative start and
// end times. It is created on pointer-down and discarded on pointer-up.
type Session struct {
	JobID         string
	Mode          Mode
	PointerStartX float64
	TrackWidth    float64
	OriginalStart time.Time
	OriginalEnd   time.Time
	Window        types.Window
	MinDuration   time.Duration
	StartedAt     time.Time

	lower time.Time
	upper time.Time
}

// Begin opens a session on job. Moves are bounded by the visible window and
// may not start before midnight of now.
func Begin(job types.ScheduledJob, mode Mode, pointerX, trackWidth float64, window types.Window, now time.Time) (*Session, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}

	lower := window.From
	if today := midnight(now); today.After(lower) {
		lower = today
	}
	upper := window.To
	if lower.After(upper) {
		lower = upper
	}

	return &Session{
		JobID:         job.ID,
		Mode:          mode,
		PointerStartX: pointerX,
		TrackWidth:    trackWidth,
		OriginalStart: job.Start,
		OriginalEnd:   job.End,
		Window:        window,
		MinDuration:   MinDuration,
		StartedAt:     now,
		lower:         lower,
		upper:         upper,
	}, nil
}

// Original is the span the job had when the session began.
func (s *Session) Original() types.Span {
	return types.Span{Start: s.OriginalStart, End: s.OriginalEnd}
}

// Bounds returns the clamping range applied to new start and end times.
func (s *Session) Bounds() (time.Time, time.Time) {
	return s.lower, s.upper
}

// Span returns the tentative span for the pointer at pointerX.
func (s *Session) Span(pointerX float64) types.Span {
	delta := timeaxis.ToDelta(pointerX-s.PointerStartX, s.TrackWidth, s.Window)
	minDur := s.minDuration()

	switch s.Mode {
	case ModeResizeStart:
		start := s.clamp(s.OriginalStart.Add(delta), s.lower, s.upper)
		if limit := s.OriginalEnd.Add(-minDur); start.After(limit) {
			start = limit
		}
		return types.Span{Start: start, End: s.OriginalEnd}

	case ModeResizeEnd:
		end := s.clamp(s.OriginalEnd.Add(delta), s.lower, s.upper)
		if limit := s.OriginalStart.Add(minDur); end.Before(limit) {
			end = limit
		}
		return types.Span{Start: s.OriginalStart, End: end}

	default:
		duration := s.OriginalEnd.Sub(s.OriginalStart)
		if duration < minDur {
			duration = minDur
		}
		upper := s.upper.Add(-duration)
		if upper.Before(s.lower) {
			upper = s.lower
		}
		start := s.clamp(s.OriginalStart.Add(delta), s.lower, upper)
		return types.Span{Start: start, End: start.Add(duration)}
	}
}

func (s *Session) minDuration() time.Duration {
	if s.MinDuration > 0 {
		return s.MinDuration
	}
	return MinDuration
}

func (s *Session) clamp(t, lower, upper time.Time) time.Time {
	if t.Before(lower) {
		return lower
	}
	if t.After(upper) {
		return upper
	}
	return t
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Holder owns at most one live session.
type Holder struct {
	mu      sync.Mutex
	current *Session
}

// Set installs s as the live session unless one is already active.
func (h *Holder) Set(s *Session) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current != nil {
		return fmt.Errorf("%w: job %s", ErrSessionActive, h.current.JobID)
	}
	h.current = s
	return nil
}

// Current returns the live session, or nil when idle.
func (h *Holder) Current() *Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Take clears the holder and returns the session it held.
func (h *Holder) Take() *Session {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.current
	h.current = nil
	return s
}

func (h *Holder) Active() bool {
	return h.Current() != nil
}
