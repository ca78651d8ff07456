// Package board composes the scheduler, time axis, lane grouping, conflict
// detection and drag sessions into the interactive production timeline.
//
// All pointer handlers are serialized by the board's lock, so the drag state
// machine only ever observes one event at a time. Persisting a finished drag
// happens in the background and never holds the lock.
package board

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/0xPuncker/production-timeline/internal/drag"
	"github.com/0xPuncker/production-timeline/internal/metrics"
	"github.com/0xPuncker/production-timeline/internal/notifications"
	"github.com/0xPuncker/production-timeline/internal/scheduler"
	"github.com/0xPuncker/production-timeline/pkg/calendar"
	"github.com/0xPuncker/production-timeline/pkg/conflict"
	"github.com/0xPuncker/production-timeline/pkg/lanes"
	"github.com/0xPuncker/production-timeline/pkg/types"
	"github.com/sirupsen/logrus"
)

const (
	DefaultHandlePx   = 8.0
	DefaultWindowDays = 30
)

var (
	ErrJobNotFound = errors.New("job not found")
	ErrNoSession   = errors.New("no active drag session")
)

// CapturePolicy decides what losing pointer capture does to a live drag.
type CapturePolicy string

const (
	CaptureCancel CapturePolicy = "cancel"
	CaptureCommit CapturePolicy = "commit"
)

func ParseCapturePolicy(s string) (CapturePolicy, error) {
	switch p := CapturePolicy(s); p {
	case "", CaptureCancel:
		return CaptureCancel, nil
	case CaptureCommit:
		return p, nil
	default:
		return "", fmt.Errorf("unknown capture policy %q", s)
	}
}

type Board struct {
	mu sync.Mutex

	sched    *scheduler.Scheduler
	logger   *logrus.Logger
	grouper  *lanes.Grouper
	detector *conflict.Detector
	holder   drag.Holder
	calendar *calendar.CalendarService
	metrics  *metrics.Collector

	window      types.Window
	now         func() time.Time
	minDuration time.Duration
	handlePx    float64
	capture     CapturePolicy
}

type Option func(*Board)

// WithClock replaces time.Now for the today floor and the today marker.
func WithClock(now func() time.Time) Option {
	return func(b *Board) {
		if now != nil {
			b.now = now
		}
	}
}

func WithWindow(w types.Window) Option {
	return func(b *Board) {
		b.window = w
	}
}

func WithGrouper(g *lanes.Grouper) Option {
	return func(b *Board) {
		if g != nil {
			b.grouper = g
		}
	}
}

func WithScope(scope conflict.Scope) Option {
	return func(b *Board) {
		b.detector = conflict.NewDetector(scope)
	}
}

func WithMinDuration(d time.Duration) Option {
	return func(b *Board) {
		if d > 0 {
			b.minDuration = d
		}
	}
}

// WithHandlePx sets the width of the resize handles at either end of a job.
func WithHandlePx(px float64) Option {
	return func(b *Board) {
		if px > 0 {
			b.handlePx = px
		}
	}
}

func WithCapturePolicy(p CapturePolicy) Option {
	return func(b *Board) {
		if p != "" {
			b.capture = p
		}
	}
}

func WithMetrics(c *metrics.Collector) Option {
	return func(b *Board) {
		b.metrics = c
	}
}

// New builds a board over sched. Without WithWindow the window starts a week
// before today and spans DefaultWindowDays.
func New(sched *scheduler.Scheduler, logger *logrus.Logger, opts ...Option) (*Board, error) {
	b := &Board{
		sched:       sched,
		logger:      logger,
		grouper:     lanes.NewGrouper(),
		detector:    conflict.NewDetector(conflict.Global),
		calendar:    calendar.NewCalendarService(),
		now:         time.Now,
		minDuration: drag.MinDuration,
		handlePx:    DefaultHandlePx,
		capture:     CaptureCancel,
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.window.From.IsZero() && b.window.To.IsZero() {
		b.window = DefaultWindow(b.now())
	}
	if err := b.window.Validate(); err != nil {
		return nil, err
	}
	sched.SetWindow(&b.window)
	return b, nil
}

// DefaultWindow is the window shown when none is configured.
func DefaultWindow(now time.Time) types.Window {
	y, m, d := now.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, -7)
	return types.Window{From: from, To: from.AddDate(0, 0, DefaultWindowDays)}
}

func (b *Board) Window() types.Window {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.window
}

// SetWindow changes the visible range. A drag in progress keeps the window
// it started with.
func (b *Board) SetWindow(w types.Window) error {
	if err := w.Validate(); err != nil {
		return err
	}

	b.mu.Lock()
	b.window = w
	b.mu.Unlock()

	b.sched.SetWindow(&w)
	b.logger.WithFields(logrus.Fields{
		"from": w.From.Format(time.RFC3339),
		"to":   w.To.Format(time.RFC3339),
	}).Debug("Timeline window changed")
	return nil
}

// PointerDown starts a drag session on jobID. x is the pointer position and
// trackWidth the width of the track in pixels.
func (b *Board) PointerDown(jobID string, mode drag.Mode, x, trackWidth float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	job, ok := b.sched.Job(jobID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}

	session, err := drag.Begin(job, mode, x, trackWidth, b.window, b.now())
	if err != nil {
		return err
	}
	session.MinDuration = b.minDuration

	if err := b.holder.Set(session); err != nil {
		return err
	}

	b.logger.WithFields(logrus.Fields{
		"job_id":      jobID,
		"mode":        mode,
		"x":           x,
		"track_width": trackWidth,
	}).Debug("Drag started")
	return nil
}

// PointerMove applies the tentative span for pointer position x to the
// working list and returns it.
func (b *Board) PointerMove(x float64) (types.Span, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	session := b.holder.Current()
	if session == nil {
		return types.Span{}, ErrNoSession
	}

	span := session.Span(x)
	if !b.sched.Apply(session.JobID, span) {
		b.holder.Take()
		b.metrics.RecordDrag(metrics.DragDiscarded)
		return types.Span{}, fmt.Errorf("%w: %s", ErrJobNotFound, session.JobID)
	}
	return span, nil
}

// PointerUp ends the drag and persists the job's current span. The returned
// channel is nil when the job disappeared during the drag.
func (b *Board) PointerUp() (<-chan scheduler.Outcome, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.commit()
}

func (b *Board) commit() (<-chan scheduler.Outcome, error) {
	session := b.holder.Take()
	if session == nil {
		return nil, ErrNoSession
	}

	job, ok := b.sched.Job(session.JobID)
	if !ok {
		b.metrics.RecordDrag(metrics.DragDiscarded)
		b.logger.WithField("job_id", session.JobID).Debug("Dragged job no longer present")
		return nil, nil
	}

	span := job.Span()
	b.metrics.RecordDrag(metrics.DragCommitted)
	b.logger.WithFields(logrus.Fields{
		"job_id":   session.JobID,
		"mode":     session.Mode,
		"original": session.Original().String(),
		"span":     span.String(),
	}).Info("Drag committed")

	return b.sched.Persist(session.JobID, span), nil
}

// Cancel ends the drag and puts the job back where it started. Nothing is
// sent to the server.
func (b *Board) Cancel() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cancel()
}

func (b *Board) cancel() error {
	session := b.holder.Take()
	if session == nil {
		return ErrNoSession
	}

	b.sched.Apply(session.JobID, session.Original())
	b.metrics.RecordDrag(metrics.DragCancelled)
	b.sched.Announce(types.LevelInfo, notifications.MsgDragCancelled, session.JobID)

	b.logger.WithField("job_id", session.JobID).Info("Drag cancelled")
	return nil
}

// LostCapture handles the pointer leaving the board's control mid-drag,
// following the configured CapturePolicy.
func (b *Board) LostCapture() (<-chan scheduler.Outcome, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.capture == CaptureCommit {
		return b.commit()
	}
	return nil, b.cancel()
}

// Dragging returns the id of the job under a live drag, if any.
func (b *Board) Dragging() (string, bool) {
	if s := b.holder.Current(); s != nil {
		return s.JobID, true
	}
	return "", false
}

// Conflicts returns the overlapping pairs in the working list.
func (b *Board) Conflicts() []types.ConflictPair {
	pairs, _ := b.detector.DetectWithStats(b.sched.Jobs())
	b.metrics.SetConflicts(len(pairs))
	return pairs
}

// ConflictStats is Conflicts with the sweep's instrumentation.
func (b *Board) ConflictStats() ([]types.ConflictPair, conflict.Stats) {
	pairs, stats := b.detector.DetectWithStats(b.sched.Jobs())
	b.metrics.SetConflicts(len(pairs))
	return pairs, stats
}

func (b *Board) Scheduler() *scheduler.Scheduler {
	return b.sched
}
