package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/0xPuncker/production-timeline/internal/metrics"
	"github.com/0xPuncker/production-timeline/internal/notifications"
	"github.com/0xPuncker/production-timeline/pkg/types"
	"github.com/sirupsen/logrus"
)

const DefaultPersistTimeout = 15 * time.Second

var ErrClosed = errors.New("scheduler is closed")

// JobSource returns the authoritative job list.
type JobSource interface {
	FetchJobs(ctx context.Context, window *types.Window) ([]types.ScheduledJob, error)
}

// Rescheduler writes a job's new start and end to the server. Calls must be
// safe to repeat.
type Rescheduler interface {
	UpdateSchedule(ctx context.Context, jobID string, span types.Span) error
}

// StaticSource serves a fixed job list.
type StaticSource []types.ScheduledJob

func (s StaticSource) FetchJobs(_ context.Context, _ *types.Window) ([]types.ScheduledJob, error) {
	jobs := make([]types.ScheduledJob, len(s))
	copy(jobs, s)
	return jobs, nil
}

// Outcome is the result of one Persist call. Coalesced outcomes were replaced
// by a newer span for the same job and never sent.
type Outcome struct {
	JobID     string
	Span      types.Span
	Err       error
	Coalesced bool
}

type queued struct {
	span types.Span
	out  chan Outcome
}

type inflight struct {
	next *queued
}

// Scheduler owns the working job list. Edits are applied locally first and
// written to the server in the background; failures are reconciled by
// re-fetching the whole list.
type Scheduler struct {
	source     JobSource
	writer     Rescheduler
	notifier   notifications.Notifier
	logger     *logrus.Logger
	translator *notifications.Translator
	metrics    *metrics.Collector

	refreshOnSuccess bool
	serializePerJob  bool
	persistTimeout   time.Duration

	mu       sync.RWMutex
	jobs     []types.ScheduledJob
	window   *types.Window
	inflight map[string]*inflight
	closed   bool

	refreshMu  sync.Mutex
	generation uint64
	applied    uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Option func(*Scheduler)

func WithTranslator(t *notifications.Translator) Option {
	return func(s *Scheduler) {
		if t != nil {
			s.translator = t
		}
	}
}

// WithRefreshOnSuccess controls whether a successful persist is followed by
// a refresh. Failed persists always refresh.
func WithRefreshOnSuccess(enabled bool) Option {
	return func(s *Scheduler) {
		s.refreshOnSuccess = enabled
	}
}

// WithSerializePerJob makes persists for the same job wait for the previous
// one. Only the newest waiting span is sent.
func WithSerializePerJob(enabled bool) Option {
	return func(s *Scheduler) {
		s.serializePerJob = enabled
	}
}

func WithPersistTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.persistTimeout = d
		}
	}
}

func WithMetrics(c *metrics.Collector) Option {
	return func(s *Scheduler) {
		s.metrics = c
	}
}

func New(source JobSource, writer Rescheduler, notifier notifications.Notifier, logger *logrus.Logger, opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		source:           source,
		writer:           writer,
		notifier:         notifier,
		logger:           logger,
		translator:       notifications.NewTranslator("en"),
		refreshOnSuccess: true,
		persistTimeout:   DefaultPersistTimeout,
		inflight:         make(map[string]*inflight),
		ctx:              ctx,
		cancel:           cancel,
	}
	if s.notifier == nil {
		s.notifier = notifications.Fanout{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Jobs returns a copy of the working list.
func (s *Scheduler) Jobs() []types.ScheduledJob {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]types.ScheduledJob, len(s.jobs))
	copy(jobs, s.jobs)
	return jobs
}

func (s *Scheduler) Job(id string) (types.ScheduledJob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, job := range s.jobs {
		if job.ID == id {
			return job, true
		}
	}
	return types.ScheduledJob{}, false
}

// Apply sets the start and end of one job in the working list. It reports
// false when the job is not present.
func (s *Scheduler) Apply(id string, span types.Span) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.jobs {
		if s.jobs[i].ID == id {
			s.jobs[i].Start = span.Start
			s.jobs[i].End = span.End
			return true
		}
	}
	return false
}

// SetWindow narrows the next fetches to window. A nil window fetches
// everything.
func (s *Scheduler) SetWindow(window *types.Window) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if window == nil {
		s.window = nil
		return
	}
	w := *window
	s.window = &w
}

// Refresh replaces the working list with the server's. On failure the last
// known list is kept and a generic error notification is raised.
func (s *Scheduler) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	s.generation++
	gen := s.generation
	s.refreshMu.Unlock()

	s.mu.RLock()
	window := s.window
	s.mu.RUnlock()

	jobs, err := s.source.FetchJobs(ctx, window)
	if err != nil {
		s.metrics.RecordReconcile(metrics.ResultFailure, 0)
		s.logger.WithFields(logrus.Fields{
			"error": err,
		}).Error("Failed to refresh production schedule")
		s.notifier.Notify(s.translator.Text(notifications.MsgRefreshFailed), types.LevelError)
		return fmt.Errorf("failed to refresh schedule: %w", err)
	}

	for i := range jobs {
		jobs[i] = jobs[i].Normalize()
	}

	// The generation check and the write share refreshMu so an older list
	// can never land after a newer one.
	s.refreshMu.Lock()
	if gen < s.applied {
		s.refreshMu.Unlock()
		s.logger.WithField("generation", gen).Debug("Discarding stale schedule refresh")
		return nil
	}
	s.applied = gen
	s.mu.Lock()
	s.jobs = jobs
	s.mu.Unlock()
	s.refreshMu.Unlock()

	s.metrics.RecordReconcile(metrics.ResultSuccess, len(jobs))
	s.logger.WithFields(logrus.Fields{
		"jobs": len(jobs),
	}).Debug("Production schedule refreshed")
	return nil
}

// Persist writes span for job id in the background and returns a channel
// that receives exactly one Outcome. It never blocks.
func (s *Scheduler) Persist(id string, span types.Span) <-chan Outcome {
	out := make(chan Outcome, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		out <- Outcome{JobID: id, Span: span, Err: ErrClosed}
		close(out)
		return out
	}

	if s.serializePerJob {
		if q, busy := s.inflight[id]; busy {
			if q.next != nil {
				q.next.out <- Outcome{JobID: id, Span: q.next.span, Coalesced: true}
				close(q.next.out)
				s.metrics.RecordPersist(metrics.ResultCoalesced, 0)
			}
			q.next = &queued{span: span, out: out}
			s.mu.Unlock()

			s.logger.WithFields(logrus.Fields{
				"job_id": id,
				"span":   span.String(),
			}).Debug("Schedule update queued behind in-flight update")
			return out
		}
		s.inflight[id] = &inflight{}
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run(id, span, out)
	return out
}

func (s *Scheduler) run(id string, span types.Span, out chan Outcome) {
	defer s.wg.Done()

	for {
		out <- s.send(id, span)
		close(out)

		if !s.serializePerJob {
			return
		}

		s.mu.Lock()
		q := s.inflight[id]
		if q == nil || q.next == nil {
			delete(s.inflight, id)
			s.mu.Unlock()
			return
		}
		span, out = q.next.span, q.next.out
		q.next = nil
		s.mu.Unlock()
	}
}

func (s *Scheduler) send(id string, span types.Span) Outcome {
	log := s.logger.WithFields(logrus.Fields{
		"job_id": id,
		"span":   span.String(),
	})

	start := time.Now()
	ctx, cancel := context.WithTimeout(s.ctx, s.persistTimeout)
	err := s.writer.UpdateSchedule(ctx, id, span)
	cancel()
	latency := time.Since(start)

	if err != nil {
		s.metrics.RecordPersist(metrics.ResultFailure, latency)
		log.WithFields(logrus.Fields{
			"error":    err,
			"duration": latency,
		}).Error("Schedule update rejected")

		s.notifier.Notify(s.translator.Text(notifications.MsgScheduleFailed, id, s.translator.Reason(err)), types.LevelError)
		s.reconcile()
		return Outcome{JobID: id, Span: span, Err: err}
	}

	s.metrics.RecordPersist(metrics.ResultSuccess, latency)
	log.WithField("duration", latency).Info("Schedule updated")

	s.notifier.Notify(s.translator.Text(notifications.MsgScheduleSaved, id), types.LevelSuccess)
	if s.refreshOnSuccess {
		s.reconcile()
	}
	return Outcome{JobID: id, Span: span}
}

func (s *Scheduler) reconcile() {
	if s.ctx.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, s.persistTimeout)
	defer cancel()

	// Refresh notifies on its own.
	_ = s.Refresh(ctx)
}

// Announce renders a message in the configured language and sends it to the
// notifier.
func (s *Scheduler) Announce(level types.Level, key string, args ...interface{}) {
	s.notifier.Notify(s.translator.Text(key, args...), level)
}

// Wait blocks until every in-flight persist has resolved.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Close rejects new persists, aborts in-flight ones and waits for them.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}
