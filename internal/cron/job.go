package cron

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/0xPuncker/production-timeline/pkg/types"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type entry struct {
	id          cron.EntryID
	schedule    string
	taskName    string
	enabled     bool
	description string
}

// Scheduler runs registered tasks on cron schedules, with at most
// maxConcurrent tasks running at once.
type Scheduler struct {
	cron           *cron.Cron
	logger         *logrus.Logger
	jobs           map[string]entry
	mu             sync.RWMutex
	started        bool
	tasks          map[string]func() error
	maxConcurrent  int
	activeJobs     int
	activeJobsLock sync.Mutex
}

func NewScheduler(logger *logrus.Logger, config types.JobConfig) *Scheduler {
	maxConcurrent := config.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Scheduler{
		cron:          cron.New(cron.WithSeconds()),
		logger:        logger,
		maxConcurrent: maxConcurrent,
		jobs:          make(map[string]entry),
		tasks:         make(map[string]func() error),
	}
}

func (s *Scheduler) RegisterTask(name string, task func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[name] = task
}

// LoadPredefinedJobs replaces the scheduled jobs. Every enabled job must name
// a registered task.
func (s *Scheduler) LoadPredefinedJobs(jobs []types.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, job := range s.jobs {
		s.cron.Remove(job.id)
		delete(s.jobs, name)
	}

	for _, job := range jobs {
		if !job.Enabled {
			s.logger.Infof("Skipping disabled job: %s", job.Name)
			continue
		}

		task, exists := s.tasks[job.TaskName]
		if !exists {
			return fmt.Errorf("task %s not registered", job.TaskName)
		}

		id, err := s.cron.AddFunc(job.Schedule, s.wrap(job, task))
		if err != nil {
			return fmt.Errorf("failed to schedule job %s: %w", job.Name, err)
		}

		s.jobs[job.Name] = entry{
			id:          id,
			schedule:    job.Schedule,
			taskName:    job.TaskName,
			enabled:     job.Enabled,
			description: job.Description,
		}

		s.logger.WithFields(logrus.Fields{
			"job_name":    job.Name,
			"schedule":    job.Schedule,
			"task":        job.TaskName,
			"description": job.Description,
		}).Info("Job scheduled successfully")
	}

	return nil
}

func (s *Scheduler) wrap(job types.Job, task func() error) func() {
	return func() {
		s.activeJobsLock.Lock()
		if s.activeJobs >= s.maxConcurrent {
			s.activeJobsLock.Unlock()
			s.logger.Warnf("Max concurrent jobs reached, skipping job: %s", job.Name)
			return
		}
		s.activeJobs++
		active := s.activeJobs
		s.activeJobsLock.Unlock()

		defer func() {
			s.activeJobsLock.Lock()
			s.activeJobs--
			s.activeJobsLock.Unlock()
		}()

		log := s.logger.WithFields(logrus.Fields{
			"job_name": job.Name,
			"task":     job.TaskName,
		})
		log.WithField("active_jobs", active).Debug("Starting job execution")

		start := time.Now()
		if err := task(); err != nil {
			log.WithFields(logrus.Fields{
				"error":    err.Error(),
				"duration": time.Since(start).Round(time.Millisecond).String(),
			}).Error("Job execution failed")
			return
		}
		log.WithField("duration", time.Since(start).Round(time.Millisecond).String()).
			Debug("Job execution completed successfully")
	}
}

func (s *Scheduler) GetJobStatus(name string) (bool, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[name]
	if !exists {
		return false, "", fmt.Errorf("job %s not found", name)
	}

	return job.enabled, job.description, nil
}

// ListJobs returns the scheduled jobs sorted by name.
func (s *Scheduler) ListJobs() []types.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]types.Job, 0, len(s.jobs))
	for name, job := range s.jobs {
		jobs = append(jobs, types.Job{
			Name:        name,
			Schedule:    job.schedule,
			TaskName:    job.taskName,
			Enabled:     job.enabled,
			Description: job.description,
		})
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Name < jobs[j].Name })

	return jobs
}

func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler already started")
	}

	s.cron.Start()
	s.started = true
	s.logger.Info("Scheduler started...")

	return nil
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.started = false
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}
