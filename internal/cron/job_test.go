package cron

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/0xPuncker/production-timeline/pkg/types"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestScheduler(t *testing.T) {
	var counter int
	var mu sync.Mutex

	config := types.JobConfig{
		MaxConcurrent: 10,
		Predefined: []types.Job{
			{
				Name:        "test-job",
				Schedule:    "*/1 * * * * *",
				TaskName:    "test-task",
				Enabled:     true,
				Description: "counts ticks",
			},
		},
	}

	scheduler := NewScheduler(quietLogger(), config)
	scheduler.RegisterTask("test-task", func() error {
		mu.Lock()
		counter++
		mu.Unlock()
		return nil
	})
	require.NoError(t, scheduler.LoadPredefinedJobs(config.Predefined))

	err := scheduler.Start()
	assert.NoError(t, err)

	time.Sleep(2500 * time.Millisecond)

	scheduler.Stop()

	mu.Lock()
	assert.Greater(t, counter, 0)
	mu.Unlock()

	jobs := scheduler.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "test-job", jobs[0].Name)
	assert.Equal(t, "*/1 * * * * *", jobs[0].Schedule)

	enabled, description, err := scheduler.GetJobStatus("test-job")
	require.NoError(t, err)
	assert.True(t, enabled)
	assert.Equal(t, "counts ticks", description)

	_, _, err = scheduler.GetJobStatus("missing")
	assert.Error(t, err)
}

func TestSchedulerErrors(t *testing.T) {
	scheduler := NewScheduler(quietLogger(), types.JobConfig{MaxConcurrent: 10})
	scheduler.RegisterTask("known-task", func() error { return nil })

	err := scheduler.LoadPredefinedJobs([]types.Job{
		{Name: "unknown", Schedule: "*/1 * * * * *", TaskName: "non-existent-task", Enabled: true},
	})
	assert.Error(t, err)

	err = scheduler.LoadPredefinedJobs([]types.Job{
		{Name: "bad-schedule", Schedule: "invalid-schedule", TaskName: "known-task", Enabled: true},
	})
	assert.Error(t, err)

	assert.NoError(t, scheduler.Start())
	assert.Error(t, scheduler.Start())
	scheduler.Stop()
}

func TestJobErrorHandling(t *testing.T) {
	var errorCount int
	var mu sync.Mutex

	jobs := []types.Job{
		{
			Name:     "error-job",
			Schedule: "*/1 * * * * *",
			TaskName: "error-task",
			Enabled:  true,
		},
	}

	scheduler := NewScheduler(quietLogger(), types.JobConfig{MaxConcurrent: 10})
	scheduler.RegisterTask("error-task", func() error {
		mu.Lock()
		errorCount++
		mu.Unlock()
		return errors.New("test error")
	})
	require.NoError(t, scheduler.LoadPredefinedJobs(jobs))

	assert.NoError(t, scheduler.Start())
	time.Sleep(2500 * time.Millisecond)
	scheduler.Stop()

	mu.Lock()
	assert.Greater(t, errorCount, 0)
	mu.Unlock()
}

func TestJobDisabling(t *testing.T) {
	var counter int
	var mu sync.Mutex

	scheduler := NewScheduler(quietLogger(), types.JobConfig{MaxConcurrent: 10})
	scheduler.RegisterTask("disabled-task", func() error {
		mu.Lock()
		counter++
		mu.Unlock()
		return nil
	})
	require.NoError(t, scheduler.LoadPredefinedJobs([]types.Job{
		{
			Name:     "disabled-job",
			Schedule: "*/1 * * * * *",
			TaskName: "disabled-task",
			Enabled:  false,
		},
	}))

	assert.NoError(t, scheduler.Start())
	time.Sleep(1500 * time.Millisecond)
	scheduler.Stop()

	mu.Lock()
	assert.Equal(t, 0, counter)
	mu.Unlock()
	assert.Empty(t, scheduler.ListJobs())
}

func TestMaxConcurrentSkipsOverlappingRuns(t *testing.T) {
	release := make(chan struct{})
	var runs int
	var mu sync.Mutex

	scheduler := NewScheduler(quietLogger(), types.JobConfig{MaxConcurrent: 1})
	scheduler.RegisterTask("slow-task", func() error {
		mu.Lock()
		runs++
		mu.Unlock()
		<-release
		return nil
	})
	require.NoError(t, scheduler.LoadPredefinedJobs([]types.Job{
		{Name: "slow-job", Schedule: "*/1 * * * * *", TaskName: "slow-task", Enabled: true},
	}))

	assert.NoError(t, scheduler.Start())
	time.Sleep(3500 * time.Millisecond)
	close(release)
	scheduler.Stop()

	mu.Lock()
	assert.Equal(t, 1, runs)
	mu.Unlock()
}

func TestSchedulerState(t *testing.T) {
	scheduler := NewScheduler(quietLogger(), types.JobConfig{MaxConcurrent: 10})

	assert.False(t, scheduler.IsRunning())

	err := scheduler.Start()
	assert.NoError(t, err)
	assert.True(t, scheduler.IsRunning())

	scheduler.Stop()
	assert.False(t, scheduler.IsRunning())
}
