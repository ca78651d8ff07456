package poller

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (c *countingRefresher) Refresh(ctx context.Context) error {
	c.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("refresh without deadline")
	}
	return c.err
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestPollerConfiguration(t *testing.T) {
	testCases := []struct {
		name            string
		interval        time.Duration
		timeout         time.Duration
		expectedTimeout time.Duration
	}{
		{"Default interval", 1 * time.Minute, 30 * time.Second, 30 * time.Second},
		{"Timeout capped at interval", 10 * time.Second, time.Minute, 10 * time.Second},
		{"Missing timeout", 1 * time.Hour, 0, 1 * time.Hour},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			poller := New(&countingRefresher{}, quietLogger(), tc.interval, tc.timeout)

			assert.NotNil(t, poller)
			assert.Equal(t, tc.interval, poller.interval)
			assert.Equal(t, tc.expectedTimeout, poller.timeout)
		})
	}
}

func TestPollerUpdateCycle(t *testing.T) {
	source := &countingRefresher{}
	poller := New(source, quietLogger(), 50*time.Millisecond, time.Second)

	go poller.Start()
	time.Sleep(180 * time.Millisecond)
	poller.Stop()

	calls := source.calls.Load()
	assert.GreaterOrEqual(t, calls, int32(2))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, calls, source.calls.Load(), "no refresh after Stop")
}

func TestPollerKeepsRunningAfterFailure(t *testing.T) {
	source := &countingRefresher{err: errors.New("order API down")}
	poller := New(source, quietLogger(), 30*time.Millisecond, time.Second)

	go poller.Start()
	time.Sleep(120 * time.Millisecond)
	poller.Stop()
	poller.Stop()

	assert.GreaterOrEqual(t, source.calls.Load(), int32(2))
}
