package notifications

import (
	"io"
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

func TestCenterShowAndDismiss(t *testing.T) {
	center := NewCenter(quietLogger())

	id := center.Show("Could not reschedule J1", types.LevelError)
	require.NotEmpty(t, id)

	toasts := center.List()
	require.Len(t, toasts, 1)
	assert.Equal(t, types.LevelError, toasts[0].Level)
	assert.True(t, toasts[0].Sticky)

	assert.True(t, center.Dismiss(id))
	assert.False(t, center.Dismiss(id))
	assert.Empty(t, center.List())
}

func TestCenterDropsEmptyMessages(t *testing.T) {
	center := NewCenter(quietLogger())
	assert.Empty(t, center.Show("", types.LevelInfo))
	assert.Empty(t, center.List())
}

func TestCenterAutoDismiss(t *testing.T) {
	center := NewCenter(quietLogger(),
		WithSuccessDismiss(50*time.Millisecond),
		WithInfoDismiss(50*time.Millisecond),
	)

	center.Notify("Schedule for J1 updated", types.LevelSuccess)
	center.Notify("Loading", types.LevelInfo)
	center.Notify("Could not reschedule J2", types.LevelError)
	assert.Len(t, center.List(), 3)

	time.Sleep(120 * time.Millisecond)

	toasts := center.List()
	require.Len(t, toasts, 1)
	assert.Equal(t, "Could not reschedule J2", toasts[0].Message)
}

func TestCenterKeepsNewest(t *testing.T) {
	center := NewCenter(quietLogger(), WithMaxToasts(2))

	center.Notify("first", types.LevelError)
	center.Notify("second", types.LevelError)
	center.Notify("third", types.LevelError)

	toasts := center.List()
	require.Len(t, toasts, 2)
	assert.Equal(t, "second", toasts[0].Message)
	assert.Equal(t, "third", toasts[1].Message)
}

type recorder struct {
	messages []string
	levels   []types.Level
}

func (r *recorder) Notify(message string, level types.Level) {
	r.messages = append(r.messages, message)
	r.levels = append(r.levels, level)
}

func TestFanout(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	Fanout{a, nil, b}.Notify("saved", types.LevelSuccess)

	assert.Equal(t, []string{"saved"}, a.messages)
	assert.Equal(t, []types.Level{types.LevelSuccess}, b.levels)
}
