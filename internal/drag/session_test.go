package drag

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/0xPuncker/production-timeline/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trackWidth = 3000.0 // 100px per day over a 30-day window

var (
	window = types.Window{
		From: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
	}
	beforeWindow = time.Date(2024, 12, 20, 9, 30, 0, 0, time.UTC)
)

func day(d int) time.Time {
	return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC)
}

func j1() types.ScheduledJob {
	return types.ScheduledJob{ID: "J1", Lane: "CNC-1", Start: day(10), End: day(12)}
}

func TestParseMode(t *testing.T) {
	testCases := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"move", ModeMove, false},
		{"resize-start", ModeResizeStart, false},
		{"resize-end", ModeResizeEnd, false},
		{"", ModeMove, false},
		{"rotate", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseMode(tc.in)
			if tc.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidMode))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMoveThreeDays(t *testing.T) {
	s, err := Begin(j1(), ModeMove, 500, trackWidth, window, beforeWindow)
	require.NoError(t, err)

	span := s.Span(800)
	assert.Equal(t, day(13), span.Start)
	assert.Equal(t, day(15), span.End)
	assert.Equal(t, types.Span{Start: day(10), End: day(12)}, s.Original())
}

func TestMoveUsesCumulativeOffset(t *testing.T) {
	s, err := Begin(j1(), ModeMove, 500, trackWidth, window, beforeWindow)
	require.NoError(t, err)

	s.Span(600)
	s.Span(900)
	span := s.Span(700)
	assert.Equal(t, day(12), span.Start)
	assert.Equal(t, day(14), span.End)
}

func TestMoveClampsToWindow(t *testing.T) {
	s, err := Begin(j1(), ModeMove, 500, trackWidth, window, beforeWindow)
	require.NoError(t, err)

	left := s.Span(-5000)
	assert.Equal(t, window.From, left.Start)
	assert.Equal(t, window.From.Add(48*time.Hour), left.End)

	right := s.Span(9000)
	assert.Equal(t, window.To, right.End)
	assert.Equal(t, window.To.Add(-48*time.Hour), right.Start)
}

func TestMoveFloorsAtToday(t *testing.T) {
	now := time.Date(2025, 1, 8, 15, 45, 0, 0, time.UTC)
	s, err := Begin(j1(), ModeMove, 500, trackWidth, window, now)
	require.NoError(t, err)

	lower, upper := s.Bounds()
	assert.Equal(t, day(8), lower)
	assert.Equal(t, window.To, upper)

	span := s.Span(0)
	assert.Equal(t, day(8), span.Start)
	assert.Equal(t, day(10), span.End)
}

func TestWindowEntirelyInPast(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s, err := Begin(j1(), ModeResizeEnd, 500, trackWidth, window, now)
	require.NoError(t, err)

	lower, upper := s.Bounds()
	assert.Equal(t, window.To, lower)
	assert.Equal(t, window.To, upper)
}

func TestMoveZeroLengthJobGetsMinimumDuration(t *testing.T) {
	point := types.ScheduledJob{ID: "P", Start: day(5)}.Normalize()
	s, err := Begin(point, ModeMove, 0, trackWidth, window, beforeWindow)
	require.NoError(t, err)

	span := s.Span(100)
	assert.Equal(t, day(6), span.Start)
	assert.Equal(t, MinDuration, span.Duration())
	assert.Equal(t, day(5), s.Original().End)
}

func TestResizeStart(t *testing.T) {
	s, err := Begin(j1(), ModeResizeStart, 500, trackWidth, window, beforeWindow)
	require.NoError(t, err)

	span := s.Span(400)
	assert.Equal(t, day(9), span.Start)
	assert.Equal(t, day(12), span.End)

	collapsed := s.Span(5000)
	assert.Equal(t, day(12).Add(-MinDuration), collapsed.Start)
	assert.Equal(t, day(12), collapsed.End)
}

func TestResizeEnd(t *testing.T) {
	s, err := Begin(j1(), ModeResizeEnd, 500, trackWidth, window, beforeWindow)
	require.NoError(t, err)

	span := s.Span(650)
	assert.Equal(t, day(10), span.Start)
	assert.Equal(t, day(13).Add(12*time.Hour), span.End)

	collapsed := s.Span(-5000)
	assert.Equal(t, day(10).Add(MinDuration), collapsed.End)

	stretched := s.Span(9000)
	assert.Equal(t, window.To, stretched.End)
}

func TestCustomMinDuration(t *testing.T) {
	s, err := Begin(j1(), ModeResizeEnd, 500, trackWidth, window, beforeWindow)
	require.NoError(t, err)
	s.MinDuration = 6 * time.Hour

	assert.Equal(t, day(10).Add(6*time.Hour), s.Span(-5000).End)
}

func TestZeroWidthTrackDoesNotMove(t *testing.T) {
	s, err := Begin(j1(), ModeMove, 500, 0, window, beforeWindow)
	require.NoError(t, err)

	assert.Equal(t, j1().Span(), s.Span(1500))
}

func TestBeginRejectsUnknownMode(t *testing.T) {
	_, err := Begin(j1(), Mode("spin"), 0, trackWidth, window, beforeWindow)
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestClampingInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	modes := []Mode{ModeMove, ModeResizeStart, ModeResizeEnd}

	for i := 0; i < 300; i++ {
		start := window.From.Add(time.Duration(rng.Int63n(int64(20 * 24 * time.Hour))))
		job := types.ScheduledJob{
			ID:    "R",
			Start: start,
			End:   start.Add(MinDuration + time.Duration(rng.Int63n(int64(5*24*time.Hour)))),
		}
		mode := modes[rng.Intn(len(modes))]
		now := window.From.Add(time.Duration(rng.Int63n(int64(10 * 24 * time.Hour))))
		if job.Start.Before(midnight(now)) {
			now = job.Start
		}

		s, err := Begin(job, mode, 1500, trackWidth, window, now)
		require.NoError(t, err)
		lower, _ := s.Bounds()

		for step := 0; step < 20; step++ {
			span := s.Span(rng.Float64()*12000 - 6000)

			assert.False(t, span.End.Sub(span.Start) < MinDuration, "min duration violated in %s", mode)
			assert.False(t, span.End.After(window.To), "end past window in %s", mode)
			assert.False(t, span.Start.Before(window.From), "start before window in %s", mode)
			if mode != ModeResizeEnd {
				assert.False(t, span.Start.Before(lower), "start before today floor in %s", mode)
			}
		}
	}
}

func TestHolderSingleSession(t *testing.T) {
	var h Holder
	assert.False(t, h.Active())

	first, err := Begin(j1(), ModeMove, 0, trackWidth, window, beforeWindow)
	require.NoError(t, err)
	second, err := Begin(types.ScheduledJob{ID: "J2", Start: day(3), End: day(4)}, ModeMove, 0, trackWidth, window, beforeWindow)
	require.NoError(t, err)

	require.NoError(t, h.Set(first))
	assert.ErrorIs(t, h.Set(second), ErrSessionActive)
	assert.Same(t, first, h.Current())

	assert.Same(t, first, h.Take())
	assert.Nil(t, h.Take())
	assert.NoError(t, h.Set(second))
}
