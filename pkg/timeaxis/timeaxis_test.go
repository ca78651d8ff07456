package timeaxis

import (
	"math/rand"
	"testing"
	"time"

	"github.com/0xPuncker/production-timeline/pkg/types"
	"github.com/stretchr/testify/assert"
)

func january() types.Window {
	return types.Window{
		From: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestToPosition(t *testing.T) {
	w := january()

	testCases := []struct {
		name string
		date time.Time
		want float64
	}{
		{"window start", w.From, 0},
		{"window end", w.To, 1},
		{"midpoint", time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC), 0.5},
		{"before window", time.Date(2024, 12, 2, 0, 0, 0, 0, time.UTC), -1},
		{"after window", time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, ToPosition(tc.date, w), 1e-9)
		})
	}
}

func TestToPositionDegenerateWindow(t *testing.T) {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	w := types.Window{From: at, To: at}

	assert.Equal(t, float64(0), ToPosition(at, w))
	assert.InDelta(t, 1, ToPosition(at.Add(time.Millisecond), w), 1e-9)
}

func TestToDelta(t *testing.T) {
	w := january()

	assert.Equal(t, 72*time.Hour, ToDelta(300, 3000, w))
	assert.Equal(t, -24*time.Hour, ToDelta(-100, 3000, w))
	assert.Equal(t, time.Duration(0), ToDelta(300, 0, w))
	assert.Equal(t, time.Duration(0), ToDelta(300, -20, w))
}

func TestRoundTrip(t *testing.T) {
	w := january()
	rng := rand.New(rand.NewSource(7))
	const trackWidth = 1234.0

	for i := 0; i < 500; i++ {
		date := w.From.Add(time.Duration(rng.Int63n(int64(w.Span()))))
		px := ToPosition(date, w) * trackWidth

		recovered := w.From.Add(ToDelta(px, trackWidth, w))
		assert.WithinDuration(t, date, recovered, time.Microsecond)
		assert.WithinDuration(t, date, FromPosition(ToPosition(date, w), w), time.Microsecond)
	}
}

func TestToPixels(t *testing.T) {
	w := january()
	assert.InDelta(t, 300, ToPixels(72*time.Hour, 3000, w), 1e-9)
}

func TestClip(t *testing.T) {
	assert.Equal(t, 0.0, Clip(-0.3))
	assert.Equal(t, 0.4, Clip(0.4))
	assert.Equal(t, 1.0, Clip(1.7))
}
