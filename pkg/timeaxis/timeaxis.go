// Package timeaxis maps between calendar time and positions on a timeline track.
package timeaxis

import (
	"math"
	"time"

	"github.com/0xPuncker/production-timeline/pkg/types"
)

// ToPosition returns the fractional position of date within window. Values
// outside [0,1] are returned as-is for dates outside the window.
func ToPosition(date time.Time, window types.Window) float64 {
	return float64(date.Sub(window.From)) / float64(window.Span())
}

// FromPosition is the inverse of ToPosition.
func FromPosition(fraction float64, window types.Window) time.Time {
	return window.From.Add(time.Duration(math.Round(fraction * float64(window.Span()))))
}

// ToDelta converts a pixel offset on a track of trackWidthPx pixels into a
// time offset. A track without width yields no movement.
func ToDelta(pixelDelta, trackWidthPx float64, window types.Window) time.Duration {
	if trackWidthPx <= 0 {
		return 0
	}
	return time.Duration(math.Round(pixelDelta / trackWidthPx * float64(window.Span())))
}

// ToPixels converts a time offset into pixels on a track of trackWidthPx.
func ToPixels(delta time.Duration, trackWidthPx float64, window types.Window) float64 {
	return float64(delta) / float64(window.Span()) * trackWidthPx
}

// Clip bounds a fraction to the visible track.
func Clip(fraction float64) float64 {
	return math.Max(0, math.Min(1, fraction))
}
