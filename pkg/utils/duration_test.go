package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{"zero-length job", 0, "0m"},
		{"negative", -time.Minute, "0m"},
		{"under a minute rounds", 40 * time.Second, "1m"},
		{"minutes only", 45 * time.Minute, "45m"},
		{"whole hours", 3 * time.Hour, "3h"},
		{"hours and minutes", 2*time.Hour + 30*time.Minute, "2h 30m"},
		{"whole days", 72 * time.Hour, "3d"},
		{"days and hours", 50 * time.Hour, "2d 2h"},
		{"minutes dropped past a day", 26*time.Hour + 15*time.Minute, "1d 2h"},
		{"rounds up to the next hour", 59*time.Minute + 50*time.Second, "1h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatDuration(tt.duration))
		})
	}
}
