package calendar

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/0xPuncker/production-timeline/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEventURL(t *testing.T) {
	now := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		title       string
		startTime   time.Time
		endTime     time.Time
		description string
		expectError bool
	}{
		{
			name:        "valid event",
			title:       "Test Event",
			startTime:   now,
			endTime:     now.Add(1 * time.Hour),
			description: "Test Description",
			expectError: false,
		},
		{
			name:        "empty title",
			title:       "",
			startTime:   now,
			endTime:     now.Add(1 * time.Hour),
			description: "Test Description",
			expectError: true,
		},
		{
			name:        "end time before start time",
			title:       "Test Event",
			startTime:   now,
			endTime:     now.Add(-1 * time.Hour),
			description: "Test Description",
			expectError: true,
		},
		{
			name:        "same start and end time",
			title:       "Test Event",
			startTime:   now,
			endTime:     now,
			description: "Test Description",
			expectError: true,
		},
		{
			name:        "very long title",
			title:       strings.Repeat("x", 1025),
			startTime:   now,
			endTime:     now.Add(1 * time.Hour),
			description: "Test Description",
			expectError: true,
		},
	}

	service := NewCalendarService()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link, err := service.CreateEventURL(tt.title, tt.description, tt.startTime, tt.endTime, "")
			if tt.expectError {
				assert.Error(t, err)
				assert.Empty(t, link)
				return
			}

			require.NoError(t, err)
			assert.Contains(t, link, "https://calendar.google.com/calendar/render")

			u, err := url.Parse(link)
			require.NoError(t, err)
			q := u.Query()
			assert.Equal(t, "TEMPLATE", q.Get("action"))
			assert.Equal(t, tt.title, q.Get("text"))
			assert.Equal(t, tt.description, q.Get("details"))
			assert.Equal(t, "20250110T080000Z/20250110T090000Z", q.Get("dates"))
		})
	}
}

func TestCreateJobEvent(t *testing.T) {
	start := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		job           types.ScheduledJob
		expectError   bool
		expectedTitle string
		expectedDates string
	}{
		{
			name: "job with product",
			job: types.ScheduledJob{
				ID:      "PO-1",
				Product: "Gear",
				Lane:    "CNC-1",
				Start:   start,
				End:     start.Add(48 * time.Hour),
				Status:  "planned",
			},
			expectedTitle: "PO-1: Gear",
			expectedDates: "20250110T000000Z/20250112T000000Z",
		},
		{
			name: "zero-length job",
			job: types.ScheduledJob{
				ID:    "PO-2",
				Lane:  "CNC-2",
				Start: start,
				End:   start,
			},
			expectedTitle: "PO-2",
			expectedDates: "20250110T000000Z/20250110T010000Z",
		},
		{
			name:        "missing id",
			job:         types.ScheduledJob{Start: start, End: start.Add(time.Hour)},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link, err := CreateJobCalendarURL(tt.job)
			if tt.expectError {
				assert.Error(t, err)
				assert.Empty(t, link)
				return
			}

			require.NoError(t, err)
			u, err := url.Parse(link)
			require.NoError(t, err)
			q := u.Query()
			assert.Equal(t, tt.expectedTitle, q.Get("text"))
			assert.Equal(t, tt.expectedDates, q.Get("dates"))
			assert.Equal(t, tt.job.Lane, q.Get("location"))
			assert.Contains(t, q.Get("details"), "Order: "+tt.job.ID)
		})
	}
}
