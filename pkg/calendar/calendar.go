package calendar

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/0xPuncker/production-timeline/pkg/types"
)

const maxTitleLength = 1024

type CalendarService struct{}

func NewCalendarService() *CalendarService {
	return &CalendarService{}
}

func (s *CalendarService) CreateEventURL(title, description string, startTime, endTime time.Time, location string) (string, error) {
	if title == "" {
		return "", fmt.Errorf("title cannot be empty")
	}

	if len(title) > maxTitleLength {
		return "", fmt.Errorf("title exceeds %d characters", maxTitleLength)
	}

	if endTime.Before(startTime) {
		return "", fmt.Errorf("end time cannot be before start time")
	}

	if startTime.Equal(endTime) {
		return "", fmt.Errorf("start time and end time cannot be the same")
	}

	start := startTime.UTC().Format("20060102T150405Z")
	end := endTime.UTC().Format("20060102T150405Z")

	u := url.URL{
		Scheme: "https",
		Host:   "calendar.google.com",
		Path:   "calendar/render",
	}

	params := url.Values{}
	params.Add("action", "TEMPLATE")
	params.Add("text", title)
	params.Add("details", description)
	params.Add("dates", fmt.Sprintf("%s/%s", start, end))
	params.Add("location", location)

	u.RawQuery = params.Encode()

	return u.String(), nil
}

// CreateJobEvent links to a calendar entry covering a job's scheduled span.
// Zero-length jobs get a one hour entry.
func (s *CalendarService) CreateJobEvent(job types.ScheduledJob) (string, error) {
	if job.ID == "" {
		return "", fmt.Errorf("job id cannot be empty")
	}

	title := job.ID
	if job.Product != "" {
		title = fmt.Sprintf("%s: %s", job.ID, job.Product)
	}

	var details strings.Builder
	fmt.Fprintf(&details, "Order: %s\nWork center: %s", job.ID, job.Lane)
	if job.Status != "" {
		fmt.Fprintf(&details, "\nStatus: %s", job.Status)
	}
	if job.Priority != "" {
		fmt.Fprintf(&details, "\nPriority: %s", job.Priority)
	}

	end := job.End
	if !end.After(job.Start) {
		end = job.Start.Add(time.Hour)
	}

	return s.CreateEventURL(title, details.String(), job.Start, end, job.Lane)
}

func CreateJobCalendarURL(job types.ScheduledJob) (string, error) {
	service := NewCalendarService()
	return service.CreateJobEvent(job)
}
