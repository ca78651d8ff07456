package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/0xPuncker/production-timeline/pkg/types"
	"github.com/sirupsen/logrus"
)

const (
	scheduleListPath = "/production/schedule"
	scheduleItemPath = "/production/schedule/%s"
	dateLayout       = "2006-01-02"
)

// APIError is a failure reported by the order API or the network path to it.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("order API unreachable: %s", e.Message)
	}
	return fmt.Sprintf("order API returned %d: %s", e.Status, e.Message)
}

func (e *APIError) ErrorCode() string {
	return e.Code
}

// Client talks to the order API: it lists production orders for the
// timeline and writes rescheduled dates back.
type Client struct {
	logger  *logrus.Logger
	client  *http.Client
	baseURL string
	apiKey  string
}

type ClientOption func(*Client)

func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.client = hc
	}
}

func NewClient(logger *logrus.Logger, baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	logger.Debugf("Order API base URL: %s", c.baseURL)
	return c
}

// record is the order API's representation of a scheduled production order.
type record struct {
	OrderID    string   `json:"order_id"`
	Product    string   `json:"product"`
	WorkCenter string   `json:"work_center"`
	StartDate  string   `json:"start_date"`
	DueDate    string   `json:"due_date"`
	EndDate    string   `json:"end_date"`
	Status     string   `json:"status"`
	Priority   string   `json:"priority"`
	Progress   *float64 `json:"progress"`
}

type scheduleUpdate struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
	Code   string          `json:"code"`
}

// FetchJobs lists the production orders to place on the timeline. Records
// without a start date are skipped.
func (c *Client) FetchJobs(ctx context.Context, window *types.Window) ([]types.ScheduledJob, error) {
	endpoint := c.baseURL + scheduleListPath
	if window != nil {
		q := url.Values{}
		q.Set("from", window.From.Format(dateLayout))
		q.Set("to", window.To.Format(dateLayout))
		endpoint += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create schedule request: %w", err)
	}

	var records []record
	if err := c.do(req, &records); err != nil {
		return nil, fmt.Errorf("failed to fetch production schedule: %w", err)
	}

	jobs := make([]types.ScheduledJob, 0, len(records))
	skipped := 0
	for _, r := range records {
		job, ok, err := r.toJob()
		if err != nil {
			c.logger.WithFields(logrus.Fields{
				"order_id": r.OrderID,
				"error":    err,
			}).Warn("Skipping order with unreadable dates")
			skipped++
			continue
		}
		if !ok {
			skipped++
			continue
		}
		jobs = append(jobs, job)
	}

	c.logger.WithFields(logrus.Fields{
		"jobs":    len(jobs),
		"skipped": skipped,
	}).Debug("Fetched production schedule")

	return jobs, nil
}

// UpdateSchedule writes a new start/end for one order. PUT makes the call
// safe to repeat.
func (c *Client) UpdateSchedule(ctx context.Context, jobID string, span types.Span) error {
	body, err := json.Marshal(scheduleUpdate{
		StartDate: span.Start.UTC().Format(time.RFC3339),
		EndDate:   span.End.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("error marshaling schedule update: %w", err)
	}

	endpoint := c.baseURL + fmt.Sprintf(scheduleItemPath, url.PathEscape(jobID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create schedule update request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("failed to update schedule for %q: %w", jobID, err)
	}
	return nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return &APIError{Code: "network_error", Message: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Status: resp.StatusCode, Code: "network_error", Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode order API response: %w", err)
	}
	return nil
}

func decodeError(status int, data []byte) *APIError {
	apiErr := &APIError{Status: status, Code: codeForStatus(status), Message: http.StatusText(status)}

	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil {
		if text := strings.TrimSpace(string(data)); text != "" {
			apiErr.Message = text
		}
		return apiErr
	}

	if body.Code != "" {
		apiErr.Code = body.Code
	}
	if len(body.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(body.Detail, &detail); err == nil {
			apiErr.Message = detail
		} else {
			apiErr.Message = string(body.Detail)
		}
	}
	return apiErr
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return "order_not_found"
	case http.StatusConflict:
		return "schedule_conflict"
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusUnauthorized, http.StatusForbidden:
		return "unauthorized"
	case http.StatusLocked:
		return "order_locked"
	default:
		return "unknown_error"
	}
}

func (r record) toJob() (types.ScheduledJob, bool, error) {
	if r.OrderID == "" || r.StartDate == "" {
		return types.ScheduledJob{}, false, nil
	}

	start, err := parseDate(r.StartDate)
	if err != nil {
		return types.ScheduledJob{}, false, fmt.Errorf("start_date: %w", err)
	}

	var end time.Time
	if raw := firstNonEmpty(r.EndDate, r.DueDate); raw != "" {
		end, err = parseDate(raw)
		if err != nil {
			return types.ScheduledJob{}, false, fmt.Errorf("end_date: %w", err)
		}
	}

	job := types.ScheduledJob{
		ID:       r.OrderID,
		Product:  r.Product,
		Lane:     r.WorkCenter,
		Start:    start,
		End:      end,
		Status:   r.Status,
		Priority: r.Priority,
	}
	if r.Progress != nil {
		job.Progress = *r.Progress
	}
	return job.Normalize(), true, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", dateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
