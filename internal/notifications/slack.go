package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/0xPuncker/production-timeline/pkg/types"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type SlackService struct {
	logger     *logrus.Logger
	webhookURL string
	client     *http.Client
}

type SlackMessage struct {
	Text        string       `json:"text"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

type Attachment struct {
	Color  string  `json:"color,omitempty"`
	Text   string  `json:"text,omitempty"`
	Fields []Field `json:"fields,omitempty"`
	Footer string  `json:"footer,omitempty"`
	Ts     int64   `json:"ts,omitempty"`
}

type Field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// NewSlackService builds a webhook client. An empty webhookURL falls back to
// SLACK_WEBHOOK_URL.
func NewSlackService(logger *logrus.Logger, webhookURL string) (*SlackService, error) {
	if webhookURL == "" {
		webhookURL = os.Getenv("SLACK_WEBHOOK_URL")
	}
	if webhookURL == "" {
		return nil, fmt.Errorf("SLACK_WEBHOOK_URL environment variable is not set")
	}

	return &SlackService{
		logger:     logger,
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (s *SlackService) SendSlackMessage(message *SlackMessage) error {
	if s.webhookURL == "" {
		return fmt.Errorf("slack webhook URL not configured")
	}

	jsonMessage, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("error marshaling slack message: %w", err)
	}

	resp, err := s.client.Post(s.webhookURL, "application/json", bytes.NewBuffer(jsonMessage))
	if err != nil {
		return fmt.Errorf("error sending slack message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack API returned non-200 status code: %d", resp.StatusCode)
	}

	s.logger.Debug("Successfully sent message to Slack")
	return nil
}

// SlackNotifier forwards notifications at or above a level to Slack. Delivery
// happens in the background; failures are only logged.
// Slack accepts roughly one webhook message per second.
const (
	DefaultSlackRate  = rate.Limit(1)
	DefaultSlackBurst = 5
)

type SlackNotifier struct {
	slack    *SlackService
	minLevel types.Level
	limiter  *rate.Limiter
	wg       sync.WaitGroup
}

type SlackNotifierOption func(*SlackNotifier)

// WithSlackRate caps forwarded notifications; the excess is dropped.
func WithSlackRate(limit rate.Limit, burst int) SlackNotifierOption {
	return func(n *SlackNotifier) {
		n.limiter = rate.NewLimiter(limit, burst)
	}
}

func NewSlackNotifier(slack *SlackService, minLevel types.Level, opts ...SlackNotifierOption) *SlackNotifier {
	if minLevel == "" {
		minLevel = types.LevelError
	}
	n := &SlackNotifier{
		slack:    slack,
		minLevel: minLevel,
		limiter:  rate.NewLimiter(DefaultSlackRate, DefaultSlackBurst),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *SlackNotifier) Notify(message string, level types.Level) {
	if n.slack == nil || severity(level) < severity(n.minLevel) {
		return
	}
	if !n.limiter.Allow() {
		n.slack.logger.WithField("level", level).Warn("Slack rate limit reached, notification dropped")
		return
	}

	msg := formatNotification(message, level)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if err := n.slack.SendSlackMessage(msg); err != nil {
			n.slack.logger.WithFields(logrus.Fields{
				"level": level,
				"error": err,
			}).Error("Failed to forward notification to Slack")
		}
	}()
}

// Wait blocks until queued deliveries finish.
func (n *SlackNotifier) Wait() {
	n.wg.Wait()
}

func severity(level types.Level) int {
	switch level {
	case types.LevelError:
		return 2
	case types.LevelSuccess:
		return 1
	default:
		return 0
	}
}

func formatNotification(message string, level types.Level) *SlackMessage {
	var color, icon string

	switch level {
	case types.LevelSuccess:
		color = "good"
		icon = "✅"
	case types.LevelError:
		color = "danger"
		icon = "❌"
	default:
		color = "#808080"
		icon = "ℹ️"
	}

	return &SlackMessage{
		Text: fmt.Sprintf("%s Production schedule", icon),
		Attachments: []Attachment{
			{
				Color: color,
				Text:  message,
				Ts:    time.Now().Unix(),
			},
		},
	}
}
