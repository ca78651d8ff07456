package notifications

import (
	"sort"
	"sync"
	"time"

	"github.com/0xPuncker/production-timeline/pkg/types"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

const (
	DefaultSuccessDismiss = 3 * time.Second
	DefaultInfoDismiss    = 4 * time.Second
	DefaultMaxToasts      = 4
)

// Notifier is the fire-and-forget sink for user-facing messages.
type Notifier interface {
	Notify(message string, level types.Level)
}

// Toast is one notification shown on the board.
type Toast struct {
	ID        string      `json:"id"`
	Message   string      `json:"message"`
	Level     types.Level `json:"level"`
	CreatedAt time.Time   `json:"created_at"`
	Sticky    bool        `json:"sticky"`

	seq uint64
}

// Center keeps the visible toast stack. Success and info toasts expire on
// their own; error toasts stay until dismissed. Only the newest MaxToasts
// are kept.
type Center struct {
	cache          *cache.Cache
	logger         *logrus.Logger
	successDismiss time.Duration
	infoDismiss    time.Duration
	maxToasts      int
	mu             sync.Mutex
	seq            uint64
	now            func() time.Time
}

type CenterOption func(*Center)

func WithSuccessDismiss(d time.Duration) CenterOption {
	return func(c *Center) {
		if d > 0 {
			c.successDismiss = d
		}
	}
}

func WithInfoDismiss(d time.Duration) CenterOption {
	return func(c *Center) {
		if d > 0 {
			c.infoDismiss = d
		}
	}
}

func WithMaxToasts(n int) CenterOption {
	return func(c *Center) {
		if n > 0 {
			c.maxToasts = n
		}
	}
}

func NewCenter(logger *logrus.Logger, opts ...CenterOption) *Center {
	c := &Center{
		cache:          cache.New(cache.NoExpiration, 30*time.Second),
		logger:         logger,
		successDismiss: DefaultSuccessDismiss,
		infoDismiss:    DefaultInfoDismiss,
		maxToasts:      DefaultMaxToasts,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Center) Notify(message string, level types.Level) {
	c.Show(message, level)
}

// Show adds a toast and returns its id. Empty messages are dropped.
func (c *Center) Show(message string, level types.Level) string {
	if message == "" {
		return ""
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	toast := Toast{
		ID:        uuid.NewString(),
		Message:   message,
		Level:     level,
		CreatedAt: c.now(),
		seq:       c.seq,
	}

	ttl := cache.NoExpiration
	switch level {
	case types.LevelSuccess:
		ttl = c.successDismiss
	case types.LevelError:
		toast.Sticky = true
	default:
		ttl = c.infoDismiss
	}

	c.cache.Set(toast.ID, toast, ttl)
	c.trim()

	c.logger.WithFields(logrus.Fields{
		"toast_id": toast.ID,
		"level":    level,
	}).Debugf("Notification shown: %s", message)

	return toast.ID
}

// Dismiss removes a toast. It reports whether the toast was still visible.
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, found := c.cache.Get(id); !found {
		return false
	}
	c.cache.Delete(id)
	return true
}

// List returns the visible toasts, oldest first.
func (c *Center) List() []Toast {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sorted()
}

func (c *Center) trim() {
	toasts := c.sorted()
	for len(toasts) > c.maxToasts {
		c.cache.Delete(toasts[0].ID)
		toasts = toasts[1:]
	}
}

func (c *Center) sorted() []Toast {
	items := c.cache.Items()
	toasts := make([]Toast, 0, len(items))
	for _, item := range items {
		toasts = append(toasts, item.Object.(Toast))
	}
	sort.Slice(toasts, func(i, j int) bool {
		return toasts[i].seq < toasts[j].seq
	})
	return toasts
}

// Fanout delivers every notification to each of its sinks.
type Fanout []Notifier

func (f Fanout) Notify(message string, level types.Level) {
	for _, n := range f {
		if n != nil {
			n.Notify(message, level)
		}
	}
}
