package poller

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Refresher reloads state from the server.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Poller periodically reconciles the working schedule with the order API,
// independent of user edits.
type Poller struct {
	source   Refresher
	logger   *logrus.Logger
	interval time.Duration
	timeout  time.Duration
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func New(source Refresher, logger *logrus.Logger, interval, timeout time.Duration) *Poller {
	if timeout <= 0 || timeout > interval {
		timeout = interval
	}
	return &Poller{
		source:   source,
		logger:   logger,
		interval: interval,
		timeout:  timeout,
		stop:     make(chan struct{}),
	}
}

// Start blocks, refreshing every interval until Stop is called.
func (p *Poller) Start() {
	p.wg.Add(1)
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.update()
		case <-p.stop:
			return
		}
	}
}

func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		close(p.stop)
	})
	p.wg.Wait()
}

func (p *Poller) update() {
	p.logger.Debug("Starting poller update cycle")

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	start := time.Now()
	if err := p.source.Refresh(ctx); err != nil {
		p.logger.Errorf("Failed to refresh production schedule: %v", err)
		return
	}
	p.logger.WithField("duration", time.Since(start).Round(time.Millisecond).String()).
		Debug("Completed poller update cycle")
}
