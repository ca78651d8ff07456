package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/0xPuncker/production-timeline/internal/board"
	"github.com/0xPuncker/production-timeline/internal/notifications"
	"github.com/sirupsen/logrus"
)

// Task names accepted in the jobs configuration.
const (
	TaskRefreshSchedule = "refresh-schedule"
	TaskConflictReport  = "conflict-report"
)

// Refresher reloads the working schedule from the server.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefreshScheduleTask reconciles the board with the order API.
func RefreshScheduleTask(r Refresher, timeout time.Duration) func() error {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return r.Refresh(ctx)
	}
}

// ConflictReportTask logs the current conflicts and, when slack is set,
// posts a digest of the board.
func ConflictReportTask(b *board.Board, slack *notifications.SlackService, scope string, logger *logrus.Logger) func() error {
	return func() error {
		layout := b.Layout()
		pairs, stats := b.ConflictStats()

		lanes := make([]string, 0, len(layout.Lanes))
		for _, lane := range layout.Lanes {
			lanes = append(lanes, lane.DisplayName)
		}

		fields := logrus.Fields{
			"jobs":        stats.Jobs,
			"comparisons": stats.Comparisons,
			"conflicts":   len(pairs),
			"scope":       scope,
		}
		if len(pairs) > 0 {
			logger.WithFields(fields).Warn("Scheduling conflicts found")
		} else {
			logger.WithFields(fields).Info("No scheduling conflicts")
		}

		if slack == nil {
			return nil
		}

		digest := notifications.ScheduleDigest{
			Window:    layout.Window,
			Jobs:      stats.Jobs,
			Lanes:     lanes,
			Conflicts: pairs,
			Scope:     scope,
		}
		if err := slack.SendDigest(digest); err != nil {
			return fmt.Errorf("failed to send conflict report: %w", err)
		}
		return nil
	}
}
