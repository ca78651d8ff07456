package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/0xPuncker/production-timeline/internal/board"
	"github.com/0xPuncker/production-timeline/internal/scheduler"
	lanesconfig "github.com/0xPuncker/production-timeline/pkg/config"
	"github.com/0xPuncker/production-timeline/pkg/conflict"
	"github.com/0xPuncker/production-timeline/pkg/types"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	lanesFile string
	scope     string
	from      string
	to        string
	verbose   bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "timelinectl",
		Short:         "Inspect production schedules offline",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&opts.lanesFile, "lanes", "", "lane layout YAML (order and display names)")
	cmd.PersistentFlags().StringVar(&opts.scope, "scope", conflict.ScopeGlobal, "conflict scope: global or lane")
	cmd.PersistentFlags().StringVar(&opts.from, "from", "", "window start (RFC3339 or 2006-01-02); defaults to the earliest job")
	cmd.PersistentFlags().StringVar(&opts.to, "to", "", "window end (RFC3339 or 2006-01-02); defaults to the day after the last job")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging on stderr")

	cmd.AddCommand(newRenderCmd(opts))
	cmd.AddCommand(newConflictsCmd(opts))
	return cmd
}

func (o *rootOptions) logger(w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006-01-02T15:04:05-07:00",
	})
	logger.SetLevel(logrus.WarnLevel)
	if o.verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// readOnly rejects every write; the CLI never persists.
type readOnly struct{}

func (readOnly) UpdateSchedule(_ context.Context, jobID string, _ types.Span) error {
	return fmt.Errorf("timelinectl is read-only: cannot reschedule %s", jobID)
}

// buildBoard loads jobs into an offline board.
func (o *rootOptions) buildBoard(cmd *cobra.Command, jobs []types.ScheduledJob) (*board.Board, error) {
	logger := o.logger(cmd.ErrOrStderr())

	scope, err := conflict.ParseScope(o.scope)
	if err != nil {
		return nil, err
	}
	window, err := o.window(jobs)
	if err != nil {
		return nil, err
	}

	boardOpts := []board.Option{
		board.WithWindow(window),
		board.WithScope(scope),
	}
	if o.lanesFile != "" {
		lanes, err := lanesconfig.LoadConfig(o.lanesFile)
		if err != nil {
			return nil, err
		}
		boardOpts = append(boardOpts, board.WithGrouper(lanes.Grouper()))
	}

	sched := scheduler.New(scheduler.StaticSource(jobs), readOnly{}, nil, logger)
	b, err := board.New(sched, logger, boardOpts...)
	if err != nil {
		return nil, err
	}
	if err := sched.Refresh(cmd.Context()); err != nil {
		return nil, err
	}
	return b, nil
}

func (o *rootOptions) window(jobs []types.ScheduledJob) (types.Window, error) {
	var w types.Window
	for i, job := range jobs {
		job = job.Normalize()
		if i == 0 || job.Start.Before(w.From) {
			w.From = job.Start
		}
		if i == 0 || job.End.After(w.To) {
			w.To = job.End
		}
	}
	if !w.From.IsZero() {
		w.From = truncateDay(w.From)
		w.To = truncateDay(w.To).AddDate(0, 0, 1)
	}

	if o.from != "" {
		t, err := parseTime(o.from)
		if err != nil {
			return types.Window{}, fmt.Errorf("invalid --from: %w", err)
		}
		w.From = t
	}
	if o.to != "" {
		t, err := parseTime(o.to)
		if err != nil {
			return types.Window{}, fmt.Errorf("invalid --to: %w", err)
		}
		w.To = t
	}
	if w.From.IsZero() && w.To.IsZero() {
		return board.DefaultWindow(time.Now()), nil
	}
	return w, w.Validate()
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
