package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/0xPuncker/production-timeline/internal/api"
	"github.com/0xPuncker/production-timeline/internal/board"
	"github.com/0xPuncker/production-timeline/internal/config"
	"github.com/0xPuncker/production-timeline/internal/cron"
	"github.com/0xPuncker/production-timeline/internal/metrics"
	"github.com/0xPuncker/production-timeline/internal/notifications"
	"github.com/0xPuncker/production-timeline/internal/orders"
	"github.com/0xPuncker/production-timeline/internal/poller"
	"github.com/0xPuncker/production-timeline/internal/scheduler"
	lanesconfig "github.com/0xPuncker/production-timeline/pkg/config"
	"github.com/0xPuncker/production-timeline/pkg/conflict"
	"github.com/0xPuncker/production-timeline/pkg/types"
	"github.com/dimiro1/banner"
	"github.com/joho/godotenv"
	"github.com/mattn/go-colorable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const bannerText = `
{{ .Title "Production Timeline" "" 0 }}
{{ .AnsiBackground.BrightBlue }}{{ .AnsiColor.White }}
{{ .AnsiReset }}
`

func main() {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load(".env.local"); err != nil {
			fmt.Printf("No .env or .env.local file found. Using environment variables.\n")
		}
	}

	banner.Init(colorable.NewColorableStdout(), true, true, strings.NewReader(bannerText))

	configPath := flag.String("config", "config/config.json", "path to config file")
	logLevel := flag.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:          false,
		DisableTimestamp:       false,
		TimestampFormat:        "2006-01-02T15:04:05-07:00",
		DisableLevelTruncation: false,
		PadLevelText:           false,
	})
	if level, err := logrus.ParseLevel(*logLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("Unknown log level %q, using info", *logLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector(prometheus.NewRegistry())

	client := orders.NewClient(logger, cfg.OrderAPI.URL,
		orders.WithAPIKey(cfg.OrderAPI.APIKey),
		orders.WithHTTPClient(&http.Client{Timeout: config.ParseDuration(cfg.OrderAPI.Timeout, 10*time.Second)}),
	)
	logger.Debugf("Order API URL: %s", cfg.OrderAPI.URL)

	center := notifications.NewCenter(logger,
		notifications.WithSuccessDismiss(config.ParseDuration(cfg.Timeline.SuccessDismiss, notifications.DefaultSuccessDismiss)),
	)
	sinks := notifications.Fanout{center}

	slack, err := notifications.NewSlackService(logger, cfg.Slack.WebhookURL)
	var slackNotifier *notifications.SlackNotifier
	if err != nil {
		logger.Warnf("Slack notifications disabled: %v", err)
	} else {
		slackNotifier = notifications.NewSlackNotifier(slack, types.Level(cfg.Slack.NotificationThreshold))
		sinks = append(sinks, slackNotifier)
	}

	sched := scheduler.New(client, client, sinks, logger,
		scheduler.WithTranslator(notifications.NewTranslator(cfg.Timeline.Lang)),
		scheduler.WithRefreshOnSuccess(cfg.Timeline.RefreshAfterSuccess()),
		scheduler.WithSerializePerJob(cfg.Timeline.SerializePerJob),
		scheduler.WithPersistTimeout(config.ParseDuration(cfg.OrderAPI.Timeout, scheduler.DefaultPersistTimeout)),
		scheduler.WithMetrics(collector),
	)

	b, err := newBoard(cfg, sched, collector, logger)
	if err != nil {
		logger.Fatalf("Failed to build timeline: %v", err)
	}

	initCtx, cancel := context.WithTimeout(ctx, config.ParseDuration(cfg.Poller.Timeout, 30*time.Second))
	if err := sched.Refresh(initCtx); err != nil {
		logger.Warnf("Initial schedule load failed, starting empty: %v", err)
	}
	cancel()

	tasks := cron.NewScheduler(logger, cfg.Jobs)
	tasks.RegisterTask(cron.TaskRefreshSchedule, cron.RefreshScheduleTask(sched, config.ParseDuration(cfg.Poller.Timeout, 30*time.Second)))
	tasks.RegisterTask(cron.TaskConflictReport, cron.ConflictReportTask(b, slack, cfg.Timeline.ConflictScope, logger))
	if err := tasks.LoadPredefinedJobs(cfg.Jobs.Predefined); err != nil {
		logger.Fatalf("Failed to load predefined jobs: %v", err)
	}
	if err := tasks.Start(); err != nil {
		logger.Fatalf("Failed to start scheduler: %v", err)
	}

	interval := config.ParseDuration(cfg.Poller.Interval, time.Minute)
	p := poller.New(sched, logger, interval, config.ParseDuration(cfg.Poller.Timeout, interval))
	go p.Start()

	handler := api.NewHandler(b, center, tasks, logger)

	var metricsHandler http.Handler
	if !cfg.Metrics.Enabled {
		metricsHandler = collector.Handler()
	}
	router := api.NewRouter(handler, metricsHandler)

	serverCfg := api.ServerConfig{
		Port:         cfg.Server.Port,
		ReadTimeout:  config.ParseDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.ParseDuration(cfg.Server.WriteTimeout, 15*time.Second),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return api.StartServer(gctx, router, serverCfg, logger)
	})
	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", collector.Handler())
		g.Go(func() error {
			return api.StartServer(gctx, metricsMux, api.ServerConfig{Port: cfg.Metrics.Port}, logger)
		})
	}

	logger.Infof("Server started on port %s - Press Ctrl+C to stop.", cfg.Server.Port)

	if err := g.Wait(); err != nil {
		logger.Errorf("Server stopped with error: %v", err)
	}

	logger.Info("Shutting down...")
	p.Stop()
	tasks.Stop()
	sched.Close()
	if slackNotifier != nil {
		slackNotifier.Wait()
	}

	logger.Info("Server stopped")
}

func newBoard(cfg *config.Config, sched *scheduler.Scheduler, collector *metrics.Collector, logger *logrus.Logger) (*board.Board, error) {
	scope, err := conflict.ParseScope(cfg.Timeline.ConflictScope)
	if err != nil {
		return nil, err
	}
	capture, err := board.ParseCapturePolicy(cfg.Timeline.OnCaptureLoss)
	if err != nil {
		return nil, err
	}

	window := board.DefaultWindow(time.Now())
	if cfg.Timeline.WindowDays > 0 {
		window.To = window.From.AddDate(0, 0, cfg.Timeline.WindowDays)
	}

	opts := []board.Option{
		board.WithWindow(window),
		board.WithScope(scope),
		board.WithCapturePolicy(capture),
		board.WithHandlePx(cfg.Timeline.HandlePx),
		board.WithMinDuration(config.ParseDuration(cfg.Timeline.MinDuration, 0)),
		board.WithMetrics(collector),
	}

	if path, err := config.FindLanesFile(cfg.Timeline.LanesFile); err != nil {
		logger.Warnf("No lane layout, lanes follow the data: %v", err)
	} else {
		lanes, err := lanesconfig.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load lanes from %s: %w", path, err)
		}
		logger.WithFields(logrus.Fields{
			"path":  path,
			"lanes": len(lanes.Lanes),
		}).Info("Loaded lane layout")
		opts = append(opts, board.WithGrouper(lanes.Grouper()))
	}

	return board.New(sched, logger, opts...)
}
