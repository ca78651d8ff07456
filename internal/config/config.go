package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/0xPuncker/production-timeline/pkg/types"
	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig    `json:"server"`
	OrderAPI OrderAPIConfig  `json:"order_api"`
	Timeline TimelineConfig  `json:"timeline"`
	Poller   PollerConfig    `json:"poller"`
	Slack    SlackConfig     `json:"slack"`
	Metrics  MetricsConfig   `json:"metrics"`
	Jobs     types.JobConfig `json:"jobs"`
}

type ServerConfig struct {
	Port         string `json:"port"`
	ReadTimeout  string `json:"read_timeout"`
	WriteTimeout string `json:"write_timeout"`
}

type OrderAPIConfig struct {
	URL     string `json:"url"`
	APIKey  string `json:"api_key"`
	Timeout string `json:"timeout"`
}

type TimelineConfig struct {
	MinDuration      string  `json:"min_duration"`
	ConflictScope    string  `json:"conflict_scope"`
	SuccessDismiss   string  `json:"success_dismiss"`
	HandlePx         float64 `json:"handle_px"`
	OnCaptureLoss    string  `json:"on_capture_loss"`
	RefreshOnSuccess *bool   `json:"refresh_on_success"`
	SerializePerJob  bool    `json:"serialize_per_job"`
	Lang             string  `json:"lang"`
	WindowDays       int     `json:"window_days"`
	LanesFile        string  `json:"lanes_file"`
}

type PollerConfig struct {
	Interval string `json:"interval"`
	Timeout  string `json:"timeout"`
}

type SlackConfig struct {
	WebhookURL            string `json:"webhook_url"`
	NotificationThreshold string `json:"notification_threshold"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Port    string `json:"port"`
}

// Load reads the JSON config at configPath. When the file is missing the
// configuration comes from the environment, after loading .env or .env.local.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if err := godotenv.Load(); err != nil {
			if err := godotenv.Load(".env.local"); err != nil {
				fmt.Printf("No .env or .env.local file found. Using environment variables.\n")
			}
		}

		for _, env := range []string{
			"PORT",
			"ORDER_API_URL",
			"POLLER_INTERVAL",
			"CONFLICT_SCOPE",
			"TIMELINE_LANG",
		} {
			fmt.Printf("%s=%s\n", env, os.Getenv(env))
		}

		config := DefaultConfig()
		config.Server.Port = getEnv("PORT", config.Server.Port)
		config.OrderAPI.URL = getEnv("ORDER_API_URL", config.OrderAPI.URL)
		config.OrderAPI.APIKey = getEnv("ORDER_API_KEY", "")
		config.Poller.Interval = getEnv("POLLER_INTERVAL", config.Poller.Interval)
		config.Timeline.ConflictScope = getEnv("CONFLICT_SCOPE", config.Timeline.ConflictScope)
		config.Timeline.Lang = getEnv("TIMELINE_LANG", config.Timeline.Lang)
		config.Slack.WebhookURL = getEnv("SLACK_WEBHOOK_URL", "")
		if v, ok := os.LookupEnv("SERIALIZE_PER_JOB"); ok {
			config.Timeline.SerializePerJob, _ = strconv.ParseBool(v)
		}
		return config, nil
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	config.applyDefaults()

	return &config, nil
}

func DefaultConfig() *Config {
	refresh := true
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  "15s",
			WriteTimeout: "15s",
		},
		OrderAPI: OrderAPIConfig{
			URL:     "http://localhost:8000/api",
			Timeout: "10s",
		},
		Timeline: TimelineConfig{
			MinDuration:      "1h",
			ConflictScope:    "global",
			SuccessDismiss:   "3s",
			HandlePx:         8,
			OnCaptureLoss:    "cancel",
			RefreshOnSuccess: &refresh,
			Lang:             "en",
			WindowDays:       30,
		},
		Poller: PollerConfig{
			Interval: "1m",
			Timeout:  "30s",
		},
		Slack: SlackConfig{
			NotificationThreshold: "error",
		},
		Metrics: MetricsConfig{
			Port: "9090",
		},
		Jobs: types.JobConfig{
			MaxConcurrent: 2,
		},
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()

	setDefault(&c.Server.Port, d.Server.Port)
	setDefault(&c.Server.ReadTimeout, d.Server.ReadTimeout)
	setDefault(&c.Server.WriteTimeout, d.Server.WriteTimeout)
	setDefault(&c.OrderAPI.URL, d.OrderAPI.URL)
	setDefault(&c.OrderAPI.Timeout, d.OrderAPI.Timeout)
	setDefault(&c.Timeline.MinDuration, d.Timeline.MinDuration)
	setDefault(&c.Timeline.ConflictScope, d.Timeline.ConflictScope)
	setDefault(&c.Timeline.SuccessDismiss, d.Timeline.SuccessDismiss)
	setDefault(&c.Timeline.OnCaptureLoss, d.Timeline.OnCaptureLoss)
	setDefault(&c.Timeline.Lang, d.Timeline.Lang)
	setDefault(&c.Poller.Interval, d.Poller.Interval)
	setDefault(&c.Poller.Timeout, d.Poller.Timeout)
	setDefault(&c.Slack.NotificationThreshold, d.Slack.NotificationThreshold)
	setDefault(&c.Metrics.Port, d.Metrics.Port)

	if c.Timeline.HandlePx <= 0 {
		c.Timeline.HandlePx = d.Timeline.HandlePx
	}
	if c.Timeline.WindowDays <= 0 {
		c.Timeline.WindowDays = d.Timeline.WindowDays
	}
	if c.Timeline.RefreshOnSuccess == nil {
		c.Timeline.RefreshOnSuccess = d.Timeline.RefreshOnSuccess
	}
	if c.Jobs.MaxConcurrent <= 0 {
		c.Jobs.MaxConcurrent = d.Jobs.MaxConcurrent
	}
}

// RefreshAfterSuccess reports whether a successful update is followed by a
// refresh. It defaults to true.
func (t TimelineConfig) RefreshAfterSuccess() bool {
	return t.RefreshOnSuccess == nil || *t.RefreshOnSuccess
}

// FindLanesFile locates the lane layout file. An explicit path wins;
// otherwise config/lanes.yaml or lanes.yaml is searched for from the working
// directory upwards.
func FindLanesFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("lanes file: %w", err)
		}
		return explicit, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	for {
		for _, candidate := range []string{
			filepath.Join(wd, "config", "lanes.yaml"),
			filepath.Join(wd, "lanes.yaml"),
		} {
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(wd)
		if parent == wd {
			return "", fmt.Errorf("lanes.yaml not found")
		}
		wd = parent
	}
}

// ParseDuration parses value, falling back when it is empty or invalid.
func ParseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func setDefault(field *string, fallback string) {
	if *field == "" {
		*field = fallback
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
