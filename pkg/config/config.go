package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/0xPuncker/production-timeline/pkg/lanes"
	"gopkg.in/yaml.v3"
)

// Lane is one configured work center.
type Lane struct {
	Name        string `yaml:"name"`
	DisplayName string `yaml:"display_name"`
}

// Config is the lane layout: the order lanes appear on the board and their
// labels.
type Config struct {
	Lanes []Lane `yaml:"lanes"`
}

func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/lanes.yaml"
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	seen := make(map[string]bool, len(config.Lanes))
	for _, lane := range config.Lanes {
		if lane.Name == "" {
			return nil, fmt.Errorf("lane without a name in %s", configPath)
		}
		if seen[lane.Name] {
			return nil, fmt.Errorf("lane %s listed twice in %s", lane.Name, configPath)
		}
		seen[lane.Name] = true
	}

	return &config, nil
}

func (c *Config) GetLaneNames() []string {
	names := make([]string, 0, len(c.Lanes))
	for _, lane := range c.Lanes {
		names = append(names, lane.Name)
	}
	return names
}

func (c *Config) GetLaneByName(name string) *Lane {
	for i := range c.Lanes {
		if c.Lanes[i].Name == name {
			return &c.Lanes[i]
		}
	}
	return nil
}

// Grouper builds a lane grouper honouring the configured order and labels.
func (c *Config) Grouper() *lanes.Grouper {
	opts := []lanes.Option{lanes.WithLaneOrder(c.GetLaneNames()...)}
	for _, lane := range c.Lanes {
		if lane.DisplayName != "" {
			opts = append(opts, lanes.WithDisplayName(lane.Name, lane.DisplayName))
		}
	}
	return lanes.NewGrouper(opts...)
}
