package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/0xPuncker/production-timeline/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLanes(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lanes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeLanes(t, `
lanes:
  - name: CNC-1
    display_name: CNC Mill 1
  - name: Assembly
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"CNC-1", "Assembly"}, cfg.GetLaneNames())
	require.NotNil(t, cfg.GetLaneByName("CNC-1"))
	assert.Equal(t, "CNC Mill 1", cfg.GetLaneByName("CNC-1").DisplayName)
	assert.Nil(t, cfg.GetLaneByName("Paint"))
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed yaml", "lanes: [\n"},
		{"missing name", "lanes:\n  - display_name: Nameless\n"},
		{"duplicate lane", "lanes:\n  - name: A\n  - name: A\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeLanes(t, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestGrouper(t *testing.T) {
	cfg := &Config{Lanes: []Lane{
		{Name: "Assembly", DisplayName: "Final assembly"},
		{Name: "CNC-1"},
	}}

	start := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	grouped := cfg.Grouper().Group([]types.ScheduledJob{
		{ID: "J1", Lane: "Paint", Start: start, End: start},
		{ID: "J2", Lane: "CNC-1", Start: start, End: start},
	})

	require.Len(t, grouped, 3)
	assert.Equal(t, "Assembly", grouped[0].Name)
	assert.Equal(t, "Final assembly", grouped[0].DisplayName)
	assert.Empty(t, grouped[0].Jobs)
	assert.Equal(t, "CNC-1", grouped[1].Name)
	assert.Equal(t, "Paint", grouped[2].Name)
}
