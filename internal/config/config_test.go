package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"server": {"port": "9000"},
		"order_api": {"url": "http://orders.local/api", "api_key": "k"},
		"timeline": {"conflict_scope": "lane", "refresh_on_success": false, "serialize_per_job": true},
		"jobs": {"predefined": [{"name": "refresh", "schedule": "0 */5 * * * *", "task": "refresh-schedule", "enabled": true}]}
	}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "15s", cfg.Server.ReadTimeout)
	assert.Equal(t, "http://orders.local/api", cfg.OrderAPI.URL)
	assert.Equal(t, "k", cfg.OrderAPI.APIKey)
	assert.Equal(t, "lane", cfg.Timeline.ConflictScope)
	assert.False(t, cfg.Timeline.RefreshAfterSuccess())
	assert.True(t, cfg.Timeline.SerializePerJob)
	assert.Equal(t, "1h", cfg.Timeline.MinDuration)
	assert.Equal(t, 8.0, cfg.Timeline.HandlePx)
	assert.Equal(t, "cancel", cfg.Timeline.OnCaptureLoss)
	assert.Equal(t, 2, cfg.Jobs.MaxConcurrent)
	require.Len(t, cfg.Jobs.Predefined, 1)
	assert.Equal(t, "refresh-schedule", cfg.Jobs.Predefined[0].TaskName)
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadFromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "7070")
	t.Setenv("ORDER_API_URL", "http://env.local")
	t.Setenv("CONFLICT_SCOPE", "lane")
	t.Setenv("TIMELINE_LANG", "pl")
	t.Setenv("SERIALIZE_PER_JOB", "true")

	cfg, err := Load("does-not-exist.json")
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "http://env.local", cfg.OrderAPI.URL)
	assert.Equal(t, "lane", cfg.Timeline.ConflictScope)
	assert.Equal(t, "pl", cfg.Timeline.Lang)
	assert.True(t, cfg.Timeline.SerializePerJob)
	assert.True(t, cfg.Timeline.RefreshAfterSuccess())
}

func TestFindLanesFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "config"), 0o755))
	lanes := filepath.Join(root, "config", "lanes.yaml")
	require.NoError(t, os.WriteFile(lanes, []byte("lanes: []\n"), 0o644))

	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	chdir(t, nested)

	found, err := FindLanesFile("")
	require.NoError(t, err)
	// The temp dir may sit behind a symlink, so compare resolved paths.
	expected, _ := filepath.EvalSymlinks(lanes)
	actual, _ := filepath.EvalSymlinks(found)
	assert.Equal(t, expected, actual)

	explicit, err := FindLanesFile(lanes)
	require.NoError(t, err)
	assert.Equal(t, lanes, explicit)

	_, err = FindLanesFile(filepath.Join(root, "missing.yaml"))
	assert.Error(t, err)
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 90*time.Second, ParseDuration("90s", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("soon", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("-5s", time.Minute))
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
