package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "pomotrack.db", cfg.Server.DatabasePath)
	assert.Equal(t, "http://localhost:5000/api", cfg.Client.APIBaseURL)
	assert.Equal(t, 25, cfg.Timer.FocusMinutes)
	assert.Equal(t, 5, cfg.Timer.BreakMinutes)
	assert.Equal(t, 100*time.Millisecond, cfg.Timer.TickInterval())
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8081
  database_path: /tmp/p.db
client:
  api_base_url: http://example.test/api/
timer:
  focus_minutes: 50
  break_minutes: 10
log:
  level: debug
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "/tmp/p.db", cfg.Server.DatabasePath)
	assert.Equal(t, "http://example.test/api", cfg.Client.APIBaseURL, "trailing slash trimmed")
	assert.Equal(t, 50, cfg.Timer.FocusMinutes)
	assert.Equal(t, 10, cfg.Timer.BreakMinutes)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigClampsInvalidValues(t *testing.T) {
	path := writeConfig(t, `
timer:
  focus_minutes: 0
  break_minutes: -3
  tick_interval_ms: 5000
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Timer.FocusMinutes)
	assert.Equal(t, 1, cfg.Timer.BreakMinutes)
	assert.Equal(t, 100, cfg.Timer.TickIntervalMs)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7001")
	t.Setenv("POMOTRACK_CLIENT_API_BASE_URL", "http://env.test/api")

	cfg, err := LoadConfig(writeConfig(t, "{}\n"))
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.Server.Port)
	assert.Equal(t, "http://env.test/api", cfg.Client.APIBaseURL)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestClampMinutes(t *testing.T) {
	assert.Equal(t, 1, ClampMinutes(0))
	assert.Equal(t, 1, ClampMinutes(-10))
	assert.Equal(t, 30, ClampMinutes(30))
}
