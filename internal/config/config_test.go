package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "teashelf.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.ListenPort)
	assert.True(t, cfg.Browser.Headless)
	assert.True(t, cfg.Browser.Prewarm)
	assert.Equal(t, 1920, cfg.Browser.WindowWidth)
	assert.Equal(t, 5*time.Second, cfg.Scrape.NavTimeoutDuration())
	assert.Equal(t, 10*time.Second, cfg.Scrape.EvalTimeoutDuration())
	assert.Equal(t, "logs", cfg.Log.Dir)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `{
		"debug": true,
		"server": {"listen_port": 9090},
		"scrape": {"nav_timeout": "2s"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, 9090, cfg.Server.ListenPort)
	assert.Equal(t, 2*time.Second, cfg.Scrape.NavTimeoutDuration())
	// Untouched settings keep their defaults.
	assert.Equal(t, 10*time.Second, cfg.Scrape.EvalTimeoutDuration())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `{"server": {"listen_port": 9090}}`)
	t.Setenv("TEASHELF_SERVER__LISTEN_PORT", "7070")
	t.Setenv("TEASHELF_BROWSER__NO_SANDBOX", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.ListenPort)
	assert.True(t, cfg.Browser.NoSandbox)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestLoadInvalidPortFails(t *testing.T) {
	path := writeConfigFile(t, `{"server": {"listen_port": 70000}}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ListenPort")
}

func TestLoadInvalidDurationFails(t *testing.T) {
	path := writeConfigFile(t, `{"scrape": {"nav_timeout": "fast"}}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nav_timeout")
}
