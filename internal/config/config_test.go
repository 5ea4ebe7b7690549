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
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "LOG_LEVEL", "LOG_FORMAT", "PROVIDER_RPS", "PROVIDER_CALL_PAUSE", "PROVIDER_MAX_PAGES",
		"CACHE_TTL", "CACHE_STALE_AFTER", "REHYDRATE_INTERVAL", "REHYDRATE_PAUSE",
		"REHYDRATE_BATCH_SIZE", "REHYDRATE_RUN_ONCE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesFromYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  port: 8080
provider:
  endpoints:
    mobile: http://mobile.test
    complex: http://complex.test
    finance: http://finance.test
  list_timeout: 20s
  max_pages: 3
cache:
  degraded_ttl: 2m
rehydrate:
  batch_size: 5
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "http://finance.test", cfg.Provider.Endpoints.Finance)
	assert.Equal(t, 20*time.Second, cfg.Provider.ListTimeout)
	assert.Equal(t, 10*time.Second, cfg.Provider.DetailTimeout)
	assert.Equal(t, 3, cfg.Provider.MaxPages)
	assert.Equal(t, 2*time.Minute, cfg.Cache.DegradedTTL)
	assert.Equal(t, 5, cfg.Rehydrate.BatchSize)

	opts := cfg.ClientOptions()
	assert.Equal(t, "http://mobile.test", opts.Endpoints.Mobile)
	assert.Equal(t, 20*time.Second, opts.ListTimeout)
	assert.Equal(t, 3, opts.SecondaryAttempts)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("PROVIDER_CALL_PAUSE", "250ms")
	t.Setenv("REHYDRATE_RUN_ONCE", "yes")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Provider.CallPause)
	assert.True(t, cfg.Rehydrate.RunOnce)
}

func TestLoadValidation(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeConfig(t, "provider:\n  max_pages: 0\n"))
	assert.ErrorIs(t, err, ErrInvalidMaxPages)

	_, err = Load(writeConfig(t, "server:\n  port: 70000\n"))
	assert.ErrorIs(t, err, ErrInvalidPort)

	_, err = Load(writeConfig(t, "provider:\n  endpoints:\n    mobile: ''\n"))
	assert.ErrorIs(t, err, ErrMissingEndpoint)

	_, err = Load(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)
}
