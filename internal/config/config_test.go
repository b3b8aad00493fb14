package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
provider:
  api_key: test-key
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, time.Hour, cfg.Cache.CurrencyListTTL)
	assert.Equal(t, 5*time.Minute, cfg.Cache.HistoryTTL)
	assert.Equal(t, "@hourly", cfg.Refresh.CronSpec)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
provider:
  api_key: test-key
  timeout: 3s
cache:
  history_ttl: 1m
logging:
  level: debug
  format: text
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, time.Minute, cfg.Cache.HistoryTTL)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("FXDASH_API_KEY", "env-key")
	t.Setenv("FXDASH_SERVER_PORT", "7070")
	t.Setenv("FXDASH_LOG_LEVEL", "warn")

	path := writeConfig(t, `
server:
  port: 9090
provider:
  api_key: file-key
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.Provider.APIKey)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadMissingAPIKey(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key")
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"port": `
server:
  port: 99999
provider:
  api_key: k
`,
		"format": `
provider:
  api_key: k
logging:
  format: xml
`,
		"ttl": `
provider:
  api_key: k
cache:
  history_ttl: -1s
`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/does/not/exist.yaml")
	assert.Error(t, err)
}

func TestEnvManagerTypes(t *testing.T) {
	t.Setenv("FXDASH_SOME_INT", "42")
	t.Setenv("FXDASH_SOME_BOOL", "true")
	t.Setenv("FXDASH_SOME_DURATION", "90s")
	t.Setenv("FXDASH_BAD_INT", "not-a-number")

	env := NewEnvManager("")
	assert.Equal(t, 42, env.GetInt("SOME_INT", 0))
	assert.True(t, env.GetBool("SOME_BOOL", false))
	assert.Equal(t, 90*time.Second, env.GetDuration("SOME_DURATION", 0))
	assert.Equal(t, 7, env.GetInt("BAD_INT", 7))
	assert.Equal(t, "fallback", env.GetString("UNSET", "fallback"))
}
