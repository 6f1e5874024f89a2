package config_test

import (
	"log/slog"
	"testing"
	"testing/fstest"
	"time"

	"github.com/prior-it/vatengine/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const configTOML = `
[app]
name = "vat-test"
port = 8080
env = "dev"

[log]
format = "plaintext"
level = "debug"

[reconcile]
workers = 8
retrydelay = 250
`

func TestLoad(t *testing.T) {
	t.Run("ok: values from config.toml and defaults", func(t *testing.T) {
		cfg, err := config.Load(fstest.MapFS{"config.toml": {Data: []byte(configTOML)}})
		require.NoError(t, err)

		assert.Equal(t, "vat-test", cfg.App.Name)
		assert.Equal(t, uint32(8080), cfg.App.Port)
		assert.Equal(t, config.AppEnvDev, cfg.App.Env)
		assert.Equal(t, "localhost:8080", cfg.Address())
		assert.Equal(t, config.LogFormatPlaintext, cfg.Log.Format)
		assert.Equal(t, slog.LevelDebug, cfg.Log.Level.ToSlog())
		assert.Equal(t, "public", cfg.Database.Schema)
		assert.Equal(t, 8, cfg.Reconcile.Workers)
		assert.Equal(t, uint64(3), cfg.Reconcile.Retries)
		assert.Equal(t, 250*time.Millisecond, cfg.Reconcile.RetryBackoff())
	})

	t.Run("ok: environment overrides the config file", func(t *testing.T) {
		t.Setenv("APP_PORT", "9090")
		t.Setenv("RECONCILE_DRYRUN", "true")
		cfg, err := config.Load(fstest.MapFS{"config.toml": {Data: []byte(configTOML)}})
		require.NoError(t, err)

		assert.Equal(t, uint32(9090), cfg.App.Port)
		assert.True(t, cfg.Reconcile.DryRun)
	})

	t.Run("err: missing config.toml", func(t *testing.T) {
		_, err := config.Load(fstest.MapFS{})
		assert.Error(t, err)
	})

	t.Run("err: invalid worker count", func(t *testing.T) {
		_, err := config.Load(fstest.MapFS{"config.toml": {Data: []byte("[reconcile]\nworkers = 0\n")}})
		assert.Error(t, err)
	})
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, config.LogLevelWarn.ToSlog())
	assert.Equal(t, slog.LevelInfo, config.LogLevel("unknown").ToSlog())
}
