package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyEnvOverrides_LeavesDefaultsWhenUnset(t *testing.T) {
	cfg := DefaultConfig()
	before := *cfg

	require.NoError(t, ApplyEnvOverrides(cfg))
	assert.Equal(t, before, *cfg)
}

func TestApplyEnvOverrides_StringFields(t *testing.T) {
	cfg := DefaultConfig()

	t.Setenv(EnvPhotosBasePath, "/data/photos")
	t.Setenv(EnvDBPath, "/data/catalog.db")
	t.Setenv(EnvLogLevel, "debug")

	require.NoError(t, ApplyEnvOverrides(cfg))
	assert.Equal(t, "/data/photos", cfg.PhotosBasePath)
	assert.Equal(t, "/data/catalog.db", cfg.DBPath)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestApplyEnvOverrides_BoolFields(t *testing.T) {
	cfg := DefaultConfig()

	t.Setenv(EnvInitialSyncOnStartup, "false")
	t.Setenv(EnvHealthAccessLog, "false")

	require.NoError(t, ApplyEnvOverrides(cfg))
	assert.False(t, cfg.InitialSyncOnStartup)
	assert.False(t, cfg.HealthAccessLog)
}

func TestApplyEnvOverrides_IntAndFloatFields(t *testing.T) {
	cfg := DefaultConfig()

	t.Setenv(EnvPeriodicSyncInterval, "60")
	t.Setenv(EnvMaxBatchSize, "25")
	t.Setenv(EnvRetryAttempts, "5")
	t.Setenv(EnvHealthCheckPort, "9090")
	t.Setenv(EnvQueueCapacity, "500")
	t.Setenv(EnvEventDebounceDelay, "1.5")
	t.Setenv(EnvRetryDelay, "0.25")
	t.Setenv(EnvShutdownGrace, "10.5")

	require.NoError(t, ApplyEnvOverrides(cfg))
	assert.Equal(t, 60, cfg.PeriodicSyncInterval)
	assert.Equal(t, 25, cfg.MaxBatchSize)
	assert.Equal(t, 5, cfg.RetryAttempts)
	assert.Equal(t, 9090, cfg.HealthCheckPort)
	assert.Equal(t, 500, cfg.QueueCapacity)
	assert.InDelta(t, 1.5, cfg.EventDebounceDelay, 0.0001)
	assert.InDelta(t, 0.25, cfg.RetryDelay, 0.0001)
	assert.InDelta(t, 10.5, cfg.ShutdownGraceSeconds, 0.0001)
}

func TestApplyEnvOverrides_UnparsableIntReturnsError(t *testing.T) {
	cfg := DefaultConfig()
	t.Setenv(EnvMaxBatchSize, "not-a-number")

	assert.Error(t, ApplyEnvOverrides(cfg))
}

func TestApplyEnvOverrides_UnparsableBoolReturnsError(t *testing.T) {
	cfg := DefaultConfig()
	t.Setenv(EnvInitialSyncOnStartup, "maybe")

	assert.Error(t, ApplyEnvOverrides(cfg))
}

func TestApplyEnvOverrides_UnparsableFloatReturnsError(t *testing.T) {
	cfg := DefaultConfig()
	t.Setenv(EnvRetryDelay, "soon")

	assert.Error(t, ApplyEnvOverrides(cfg))
}
