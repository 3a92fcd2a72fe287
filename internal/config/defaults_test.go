package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig_PassesValidation(t *testing.T) {
	assert.NoError(t, Validate(DefaultConfig()))
}

func TestDefaultConfig_DurationHelpersConvertSecondsFields(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, int64(cfg.PeriodicSyncInterval), int64(cfg.PeriodicSyncIntervalDuration().Seconds()))
	assert.Equal(t, cfg.EventDebounceDelay, cfg.EventDebounceDelayDuration().Seconds())
	assert.Equal(t, cfg.RetryDelay, cfg.RetryDelayDuration().Seconds())
	assert.Equal(t, cfg.ShutdownGraceSeconds, cfg.ShutdownGraceDuration().Seconds())
}
