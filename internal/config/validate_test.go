package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_RejectsEmptyPhotosBasePath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PhotosBasePath = ""
	assert.ErrorIs(t, Validate(cfg), ErrEmptyPhotosBasePath)
}

func TestValidate_RejectsEmptyDBPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DBPath = ""
	assert.ErrorIs(t, Validate(cfg), ErrEmptyDBPath)
}

func TestValidate_RejectsNonPositivePeriodicSyncInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PeriodicSyncInterval = 0
	assert.Error(t, Validate(cfg))
}

func TestValidate_RejectsNegativeEventDebounceDelay(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EventDebounceDelay = -1
	assert.Error(t, Validate(cfg))
}

func TestValidate_RejectsNonPositiveMaxBatchSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBatchSize = 0
	assert.Error(t, Validate(cfg))
}

func TestValidate_RejectsNonPositiveRetryAttempts(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RetryAttempts = 0
	assert.Error(t, Validate(cfg))
}

func TestValidate_RejectsNegativeRetryDelay(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RetryDelay = -1
	assert.Error(t, Validate(cfg))
}

func TestValidate_RejectsOutOfRangeHealthCheckPort(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HealthCheckPort = 0
	assert.Error(t, Validate(cfg))

	cfg2 := DefaultConfig()
	cfg2.HealthCheckPort = 70000
	assert.Error(t, Validate(cfg2))
}

func TestValidate_RejectsNonPositiveQueueCapacity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.QueueCapacity = 0
	assert.Error(t, Validate(cfg))
}

func TestValidate_AcceptsZeroRetryDelayAndDebounceDelay(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RetryDelay = 0
	cfg.EventDebounceDelay = 0
	assert.NoError(t, Validate(cfg))
}
