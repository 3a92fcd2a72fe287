package config

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyPhotosBasePath = errors.New("config: photos_base_path must not be empty")
	ErrEmptyDBPath         = errors.New("config: db_path must not be empty")
)

// Validate checks internal consistency of cfg. It does not touch the
// filesystem or network — root-existence and connectivity checks happen
// where those resources are actually opened.
func Validate(cfg *Config) error {
	if cfg.PhotosBasePath == "" {
		return ErrEmptyPhotosBasePath
	}

	if cfg.DBPath == "" {
		return ErrEmptyDBPath
	}

	if cfg.PeriodicSyncInterval <= 0 {
		return fmt.Errorf("config: periodic_sync_interval must be positive, got %d", cfg.PeriodicSyncInterval)
	}

	if cfg.EventDebounceDelay < 0 {
		return fmt.Errorf("config: event_debounce_delay must not be negative, got %f", cfg.EventDebounceDelay)
	}

	if cfg.MaxBatchSize <= 0 {
		return fmt.Errorf("config: max_batch_size must be positive, got %d", cfg.MaxBatchSize)
	}

	if cfg.RetryAttempts <= 0 {
		return fmt.Errorf("config: retry_attempts must be positive, got %d", cfg.RetryAttempts)
	}

	if cfg.RetryDelay < 0 {
		return fmt.Errorf("config: retry_delay must not be negative, got %f", cfg.RetryDelay)
	}

	if cfg.HealthCheckPort <= 0 || cfg.HealthCheckPort > 65535 {
		return fmt.Errorf("config: health_check_port out of range, got %d", cfg.HealthCheckPort)
	}

	if cfg.QueueCapacity <= 0 {
		return fmt.Errorf("config: queue_capacity must be positive, got %d", cfg.QueueCapacity)
	}

	return nil
}
