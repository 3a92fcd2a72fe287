// Package config implements configuration loading for the sync worker:
// a compiled-in default layer, an optional TOML file overlay, and an
// environment-variable layer (prefix SYNC_) that always wins.
package config

import "time"

// Config holds every tunable the worker reads at startup. TOML field
// tags let an optional config file populate the same struct the
// defaults and env layers populate.
type Config struct {
	PhotosBasePath       string  `toml:"photos_base_path"`
	DBPath               string  `toml:"db_path"`
	InitialSyncOnStartup bool    `toml:"initial_sync_on_startup"`
	PeriodicSyncInterval int     `toml:"periodic_sync_interval"` // seconds
	EventDebounceDelay   float64 `toml:"event_debounce_delay"`   // seconds
	MaxBatchSize         int     `toml:"max_batch_size"`
	RetryAttempts        int     `toml:"retry_attempts"`
	RetryDelay           float64 `toml:"retry_delay"` // seconds
	HealthCheckPort      int     `toml:"health_check_port"`
	HealthAccessLog      bool    `toml:"health_access_log"`
	LogLevel             string  `toml:"log_level"`
	QueueCapacity        int     `toml:"queue_capacity"`
	ShutdownGraceSeconds float64 `toml:"shutdown_grace_seconds"`
}

// PeriodicSyncIntervalDuration converts the seconds field to a Duration.
func (c *Config) PeriodicSyncIntervalDuration() time.Duration {
	return time.Duration(c.PeriodicSyncInterval) * time.Second
}

// EventDebounceDelayDuration converts the seconds field to a Duration.
func (c *Config) EventDebounceDelayDuration() time.Duration {
	return time.Duration(c.EventDebounceDelay * float64(time.Second))
}

// RetryDelayDuration converts the seconds field to a Duration.
func (c *Config) RetryDelayDuration() time.Duration {
	return time.Duration(c.RetryDelay * float64(time.Second))
}

// ShutdownGraceDuration converts the seconds field to a Duration.
func (c *Config) ShutdownGraceDuration() time.Duration {
	return time.Duration(c.ShutdownGraceSeconds * float64(time.Second))
}

// BatchTimeout is fixed at 1 second after the batch anchor, matching the
// worker's debounce/batch contract; it is not independently configurable.
const BatchTimeout = time.Second
