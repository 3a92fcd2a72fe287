package config

import (
	"fmt"
	"os"
	"strconv"
)

// Environment variable names, all under the SYNC_ prefix.
const (
	EnvPhotosBasePath       = "SYNC_PHOTOS_BASE_PATH"
	EnvDBPath               = "SYNC_DB_PATH"
	EnvConfigFile           = "SYNC_CONFIG_FILE"
	EnvInitialSyncOnStartup = "SYNC_INITIAL_SYNC_ON_STARTUP"
	EnvPeriodicSyncInterval = "SYNC_PERIODIC_SYNC_INTERVAL"
	EnvEventDebounceDelay   = "SYNC_EVENT_DEBOUNCE_DELAY"
	EnvMaxBatchSize         = "SYNC_MAX_BATCH_SIZE"
	EnvRetryAttempts        = "SYNC_RETRY_ATTEMPTS"
	EnvRetryDelay           = "SYNC_RETRY_DELAY"
	EnvHealthCheckPort      = "SYNC_HEALTH_CHECK_PORT"
	EnvHealthAccessLog      = "SYNC_HEALTH_ACCESS_LOG"
	EnvLogLevel             = "SYNC_LOG_LEVEL"
	EnvQueueCapacity        = "SYNC_QUEUE_CAPACITY"
	EnvShutdownGrace        = "SYNC_SHUTDOWN_GRACE_SECONDS"
)

// ApplyEnvOverrides mutates cfg in place with any SYNC_-prefixed
// environment variables present, the highest-precedence layer. An unset
// variable leaves the existing field (default or TOML-supplied)
// untouched; a present-but-unparsable value is a fatal configuration
// error.
func ApplyEnvOverrides(cfg *Config) error {
	if v, ok := os.LookupEnv(EnvPhotosBasePath); ok {
		cfg.PhotosBasePath = v
	}

	if v, ok := os.LookupEnv(EnvDBPath); ok {
		cfg.DBPath = v
	}

	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		cfg.LogLevel = v
	}

	if err := applyBool(EnvInitialSyncOnStartup, &cfg.InitialSyncOnStartup); err != nil {
		return err
	}

	if err := applyBool(EnvHealthAccessLog, &cfg.HealthAccessLog); err != nil {
		return err
	}

	if err := applyInt(EnvPeriodicSyncInterval, &cfg.PeriodicSyncInterval); err != nil {
		return err
	}

	if err := applyInt(EnvMaxBatchSize, &cfg.MaxBatchSize); err != nil {
		return err
	}

	if err := applyInt(EnvRetryAttempts, &cfg.RetryAttempts); err != nil {
		return err
	}

	if err := applyInt(EnvHealthCheckPort, &cfg.HealthCheckPort); err != nil {
		return err
	}

	if err := applyInt(EnvQueueCapacity, &cfg.QueueCapacity); err != nil {
		return err
	}

	if err := applyFloat(EnvEventDebounceDelay, &cfg.EventDebounceDelay); err != nil {
		return err
	}

	if err := applyFloat(EnvRetryDelay, &cfg.RetryDelay); err != nil {
		return err
	}

	if err := applyFloat(EnvShutdownGrace, &cfg.ShutdownGraceSeconds); err != nil {
		return err
	}

	return nil
}

func applyBool(name string, dest *bool) error {
	v, ok := os.LookupEnv(name)
	if !ok {
		return nil
	}

	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("config: %s=%q: %w", name, v, err)
	}

	*dest = parsed

	return nil
}

func applyInt(name string, dest *int) error {
	v, ok := os.LookupEnv(name)
	if !ok {
		return nil
	}

	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("config: %s=%q: %w", name, v, err)
	}

	*dest = parsed

	return nil
}

func applyFloat(name string, dest *float64) error {
	v, ok := os.LookupEnv(name)
	if !ok {
		return nil
	}

	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("config: %s=%q: %w", name, v, err)
	}

	*dest = parsed

	return nil
}
