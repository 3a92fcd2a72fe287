package config

// Default values for every configuration option. This is layer 0 of the
// three-layer override chain (defaults -> optional TOML file -> env),
// chosen to match the values the worker shipped with historically.
const (
	defaultPhotosBasePath       = "/app/photos"
	defaultDBPath               = "/var/lib/photosync/catalog.db"
	defaultInitialSyncOnStartup = true
	defaultPeriodicSyncInterval = 3600
	defaultEventDebounceDelay   = 2.0
	defaultMaxBatchSize         = 100
	defaultRetryAttempts        = 3
	defaultRetryDelay           = 5.0
	defaultHealthCheckPort      = 8001
	defaultHealthAccessLog      = true
	defaultLogLevel             = "info"
	defaultQueueCapacity        = 10000
	defaultShutdownGrace        = 5.0
)

// DefaultConfig returns a Config populated with every default value. It
// is the starting point both for TOML decoding (so unset fields keep
// their default) and as the fallback when no config file is given.
func DefaultConfig() *Config {
	return &Config{
		PhotosBasePath:       defaultPhotosBasePath,
		DBPath:               defaultDBPath,
		InitialSyncOnStartup: defaultInitialSyncOnStartup,
		PeriodicSyncInterval: defaultPeriodicSyncInterval,
		EventDebounceDelay:   defaultEventDebounceDelay,
		MaxBatchSize:         defaultMaxBatchSize,
		RetryAttempts:        defaultRetryAttempts,
		RetryDelay:           defaultRetryDelay,
		HealthCheckPort:      defaultHealthCheckPort,
		HealthAccessLog:      defaultHealthAccessLog,
		LogLevel:             defaultLogLevel,
		QueueCapacity:        defaultQueueCapacity,
		ShutdownGraceSeconds: defaultShutdownGrace,
	}
}
