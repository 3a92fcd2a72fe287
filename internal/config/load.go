package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
)

// Load assembles a Config from three layers, lowest precedence first:
// compiled-in defaults, an optional TOML file (path taken from
// SYNC_CONFIG_FILE, if set), and SYNC_-prefixed environment variables.
func Load(logger *slog.Logger) (*Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}

		logger.Debug("loaded config file overlay", slog.String("path", path))
	}

	if err := ApplyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return nil
}

