// Package config loads the TOML configuration file and supplies documented
// defaults for every tunable the pipeline consumes.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the top-level configuration structure.
type Config struct {
	Decode  DecodeConfig  `toml:"decode"`  // Reconstruction pipeline parameters
	Storage StorageConfig `toml:"storage"` // Message archive location
	Logging LoggingConfig `toml:"logging"` // Application logging
}

// DecodeConfig tunes the reconstruction pipeline. The core consumes these
// values but does not own them; callers may override any of them per call.
type DecodeConfig struct {
	PairingWindowSecs     float64 `toml:"pairing_window_seconds"`     // Max age difference inside a CPR even/odd pair
	MaxSpeedKt            float64 `toml:"max_speed_kt"`               // Implied-speed rejection ceiling for global fixes
	LocalMaxSpeedKt       float64 `toml:"local_max_speed_kt"`         // Tighter ceiling for locally referenced fixes
	MaxConsecutiveRejects int     `toml:"max_consecutive_rejects"`    // Force-accept after this many rejections in a row
	VelocityToleranceSecs float64 `toml:"velocity_tolerance_seconds"` // Nearest-timestamp window for velocity merging

	// Optional seed reference for locally referenced decoding before the
	// first accepted fix (decimal degrees).
	ReferenceLat *float64 `toml:"reference_lat"`
	ReferenceLon *float64 `toml:"reference_lon"`
}

// StorageConfig locates the message archive.
type StorageConfig struct {
	Type       string `toml:"type"`        // Storage backend type (currently only "sqlite")
	SQLitePath string `toml:"sqlite_path"` // Path to the SQLite archive file
}

// LoggingConfig mirrors the logger setup knobs.
type LoggingConfig struct {
	Level  string `toml:"level"`  // "debug", "info", "warn" or "error"
	Format string `toml:"format"` // "json" (structured) or "text" (human-readable)
}

// Default returns the configuration with all documented defaults applied.
func Default() *Config {
	return &Config{
		Decode: DecodeConfig{
			PairingWindowSecs:     10,
			MaxSpeedKt:            1200,
			LocalMaxSpeedKt:       600,
			MaxConsecutiveRejects: 3,
			VelocityToleranceSecs: 5,
		},
		Storage: StorageConfig{
			Type:       "sqlite",
			SQLitePath: "ostk.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a TOML file over the defaults. A missing path is not an error;
// the defaults are returned unchanged so the tool runs without a config
// file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Storage.Type != "sqlite" {
		return fmt.Errorf("unsupported storage type: %q", c.Storage.Type)
	}
	if c.Decode.PairingWindowSecs <= 0 {
		return fmt.Errorf("pairing_window_seconds must be positive")
	}
	if c.Decode.MaxSpeedKt <= 0 {
		return fmt.Errorf("max_speed_kt must be positive")
	}
	if (c.Decode.ReferenceLat == nil) != (c.Decode.ReferenceLon == nil) {
		return fmt.Errorf("reference_lat and reference_lon must be set together")
	}
	return nil
}
