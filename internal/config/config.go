// Package config loads screenloop configuration from a TOML file with
// environment-variable overrides, and supports live reload of the file.
package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// envPrefix is the prefix for environment overrides, e.g.
// SCREENLOOP_LOG_LEVEL.
const envPrefix = "screenloop"

// Config holds runtime settings for a screenloop application.
type Config struct {
	// LogLevel is the minimum log level: debug, info, warn, error.
	LogLevel string `toml:"log_level" envconfig:"LOG_LEVEL"`

	// LogFile is where logs are written. Empty means stderr.
	LogFile string `toml:"log_file" envconfig:"LOG_FILE"`

	// MouseEnabled controls whether the terminal backend reports mouse
	// and motion events.
	MouseEnabled bool `toml:"mouse_enabled" envconfig:"MOUSE_ENABLED"`

	// QueueSize is the dispatch loop's work queue capacity.
	QueueSize int `toml:"queue_size" envconfig:"QUEUE_SIZE"`

	// ScriptFile is an optional Lua file whose functions are registered
	// as command handlers.
	ScriptFile string `toml:"script_file" envconfig:"SCRIPT_FILE"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel:     "info",
		MouseEnabled: true,
		QueueSize:    256,
	}
}

// Load reads configuration from path, then applies environment overrides.
// A missing file is not an error; defaults are used. Environment variables
// win over file values.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// No file is fine; defaults apply.
		case err != nil:
			return cfg, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		}
	}

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return cfg, fmt.Errorf("applying environment overrides: %w", err)
	}

	if cfg.QueueSize <= 0 {
		cfg.QueueSize = Default().QueueSize
	}
	return cfg, nil
}
