// internal/config/load.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAddress      = "ws://localhost:8080"
	DefaultOrigin       = "http://localhost"
	DefaultDeviceMarker = "SD2SNES"
	DefaultTimeoutMs    = 5000
	DefaultIntervalS    = 5
	DefaultBackoffMs    = 250
	DefaultWatchdogS    = 60
	DefaultLogLevel     = "info"
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Address:      DefaultAddress,
			Origin:       DefaultOrigin,
			DeviceMarker: DefaultDeviceMarker,
			TimeoutMs:    DefaultTimeoutMs,
		},
		Poll: PollConfig{
			IntervalS: DefaultIntervalS,
			BackoffMs: DefaultBackoffMs,
			WatchdogS: DefaultWatchdogS,
		},
		Output: OutputConfig{
			Echo: true,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// Load reads a YAML (.yaml/.yml) or TOML (.toml) file over the defaults.
// Keys missing from the file keep their default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config load failed (%s): %w", path, err)
	}

	cfg := Default()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml", "":
		err = yaml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("config load failed (%s): unsupported extension", path)
	}
	if err != nil {
		return nil, fmt.Errorf("config parse failed (%s): %w", path, err)
	}

	return cfg, nil
}
