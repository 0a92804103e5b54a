// internal/config/validate.go
package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil")
	}

	// ------------------------------------------------------------
	// SOURCE
	// ------------------------------------------------------------

	addr := strings.TrimSpace(cfg.Source.Address)
	if addr == "" {
		return fmt.Errorf("source.address is required")
	}
	u, err := url.Parse(addr)
	if err != nil {
		return fmt.Errorf("source.address %q: %w", addr, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("source.address %q: scheme must be ws or wss", addr)
	}
	if u.Host == "" {
		return fmt.Errorf("source.address %q: host is required", addr)
	}

	if cfg.Source.TimeoutMs < 0 {
		return fmt.Errorf("source.timeout_ms must be >= 0, got %d", cfg.Source.TimeoutMs)
	}
	if cfg.Source.ReadTimeoutMs < 0 {
		return fmt.Errorf("source.read_timeout_ms must be >= 0, got %d", cfg.Source.ReadTimeoutMs)
	}

	// device marker sanity (ASCII only)
	for i := 0; i < len(cfg.Source.DeviceMarker); i++ {
		if cfg.Source.DeviceMarker[i] > 0x7F {
			return fmt.Errorf("source.device_marker must contain ASCII characters only")
		}
	}

	// ------------------------------------------------------------
	// POLL
	// ------------------------------------------------------------

	if cfg.Poll.IntervalS < 1 {
		return fmt.Errorf("poll.interval_s must be >= 1, got %d", cfg.Poll.IntervalS)
	}
	if cfg.Poll.BackoffMs < 1 {
		return fmt.Errorf("poll.backoff_ms must be >= 1, got %d", cfg.Poll.BackoffMs)
	}
	if cfg.Poll.WatchdogS < 1 {
		return fmt.Errorf("poll.watchdog_s must be >= 1, got %d", cfg.Poll.WatchdogS)
	}

	// ------------------------------------------------------------
	// OUTPUT
	// ------------------------------------------------------------

	if strings.TrimSpace(cfg.Output.Path) == "" {
		return fmt.Errorf("output.path is required")
	}
	if cfg.Trace.Path != "" && cfg.Trace.Path == cfg.Output.Path {
		return fmt.Errorf("trace.path must differ from output.path")
	}

	// ------------------------------------------------------------
	// LOG
	// ------------------------------------------------------------

	switch strings.ToLower(strings.TrimSpace(cfg.Log.Level)) {
	case "", "trace", "debug", "info", "warn", "warning", "error", "disabled", "off":
	default:
		return fmt.Errorf("log.level %q is not a level", cfg.Log.Level)
	}

	return nil
}
