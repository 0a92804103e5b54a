// internal/config/normalize.go
package config

import "strings"

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Source.Address = strings.TrimSpace(cfg.Source.Address)
	cfg.Output.Path = strings.TrimSpace(cfg.Output.Path)
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))

	// An empty origin or marker means "use the default", not "send none".
	if strings.TrimSpace(cfg.Source.Origin) == "" {
		cfg.Source.Origin = DefaultOrigin
	}
	if strings.TrimSpace(cfg.Source.DeviceMarker) == "" {
		cfg.Source.DeviceMarker = DefaultDeviceMarker
	}
}
