// internal/config/config.go
package config

type Config struct {
	Source  SourceConfig  `yaml:"source" toml:"source"`
	Poll    PollConfig    `yaml:"poll" toml:"poll"`
	Output  OutputConfig  `yaml:"output" toml:"output"`
	Metrics MetricsConfig `yaml:"metrics" toml:"metrics"`
	Trace   TraceConfig   `yaml:"trace" toml:"trace"`
	Log     LogConfig     `yaml:"log" toml:"log"`
}

// ---- SOURCE ----

type SourceConfig struct {
	Address       string `yaml:"address" toml:"address"` // ws:// URI of QUsb2Snes / usb2snes
	Origin        string `yaml:"origin" toml:"origin"`
	DeviceMarker  string `yaml:"device_marker" toml:"device_marker"`
	TimeoutMs     int    `yaml:"timeout_ms" toml:"timeout_ms"`           // handshake
	ReadTimeoutMs int    `yaml:"read_timeout_ms" toml:"read_timeout_ms"` // 0 = block
}

// ---- POLL ----

type PollConfig struct {
	IntervalS int `yaml:"interval_s" toml:"interval_s"`
	BackoffMs int `yaml:"backoff_ms" toml:"backoff_ms"`
	WatchdogS int `yaml:"watchdog_s" toml:"watchdog_s"`
}

// ---- OUTPUT ----

type OutputConfig struct {
	Path string `yaml:"path" toml:"path"` // created exclusively, never overwritten
	Echo bool   `yaml:"echo" toml:"echo"` // copy every line to stdout
}

// ---- OPTIONAL ----

type MetricsConfig struct {
	Listen string `yaml:"listen" toml:"listen"` // empty = disabled
}

type TraceConfig struct {
	Path string `yaml:"path" toml:"path"` // empty = disabled
}

type LogConfig struct {
	Level   string `yaml:"level" toml:"level"`
	NoColor bool   `yaml:"no_color" toml:"no_color"`
}
