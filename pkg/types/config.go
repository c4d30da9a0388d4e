// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// EngineKind identifies the conversion backend.
type EngineKind string

const (
	EngineSimulated EngineKind = "simulated"
	EngineContainer EngineKind = "container"
)

// ConversionConfig holds settings for the conversion flow.
type ConversionConfig struct {
	// Engine selects the backend: simulated or container.
	Engine EngineKind `json:"engine" yaml:"engine"`

	// TickInterval is the period of the progress ticker (default 200ms).
	TickInterval time.Duration `json:"tick_interval" yaml:"tick_interval"`

	// SoftLimit is the advisory upload size shown to users (default 10MB).
	// Files above it are flagged, never rejected.
	SoftLimit int64 `json:"soft_limit" yaml:"soft_limit"`

	// MaxSize makes the simulated engine fail for larger inputs. Zero disables it.
	MaxSize int64 `json:"max_size" yaml:"max_size"`

	// Validate runs every input through the PDF inspector before converting.
	Validate bool `json:"validate" yaml:"validate"`

	// Image is the container image used by the container engine.
	Image string `json:"image" yaml:"image"`
}

// ServerConfig holds settings for the HTTP surface.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`

	// SessionTTL is how long an untouched browser session is kept (default 30m).
	SessionTTL time.Duration `json:"session_ttl" yaml:"session_ttl"`

	// MaxUpload caps the request body of an upload (default 64MB).
	MaxUpload int64 `json:"max_upload" yaml:"max_upload"`
}

// HistoryConfig holds settings for the conversion history ledger.
type HistoryConfig struct {
	// Enabled turns on recording of finished runs.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Dir is the directory holding history.db and exports (default "data").
	Dir string `json:"dir" yaml:"dir"`
}

// Config groups all settings.
type Config struct {
	Conversion ConversionConfig `json:"conversion" yaml:"conversion"`
	Server     ServerConfig     `json:"server" yaml:"server"`
	History    HistoryConfig    `json:"history" yaml:"history"`

	// LogLevel is one of debug, info, warn, error (default info).
	LogLevel string `json:"log_level" yaml:"log_level"`
}

const (
	DefaultTickInterval = 200 * time.Millisecond
	DefaultSoftLimit    = 10 << 20
	DefaultImage        = "pdf2docx:latest"
	DefaultAddr         = ":8080"
	DefaultSessionTTL   = 30 * time.Minute
	DefaultMaxUpload    = 64 << 20
	DefaultHistoryDir   = "data"
)

// WithDefaults returns a copy of c with zero fields replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.Conversion.Engine == "" {
		c.Conversion.Engine = EngineSimulated
	}
	if c.Conversion.TickInterval <= 0 {
		c.Conversion.TickInterval = DefaultTickInterval
	}
	if c.Conversion.SoftLimit <= 0 {
		c.Conversion.SoftLimit = DefaultSoftLimit
	}
	if c.Conversion.Image == "" {
		c.Conversion.Image = DefaultImage
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.SessionTTL <= 0 {
		c.Server.SessionTTL = DefaultSessionTTL
	}
	if c.Server.MaxUpload <= 0 {
		c.Server.MaxUpload = DefaultMaxUpload
	}
	if c.History.Dir == "" {
		c.History.Dir = DefaultHistoryDir
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	return c
}
