// Package config provides configuration loading for the redactor.
// Supports YAML files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the redactor.
type Config struct {
	Render    RenderConfig    `yaml:"render"`
	Export    ExportConfig    `yaml:"export"`
	Effects   EffectsConfig   `yaml:"effects"`
	Selection SelectionConfig `yaml:"selection"`
	Server    ServerConfig    `yaml:"server"`
	Watch     WatchConfig     `yaml:"watch"`
	Log       LogConfig       `yaml:"log"`
}

// RenderConfig controls PDF rasterization.
type RenderConfig struct {
	DPI int `yaml:"dpi"`
}

// ExportConfig controls PDF output. A zero DPI reuses the render DPI.
type ExportConfig struct {
	DPI int `yaml:"dpi"`
}

// EffectsConfig holds region effect parameters.
type EffectsConfig struct {
	Default     string  `yaml:"default"` // blur or mosaic
	BlurRadius  float64 `yaml:"blur_radius"`
	MosaicBlock int     `yaml:"mosaic_block"`
	Seed        uint64  `yaml:"seed"` // 0 seeds from the clock
}

// SelectionConfig holds gesture settings.
type SelectionConfig struct {
	MinSize float64 `yaml:"min_size"`
}

// ServerConfig holds local viewer settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	MaxUploadBytes   int64         `yaml:"max_upload_bytes"`
}

// WatchConfig holds drop folder settings. An empty Dir disables watching.
type WatchConfig struct {
	Dir    string        `yaml:"dir"`
	Settle time.Duration `yaml:"settle"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Render: RenderConfig{
			DPI: 300,
		},
		Effects: EffectsConfig{
			Default:     "blur",
			BlurRadius:  15,
			MosaicBlock: 8,
		},
		Selection: SelectionConfig{
			MinSize: 5,
		},
		Server: ServerConfig{
			Host:             "127.0.0.1",
			Port:             8090,
			ReadTimeout:      60 * time.Second,
			WriteTimeout:     120 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 10 * time.Second,
			MaxUploadBytes:   200 << 20,
		},
		Watch: WatchConfig{
			Settle: 750 * time.Millisecond,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Render.DPI < 36 || c.Render.DPI > 1200 {
		return fmt.Errorf("render dpi must be between 36 and 1200, got %d", c.Render.DPI)
	}

	if c.Export.DPI != 0 && (c.Export.DPI < 36 || c.Export.DPI > 1200) {
		return fmt.Errorf("export dpi must be 0 or between 36 and 1200, got %d", c.Export.DPI)
	}

	if c.Effects.Default != "blur" && c.Effects.Default != "mosaic" {
		return fmt.Errorf("invalid default effect: %s", c.Effects.Default)
	}

	if c.Effects.BlurRadius <= 0 {
		return fmt.Errorf("blur_radius must be positive")
	}

	if c.Effects.MosaicBlock < 1 {
		return fmt.Errorf("mosaic_block must be at least 1")
	}

	if c.Selection.MinSize < 0 {
		return fmt.Errorf("selection min_size cannot be negative")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}

	return nil
}

// ExportDPI returns the resolution used when writing pages back to PDF.
func (c *Config) ExportDPI() int {
	if c.Export.DPI == 0 {
		return c.Render.DPI
	}
	return c.Export.DPI
}

// Addr returns the viewer listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PDF_REDACTOR_DPI"); v != "" {
		if dpi, err := strconv.Atoi(v); err == nil {
			cfg.Render.DPI = dpi
		}
	}

	if v := os.Getenv("PDF_REDACTOR_EXPORT_DPI"); v != "" {
		if dpi, err := strconv.Atoi(v); err == nil {
			cfg.Export.DPI = dpi
		}
	}

	if v := os.Getenv("PDF_REDACTOR_EFFECT"); v != "" {
		cfg.Effects.Default = strings.ToLower(v)
	}

	if v := os.Getenv("PDF_REDACTOR_SEED"); v != "" {
		if seed, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Effects.Seed = seed
		}
	}

	if v := os.Getenv("PDF_REDACTOR_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("PDF_REDACTOR_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("PDF_REDACTOR_WATCH_DIR"); v != "" {
		cfg.Watch.Dir = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}
