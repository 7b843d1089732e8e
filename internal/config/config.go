package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DeviceConfig specifies how resolved commands map onto the target hardware's
// timing units.
type DeviceConfig struct {
	UnitMicros *int64 `yaml:"unit_micros,omitempty"` // wall-clock length of one device unit (default 10000)
	MaxUnit    *int   `yaml:"max_unit,omitempty"`    // largest representable unit value (default 255)
}

// DecoderConfig specifies decode-time behaviour toggles.
type DecoderConfig struct {
	LenientPalette bool `yaml:"lenient_palette,omitempty"` // substitute slot 0 for out-of-range references
}

// PlayerConfig specifies playback behaviour.
type PlayerConfig struct {
	Loop         bool   `yaml:"loop,omitempty"`          // repeat from tick 0 (overrides the header flag when set)
	TickInterval string `yaml:"tick_interval,omitempty"` // scheduler granularity as a Go duration (default "5ms")
}

// Config represents the top-level lstf.yml configuration
type Config struct {
	Version  string         `yaml:"version"`
	Device   *DeviceConfig  `yaml:"device,omitempty"`
	Decoder  *DecoderConfig `yaml:"decoder,omitempty"`
	Player   *PlayerConfig  `yaml:"player,omitempty"`
	LogLevel string         `yaml:"log_level,omitempty"` // debug, info, warn, error (default: info)
}

// Validate performs strict validation on the configuration and fills in
// defaults for omitted sections.
func (c *Config) Validate() error {
	// Required: version
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	// Apply default device profile if missing
	if c.Device == nil {
		c.Device = &DeviceConfig{}
	}
	if c.Device.UnitMicros == nil {
		defaultUnit := int64(10_000)
		c.Device.UnitMicros = &defaultUnit
	}
	if c.Device.MaxUnit == nil {
		defaultMax := 255
		c.Device.MaxUnit = &defaultMax
	}

	if *c.Device.UnitMicros <= 0 {
		return fmt.Errorf("device.unit_micros must be positive, got %d", *c.Device.UnitMicros)
	}
	if *c.Device.MaxUnit < 1 || *c.Device.MaxUnit > 255 {
		return fmt.Errorf("device.max_unit must be in [1,255], got %d", *c.Device.MaxUnit)
	}

	if c.Decoder == nil {
		c.Decoder = &DecoderConfig{}
	}
	if c.Player == nil {
		c.Player = &PlayerConfig{}
	}
	if c.Player.TickInterval == "" {
		c.Player.TickInterval = "5ms"
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level: %s (must be 'debug', 'info', 'warn', or 'error')", c.LogLevel)
	}

	return nil
}

// Default returns the configuration used when no lstf.yml is present.
func Default() *Config {
	c := &Config{Version: "1.0"}
	// Validate on a fresh struct only fills defaults; it cannot fail.
	_ = c.Validate()
	return c
}

// Load reads and validates lstf.yml from the specified path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadOrDefault loads path when it exists, otherwise returns Default().
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}
