// Package config loads harness settings: where the device is, what the
// scenarios should expect from it, and how to log.
//
// A config file is YAML:
//
//	device:
//	  id: 0x12
//	  endpoint: localhost:9090
//	  read_timeout: 3s
//	  connect_timeout: 5s
//	expect:
//	  min_temperature: -40
//	  max_temperature: 85
//	  max_consumption: 10
//	  serial_number: SN-2026-0042
//	  time_delta: 2s
//	log:
//	  level: info
//	  protocol_log: run.llog
//
// Environment variables LINECTL_ENDPOINT and LINECTL_DEVICE_ID override the
// device section.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/linectl/linectl-go/pkg/transport"
)

// Environment overrides.
const (
	EnvEndpoint = "LINECTL_ENDPOINT"
	EnvDeviceID = "LINECTL_DEVICE_ID"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the harness configuration.
type Config struct {
	Device Device `yaml:"device"`
	Expect Expect `yaml:"expect"`
	Log    Log    `yaml:"log"`
}

// Device locates the device under test.
type Device struct {
	ID             DeviceID      `yaml:"id"`
	Endpoint       string        `yaml:"endpoint"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// Expect holds the reference values scenarios assert against.
type Expect struct {
	MinTemperature float64       `yaml:"min_temperature"`
	MaxTemperature float64       `yaml:"max_temperature"`
	MaxConsumption float64       `yaml:"max_consumption"`
	SerialNumber   string        `yaml:"serial_number"`
	TimeDelta      time.Duration `yaml:"time_delta"`
}

// Log configures logging.
type Log struct {
	Level       string `yaml:"level"`
	ProtocolLog string `yaml:"protocol_log"`
}

// DeviceID accepts decimal or 0x-prefixed hex in YAML.
type DeviceID uint64

// UnmarshalYAML parses the id with base prefixes.
func (d *DeviceID) UnmarshalYAML(node *yaml.Node) error {
	n, err := strconv.ParseUint(strings.TrimSpace(node.Value), 0, 64)
	if err != nil {
		return fmt.Errorf("line %d: device id %q: %w", node.Line, node.Value, err)
	}
	*d = DeviceID(n)
	return nil
}

// MarshalYAML writes the id as hex.
func (d DeviceID) MarshalYAML() (any, error) {
	return fmt.Sprintf("0x%x", uint64(d)), nil
}

// Default returns the built-in configuration: device 0x12 on
// localhost:9090 and the reference bench limits.
func Default() *Config {
	return &Config{
		Device: Device{
			ID:             0x12,
			Endpoint:       fmt.Sprintf("localhost:%d", transport.DefaultPort),
			ReadTimeout:    transport.DefaultReadTimeout,
			ConnectTimeout: transport.DefaultConnectTimeout,
		},
		Expect: Expect{
			MinTemperature: -40,
			MaxTemperature: 85,
			MaxConsumption: 10,
			SerialNumber:   "SN-2026-0042",
			TimeDelta:      2 * time.Second,
		},
		Log: Log{Level: "info"},
	}
}

// Load reads path over the defaults. Missing keys keep their default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv applies environment overrides using lookup (os.LookupEnv when nil).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(EnvEndpoint); ok && v != "" {
		c.Device.Endpoint = v
	}
	if v, ok := lookup(EnvDeviceID); ok && v != "" {
		n, err := strconv.ParseUint(v, 0, 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalid, EnvDeviceID, v)
		}
		c.Device.ID = DeviceID(n)
	}
	return nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var errs []error
	if c.Device.Endpoint == "" {
		errs = append(errs, errors.New("device.endpoint is required"))
	}
	if c.Device.ReadTimeout < 0 {
		errs = append(errs, errors.New("device.read_timeout must not be negative"))
	}
	if c.Expect.MinTemperature > c.Expect.MaxTemperature {
		errs = append(errs, fmt.Errorf("expect.min_temperature %v exceeds max_temperature %v",
			c.Expect.MinTemperature, c.Expect.MaxTemperature))
	}
	if c.Expect.TimeDelta <= 0 {
		errs = append(errs, errors.New("expect.time_delta must be positive"))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// Transport returns the transport configuration for the device section.
func (c *Config) Transport() transport.Config {
	tc := transport.DefaultConfig()
	if c.Device.ReadTimeout > 0 {
		tc.ReadTimeout = c.Device.ReadTimeout
	}
	if c.Device.ConnectTimeout > 0 {
		tc.ConnectTimeout = c.Device.ConnectTimeout
	}
	return tc
}

// Vars exports the expectations for scenario interpolation.
func (e Expect) Vars() map[string]any {
	return map[string]any{
		"min_temperature": e.MinTemperature,
		"max_temperature": e.MaxTemperature,
		"max_consumption": e.MaxConsumption,
		"serial_number":   e.SerialNumber,
		"time_delta":      e.TimeDelta.Seconds(),
	}
}

// SlogLevel maps Level onto slog levels.
func (l Log) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("log.level %q is not one of debug, info, warn, error", l.Level)
}
