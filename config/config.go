// Package config holds the daemon settings. Values come from defaults, an optional YAML file
// and finally flags or their environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/sensorlog/environment"
	"github.com/mklimuk/sensorlog/sampler"
	"github.com/mklimuk/sensorlog/sink/mqtt"
	"github.com/mklimuk/sensorlog/sink/postgres"
)

// Version is set at build time.
var Version = "dev"

const (
	AdapterGeneric = "generic"
	AdapterNanoPi  = "nanopi"
	AdapterMCP2221 = "mcp2221"

	ModelSHT4x   = "sht4x"
	ModelSHTC3   = "shtc3"
	ModelHIH6021 = "hih6021"
	ModelMock    = "mock"
)

type Sensor struct {
	Adapter string `yaml:"adapter"`
	Bus     string `yaml:"bus"`
	// BusSpeed is a periph frequency such as "100kHz". Empty keeps the bus default.
	BusSpeed string `yaml:"bus_speed"`
	// Address zero selects the factory address of Model, see DeviceAddress.
	Address     int           `yaml:"address"`
	Model       string        `yaml:"model"`
	Precision   string        `yaml:"precision"`
	CheckCRC    bool          `yaml:"check_crc"`
	SettleDelay time.Duration `yaml:"settle_delay"`
}

type Sampling struct {
	Interval    time.Duration `yaml:"interval"`
	TickTimeout time.Duration `yaml:"tick_timeout"`
}

type Config struct {
	SensorID string          `yaml:"sensor_id"`
	Sensor   Sensor          `yaml:"sensor"`
	Sampling Sampling        `yaml:"sampling"`
	Database postgres.Config `yaml:"database"`
	MQTT     mqtt.Config     `yaml:"mqtt"`
}

func Default() Config {
	return Config{
		Sensor: Sensor{
			Adapter:   AdapterGeneric,
			Model:     ModelSHT4x,
			Precision: environment.PrecisionHigh.String(),
		},
		Sampling: Sampling{
			Interval:    sampler.DefaultInterval,
			TickTimeout: sampler.DefaultTickTimeout,
		},
		MQTT: mqtt.Config{
			ClientID: mqtt.DefaultClientID,
			Topic:    mqtt.DefaultTopic,
		},
	}
}

// Load reads a YAML file on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks everything the sampling daemon needs.
func (c Config) Validate() error {
	var errs []error
	if c.SensorID == "" {
		errs = append(errs, errors.New("sensor id must be set"))
	}
	if c.Sampling.Interval <= 0 {
		errs = append(errs, errors.New("sampling interval must be > 0"))
	}
	if c.Sampling.TickTimeout < 0 {
		errs = append(errs, errors.New("tick timeout must not be negative"))
	}
	errs = append(errs, c.Sensor.Validate())
	return errors.Join(errs...)
}

// DeviceAddress returns the configured address, or the factory address of the model when
// none was set.
func (s Sensor) DeviceAddress() int {
	if s.Address != 0 {
		return s.Address
	}
	switch s.Model {
	case ModelSHTC3:
		return environment.SHTC3Address
	case ModelHIH6021:
		return environment.HIH6021Address
	}
	return environment.SHT4xAddress
}

// Frequency parses BusSpeed. Zero means the bus default.
func (s Sensor) Frequency() (physic.Frequency, error) {
	var f physic.Frequency
	if s.BusSpeed == "" {
		return 0, nil
	}
	if err := f.Set(s.BusSpeed); err != nil {
		return 0, fmt.Errorf("invalid bus speed %q: %w", s.BusSpeed, err)
	}
	return f, nil
}

// Validate checks the hardware settings only, which is all one-shot commands need.
func (s Sensor) Validate() error {
	var errs []error
	if s.Address < 0 || s.Address > 0x7F {
		errs = append(errs, fmt.Errorf("i2c address %#x is not a 7-bit address", s.Address))
	}
	switch s.Model {
	case ModelSHT4x, ModelSHTC3, ModelHIH6021, ModelMock:
	default:
		errs = append(errs, fmt.Errorf("unknown sensor model %q", s.Model))
	}
	switch s.Adapter {
	case AdapterGeneric, AdapterNanoPi, AdapterMCP2221:
	default:
		errs = append(errs, fmt.Errorf("unknown adapter %q", s.Adapter))
	}
	if _, err := environment.ParsePrecision(s.Precision); err != nil {
		errs = append(errs, err)
	}
	if _, err := s.Frequency(); err != nil {
		errs = append(errs, err)
	}
	if s.SettleDelay < 0 {
		errs = append(errs, errors.New("settle delay must not be negative"))
	}
	return errors.Join(errs...)
}

// PostgresEnabled reports whether readings should be inserted into the database.
func (c Config) PostgresEnabled() bool {
	return c.Database.Host != ""
}

func (c Config) MQTTEnabled() bool {
	return c.MQTT.Server != ""
}
