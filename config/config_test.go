package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"periph.io/x/conn/v3/physic"
)

func runCLI(t *testing.T, args ...string) (Config, error) {
	t.Helper()
	var (
		cfg    Config
		cfgErr error
	)
	app := &cli.App{
		Name:  "test",
		Flags: Flags(),
		Action: func(c *cli.Context) error {
			cfg, cfgErr = FromCLI(c)
			return nil
		},
	}
	require.NoError(t, app.Run(append([]string{"test"}, args...)))
	return cfg, cfgErr
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 0x44, cfg.Sensor.DeviceAddress())
	assert.Equal(t, ModelSHT4x, cfg.Sensor.Model)
	assert.Equal(t, "high", cfg.Sensor.Precision)
	assert.False(t, cfg.Sensor.CheckCRC)
	assert.Equal(t, time.Minute, cfg.Sampling.Interval)
	assert.False(t, cfg.PostgresEnabled())
	assert.False(t, cfg.MQTTEnabled())
	// sensor id has no default
	assert.Error(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.SensorID = "cellar"
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"zero interval", func(c *Config) { c.Sampling.Interval = 0 }},
		{"negative timeout", func(c *Config) { c.Sampling.TickTimeout = -time.Second }},
		{"10-bit address", func(c *Config) { c.Sensor.Address = 0x80 }},
		{"unknown model", func(c *Config) { c.Sensor.Model = "dht22" }},
		{"unknown adapter", func(c *Config) { c.Sensor.Adapter = "ftdi" }},
		{"unknown precision", func(c *Config) { c.Sensor.Precision = "ultra" }},
		{"bad bus speed", func(c *Config) { c.Sensor.BusSpeed = "fast" }},
		{"negative settle delay", func(c *Config) { c.Sensor.SettleDelay = -time.Millisecond }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	// one-shot commands do not need a sensor id
	noID := Default()
	assert.Error(t, noID.Validate())
	assert.NoError(t, noID.Sensor.Validate())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sensorlog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sensor_id: attic
sensor:
  adapter: mcp2221
  address: 0x45
  precision: low
  check_crc: true
sampling:
  interval: 30s
database:
  host: db.local
  name: climate
mqtt:
  server: tcp://broker:1883
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "attic", cfg.SensorID)
	assert.Equal(t, AdapterMCP2221, cfg.Sensor.Adapter)
	assert.Equal(t, 0x45, cfg.Sensor.Address)
	assert.Equal(t, "low", cfg.Sensor.Precision)
	assert.True(t, cfg.Sensor.CheckCRC)
	assert.Equal(t, 30*time.Second, cfg.Sampling.Interval)
	// untouched values keep their defaults
	assert.Equal(t, ModelSHT4x, cfg.Sensor.Model)
	assert.Equal(t, 10*time.Second, cfg.Sampling.TickTimeout)
	assert.True(t, cfg.PostgresEnabled())
	assert.True(t, cfg.MQTTEnabled())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFromCLI_Env(t *testing.T) {
	t.Setenv("SENSOR_ID", "greenhouse")
	t.Setenv("DB_HOST", "10.0.0.5")
	t.Setenv("DB_USER", "logger")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "sensors")
	t.Setenv("I2C_ADDRESS", "0x46")
	t.Setenv("SAMPLE_INTERVAL", "5s")

	cfg, err := runCLI(t)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "greenhouse", cfg.SensorID)
	assert.Equal(t, "10.0.0.5", cfg.Database.Host)
	assert.Equal(t, "logger", cfg.Database.User)
	assert.Equal(t, "secret", cfg.Database.Password)
	assert.Equal(t, "sensors", cfg.Database.Name)
	assert.Equal(t, 0x46, cfg.Sensor.Address)
	assert.Equal(t, 5*time.Second, cfg.Sampling.Interval)
}

func TestFromCLI_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sensorlog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sensor_id: attic\nsensor:\n  model: shtc3\n"), 0o600))

	cfg, err := runCLI(t, "--config", path, "--model", "mock", "--address", "112", "--crc-check")
	require.NoError(t, err)
	assert.Equal(t, "attic", cfg.SensorID)
	assert.Equal(t, ModelMock, cfg.Sensor.Model)
	assert.Equal(t, 112, cfg.Sensor.Address)
	assert.True(t, cfg.Sensor.CheckCRC)
}

func TestFromCLI_ModelAddress(t *testing.T) {
	tests := []struct {
		model    string
		expected int
	}{
		{ModelSHT4x, 0x44},
		{ModelSHTC3, 0x70},
		{ModelHIH6021, 0x27},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			cfg, err := runCLI(t, "--model", tt.model, "--sensor-id", "x")
			require.NoError(t, err)
			require.NoError(t, cfg.Validate())
			assert.Equal(t, tt.expected, cfg.Sensor.DeviceAddress())
		})
	}

	// an explicit address wins over the model default
	cfg, err := runCLI(t, "--model", ModelSHTC3, "--address", "0x71")
	require.NoError(t, err)
	assert.Equal(t, 0x71, cfg.Sensor.DeviceAddress())

	path := filepath.Join(t.TempDir(), "sensorlog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sensor:\n  model: hih6021\n  address: 0x28\n"), 0o600))
	cfg, err = runCLI(t, "--config", path)
	require.NoError(t, err)
	assert.Equal(t, 0x28, cfg.Sensor.DeviceAddress())
}

func TestFromCLI_BusSpeed(t *testing.T) {
	t.Setenv("I2C_SPEED", "400kHz")
	cfg, err := runCLI(t)
	require.NoError(t, err)
	f, err := cfg.Sensor.Frequency()
	require.NoError(t, err)
	assert.Equal(t, 400*physic.KiloHertz, f)

	f, err = Default().Sensor.Frequency()
	require.NoError(t, err)
	assert.Zero(t, f)
}

func TestFromCLI_InvalidAddress(t *testing.T) {
	_, err := runCLI(t, "--sensor-id", "x", "--address", "0xZZ")
	assert.ErrorContains(t, err, "invalid address")
}

func TestParseIntOrHex(t *testing.T) {
	tests := []struct {
		given    string
		expected int
	}{
		{"68", 68},
		{"0x44", 0x44},
		{"0X70", 0x70},
		{" 0x45 ", 0x45},
	}
	for _, tt := range tests {
		t.Run(tt.given, func(t *testing.T) {
			v, err := parseIntOrHex(tt.given)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, v)
		})
	}
}
