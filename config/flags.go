package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"
)

const (
	FlagConfig       = "config"
	FlagSensorID     = "sensor-id"
	FlagAdapter      = "adapter"
	FlagBus          = "bus"
	FlagBusSpeed     = "bus-speed"
	FlagAddress      = "address"
	FlagModel        = "model"
	FlagPrecision    = "precision"
	FlagCRCCheck     = "crc-check"
	FlagSettleDelay  = "settle-delay"
	FlagInterval     = "interval"
	FlagTickTimeout  = "tick-timeout"
	FlagDBHost       = "db-host"
	FlagDBPort       = "db-port"
	FlagDBUser       = "db-user"
	FlagDBPassword   = "db-password"
	FlagDBName       = "db-name"
	FlagDBSSLMode    = "db-sslmode"
	FlagMQTTServer   = "mqtt-server"
	FlagMQTTTopic    = "mqtt-topic"
	FlagMQTTClientID = "mqtt-client-id"
	FlagMQTTUser     = "mqtt-user"
	FlagMQTTPassword = "mqtt-password"
)

// Flags returns the flags understood by FromCLI. Every flag can also be set through its environment variable.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: FlagConfig, Aliases: []string{"c"}, Usage: "YAML configuration file", EnvVars: []string{"SENSORLOG_CONFIG"}},
		&cli.StringFlag{Name: FlagSensorID, Usage: "identifier stored with every reading", EnvVars: []string{"SENSOR_ID"}},
		&cli.StringFlag{Name: FlagAdapter, Aliases: []string{"a"}, Usage: "i2c adapter: generic, nanopi or mcp2221", EnvVars: []string{"SENSOR_ADAPTER"}},
		&cli.StringFlag{Name: FlagBus, Usage: "i2c bus name or number, empty for the first one", EnvVars: []string{"I2C_BUS"}},
		&cli.StringFlag{Name: FlagBusSpeed, Usage: "i2c clock for the generic adapter, e.g. 100kHz", EnvVars: []string{"I2C_SPEED"}},
		&cli.StringFlag{Name: FlagAddress, Usage: "sensor i2c address, decimal or 0x-prefixed hex, default depends on the model", EnvVars: []string{"I2C_ADDRESS"}},
		&cli.StringFlag{Name: FlagModel, Aliases: []string{"s"}, Usage: "sensor model: sht4x, shtc3, hih6021 or mock", EnvVars: []string{"SENSOR_MODEL"}},
		&cli.StringFlag{Name: FlagPrecision, Usage: "sht4x repeatability: high, medium or low", EnvVars: []string{"SENSOR_PRECISION"}},
		&cli.BoolFlag{Name: FlagCRCCheck, Usage: "verify measurement checksums", EnvVars: []string{"SENSOR_CRC_CHECK"}},
		&cli.DurationFlag{Name: FlagSettleDelay, Usage: "wait between measurement command and read", EnvVars: []string{"SENSOR_SETTLE_DELAY"}},
		&cli.DurationFlag{Name: FlagInterval, Usage: "sampling interval", EnvVars: []string{"SAMPLE_INTERVAL"}},
		&cli.DurationFlag{Name: FlagTickTimeout, Usage: "deadline for a single measure and store", EnvVars: []string{"TICK_TIMEOUT"}},
		&cli.StringFlag{Name: FlagDBHost, Usage: "postgres host, empty disables the database sink", EnvVars: []string{"DB_HOST"}},
		&cli.IntFlag{Name: FlagDBPort, Usage: "postgres port", EnvVars: []string{"DB_PORT"}},
		&cli.StringFlag{Name: FlagDBUser, Usage: "postgres user", EnvVars: []string{"DB_USER"}},
		&cli.StringFlag{Name: FlagDBPassword, Usage: "postgres password", EnvVars: []string{"DB_PASSWORD"}},
		&cli.StringFlag{Name: FlagDBName, Usage: "postgres database", EnvVars: []string{"DB_NAME"}},
		&cli.StringFlag{Name: FlagDBSSLMode, Usage: "postgres sslmode", EnvVars: []string{"DB_SSLMODE"}},
		&cli.StringFlag{Name: FlagMQTTServer, Usage: "mqtt broker url, empty disables the mqtt sink", EnvVars: []string{"MQTT_SERVER"}},
		&cli.StringFlag{Name: FlagMQTTTopic, Usage: "mqtt topic, %s is replaced by the sensor id", EnvVars: []string{"MQTT_TOPIC"}},
		&cli.StringFlag{Name: FlagMQTTClientID, Usage: "mqtt client id", EnvVars: []string{"MQTT_CLIENT_ID"}},
		&cli.StringFlag{Name: FlagMQTTUser, Usage: "mqtt username", EnvVars: []string{"MQTT_USER"}},
		&cli.StringFlag{Name: FlagMQTTPassword, Usage: "mqtt password", EnvVars: []string{"MQTT_PASSWORD"}},
	}
}

// FromCLI builds the configuration from the optional file and the flags that were set explicitly.
// The result is not validated.
func FromCLI(c *cli.Context) (Config, error) {
	cfg := Default()
	if path := c.String(FlagConfig); path != "" {
		var err error
		cfg, err = Load(path)
		if err != nil {
			return cfg, err
		}
	}
	setString(c, FlagSensorID, &cfg.SensorID)
	setString(c, FlagAdapter, &cfg.Sensor.Adapter)
	setString(c, FlagBus, &cfg.Sensor.Bus)
	setString(c, FlagBusSpeed, &cfg.Sensor.BusSpeed)
	setString(c, FlagModel, &cfg.Sensor.Model)
	setString(c, FlagPrecision, &cfg.Sensor.Precision)
	if c.IsSet(FlagAddress) {
		addr, err := parseIntOrHex(c.String(FlagAddress))
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", FlagAddress, err)
		}
		cfg.Sensor.Address = addr
	}
	if c.IsSet(FlagCRCCheck) {
		cfg.Sensor.CheckCRC = c.Bool(FlagCRCCheck)
	}
	if c.IsSet(FlagSettleDelay) {
		cfg.Sensor.SettleDelay = c.Duration(FlagSettleDelay)
	}
	if c.IsSet(FlagInterval) {
		cfg.Sampling.Interval = c.Duration(FlagInterval)
	}
	if c.IsSet(FlagTickTimeout) {
		cfg.Sampling.TickTimeout = c.Duration(FlagTickTimeout)
	}

	setString(c, FlagDBHost, &cfg.Database.Host)
	if c.IsSet(FlagDBPort) {
		cfg.Database.Port = c.Int(FlagDBPort)
	}
	setString(c, FlagDBUser, &cfg.Database.User)
	setString(c, FlagDBPassword, &cfg.Database.Password)
	setString(c, FlagDBName, &cfg.Database.Name)
	setString(c, FlagDBSSLMode, &cfg.Database.SSLMode)

	setString(c, FlagMQTTServer, &cfg.MQTT.Server)
	setString(c, FlagMQTTTopic, &cfg.MQTT.Topic)
	setString(c, FlagMQTTClientID, &cfg.MQTT.ClientID)
	setString(c, FlagMQTTUser, &cfg.MQTT.Username)
	setString(c, FlagMQTTPassword, &cfg.MQTT.Password)

	return cfg, nil
}

func setString(c *cli.Context, name string, dst *string) {
	if c.IsSet(name) {
		*dst = c.String(name)
	}
}

func parseIntOrHex(s string) (int, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseInt(s[2:], 16, 64)
		return int(v), err
	}
	v, err := strconv.Atoi(s)
	return v, err
}
