package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/sensorlog"
	"github.com/mklimuk/sensorlog/cmd/sensorlog/console"
	"github.com/mklimuk/sensorlog/config"
)

var readCmd = cli.Command{
	Name:    "read",
	Aliases: []string{"rd"},
	Usage:   "take a single measurement",
	Action: func(c *cli.Context) error {
		ctx := commandContext(c)
		hw, _, err := hardwareFromCLI(c)
		if err != nil {
			return err
		}
		defer closeLogged("sensor", hw)

		r, err := hw.sensor.Measure(ctx)
		if err != nil {
			return console.Fail("error getting temperature read", err)
		}
		console.Printf("%s  %s\n%s %s\n",
			console.PictoThermometer, console.White(r.Temperature),
			console.PictoHumidity, console.White(r.Humidity))
		return nil
	},
}

type sensorInfo struct {
	Model        string `yaml:"model"`
	Address      string `yaml:"address"`
	SerialNumber uint32 `yaml:"serial_number"`
	Precision    string `yaml:"precision"`
	SettleDelay  string `yaml:"settle_delay"`
	CheckCRC     bool   `yaml:"check_crc"`
}

var infoCmd = cli.Command{
	Name:  "info",
	Usage: "print the sensor serial number and driver settings",
	Action: func(c *cli.Context) error {
		ctx := commandContext(c)
		hw, cfg, err := hardwareFromCLI(c)
		if err != nil {
			return err
		}
		defer closeLogged("sensor", hw)

		s, err := hw.requireSHT4x()
		if err != nil {
			return console.Fail("info unavailable", err)
		}
		serial, err := s.SerialNumber(ctx)
		if err != nil {
			return console.Fail("error reading serial number", err)
		}
		opts := s.Config()
		info := sensorInfo{
			Model:        config.ModelSHT4x,
			Address:      fmt.Sprintf("%#x", cfg.Sensor.DeviceAddress()),
			SerialNumber: serial,
			Precision:    opts.Precision.String(),
			SettleDelay:  opts.SettleDelay.String(),
			CheckCRC:     opts.CheckCRC,
		}
		if err := yaml.NewEncoder(console.Writer()).Encode(info); err != nil {
			return console.Fail("encoding error", err)
		}
		return nil
	},
}

var resetCmd = cli.Command{
	Name:  "reset",
	Usage: "send a soft reset to the sensor",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
	},
	Action: func(c *cli.Context) error {
		ctx := commandContext(c)
		if !c.Bool("yes") {
			ok, err := console.Confirm("reset sensor?")
			if err != nil {
				return console.Fail("prompt error", err)
			}
			if !ok {
				return nil
			}
		}
		hw, _, err := hardwareFromCLI(c)
		if err != nil {
			return err
		}
		defer closeLogged("sensor", hw)

		s, err := hw.requireSHT4x()
		if err != nil {
			return console.Fail("reset unavailable", err)
		}
		if err := s.SoftReset(ctx); err != nil {
			return console.Fail("reset error", err)
		}
		console.PInfof(console.PictoFinish, "sensor reset")
		return nil
	},
}

func hardwareFromCLI(c *cli.Context) (*hardware, config.Config, error) {
	cfg, err := config.FromCLI(c)
	if err == nil {
		err = cfg.Sensor.Validate()
	}
	if err != nil {
		return nil, cfg, console.Fail("invalid configuration", err)
	}
	hw, err := openHardware(cfg.Sensor)
	if err != nil {
		return nil, cfg, hardwareErr(err)
	}
	return hw, cfg, nil
}

// hardwareErr maps setup failures to exit codes. A missing bus gets its own code so
// service managers can tell it apart from a misbehaving sensor.
func hardwareErr(err error) cli.ExitCoder {
	if errors.Is(err, sensorlog.ErrBusUnavailable) {
		return console.Exit(2, "%s i2c bus unavailable: %s", console.PictoStop, console.Red(err))
	}
	return console.Fail("adapter initialization error", err)
}
