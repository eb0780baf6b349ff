package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/sensorlog/cmd/sensorlog/console"
	"github.com/mklimuk/sensorlog/config"
	"github.com/mklimuk/sensorlog/sampler"
	"github.com/mklimuk/sensorlog/sink"
	sinkconsole "github.com/mklimuk/sensorlog/sink/console"
	"github.com/mklimuk/sensorlog/sink/mqtt"
	"github.com/mklimuk/sensorlog/sink/postgres"
)

var runCmd = cli.Command{
	Name:  "run",
	Usage: "sample the sensor on an interval and store every reading",
	Action: func(c *cli.Context) error {
		ctx := commandContext(c)
		cfg, err := config.FromCLI(c)
		if err == nil {
			err = cfg.Validate()
		}
		if err != nil {
			return console.Fail("invalid configuration", err)
		}

		hw, err := openHardware(cfg.Sensor)
		if err != nil {
			return hardwareErr(err)
		}
		defer closeLogged("sensor", hw)

		out, err := openSinks(ctx, cfg)
		if err != nil {
			return console.Fail("sink initialization error", err)
		}
		defer closeLogged("sinks", out)

		s := sampler.New(cfg.SensorID, hw.sensor, out,
			sampler.WithInterval(cfg.Sampling.Interval),
			sampler.WithTickTimeout(cfg.Sampling.TickTimeout),
		)
		slog.InfoContext(ctx, "sensor ready",
			"model", cfg.Sensor.Model,
			"adapter", cfg.Sensor.Adapter,
			"address", fmt.Sprintf("%#x", cfg.Sensor.DeviceAddress()),
			"postgres", cfg.PostgresEnabled(),
			"mqtt", cfg.MQTTEnabled())
		return s.Run(ctx)
	},
}

func openSinks(ctx context.Context, cfg config.Config) (sink.Multi, error) {
	out := sink.Multi{sinkconsole.New(nil)}
	if cfg.PostgresEnabled() {
		pg, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			_ = out.Close()
			return nil, err
		}
		out = append(out, pg)
	}
	if cfg.MQTTEnabled() {
		m, err := mqtt.New(cfg.MQTT)
		if err != nil {
			_ = out.Close()
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func closeLogged(what string, c io.Closer) {
	if err := c.Close(); err != nil {
		console.Errorf("error closing %s: %s", what, console.Red(err))
	}
}
