package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/multierr"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"

	"github.com/mklimuk/sensorlog"
	"github.com/mklimuk/sensorlog/adapter"
	"github.com/mklimuk/sensorlog/config"
	"github.com/mklimuk/sensorlog/environment"
	"github.com/mklimuk/sensorlog/i2c"
)

// hardware owns the opened bus and the sensor driver on top of it.
type hardware struct {
	sensor environment.TempHumSensor
	// sht4x is set when the configured model supports the maintenance commands.
	sht4x   *environment.SHT4x
	closers []func() error
}

func (h *hardware) Close() error {
	var err error
	for i := len(h.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, h.closers[i]())
	}
	return err
}

func openHardware(cfg config.Sensor) (*hardware, error) {
	h := &hardware{}
	if cfg.Model == config.ModelMock {
		start := environment.Reading{Temperature: 21, Humidity: 45}
		h.sensor = environment.NewMockTempHumSensor(environment.RandomWalk(start, time.Now().UnixNano()))
		return h, nil
	}

	bus, err := openBus(h, cfg)
	if err != nil {
		return nil, err
	}
	dev, err := i2c.Open(bus, byte(cfg.DeviceAddress()))
	if err != nil {
		_ = h.Close()
		return nil, err
	}
	h.closers = append(h.closers, dev.Close)

	switch cfg.Model {
	case config.ModelSHTC3:
		h.sensor = environment.NewSHTC3(dev)
	case config.ModelHIH6021:
		h.sensor = environment.NewHIH6021(dev)
	default:
		precision, err := environment.ParsePrecision(cfg.Precision)
		if err != nil {
			_ = h.Close()
			return nil, err
		}
		h.sht4x = environment.NewSHT4x(dev,
			environment.WithPrecision(precision),
			environment.WithSettleDelay(cfg.SettleDelay),
			environment.WithCRCCheck(cfg.CheckCRC),
		)
		h.sensor = h.sht4x
	}
	return h, nil
}

func openBus(h *hardware, cfg config.Sensor) (sensorlog.I2CBus, error) {
	switch cfg.Adapter {
	case config.AdapterMCP2221:
		ad := adapter.NewMCP2221()
		if err := ad.Init(); err != nil {
			return nil, err
		}
		return ad, nil
	case config.AdapterNanoPi:
		busNr := -1
		if cfg.Bus != "" {
			n, err := strconv.Atoi(cfg.Bus)
			if err != nil {
				return nil, fmt.Errorf("%w: nanopi bus must be a number: %w", sensorlog.ErrBusUnavailable, err)
			}
			busNr = n
		}
		npi := nanopi.NewNeoAdaptor()
		if err := npi.I2cBusAdaptor.Connect(); err != nil {
			return nil, fmt.Errorf("%w: adaptor connect error: %w", sensorlog.ErrBusUnavailable, err)
		}
		h.closers = append(h.closers, npi.I2cBusAdaptor.Finalize)
		return i2c.NewGobotBus(npi, busNr), nil
	default:
		speed, err := cfg.Frequency()
		if err != nil {
			return nil, err
		}
		bus, err := i2c.NewGenericBus(cfg.Bus)
		if err != nil {
			return nil, err
		}
		if speed > 0 {
			if err := bus.SetSpeed(speed); err != nil {
				_ = bus.Close()
				return nil, fmt.Errorf("%w: could not set bus speed to %s: %w", sensorlog.ErrBusUnavailable, speed, err)
			}
		}
		return bus, nil
	}
}

// requireSHT4x returns the driver for commands only the SHT4x family implements.
func (h *hardware) requireSHT4x() (*environment.SHT4x, error) {
	if h.sht4x == nil {
		return nil, errors.New("command not supported by the configured sensor model")
	}
	return h.sht4x, nil
}
