package i2c

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mklimuk/sensorlog"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

var _ sensorlog.I2CBus = &GenericBus{}

// GenericBus is a Linux i2c-dev bus driven through periph.io.
type GenericBus struct {
	bus i2c.BusCloser
}

// NewGenericBus opens the named bus ("" picks the first one, "1" or "/dev/i2c-1" a specific one).
func NewGenericBus(dev string) (*GenericBus, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("%w: could not init host: %w", sensorlog.ErrBusUnavailable, err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("host driver loaded", "driver", driver.String())
	}
	bus, err := i2creg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("%w: could not open i2c bus %q: %w", sensorlog.ErrBusUnavailable, dev, err)
	}
	return &GenericBus{
		bus: bus,
	}, nil
}

func (b *GenericBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := b.bus.Tx(uint16(address), nil, buffer)
	if err != nil {
		return fmt.Errorf("%w: could not read from %#x: %w", sensorlog.ErrTransport, address, err)
	}
	return nil
}

func (b *GenericBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := b.bus.Tx(uint16(address), buffer, nil)
	if err != nil {
		return fmt.Errorf("%w: could not write to %#x: %w", sensorlog.ErrTransport, address, err)
	}
	return nil
}

// SetSpeed changes the bus clock. Not every host driver supports it.
func (b *GenericBus) SetSpeed(f physic.Frequency) error {
	return b.bus.SetSpeed(f)
}

func (b *GenericBus) Release(ctx context.Context) error {
	return nil
}

func (b *GenericBus) Close() error {
	return b.bus.Close()
}
