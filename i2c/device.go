package i2c

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mklimuk/sensorlog"
	"go.uber.org/multierr"
)

var _ sensorlog.I2CDevice = &Device{}

// Device binds a bus to one 7-bit peripheral address for its whole lifetime.
type Device struct {
	bus  sensorlog.I2CBus
	addr byte
}

// Open returns a handle for the peripheral at addr. The handle takes ownership of the bus:
// closing it releases the bus and closes it when the bus supports io.Closer.
func Open(bus sensorlog.I2CBus, addr byte) (*Device, error) {
	if bus == nil {
		return nil, fmt.Errorf("%w: no bus", sensorlog.ErrBusUnavailable)
	}
	if addr > 0x7F {
		return nil, fmt.Errorf("invalid 7-bit address %#x", addr)
	}
	return &Device{bus: bus, addr: addr}, nil
}

func (d *Device) Addr() byte {
	return d.addr
}

func (d *Device) Write(ctx context.Context, tx []byte) error {
	return transportErr(ctx, d.bus.WriteToAddr(ctx, d.addr, tx))
}

func (d *Device) Read(ctx context.Context, count int) ([]byte, error) {
	if count <= 0 {
		return nil, fmt.Errorf("invalid read size %d", count)
	}
	buf := make([]byte, count)
	if err := transportErr(ctx, d.bus.ReadFromAddr(ctx, d.addr, buf)); err != nil {
		return nil, err
	}
	return buf, nil
}

func (d *Device) Close() error {
	err := d.bus.Release(context.Background())
	if c, ok := d.bus.(io.Closer); ok {
		err = multierr.Append(err, c.Close())
	}
	return err
}

// transportErr tags bus failures so callers can match them with errors.Is regardless of the
// bus implementation. Context errors pass through untouched.
func transportErr(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return err
	}
	if errors.Is(err, sensorlog.ErrTransport) || errors.Is(err, sensorlog.ErrShortRead) {
		return err
	}
	return fmt.Errorf("%w: %w", sensorlog.ErrTransport, err)
}
