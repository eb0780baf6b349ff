package i2c

import (
	"context"
	"fmt"
	"sync"

	"github.com/mklimuk/sensorlog"
	"go.uber.org/multierr"
	gi2c "gobot.io/x/gobot/v2/drivers/i2c"
)

var _ sensorlog.I2CBus = &GobotBus{}

// GobotBus exposes a gobot I2C connector (e.g. the NanoPi adaptor) as a sensorlog bus.
// Connections are opened lazily, one per address, and kept until Close.
type GobotBus struct {
	mx        sync.Mutex
	connector gi2c.Connector
	busNr     int
	conns     map[byte]gi2c.Connection
}

// NewGobotBus uses the connector's default bus when busNr is negative.
func NewGobotBus(connector gi2c.Connector, busNr int) *GobotBus {
	if busNr < 0 {
		busNr = connector.DefaultI2cBus()
	}
	return &GobotBus{
		connector: connector,
		busNr:     busNr,
		conns:     make(map[byte]gi2c.Connection),
	}
}

func (b *GobotBus) connection(address byte) (gi2c.Connection, error) {
	if c, ok := b.conns[address]; ok {
		return c, nil
	}
	c, err := b.connector.GetI2cConnection(int(address), b.busNr)
	if err != nil {
		return nil, fmt.Errorf("%w: could not get connection to %#x on bus %d: %w", sensorlog.ErrBusUnavailable, address, b.busNr, err)
	}
	b.conns[address] = c
	return c, nil
}

func (b *GobotBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mx.Lock()
	defer b.mx.Unlock()
	c, err := b.connection(address)
	if err != nil {
		return err
	}
	n, err := c.Read(buffer)
	if err != nil {
		return fmt.Errorf("%w: could not read from %#x: %w", sensorlog.ErrTransport, address, err)
	}
	if n != len(buffer) {
		return fmt.Errorf("%w: got %d of %d bytes from %#x", sensorlog.ErrShortRead, n, len(buffer), address)
	}
	return nil
}

func (b *GobotBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mx.Lock()
	defer b.mx.Unlock()
	c, err := b.connection(address)
	if err != nil {
		return err
	}
	n, err := c.Write(buffer)
	if err != nil {
		return fmt.Errorf("%w: could not write to %#x: %w", sensorlog.ErrTransport, address, err)
	}
	if n != len(buffer) {
		return fmt.Errorf("%w: short write to %#x: %d of %d bytes", sensorlog.ErrTransport, address, n, len(buffer))
	}
	return nil
}

func (b *GobotBus) Release(ctx context.Context) error {
	return nil
}

func (b *GobotBus) Close() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	var err error
	for addr, c := range b.conns {
		err = multierr.Append(err, c.Close())
		delete(b.conns, addr)
	}
	return err
}
