package i2c

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gi2c "gobot.io/x/gobot/v2/drivers/i2c"

	"github.com/mklimuk/sensorlog"
)

type fakeConnection struct {
	gi2c.Connection
	written [][]byte
	resp    []byte
	readErr error
	closed  bool
}

func (c *fakeConnection) Write(b []byte) (int, error) {
	c.written = append(c.written, append([]byte(nil), b...))
	return len(b), nil
}

func (c *fakeConnection) Read(b []byte) (int, error) {
	if c.readErr != nil {
		return 0, c.readErr
	}
	return copy(b, c.resp), nil
}

func (c *fakeConnection) Close() error {
	c.closed = true
	return nil
}

type fakeConnector struct {
	conns map[int]*fakeConnection
	bus   int
	err   error
}

func (f *fakeConnector) GetI2cConnection(address int, busNr int) (gi2c.Connection, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.bus = busNr
	c, ok := f.conns[address]
	if !ok {
		c = &fakeConnection{}
		f.conns[address] = c
	}
	return c, nil
}

func (f *fakeConnector) DefaultI2cBus() int {
	return 1
}

func TestGobotBus_WriteRead(t *testing.T) {
	conn := &fakeConnection{resp: []byte{1, 2, 3, 4, 5, 6}}
	connector := &fakeConnector{conns: map[int]*fakeConnection{0x44: conn}}
	bus := NewGobotBus(connector, -1)
	ctx := context.Background()

	require.NoError(t, bus.WriteToAddr(ctx, 0x44, []byte{0xFD}))
	buf := make([]byte, 6)
	require.NoError(t, bus.ReadFromAddr(ctx, 0x44, buf))
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, buf)
	assert.Equal(t, [][]byte{{0xFD}}, conn.written)
	assert.Equal(t, 1, connector.bus)

	require.NoError(t, bus.Close())
	assert.True(t, conn.closed)
}

func TestGobotBus_ShortRead(t *testing.T) {
	conn := &fakeConnection{resp: []byte{1, 2, 3}}
	bus := NewGobotBus(&fakeConnector{conns: map[int]*fakeConnection{0x44: conn}}, 2)

	err := bus.ReadFromAddr(context.Background(), 0x44, make([]byte, 6))
	assert.ErrorIs(t, err, sensorlog.ErrShortRead)
}

func TestGobotBus_Errors(t *testing.T) {
	ctx := context.Background()

	conn := &fakeConnection{readErr: errors.New("remote I/O error")}
	bus := NewGobotBus(&fakeConnector{conns: map[int]*fakeConnection{0x44: conn}}, 2)
	assert.ErrorIs(t, bus.ReadFromAddr(ctx, 0x44, make([]byte, 6)), sensorlog.ErrTransport)

	unavailable := NewGobotBus(&fakeConnector{err: errors.New("no such file")}, 2)
	assert.ErrorIs(t, unavailable.WriteToAddr(ctx, 0x44, []byte{0xFD}), sensorlog.ErrBusUnavailable)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, bus.WriteToAddr(cancelled, 0x44, []byte{0xFD}), context.Canceled)
}
