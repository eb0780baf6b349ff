package sensorlog

import (
	"context"
	"errors"
)

var ErrBusBusy = errors.New("I2C engine is busy (command not completed)")

// ErrBusUnavailable is returned when the bus device cannot be opened. It is a setup-time
// failure: no sensor access is possible afterwards.
var ErrBusUnavailable = errors.New("i2c bus unavailable")

// ErrTransport marks a failed bus transaction (NACK, arbitration loss, I/O fault).
var ErrTransport = errors.New("i2c transport error")

// ErrShortRead is returned when fewer bytes than requested were transferred.
var ErrShortRead = errors.New("i2c short read")

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

type I2CBus interface {
	AddressableReader
	AddressableWriter
}

// I2CDevice is a handle bound to a single peripheral address. One call is one bus
// transaction; there is no buffering or retry.
type I2CDevice interface {
	Write(ctx context.Context, tx []byte) error
	Read(ctx context.Context, count int) ([]byte, error)
	Close() error
}
