package environment

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mklimuk/sensorlog"
)

// SHTC3Address is the fixed 7-bit address of the SHTC3.
const SHTC3Address = 0x70

// Commands (Big Endian on the wire)
const (
	shtc3CmdWake  uint16 = 0x3517
	shtc3CmdSleep uint16 = 0xB098

	// Normal power, clock stretching disabled
	// Measure T first, then RH
	shtc3CmdMeasureTFirstNoCS uint16 = 0x7866
)

const (
	shtc3WakeDelay    = time.Millisecond
	shtc3MeasureDelay = 15 * time.Millisecond
)

// SHTC3 represents Sensirion SHTC3 Temperature/Humidity sensor. It uses the same response
// frame as the SHT4x family but needs a wake-up before and a sleep after every measurement.
// CRC is always verified.
type SHTC3 struct {
	mx  sync.Mutex
	dev sensorlog.I2CDevice
}

func NewSHTC3(dev sensorlog.I2CDevice) *SHTC3 {
	return &SHTC3{dev: dev}
}

func (s *SHTC3) Measure(ctx context.Context) (Reading, error) {
	s.mx.Lock()
	defer s.mx.Unlock()

	if err := s.writeCmd(ctx, shtc3CmdWake); err != nil {
		return Reading{}, fmt.Errorf("shtc3: wake: %w: %w", ErrCommandFailed, err)
	}
	// wake-up takes < 240us
	if err := wait(ctx, shtc3WakeDelay); err != nil {
		return Reading{}, fmt.Errorf("shtc3: %w: %w", ErrCommandFailed, err)
	}
	if err := s.writeCmd(ctx, shtc3CmdMeasureTFirstNoCS); err != nil {
		return Reading{}, fmt.Errorf("shtc3: measure: %w: %w", ErrCommandFailed, err)
	}
	// typical measurement time ~12.1 ms in normal mode
	if err := wait(ctx, shtc3MeasureDelay); err != nil {
		return Reading{}, fmt.Errorf("shtc3: %w: aborted during conversion: %w", ErrReadFailed, err)
	}

	resp, err := s.dev.Read(ctx, FrameSize)
	if err != nil {
		return Reading{}, fmt.Errorf("shtc3: %w: %w", ErrReadFailed, err)
	}
	if len(resp) != FrameSize {
		return Reading{}, fmt.Errorf("shtc3: %w: %w: got %d of %d bytes", ErrReadFailed, sensorlog.ErrShortRead, len(resp), FrameSize)
	}
	var frame [FrameSize]byte
	copy(frame[:], resp)
	if err := verifyFrame(frame); err != nil {
		return Reading{}, fmt.Errorf("shtc3: %w: %w", ErrChecksumMismatch, err)
	}
	reading := Decode(frame)

	// the reading is valid even if the sensor refuses to go back to sleep
	if err := s.writeCmd(ctx, shtc3CmdSleep); err != nil {
		slog.WarnContext(ctx, "shtc3 did not enter sleep mode", "error", err)
	}
	return reading, nil
}

func (s *SHTC3) writeCmd(ctx context.Context, cmd uint16) error {
	var out [2]byte
	binary.BigEndian.PutUint16(out[:], cmd)
	return s.dev.Write(ctx, out[:])
}
