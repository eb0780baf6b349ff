package environment

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mklimuk/sensorlog"
	"github.com/mklimuk/sensorlog/snsctx"
)

// SHT4xAddress is the default 7-bit address of SHT40/41/45 sensors.
const SHT4xAddress = 0x44

const (
	sht4xCmdSerialNumber byte = 0x89
	sht4xCmdSoftReset    byte = 0x94
)

// Precision selects the measurement repeatability. Higher precision takes longer to convert.
type Precision byte

const (
	PrecisionHigh   Precision = 0xFD
	PrecisionMedium Precision = 0xF6
	PrecisionLow    Precision = 0xE0
)

// ParsePrecision accepts "high", "medium" and "low".
func ParsePrecision(s string) (Precision, error) {
	switch s {
	case "high", "":
		return PrecisionHigh, nil
	case "medium":
		return PrecisionMedium, nil
	case "low":
		return PrecisionLow, nil
	}
	return 0, fmt.Errorf("unknown precision %q", s)
}

func (p Precision) String() string {
	switch p {
	case PrecisionHigh:
		return "high"
	case PrecisionMedium:
		return "medium"
	case PrecisionLow:
		return "low"
	}
	return fmt.Sprintf("Precision(%#x)", byte(p))
}

// SettleDelay is the wait between the trigger command and the read. It covers the datasheet
// maximum conversion time (8.3 ms, 4.5 ms, 1.6 ms).
func (p Precision) SettleDelay() time.Duration {
	switch p {
	case PrecisionMedium:
		return 5 * time.Millisecond
	case PrecisionLow:
		return 2 * time.Millisecond
	}
	return 10 * time.Millisecond
}

const sht4xResetDelay = time.Millisecond

type SHT4xOpts struct {
	Precision   Precision
	SettleDelay time.Duration
	CheckCRC    bool
}

type SHT4xOpt func(*SHT4xOpts)

func WithPrecision(p Precision) SHT4xOpt {
	return func(o *SHT4xOpts) {
		o.Precision = p
	}
}

// WithSettleDelay extends the conversion wait. Values below the precision's minimum are ignored.
func WithSettleDelay(d time.Duration) SHT4xOpt {
	return func(o *SHT4xOpts) {
		o.SettleDelay = d
	}
}

// WithCRCCheck enables CRC validation of the measurement frame.
func WithCRCCheck(enabled bool) SHT4xOpt {
	return func(o *SHT4xOpts) {
		o.CheckCRC = enabled
	}
}

// SHT4x represents Sensirion SHT40/SHT41/SHT45 temperature and humidity sensors.
// Typical usage:
//
//	dev, _ := i2c.Open(bus, environment.SHT4xAddress)
//	s := NewSHT4x(dev)
//	r, err := s.Measure(ctx)
//
// Transactions are serialised: the settling delay is spent holding the lock, so no other
// operation reaches the device between the trigger and the read.
type SHT4x struct {
	mx     sync.Mutex
	dev    sensorlog.I2CDevice
	config SHT4xOpts
}

func NewSHT4x(dev sensorlog.I2CDevice, opts ...SHT4xOpt) *SHT4x {
	config := SHT4xOpts{
		Precision: PrecisionHigh,
	}
	for _, opt := range opts {
		opt(&config)
	}
	if floor := config.Precision.SettleDelay(); config.SettleDelay < floor {
		config.SettleDelay = floor
	}
	return &SHT4x{dev: dev, config: config}
}

func (s *SHT4x) Config() SHT4xOpts {
	return s.config
}

// Measure triggers one conversion, waits for it and decodes the response.
func (s *SHT4x) Measure(ctx context.Context) (Reading, error) {
	s.mx.Lock()
	defer s.mx.Unlock()

	if err := s.dev.Write(ctx, []byte{byte(s.config.Precision)}); err != nil {
		return Reading{}, fmt.Errorf("sht4x: %w: %w", ErrCommandFailed, err)
	}
	if err := wait(ctx, s.config.SettleDelay); err != nil {
		return Reading{}, fmt.Errorf("sht4x: %w: aborted during conversion: %w", ErrReadFailed, err)
	}
	frame, err := s.readFrame(ctx)
	if err != nil {
		return Reading{}, err
	}
	if s.config.CheckCRC {
		if err := verifyFrame(frame); err != nil {
			return Reading{}, fmt.Errorf("sht4x: %w: %w", ErrChecksumMismatch, err)
		}
	}
	return Decode(frame), nil
}

// SerialNumber reads the 32 bit unique serial number.
func (s *SHT4x) SerialNumber(ctx context.Context) (uint32, error) {
	s.mx.Lock()
	defer s.mx.Unlock()

	if err := s.dev.Write(ctx, []byte{sht4xCmdSerialNumber}); err != nil {
		return 0, fmt.Errorf("sht4x: %w: %w", ErrCommandFailed, err)
	}
	if err := wait(ctx, s.config.SettleDelay); err != nil {
		return 0, fmt.Errorf("sht4x: %w: %w", ErrReadFailed, err)
	}
	frame, err := s.readFrame(ctx)
	if err != nil {
		return 0, err
	}
	if err := verifyFrame(frame); err != nil {
		return 0, fmt.Errorf("sht4x: %w: %w", ErrChecksumMismatch, err)
	}
	return uint32(binary.BigEndian.Uint16(frame[0:2]))<<16 | uint32(binary.BigEndian.Uint16(frame[3:5])), nil
}

// SoftReset returns the sensor to its power-up state.
func (s *SHT4x) SoftReset(ctx context.Context) error {
	s.mx.Lock()
	defer s.mx.Unlock()

	if err := s.dev.Write(ctx, []byte{sht4xCmdSoftReset}); err != nil {
		return fmt.Errorf("sht4x: %w: %w", ErrCommandFailed, err)
	}
	return wait(ctx, sht4xResetDelay)
}

func (s *SHT4x) readFrame(ctx context.Context) ([FrameSize]byte, error) {
	var frame [FrameSize]byte
	resp, err := s.dev.Read(ctx, FrameSize)
	if err != nil {
		return frame, fmt.Errorf("sht4x: %w: %w", ErrReadFailed, err)
	}
	if len(resp) != FrameSize {
		return frame, fmt.Errorf("sht4x: %w: %w: got %d of %d bytes", ErrReadFailed, sensorlog.ErrShortRead, len(resp), FrameSize)
	}
	if snsctx.IsVerbose(ctx) {
		slog.Debug("sht4x frame", "raw", hex.EncodeToString(resp))
	}
	copy(frame[:], resp)
	return frame, nil
}
