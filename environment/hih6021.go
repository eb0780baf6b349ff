package environment

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mklimuk/sensorlog"
)

// HIH6021Address is the factory default address of HIH6020/6021 parts.
const HIH6021Address = 0x27

const hih6021FrameSize = 4

// measurement cycle takes typically 36.65ms
const hih6021SettleDelay = 50 * time.Millisecond

var hihDivider = float64(1<<14 - 2)

var ErrStaleData = errors.New("stale data")
var ErrCommandMode = errors.New("device in command mode")

// HIH6021 represents Honeywell HumidIcon Digital Humidity/Temperature sensor. A measurement
// request is an empty write; the device answers with two status bits, 14 bits of humidity
// and 14 bits of temperature.
type HIH6021 struct {
	mx  sync.Mutex
	dev sensorlog.I2CDevice
}

func NewHIH6021(dev sensorlog.I2CDevice) *HIH6021 {
	return &HIH6021{dev: dev}
}

func (s *HIH6021) Measure(ctx context.Context) (Reading, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	if err := s.dev.Write(ctx, []byte{}); err != nil {
		return Reading{}, fmt.Errorf("hih6021: %w: %w", ErrCommandFailed, err)
	}
	if err := wait(ctx, hih6021SettleDelay); err != nil {
		return Reading{}, fmt.Errorf("hih6021: %w: %w", ErrReadFailed, err)
	}
	resp, err := s.dev.Read(ctx, hih6021FrameSize)
	if err != nil {
		return Reading{}, fmt.Errorf("hih6021: %w: %w", ErrReadFailed, err)
	}
	if len(resp) != hih6021FrameSize {
		return Reading{}, fmt.Errorf("hih6021: %w: %w: got %d bytes", ErrReadFailed, sensorlog.ErrShortRead, len(resp))
	}
	// check the oldest bit
	if resp[0]&0x80 > 0 {
		return Reading{}, fmt.Errorf("hih6021: %w: %w", ErrReadFailed, ErrCommandMode)
	}
	// data already fetched, or fetched before the first conversion completed
	if resp[0]&0x40 > 0 {
		return Reading{}, fmt.Errorf("hih6021: %w: %w", ErrReadFailed, ErrStaleData)
	}
	return Reading{
		Temperature: hihTemperature(resp[2:4]),
		Humidity:    hihHumidity(resp[0:2]),
	}, nil
}

func hihHumidity(resp []byte) float64 {
	hum := float64(binary.BigEndian.Uint16(resp)&0x3FFF) / hihDivider * 100
	if hum > 100.00 {
		return 100.00
	}
	return hum
}

// temperature is left aligned, the two lowest bits are don't care
func hihTemperature(resp []byte) float64 {
	return float64(binary.BigEndian.Uint16(resp)>>2)/hihDivider*165 - 40
}
