package environment

import (
	"context"
	"encoding/binary"
	"errors"
	"time"
)

// Errors returned by the Sensirion drivers. Each wraps the underlying transport error, so both
// the kind and the cause can be matched with errors.Is.
var (
	ErrCommandFailed    = errors.New("command failed")
	ErrReadFailed       = errors.New("read failed")
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// FrameSize is the length of a measurement response: T MSB, T LSB, T CRC, RH MSB, RH LSB, RH CRC.
const FrameSize = 6

// Reading is one decoded measurement.
type Reading struct {
	Temperature float64 `json:"temperature" yaml:"temperature"` // °C
	Humidity    float64 `json:"humidity" yaml:"humidity"`       // %RH
}

// TempHumSensor is implemented by every temperature/humidity source the sampler can drive.
type TempHumSensor interface {
	Measure(ctx context.Context) (Reading, error)
}

// Decode converts a raw frame into physical units. CRC bytes are not looked at.
func Decode(frame [FrameSize]byte) Reading {
	return Reading{
		Temperature: convertTemperature(binary.BigEndian.Uint16(frame[0:2])),
		Humidity:    convertHumidity(binary.BigEndian.Uint16(frame[3:5])),
	}
}

// T(°C) = -45 + 175 * raw / 65535
func convertTemperature(raw uint16) float64 {
	return -45 + 175*(float64(raw)/65535)
}

// RH(%) = 100 * raw / 65535, not clamped
func convertHumidity(raw uint16) float64 {
	return 100 * (float64(raw) / 65535)
}

// verifyFrame checks both CRC-protected words of a measurement frame.
func verifyFrame(frame [FrameSize]byte) error {
	if !crc8Check(frame[0:2], frame[2]) {
		return errors.New("temperature CRC mismatch")
	}
	if !crc8Check(frame[3:5], frame[5]) {
		return errors.New("humidity CRC mismatch")
	}
	return nil
}

// Sensirion CRC-8, polynomial 0x31, init 0xFF
func crc8(data []byte) byte {
	var crc byte = 0xFF
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if (crc & 0x80) != 0 {
				crc = (crc << 1) ^ 0x31
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

func crc8Check(data []byte, expected byte) bool {
	return crc8(data) == expected
}

// wait blocks for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
