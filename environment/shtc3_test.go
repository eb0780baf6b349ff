package environment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	shtc3Wake    = []byte{0x35, 0x17}
	shtc3Measure = []byte{0x78, 0x66}
	shtc3Sleep   = []byte{0xB0, 0x98}
)

func TestSHTC3_Measure(t *testing.T) {
	dev := new(MockI2CDevice)
	dev.On("Write", mock.Anything, shtc3Wake).Return(nil).Once()
	dev.On("Write", mock.Anything, shtc3Measure).Return(nil).Once()
	dev.On("Read", mock.Anything, FrameSize).Return(frame(0x6666, 0x8000), nil).Once()
	dev.On("Write", mock.Anything, shtc3Sleep).Return(nil).Once()

	r, err := NewSHTC3(dev).Measure(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 25.0, r.Temperature, 1e-9)
	assert.InDelta(t, 50.000763, r.Humidity, 1e-6)

	events := dev.recorded()
	require.Len(t, events, 4)
	assert.Equal(t, shtc3Wake, events[0].data)
	assert.Equal(t, shtc3Measure, events[1].data)
	assert.Equal(t, "read", events[2].op)
	assert.Equal(t, shtc3Sleep, events[3].data)
	assert.GreaterOrEqual(t, events[2].at.Sub(events[1].at), shtc3MeasureDelay)
	dev.AssertExpectations(t)
}

func TestSHTC3_Measure_Errors(t *testing.T) {
	t.Run("wake failure", func(t *testing.T) {
		dev := new(MockI2CDevice)
		dev.On("Write", mock.Anything, shtc3Wake).Return(errors.New("nack")).Once()

		_, err := NewSHTC3(dev).Measure(context.Background())
		assert.ErrorIs(t, err, ErrCommandFailed)
		dev.AssertNotCalled(t, "Read", mock.Anything, mock.Anything)
	})

	t.Run("crc mismatch", func(t *testing.T) {
		resp := frame(0x6666, 0x8000)
		resp[2] ^= 0xFF
		dev := new(MockI2CDevice)
		dev.On("Write", mock.Anything, shtc3Wake).Return(nil).Once()
		dev.On("Write", mock.Anything, shtc3Measure).Return(nil).Once()
		dev.On("Read", mock.Anything, FrameSize).Return(resp, nil).Once()

		_, err := NewSHTC3(dev).Measure(context.Background())
		assert.ErrorIs(t, err, ErrChecksumMismatch)
	})

	t.Run("sleep failure keeps reading", func(t *testing.T) {
		dev := new(MockI2CDevice)
		dev.On("Write", mock.Anything, shtc3Wake).Return(nil).Once()
		dev.On("Write", mock.Anything, shtc3Measure).Return(nil).Once()
		dev.On("Read", mock.Anything, FrameSize).Return(frame(0xFFFF, 0xFFFF), nil).Once()
		dev.On("Write", mock.Anything, shtc3Sleep).Return(errors.New("nack")).Once()

		r, err := NewSHTC3(dev).Measure(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 130.0, r.Temperature)
		assert.Equal(t, 100.0, r.Humidity)
		dev.AssertExpectations(t)
	})
}
