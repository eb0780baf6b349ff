package environment

import (
	"context"
	"math/rand"
	"sync"
)

// ReadingBehaviorFunc produces the result of a single mocked measurement.
type ReadingBehaviorFunc func(ctx context.Context) (Reading, error)

// MockTempHumSensor is a TempHumSensor that needs no hardware. Every Measure call is delegated
// to the behavior function, so it can mock any of the drivers in this package.
//
// Example usage:
//
//	// Static values
//	sensor := NewMockTempHumSensor(func(ctx context.Context) (Reading, error) {
//		return Reading{Temperature: 22.5, Humidity: 45}, nil
//	})
type MockTempHumSensor struct {
	behavior ReadingBehaviorFunc
}

func NewMockTempHumSensor(behavior ReadingBehaviorFunc) *MockTempHumSensor {
	return &MockTempHumSensor{behavior: behavior}
}

func (m *MockTempHumSensor) Measure(ctx context.Context) (Reading, error) {
	return m.behavior(ctx)
}

// RandomWalk returns a behavior drifting slowly around start, useful for running the daemon
// without a sensor attached. Humidity stays within [0, 100].
func RandomWalk(start Reading, seed int64) ReadingBehaviorFunc {
	var mx sync.Mutex
	rnd := rand.New(rand.NewSource(seed))
	current := start
	return func(ctx context.Context) (Reading, error) {
		if err := ctx.Err(); err != nil {
			return Reading{}, err
		}
		mx.Lock()
		defer mx.Unlock()
		current.Temperature += rnd.Float64() - 0.5
		current.Humidity += 2 * (rnd.Float64() - 0.5)
		if current.Humidity < 0 {
			current.Humidity = 0
		}
		if current.Humidity > 100 {
			current.Humidity = 100
		}
		return current, nil
	}
}
