package environment

import (
	"context"
	"fmt"
	"testing"
)

func TestMockTempHumSensor_StaticValues(t *testing.T) {
	sensor := NewMockTempHumSensor(func(ctx context.Context) (Reading, error) {
		return Reading{Temperature: 22.5, Humidity: 45.0}, nil
	})

	r, err := sensor.Measure(context.Background())
	if err != nil {
		t.Fatalf("Measure: unexpected error: %v", err)
	}
	if r.Temperature != 22.5 || r.Humidity != 45.0 {
		t.Errorf("expected 22.5/45.0, got %f/%f", r.Temperature, r.Humidity)
	}
}

func TestMockTempHumSensor_ErrorHandling(t *testing.T) {
	sensor := NewMockTempHumSensor(func(ctx context.Context) (Reading, error) {
		return Reading{}, fmt.Errorf("sensor error")
	})

	_, err := sensor.Measure(context.Background())
	if err == nil || err.Error() != "sensor error" {
		t.Errorf("expected specific error, got %v", err)
	}
}

func TestMockTempHumSensor_ContextUsage(t *testing.T) {
	var received context.Context
	sensor := NewMockTempHumSensor(func(ctx context.Context) (Reading, error) {
		received = ctx
		return Reading{}, nil
	})

	type contextKey string
	key := contextKey("test")
	ctx := context.WithValue(context.Background(), key, "test-value")

	if _, err := sensor.Measure(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if received.Value(key) != "test-value" {
		t.Error("context was not passed through to behavior")
	}
}

func TestMockTempHumSensor_CounterBehavior(t *testing.T) {
	counter := 0
	sensor := NewMockTempHumSensor(func(ctx context.Context) (Reading, error) {
		counter++
		return Reading{Temperature: 20.0 + float64(counter)*0.5, Humidity: 50.0 - float64(counter)}, nil
	})

	ctx := context.Background()
	r1, _ := sensor.Measure(ctx)
	if r1.Temperature != 20.5 || r1.Humidity != 49.0 {
		t.Errorf("first reading: expected 20.5/49.0, got %f/%f", r1.Temperature, r1.Humidity)
	}
	r2, _ := sensor.Measure(ctx)
	if r2.Temperature != 21.0 || r2.Humidity != 48.0 {
		t.Errorf("second reading: expected 21.0/48.0, got %f/%f", r2.Temperature, r2.Humidity)
	}
}

func TestRandomWalk(t *testing.T) {
	sensor := NewMockTempHumSensor(RandomWalk(Reading{Temperature: 21, Humidity: 99.5}, 1))
	ctx := context.Background()

	prev := Reading{Temperature: 21, Humidity: 99.5}
	for i := 0; i < 100; i++ {
		r, err := sensor.Measure(ctx)
		if err != nil {
			t.Fatalf("iteration %d: unexpected error: %v", i, err)
		}
		if r.Humidity < 0 || r.Humidity > 100 {
			t.Errorf("iteration %d: humidity %f out of range [0, 100]", i, r.Humidity)
		}
		if d := r.Temperature - prev.Temperature; d < -0.5 || d > 0.5 {
			t.Errorf("iteration %d: temperature step %f too large", i, d)
		}
		prev = r
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := sensor.Measure(cancelled); err == nil {
		t.Error("expected error for cancelled context")
	}
}
