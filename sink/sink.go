// Package sink defines where sampled readings go.
package sink

import (
	"context"
	"time"

	"go.uber.org/multierr"

	"github.com/mklimuk/sensorlog/environment"
)

// Record is one timestamped reading of a named sensor.
type Record struct {
	SensorID string
	Time     time.Time
	Reading  environment.Reading
}

type Sink interface {
	Write(ctx context.Context, rec Record) error
	Close() error
}

// Multi writes every record to all sinks. A failing sink does not stop the others; all
// failures are returned together.
type Multi []Sink

func (m Multi) Write(ctx context.Context, rec Record) error {
	var err error
	for _, s := range m {
		err = multierr.Append(err, s.Write(ctx, rec))
	}
	return err
}

func (m Multi) Close() error {
	var err error
	for _, s := range m {
		err = multierr.Append(err, s.Close())
	}
	return err
}
