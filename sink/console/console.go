// Package console logs every reading.
package console

import (
	"context"
	"log/slog"

	"github.com/mklimuk/sensorlog/sink"
)

type Sink struct {
	log *slog.Logger
}

var _ sink.Sink = &Sink{}

// New logs through l, or through the default logger when l is nil.
func New(l *slog.Logger) *Sink {
	if l == nil {
		l = slog.Default()
	}
	return &Sink{log: l}
}

func (s *Sink) Write(ctx context.Context, rec sink.Record) error {
	s.log.InfoContext(ctx, "inserted data",
		"sensor_id", rec.SensorID,
		"temperature", rec.Reading.Temperature,
		"humidity", rec.Reading.Humidity,
		"time", rec.Time,
	)
	return nil
}

func (s *Sink) Close() error { return nil }
