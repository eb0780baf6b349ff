// Package sampler drives a sensor on a fixed interval and hands every reading to a sink.
package sampler

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/mklimuk/sensorlog/environment"
	"github.com/mklimuk/sensorlog/sink"
)

const (
	DefaultInterval    = time.Minute
	DefaultTickTimeout = 10 * time.Second
)

type Opts struct {
	Interval    time.Duration
	TickTimeout time.Duration
	Clock       clock.Clock
	Logger      *slog.Logger
}

type Opt func(*Opts)

func WithInterval(d time.Duration) Opt {
	return func(o *Opts) {
		o.Interval = d
	}
}

// WithTickTimeout bounds one measure+store cycle. Zero disables the deadline.
func WithTickTimeout(d time.Duration) Opt {
	return func(o *Opts) {
		o.TickTimeout = d
	}
}

func WithClock(c clock.Clock) Opt {
	return func(o *Opts) {
		o.Clock = c
	}
}

func WithLogger(l *slog.Logger) Opt {
	return func(o *Opts) {
		o.Logger = l
	}
}

type Stats struct {
	Ticks    uint64
	Failures uint64
}

// Sampler runs one measurement at a time; ticks never overlap.
type Sampler struct {
	sensorID string
	sensor   environment.TempHumSensor
	sink     sink.Sink
	config   Opts

	ticks    atomic.Uint64
	failures atomic.Uint64
}

func New(sensorID string, sensor environment.TempHumSensor, sink sink.Sink, opts ...Opt) *Sampler {
	config := Opts{
		Interval:    DefaultInterval,
		TickTimeout: DefaultTickTimeout,
		Clock:       clock.New(),
		Logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	return &Sampler{
		sensorID: sensorID,
		sensor:   sensor,
		sink:     sink,
		config:   config,
	}
}

// Tick measures once, stamps the reading with the current UTC time and stores it.
func (s *Sampler) Tick(ctx context.Context) error {
	s.ticks.Add(1)
	if s.config.TickTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.TickTimeout)
		defer cancel()
	}
	reading, err := s.sensor.Measure(ctx)
	if err != nil {
		s.failures.Add(1)
		return fmt.Errorf("measurement failed: %w", err)
	}
	rec := sink.Record{
		SensorID: s.sensorID,
		Time:     s.config.Clock.Now().UTC(),
		Reading:  reading,
	}
	if err := s.sink.Write(ctx, rec); err != nil {
		s.failures.Add(1)
		return fmt.Errorf("could not store reading: %w", err)
	}
	return nil
}

// Run ticks immediately and then once per interval until ctx is done. Failed ticks are logged
// and the loop carries on; Run only returns when ctx ends, with a nil error.
func (s *Sampler) Run(ctx context.Context) error {
	ticker := s.config.Clock.Ticker(s.config.Interval)
	defer ticker.Stop()
	s.config.Logger.Info("sampling started", "sensor_id", s.sensorID, "interval", s.config.Interval)
	for ctx.Err() == nil {
		// a tick cut short by shutdown is not reported as a failure
		if err := s.Tick(ctx); err != nil && ctx.Err() == nil {
			s.config.Logger.Error("sampling tick failed", "sensor_id", s.sensorID, "error", err)
		}
		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
	}
	st := s.Stats()
	s.config.Logger.Info("sampling stopped", "sensor_id", s.sensorID, "ticks", st.Ticks, "failures", st.Failures)
	return nil
}

func (s *Sampler) Stats() Stats {
	return Stats{
		Ticks:    s.ticks.Load(),
		Failures: s.failures.Load(),
	}
}
