// Package postgres stores readings in the sensor_data table.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mklimuk/sensorlog/sink"
)

// The table is created outside of this program.
const insertReading = "INSERT INTO sensor_data (sensor_id, temperature, humidity, time) VALUES ($1, $2, $3, $4)"

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Config struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// ConnString renders a keyword/value connection string. Empty fields are left out so libpq
// defaults apply.
func (c Config) ConnString() string {
	var parts []string
	add := func(key, value string) {
		if value != "" {
			parts = append(parts, fmt.Sprintf("%s=%s", key, quote(value)))
		}
	}
	add("host", c.Host)
	if c.Port != 0 {
		add("port", fmt.Sprint(c.Port))
	}
	add("user", c.User)
	add("password", c.Password)
	add("dbname", c.Name)
	add("sslmode", c.SSLMode)
	return strings.Join(parts, " ")
}

func quote(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

type Sink struct {
	db    execer
	close func()
}

var _ sink.Sink = &Sink{}

// Open connects a pool and checks it with a ping.
func Open(ctx context.Context, cfg Config) (*Sink, error) {
	pool, err := pgxpool.New(ctx, cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("could not create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("could not connect to database %s@%s: %w", cfg.Name, cfg.Host, err)
	}
	return &Sink{db: pool, close: pool.Close}, nil
}

// Write inserts one row. The timestamp is sent as an RFC 3339 string so the column may be
// either text or timestamptz.
func (s *Sink) Write(ctx context.Context, rec sink.Record) error {
	_, err := s.db.Exec(ctx, insertReading,
		rec.SensorID, rec.Reading.Temperature, rec.Reading.Humidity, rec.Time.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("could not insert reading: %w", err)
	}
	return nil
}

func (s *Sink) Close() error {
	if s.close != nil {
		s.close()
	}
	return nil
}
