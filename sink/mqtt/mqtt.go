// Package mqtt publishes readings as JSON to an MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/mklimuk/sensorlog/sink"
)

const (
	DefaultClientID = "sensorlog"
	DefaultTopic    = "sensorlog/%s"

	disconnectQuiesce = 250 // ms
)

type Config struct {
	Server   string `yaml:"server"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// Topic may contain a %s verb which is replaced with the sensor id.
	Topic string `yaml:"topic"`
}

type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

type payload struct {
	SensorID    string  `json:"sensor_id"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Time        string  `json:"time"`
}

type Sink struct {
	client publisher
	topic  string
}

var _ sink.Sink = &Sink{}

func New(cfg Config) (*Sink, error) {
	if cfg.ClientID == "" {
		cfg.ClientID = DefaultClientID
	}
	opts := mqtt.NewClientOptions().AddBroker(cfg.Server).SetClientID(cfg.ClientID).SetAutoReconnect(true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return newSink(client, cfg.Topic), nil
}

func newSink(client publisher, topic string) *Sink {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Sink{client: client, topic: topic}
}

func (s *Sink) topicFor(sensorID string) string {
	if strings.Contains(s.topic, "%s") {
		return fmt.Sprintf(s.topic, sensorID)
	}
	return s.topic
}

func (s *Sink) Write(ctx context.Context, rec sink.Record) error {
	b, err := json.Marshal(payload{
		SensorID:    rec.SensorID,
		Temperature: rec.Reading.Temperature,
		Humidity:    rec.Reading.Humidity,
		Time:        rec.Time.Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("could not encode reading: %w", err)
	}
	token := s.client.Publish(s.topicFor(rec.SensorID), 0, false, b)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("mqtt publish: %w", ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish: %w", err)
	}
	return nil
}

func (s *Sink) Close() error {
	s.client.Disconnect(disconnectQuiesce)
	return nil
}
