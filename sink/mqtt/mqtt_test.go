package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/sensorlog/environment"
	"github.com/mklimuk/sensorlog/sink"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func completedToken(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { <-t.done; return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic   string
	payload []byte
}

type fakeClient struct {
	messages     []published
	token        mqtt.Token
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.messages = append(c.messages, published{topic: topic, payload: payload.([]byte)})
	return c.token
}

func (c *fakeClient) Disconnect(quiesce uint) {
	c.disconnected = true
}

var rec = sink.Record{
	SensorID: "attic",
	Time:     time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	Reading:  environment.Reading{Temperature: 12.5, Humidity: 80.25},
}

func TestSink_Write(t *testing.T) {
	client := &fakeClient{token: completedToken(nil)}
	s := newSink(client, "")

	require.NoError(t, s.Write(context.Background(), rec))
	require.Len(t, client.messages, 1)
	assert.Equal(t, "sensorlog/attic", client.messages[0].topic)

	var got map[string]any
	require.NoError(t, json.Unmarshal(client.messages[0].payload, &got))
	assert.Equal(t, map[string]any{
		"sensor_id":   "attic",
		"temperature": 12.5,
		"humidity":    80.25,
		"time":        "2024-01-02T03:04:05Z",
	}, got)

	assert.NoError(t, s.Close())
	assert.True(t, client.disconnected)
}

func TestSink_FixedTopic(t *testing.T) {
	client := &fakeClient{token: completedToken(nil)}
	require.NoError(t, newSink(client, "home/climate").Write(context.Background(), rec))
	assert.Equal(t, "home/climate", client.messages[0].topic)
}

func TestSink_PublishError(t *testing.T) {
	client := &fakeClient{token: completedToken(errors.New("not connected"))}
	err := newSink(client, "").Write(context.Background(), rec)
	assert.ErrorContains(t, err, "not connected")
}

func TestSink_ContextCancelled(t *testing.T) {
	client := &fakeClient{token: &fakeToken{done: make(chan struct{})}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := newSink(client, "").Write(ctx, rec)
	assert.ErrorIs(t, err, context.Canceled)
}
