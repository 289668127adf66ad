package kafka

import (
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/rockfall-monitor/internal/domain"
)

func TestMapMessageToRawEvent(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("mine-1"),
		Value:     []byte(`{"mine_id":"mine-1"}`),
		Topic:     "raw-sensor-readings",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "station", Value: []byte("north-pit-3")},
		},
	}

	raw := mapMessageToRawEvent(msg)

	assert.Equal(t, []byte("mine-1"), raw.Key)
	assert.JSONEq(t, `{"mine_id":"mine-1"}`, string(raw.Value))
	assert.Equal(t, "raw-sensor-readings", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "north-pit-3", raw.Headers["station"])
	assert.Nil(t, raw.Commit)
}

func TestSerializeToMessage(t *testing.T) {
	created := time.Date(2025, 6, 1, 15, 10, 0, 0, time.UTC)
	alert := domain.Alert{
		ID:        "alert-1",
		MineID:    "mine-1",
		UserID:    "user-1",
		Type:      domain.AlertForecast,
		Severity:  domain.SeverityCritical,
		Message:   "Rockfall probability at 90% over the next 7 days",
		CreatedAt: created,
	}

	msg, err := serializeToMessage(alert)
	require.NoError(t, err)

	assert.Equal(t, []byte("user-1"), msg.Key)
	assert.Contains(t, string(msg.Value), `"severity":"critical"`)
	assert.Contains(t, string(msg.Value), `"type":"forecast"`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "type", msg.Headers[0].Key)
	assert.Equal(t, []byte("forecast"), msg.Headers[0].Value)
	assert.Equal(t, "severity", msg.Headers[1].Key)
	assert.Equal(t, []byte("critical"), msg.Headers[1].Value)
	assert.Equal(t, []byte(created.Format(time.RFC3339)), msg.Headers[2].Value)
}
