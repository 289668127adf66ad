package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RawSensorRecord is the flat JSON structure published by the site
// collectors, one record per sensor sample.
type RawSensorRecord struct {
	MineID       string  `json:"mine_id"`
	Timestamp    int64   `json:"timestamp"` // Unix milliseconds; 0 means unset
	Rainfall     float64 `json:"rainfall"`
	Temperature  float64 `json:"temperature"`
	Humidity     float64 `json:"humidity"`
	WindSpeed    float64 `json:"wind_speed"`
	Displacement float64 `json:"displacement"`
	PorePressure float64 `json:"pore_pressure"`
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// ParseReadingEvent deserializes and validates a RawEvent's value into an
// EnvironmentalReading. A zero record timestamp falls back to the transport
// message time set by the collector.
func ParseReadingEvent(raw RawEvent) (EnvironmentalReading, error) {
	var rec RawSensorRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return EnvironmentalReading{}, fmt.Errorf("parse sensor record: %w", err)
	}

	ts := raw.Timestamp
	if rec.Timestamp > 0 {
		ts = time.UnixMilli(rec.Timestamp).UTC()
	}

	reading := EnvironmentalReading{
		ID:           uuid.NewString(),
		MineID:       rec.MineID,
		Timestamp:    ts,
		Rainfall:     rec.Rainfall,
		Temperature:  rec.Temperature,
		Humidity:     rec.Humidity,
		WindSpeed:    rec.WindSpeed,
		Displacement: rec.Displacement,
		PorePressure: rec.PorePressure,
	}

	if err := reading.Validate(); err != nil {
		return EnvironmentalReading{}, err
	}
	return reading, nil
}
