package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// RiskLevel classifies a zone's current rockfall susceptibility.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Role is the capability tier of a user's assignment to a mine.
// Stored and returned for the presentation layer; the access gate
// currently checks assignment existence only.
type Role string

const (
	RoleViewer  Role = "viewer"
	RoleAnalyst Role = "analyst"
	RoleAdmin   Role = "admin"
)

// AlertType identifies what raised an alert.
type AlertType string

const (
	AlertHighRisk AlertType = "high_risk"
	AlertForecast AlertType = "forecast"
	AlertSensor   AlertType = "sensor"
)

// AlertSeverity is the four-level urgency scale for alerts.
type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

// Coordinate is a WGS-84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Polygon is an ordered ring of coordinates outlining a zone.
// Persisted as a JSON column.
type Polygon []Coordinate

// Value serializes the polygon for storage.
func (p Polygon) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan deserializes a polygon from its stored JSON form.
func (p *Polygon) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	case nil:
		*p = nil
		return nil
	default:
		return fmt.Errorf("scan polygon: unsupported type %T", src)
	}
}

// FactorList is an ordered list of human-readable contributing-factor
// strings attached to a forecast. Persisted as a JSON column.
type FactorList []string

func (f FactorList) Value() (driver.Value, error) {
	if f == nil {
		f = FactorList{}
	}
	return json.Marshal(f)
}

func (f *FactorList) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, f)
	case string:
		return json.Unmarshal([]byte(v), f)
	case nil:
		*f = nil
		return nil
	default:
		return fmt.Errorf("scan factor list: unsupported type %T", src)
	}
}

// Mine is a monitored site with one or more risk zones.
type Mine struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Location    string    `json:"location" db:"location"`
	Lat         float64   `json:"lat" db:"lat"`
	Lng         float64   `json:"lng" db:"lng"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	Description string    `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// MineWithRole pairs a mine with the caller's role on it, the shape
// returned by mine listing and detail queries.
type MineWithRole struct {
	Mine
	Role Role `json:"role" db:"role"`
}

// RiskZone is a bounded sub-area of a mine with an assigned risk
// classification. ZoneID is the operator-facing label, unique within a mine.
type RiskZone struct {
	ID          string    `json:"id" db:"id"`
	MineID      string    `json:"mine_id" db:"mine_id"`
	ZoneID      string    `json:"zone_id" db:"zone_id"`
	Boundary    Polygon   `json:"boundary" db:"boundary"`
	RiskLevel   RiskLevel `json:"risk_level" db:"risk_level"`
	RiskScore   float64   `json:"risk_score" db:"risk_score"`
	Slope       float64   `json:"slope" db:"slope"`
	Elevation   float64   `json:"elevation" db:"elevation"`
	LastUpdated time.Time `json:"last_updated" db:"last_updated"`
}

// EnvironmentalReading is one timestamped sensor sample for a mine.
// Readings are append-only; the latest reading is the one with the
// maximum timestamp.
type EnvironmentalReading struct {
	ID           string    `json:"id" db:"id"`
	MineID       string    `json:"mine_id" db:"mine_id"`
	Timestamp    time.Time `json:"timestamp" db:"timestamp"`
	Rainfall     float64   `json:"rainfall" db:"rainfall"`         // mm/h
	Temperature  float64   `json:"temperature" db:"temperature"`   // °C, may be negative
	Humidity     float64   `json:"humidity" db:"humidity"`         // %RH
	WindSpeed    float64   `json:"wind_speed" db:"wind_speed"`     // km/h
	Displacement float64   `json:"displacement" db:"displacement"` // mm
	PorePressure float64   `json:"pore_pressure" db:"pore_pressure"` // kPa
}

// Validate rejects physically impossible sensor values. Temperature is the
// only field allowed to be negative.
func (r EnvironmentalReading) Validate() error {
	if r.MineID == "" {
		return fmt.Errorf("%w: reading has no mine id", ErrInvalidInput)
	}
	fields := map[string]float64{
		"rainfall":      r.Rainfall,
		"humidity":      r.Humidity,
		"wind_speed":    r.WindSpeed,
		"displacement":  r.Displacement,
		"pore_pressure": r.PorePressure,
	}
	for name, v := range fields {
		if v < 0 {
			return fmt.Errorf("%w: negative %s %g", ErrInvalidInput, name, v)
		}
	}
	return nil
}

// Forecast is a timestamped rockfall-probability estimate for a mine.
// Forecasts are append-only; the newest one per mine is authoritative.
type Forecast struct {
	ID          string     `json:"id" db:"id"`
	MineID      string     `json:"mine_id" db:"mine_id"`
	Probability int        `json:"probability" db:"probability"` // percent, [0,100]
	Confidence  int        `json:"confidence" db:"confidence"`   // percent, [0,100]
	Timeframe   string     `json:"timeframe" db:"timeframe"`
	Factors     FactorList `json:"factors" db:"factors"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// Alert is a severity-tagged notification tied to a mine and a single user.
// Only the owning user may see it or flip IsRead, and only false → true.
type Alert struct {
	ID        string        `json:"id" db:"id"`
	MineID    string        `json:"mine_id" db:"mine_id"`
	UserID    string        `json:"user_id" db:"user_id"`
	Type      AlertType     `json:"type" db:"type"`
	Severity  AlertSeverity `json:"severity" db:"severity"`
	Message   string        `json:"message" db:"message"`
	IsRead    bool          `json:"is_read" db:"is_read"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
}

// MineAssignment links a user to a mine with a role. At most one
// assignment exists per (user, mine) pair.
type MineAssignment struct {
	UserID     string    `json:"user_id" db:"user_id"`
	MineID     string    `json:"mine_id" db:"mine_id"`
	Role       Role      `json:"role" db:"role"`
	AssignedAt time.Time `json:"assigned_at" db:"assigned_at"`
}
