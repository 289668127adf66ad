package store

import (
	"context"
	"fmt"
)

// schema is the idempotent DDL for the monitoring entity sets. The
// uniqueness constraints on mines.name and mine_assignments(user_id,
// mine_id) back the provisioning idempotency: two racing bootstrap calls
// converge on a single row instead of double-inserting.
const schema = `
CREATE TABLE IF NOT EXISTS mines (
	id          UUID PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE,
	location    TEXT NOT NULL,
	lat         DOUBLE PRECISION NOT NULL,
	lng         DOUBLE PRECISION NOT NULL,
	is_active   BOOLEAN NOT NULL DEFAULT TRUE,
	description TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS risk_zones (
	id           UUID PRIMARY KEY,
	mine_id      UUID NOT NULL REFERENCES mines(id),
	zone_id      TEXT NOT NULL,
	boundary     JSONB NOT NULL,
	risk_level   TEXT NOT NULL CHECK (risk_level IN ('low', 'medium', 'high')),
	risk_score   DOUBLE PRECISION NOT NULL,
	slope        DOUBLE PRECISION NOT NULL,
	elevation    DOUBLE PRECISION NOT NULL,
	last_updated TIMESTAMPTZ NOT NULL,
	UNIQUE (mine_id, zone_id)
);
CREATE INDEX IF NOT EXISTS idx_risk_zones_mine ON risk_zones (mine_id);

CREATE TABLE IF NOT EXISTS environmental_readings (
	id            UUID PRIMARY KEY,
	mine_id       UUID NOT NULL REFERENCES mines(id),
	timestamp     TIMESTAMPTZ NOT NULL,
	rainfall      DOUBLE PRECISION NOT NULL CHECK (rainfall >= 0),
	temperature   DOUBLE PRECISION NOT NULL,
	humidity      DOUBLE PRECISION NOT NULL CHECK (humidity >= 0),
	wind_speed    DOUBLE PRECISION NOT NULL CHECK (wind_speed >= 0),
	displacement  DOUBLE PRECISION NOT NULL CHECK (displacement >= 0),
	pore_pressure DOUBLE PRECISION NOT NULL CHECK (pore_pressure >= 0)
);
CREATE INDEX IF NOT EXISTS idx_readings_mine_time
	ON environmental_readings (mine_id, timestamp DESC);

CREATE TABLE IF NOT EXISTS forecasts (
	id          UUID PRIMARY KEY,
	mine_id     UUID NOT NULL REFERENCES mines(id),
	probability INTEGER NOT NULL CHECK (probability BETWEEN 0 AND 100),
	confidence  INTEGER NOT NULL CHECK (confidence BETWEEN 0 AND 100),
	timeframe   TEXT NOT NULL,
	factors     JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_forecasts_mine_time
	ON forecasts (mine_id, created_at DESC);

CREATE TABLE IF NOT EXISTS alerts (
	id         UUID PRIMARY KEY,
	mine_id    UUID NOT NULL REFERENCES mines(id),
	user_id    TEXT NOT NULL,
	type       TEXT NOT NULL CHECK (type IN ('high_risk', 'forecast', 'sensor')),
	severity   TEXT NOT NULL CHECK (severity IN ('low', 'medium', 'high', 'critical')),
	message    TEXT NOT NULL,
	is_read    BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_alerts_user_time ON alerts (user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_alerts_mine ON alerts (mine_id);

CREATE TABLE IF NOT EXISTS mine_assignments (
	user_id     TEXT NOT NULL,
	mine_id     UUID NOT NULL REFERENCES mines(id),
	role        TEXT NOT NULL CHECK (role IN ('viewer', 'analyst', 'admin')),
	assigned_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (user_id, mine_id)
);
CREATE INDEX IF NOT EXISTS idx_assignments_user ON mine_assignments (user_id);
`

// EnsureSchema creates the tables and indexes if they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
