// Package store persists the monitoring entity sets in Postgres. Relations
// are by identifier, resolved through indexed lookup at read time; no entity
// holds a live reference to another.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver

	"github.com/couchcryptid/rockfall-monitor/internal/domain"
)

// Store wraps a Postgres connection pool.
type Store struct {
	db *sqlx.DB
}

// New connects to Postgres and verifies the connection.
func New(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection, used by tests.
func NewWithDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable, used by readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- mines ---

// CreateMine inserts a mine. A duplicate name surfaces as ErrConflict.
func (s *Store) CreateMine(ctx context.Context, mine domain.Mine) error {
	res, err := s.db.NamedExecContext(ctx, `
		INSERT INTO mines (id, name, location, lat, lng, is_active, description, created_at)
		VALUES (:id, :name, :location, :lat, :lng, :is_active, :description, :created_at)
		ON CONFLICT (name) DO NOTHING`, mine)
	if err != nil {
		return fmt.Errorf("create mine: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("create mine %q: %w", mine.Name, domain.ErrConflict)
	}
	return nil
}

// GetMine fetches a mine by identifier.
func (s *Store) GetMine(ctx context.Context, mineID string) (domain.Mine, error) {
	var mine domain.Mine
	err := s.db.GetContext(ctx, &mine, `SELECT * FROM mines WHERE id = $1`, mineID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Mine{}, fmt.Errorf("mine %s: %w", mineID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Mine{}, fmt.Errorf("get mine: %w", err)
	}
	return mine, nil
}

// FindMineByName fetches a mine by its unique display name.
func (s *Store) FindMineByName(ctx context.Context, name string) (domain.Mine, error) {
	var mine domain.Mine
	err := s.db.GetContext(ctx, &mine, `SELECT * FROM mines WHERE name = $1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Mine{}, fmt.Errorf("mine %q: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Mine{}, fmt.Errorf("find mine by name: %w", err)
	}
	return mine, nil
}

// ListMinesForUser returns every mine the user is assigned to, with the
// user's role on each, newest assignment first.
func (s *Store) ListMinesForUser(ctx context.Context, userID string) ([]domain.MineWithRole, error) {
	var mines []domain.MineWithRole
	err := s.db.SelectContext(ctx, &mines, `
		SELECT m.*, a.role
		FROM mines m
		JOIN mine_assignments a ON a.mine_id = m.id
		WHERE a.user_id = $1
		ORDER BY a.assigned_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list mines for user: %w", err)
	}
	return mines, nil
}

// --- risk zones ---

// CreateZone inserts a risk zone. A duplicate (mine_id, zone_id) is a no-op
// so fixture loads stay idempotent.
func (s *Store) CreateZone(ctx context.Context, zone domain.RiskZone) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO risk_zones (id, mine_id, zone_id, boundary, risk_level, risk_score, slope, elevation, last_updated)
		VALUES (:id, :mine_id, :zone_id, :boundary, :risk_level, :risk_score, :slope, :elevation, :last_updated)
		ON CONFLICT (mine_id, zone_id) DO NOTHING`, zone)
	if err != nil {
		return fmt.Errorf("create zone: %w", err)
	}
	return nil
}

// ListZones returns a mine's risk zones ordered by zone label.
func (s *Store) ListZones(ctx context.Context, mineID string) ([]domain.RiskZone, error) {
	var zones []domain.RiskZone
	err := s.db.SelectContext(ctx, &zones, `
		SELECT * FROM risk_zones WHERE mine_id = $1 ORDER BY zone_id`, mineID)
	if err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}
	return zones, nil
}

// CountHighRiskZones counts a mine's zones currently classified high.
func (s *Store) CountHighRiskZones(ctx context.Context, mineID string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM risk_zones WHERE mine_id = $1 AND risk_level = 'high'`, mineID)
	if err != nil {
		return 0, fmt.Errorf("count high risk zones: %w", err)
	}
	return count, nil
}

// --- environmental readings ---

// InsertReadings appends a batch of readings in one transaction.
func (s *Store) InsertReadings(ctx context.Context, readings []domain.EnvironmentalReading) error {
	if len(readings) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert readings: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, r := range readings {
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO environmental_readings (id, mine_id, timestamp, rainfall, temperature, humidity, wind_speed, displacement, pore_pressure)
			VALUES (:id, :mine_id, :timestamp, :rainfall, :temperature, :humidity, :wind_speed, :displacement, :pore_pressure)`, r); err != nil {
			return fmt.Errorf("insert reading %s: %w", r.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert readings: commit: %w", err)
	}
	return nil
}

// ListReadings returns a mine's readings with timestamp strictly newer than
// the cutoff, newest first, capped at limit.
func (s *Store) ListReadings(ctx context.Context, mineID string, since time.Time, limit int) ([]domain.EnvironmentalReading, error) {
	var readings []domain.EnvironmentalReading
	err := s.db.SelectContext(ctx, &readings, `
		SELECT * FROM environmental_readings
		WHERE mine_id = $1 AND timestamp > $2
		ORDER BY timestamp DESC
		LIMIT $3`, mineID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	return readings, nil
}

// --- forecasts ---

// InsertForecast appends a forecast. Forecasts are never mutated.
func (s *Store) InsertForecast(ctx context.Context, forecast domain.Forecast) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO forecasts (id, mine_id, probability, confidence, timeframe, factors, created_at)
		VALUES (:id, :mine_id, :probability, :confidence, :timeframe, :factors, :created_at)`, forecast)
	if err != nil {
		return fmt.Errorf("insert forecast: %w", err)
	}
	return nil
}

// LatestForecast returns the newest forecast for a mine, or ErrNotFound
// when none has been generated yet.
func (s *Store) LatestForecast(ctx context.Context, mineID string) (domain.Forecast, error) {
	var forecast domain.Forecast
	err := s.db.GetContext(ctx, &forecast, `
		SELECT * FROM forecasts WHERE mine_id = $1
		ORDER BY created_at DESC LIMIT 1`, mineID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Forecast{}, fmt.Errorf("forecast for mine %s: %w", mineID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Forecast{}, fmt.Errorf("latest forecast: %w", err)
	}
	return forecast, nil
}

// --- alerts ---

// InsertAlert creates an alert for a user.
func (s *Store) InsertAlert(ctx context.Context, alert domain.Alert) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO alerts (id, mine_id, user_id, type, severity, message, is_read, created_at)
		VALUES (:id, :mine_id, :user_id, :type, :severity, :message, :is_read, :created_at)`, alert)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

// ListAlertsForUser returns the user's alerts newest first, capped at limit.
func (s *Store) ListAlertsForUser(ctx context.Context, userID string, limit int) ([]domain.Alert, error) {
	var alerts []domain.Alert
	err := s.db.SelectContext(ctx, &alerts, `
		SELECT * FROM alerts WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return alerts, nil
}

// MarkAlertRead flips is_read to true for an alert owned by userID. The
// ownership check is part of the statement so check and write are atomic;
// a missing alert and a foreign alert are indistinguishable to the caller.
func (s *Store) MarkAlertRead(ctx context.Context, alertID, userID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE alerts SET is_read = TRUE
		WHERE id = $1 AND user_id = $2`, alertID, userID)
	if err != nil {
		return fmt.Errorf("mark alert read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("alert %s: %w", alertID, domain.ErrAccessDenied)
	}
	return nil
}

// --- assignments ---

// GetAssignment fetches the assignment linking a user to a mine.
func (s *Store) GetAssignment(ctx context.Context, userID, mineID string) (domain.MineAssignment, error) {
	var assignment domain.MineAssignment
	err := s.db.GetContext(ctx, &assignment, `
		SELECT * FROM mine_assignments WHERE user_id = $1 AND mine_id = $2`, userID, mineID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.MineAssignment{}, fmt.Errorf("assignment %s/%s: %w", userID, mineID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.MineAssignment{}, fmt.Errorf("get assignment: %w", err)
	}
	return assignment, nil
}

// HasAnyAssignment reports whether the user holds any mine assignment.
func (s *Store) HasAnyAssignment(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `
		SELECT EXISTS (SELECT 1 FROM mine_assignments WHERE user_id = $1)`, userID)
	if err != nil {
		return false, fmt.Errorf("has any assignment: %w", err)
	}
	return exists, nil
}

// CreateAssignment links a user to a mine. An existing (user, mine) pair
// surfaces as ErrConflict.
func (s *Store) CreateAssignment(ctx context.Context, assignment domain.MineAssignment) error {
	res, err := s.db.NamedExecContext(ctx, `
		INSERT INTO mine_assignments (user_id, mine_id, role, assigned_at)
		VALUES (:user_id, :mine_id, :role, :assigned_at)
		ON CONFLICT (user_id, mine_id) DO NOTHING`, assignment)
	if err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("assignment %s/%s: %w", assignment.UserID, assignment.MineID, domain.ErrConflict)
	}
	return nil
}

// ListAssignedUsers returns the identifiers of every user assigned to a mine.
func (s *Store) ListAssignedUsers(ctx context.Context, mineID string) ([]string, error) {
	var users []string
	err := s.db.SelectContext(ctx, &users, `
		SELECT user_id FROM mine_assignments WHERE mine_id = $1`, mineID)
	if err != nil {
		return nil, fmt.Errorf("list assigned users: %w", err)
	}
	return users, nil
}

// BootstrapAccess provisions first-time access: if the user holds no
// assignment anywhere, the seed mine is found or created and the user is
// linked to it with the given role. Safe to invoke concurrently for the
// same user; the unique constraints make racing inserts converge on one
// row, so a lost race is a no-op rather than an error. Returns true when
// this call created the assignment.
func (s *Store) BootstrapAccess(ctx context.Context, userID string, seed domain.Mine, role domain.Role) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("bootstrap access: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var exists bool
	if err := tx.GetContext(ctx, &exists, `
		SELECT EXISTS (SELECT 1 FROM mine_assignments WHERE user_id = $1)`, userID); err != nil {
		return false, fmt.Errorf("bootstrap access: existence check: %w", err)
	}
	if exists {
		return false, nil
	}

	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO mines (id, name, location, lat, lng, is_active, description, created_at)
		VALUES (:id, :name, :location, :lat, :lng, :is_active, :description, :created_at)
		ON CONFLICT (name) DO NOTHING`, seed); err != nil {
		return false, fmt.Errorf("bootstrap access: seed mine: %w", err)
	}

	var mineID string
	if err := tx.GetContext(ctx, &mineID, `SELECT id FROM mines WHERE name = $1`, seed.Name); err != nil {
		return false, fmt.Errorf("bootstrap access: resolve seed mine: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO mine_assignments (user_id, mine_id, role, assigned_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, mine_id) DO NOTHING`,
		userID, mineID, role, domain.Now())
	if err != nil {
		return false, fmt.Errorf("bootstrap access: assignment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("bootstrap access: commit: %w", err)
	}

	n, _ := res.RowsAffected()
	return n > 0, nil
}
