// Package service implements the monitoring operations behind the API
// surface. Every operation resolves the caller identity first and gates data
// access on the caller's mine assignments.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/rockfall-monitor/internal/auth"
	"github.com/couchcryptid/rockfall-monitor/internal/config"
	"github.com/couchcryptid/rockfall-monitor/internal/domain"
	"github.com/couchcryptid/rockfall-monitor/internal/observability"
)

const (
	// DefaultWindowHours is the look-back for general environmental queries.
	DefaultWindowHours = 24
	// ForecastWindowHours is the look-back the forecast aggregates over.
	ForecastWindowHours = 72
	// MaxWindowHours bounds caller-supplied windows (30 days).
	MaxWindowHours = 720
	// WindowCap is the maximum number of readings returned per window query.
	WindowCap = 100

	// DefaultAlertLimit is the alert-listing cap when the caller gives none.
	DefaultAlertLimit = 10
	// MaxAlertLimit bounds caller-supplied alert limits.
	MaxAlertLimit = 100

	// forecastAlertThreshold is the probability at or above which a
	// persisted forecast fans out alerts to the mine's users.
	forecastAlertThreshold = 70
	// forecastCriticalThreshold escalates the fan-out severity to critical.
	forecastCriticalThreshold = 90
)

// Store is the persistence surface the operations require.
type Store interface {
	ListMinesForUser(ctx context.Context, userID string) ([]domain.MineWithRole, error)
	GetMine(ctx context.Context, mineID string) (domain.Mine, error)
	GetAssignment(ctx context.Context, userID, mineID string) (domain.MineAssignment, error)

	ListZones(ctx context.Context, mineID string) ([]domain.RiskZone, error)
	CountHighRiskZones(ctx context.Context, mineID string) (int, error)

	ListReadings(ctx context.Context, mineID string, since time.Time, limit int) ([]domain.EnvironmentalReading, error)

	InsertForecast(ctx context.Context, forecast domain.Forecast) error
	LatestForecast(ctx context.Context, mineID string) (domain.Forecast, error)

	InsertAlert(ctx context.Context, alert domain.Alert) error
	ListAlertsForUser(ctx context.Context, userID string, limit int) ([]domain.Alert, error)
	MarkAlertRead(ctx context.Context, alertID, userID string) error
	ListAssignedUsers(ctx context.Context, mineID string) ([]string, error)

	BootstrapAccess(ctx context.Context, userID string, seed domain.Mine, role domain.Role) (bool, error)
}

// AlertPublisher pushes raised alerts to the notification topic. May be nil
// when publication is disabled; delivery is best-effort either way.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, alert domain.Alert) error
}

// Service executes the monitoring operations against a Store.
type Service struct {
	store     Store
	publisher AlertPublisher
	seed      config.SeedMine
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Service. publisher may be nil.
func New(store Store, publisher AlertPublisher, seed config.SeedMine, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		seed:      seed,
		logger:    logger,
		metrics:   metrics,
	}
}

// requireUser resolves the caller identity or fails Unauthenticated.
func (s *Service) requireUser(ctx context.Context) (string, error) {
	userID, ok := auth.UserFrom(ctx)
	if !ok {
		s.metrics.AuthDenials.WithLabelValues("unauthenticated").Inc()
		return "", domain.ErrUnauthenticated
	}
	return userID, nil
}

// requireAssignment enforces the mine gate. A missing assignment and a
// nonexistent mine both fail AccessDenied so existence is not revealed.
func (s *Service) requireAssignment(ctx context.Context, userID, mineID string) (domain.MineAssignment, error) {
	assignment, err := s.store.GetAssignment(ctx, userID, mineID)
	if errors.Is(err, domain.ErrNotFound) {
		s.metrics.AuthDenials.WithLabelValues("access_denied").Inc()
		return domain.MineAssignment{}, fmt.Errorf("mine %s: %w", mineID, domain.ErrAccessDenied)
	}
	if err != nil {
		return domain.MineAssignment{}, err
	}
	return assignment, nil
}

// GetUserMines returns every mine assigned to the caller with the caller's
// role on each.
func (s *Service) GetUserMines(ctx context.Context) ([]domain.MineWithRole, error) {
	userID, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.ListMinesForUser(ctx, userID)
}

// GetMineDetails returns one mine with the caller's role. NotFound is only
// possible once the assignment check has passed.
func (s *Service) GetMineDetails(ctx context.Context, mineID string) (domain.MineWithRole, error) {
	userID, err := s.requireUser(ctx)
	if err != nil {
		return domain.MineWithRole{}, err
	}
	assignment, err := s.requireAssignment(ctx, userID, mineID)
	if err != nil {
		return domain.MineWithRole{}, err
	}

	mine, err := s.store.GetMine(ctx, mineID)
	if err != nil {
		return domain.MineWithRole{}, err
	}
	return domain.MineWithRole{Mine: mine, Role: assignment.Role}, nil
}

// GetRiskZones returns the mine's zones.
func (s *Service) GetRiskZones(ctx context.Context, mineID string) ([]domain.RiskZone, error) {
	userID, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireAssignment(ctx, userID, mineID); err != nil {
		return nil, err
	}
	return s.store.ListZones(ctx, mineID)
}

// GetLatestForecast returns the newest forecast for the mine, or nil when
// none has been generated yet.
func (s *Service) GetLatestForecast(ctx context.Context, mineID string) (*domain.Forecast, error) {
	userID, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireAssignment(ctx, userID, mineID); err != nil {
		return nil, err
	}

	forecast, err := s.store.LatestForecast(ctx, mineID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &forecast, nil
}

// GetEnvironmentalData returns the mine's readings inside the look-back
// window, newest first, capped at WindowCap. hours zero means the default.
func (s *Service) GetEnvironmentalData(ctx context.Context, mineID string, hours int) ([]domain.EnvironmentalReading, error) {
	userID, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireAssignment(ctx, userID, mineID); err != nil {
		return nil, err
	}

	if hours == 0 {
		hours = DefaultWindowHours
	}
	if hours < 0 || hours > MaxWindowHours {
		return nil, fmt.Errorf("%w: hours %d out of range", domain.ErrInvalidInput, hours)
	}

	since := domain.Now().Add(-time.Duration(hours) * time.Hour)
	return s.store.ListReadings(ctx, mineID, since, WindowCap)
}

// GetUserAlerts returns the caller's alerts newest first. limit zero means
// the default.
func (s *Service) GetUserAlerts(ctx context.Context, limit int) ([]domain.Alert, error) {
	userID, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}

	if limit == 0 {
		limit = DefaultAlertLimit
	}
	if limit < 0 || limit > MaxAlertLimit {
		return nil, fmt.Errorf("%w: limit %d out of range", domain.ErrInvalidInput, limit)
	}

	return s.store.ListAlertsForUser(ctx, userID, limit)
}

// GetAlertSummary derives the unread counters and banner status over the
// caller's recent alerts.
func (s *Service) GetAlertSummary(ctx context.Context) (domain.AlertSummary, error) {
	alerts, err := s.GetUserAlerts(ctx, DefaultAlertLimit)
	if err != nil {
		return domain.AlertSummary{}, err
	}
	return domain.SummarizeAlerts(alerts), nil
}

// MarkAlertAsRead flips an alert the caller owns to read. The transition is
// one-way; foreign and missing alerts both fail AccessDenied.
func (s *Service) MarkAlertAsRead(ctx context.Context, alertID string) error {
	userID, err := s.requireUser(ctx)
	if err != nil {
		return err
	}
	if alertID == "" {
		return fmt.Errorf("%w: empty alert id", domain.ErrInvalidInput)
	}

	err = s.store.MarkAlertRead(ctx, alertID, userID)
	if errors.Is(err, domain.ErrAccessDenied) {
		s.metrics.AuthDenials.WithLabelValues("access_denied").Inc()
	}
	return err
}

// InitializeUserAccess provisions first-login access: a caller holding no
// assignment anywhere is granted the configured seed mine. Idempotent; an
// already-provisioned caller is a no-op, not an error.
func (s *Service) InitializeUserAccess(ctx context.Context) error {
	userID, err := s.requireUser(ctx)
	if err != nil {
		return err
	}

	seed := domain.Mine{
		ID:          uuid.NewString(),
		Name:        s.seed.Name,
		Location:    s.seed.Location,
		Lat:         s.seed.Lat,
		Lng:         s.seed.Lng,
		IsActive:    true,
		Description: s.seed.Description,
		CreatedAt:   domain.Now(),
	}

	provisioned, err := s.store.BootstrapAccess(ctx, userID, seed, s.seed.Role)
	if err != nil {
		return err
	}
	if provisioned {
		s.logger.Info("provisioned seed mine access",
			"user_id", userID, "mine", s.seed.Name, "role", s.seed.Role)
	}
	return nil
}

// GenerateRiskForecast aggregates the forecast window, runs the rule engine,
// persists the forecast, and returns it. Forecasts at or above the alert
// threshold fan out alerts to every user assigned to the mine.
func (s *Service) GenerateRiskForecast(ctx context.Context, mineID string) (domain.Forecast, error) {
	userID, err := s.requireUser(ctx)
	if err != nil {
		return domain.Forecast{}, err
	}
	if _, err := s.requireAssignment(ctx, userID, mineID); err != nil {
		return domain.Forecast{}, err
	}

	since := domain.Now().Add(-ForecastWindowHours * time.Hour)
	readings, err := s.store.ListReadings(ctx, mineID, since, WindowCap)
	if err != nil {
		return domain.Forecast{}, err
	}
	highZones, err := s.store.CountHighRiskZones(ctx, mineID)
	if err != nil {
		return domain.Forecast{}, err
	}

	forecast := domain.ScoreForecast(domain.AggregateReadings(readings), highZones)
	forecast.ID = uuid.NewString()
	forecast.MineID = mineID

	if err := s.store.InsertForecast(ctx, forecast); err != nil {
		return domain.Forecast{}, err
	}

	s.metrics.ForecastsGenerated.Inc()
	s.metrics.ForecastProbability.Observe(float64(forecast.Probability))
	s.logger.Info("forecast generated",
		"mine_id", mineID,
		"probability", forecast.Probability,
		"factors", len(forecast.Factors),
		"readings", len(readings),
		"high_risk_zones", highZones,
	)

	if forecast.Probability >= forecastAlertThreshold {
		s.raiseForecastAlerts(ctx, forecast)
	}

	return forecast, nil
}

// raiseForecastAlerts creates one forecast alert per assigned user of the
// mine. Failures are logged, not surfaced: the forecast itself is already
// persisted and remains the authoritative result.
func (s *Service) raiseForecastAlerts(ctx context.Context, forecast domain.Forecast) {
	users, err := s.store.ListAssignedUsers(ctx, forecast.MineID)
	if err != nil {
		s.logger.Error("list users for forecast alert failed", "error", err, "mine_id", forecast.MineID)
		return
	}

	severity := domain.SeverityHigh
	if forecast.Probability >= forecastCriticalThreshold {
		severity = domain.SeverityCritical
	}
	message := fmt.Sprintf("Rockfall probability at %d%% over the next %s", forecast.Probability, forecast.Timeframe)

	for _, userID := range users {
		alert := domain.Alert{
			ID:        uuid.NewString(),
			MineID:    forecast.MineID,
			UserID:    userID,
			Type:      domain.AlertForecast,
			Severity:  severity,
			Message:   message,
			CreatedAt: domain.Now(),
		}
		if err := s.store.InsertAlert(ctx, alert); err != nil {
			s.logger.Error("insert forecast alert failed", "error", err, "user_id", userID)
			continue
		}
		s.metrics.AlertsRaised.WithLabelValues(string(domain.AlertForecast)).Inc()
		s.publish(ctx, alert)
	}
}

func (s *Service) publish(ctx context.Context, alert domain.Alert) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishAlert(ctx, alert); err != nil {
		s.logger.Warn("publish alert notification failed", "error", err, "alert_id", alert.ID)
	}
}
