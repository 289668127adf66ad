package service_test

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/rockfall-monitor/internal/auth"
	"github.com/couchcryptid/rockfall-monitor/internal/config"
	"github.com/couchcryptid/rockfall-monitor/internal/domain"
	"github.com/couchcryptid/rockfall-monitor/internal/observability"
	"github.com/couchcryptid/rockfall-monitor/internal/service"
)

// --- fake store ---

// fakeStore is an in-memory Store honoring the same ordering, windowing,
// and uniqueness semantics as the Postgres implementation.
type fakeStore struct {
	mu          sync.Mutex
	mines       map[string]domain.Mine
	assignments map[string]map[string]domain.MineAssignment // userID -> mineID
	zones       map[string][]domain.RiskZone
	readings    map[string][]domain.EnvironmentalReading
	forecasts   map[string][]domain.Forecast
	alerts      []domain.Alert
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		mines:       map[string]domain.Mine{},
		assignments: map[string]map[string]domain.MineAssignment{},
		zones:       map[string][]domain.RiskZone{},
		readings:    map[string][]domain.EnvironmentalReading{},
		forecasts:   map[string][]domain.Forecast{},
	}
}

func (f *fakeStore) addMine(m domain.Mine) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mines[m.ID] = m
}

func (f *fakeStore) assign(userID, mineID string, role domain.Role) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.assignments[userID] == nil {
		f.assignments[userID] = map[string]domain.MineAssignment{}
	}
	f.assignments[userID][mineID] = domain.MineAssignment{
		UserID: userID, MineID: mineID, Role: role, AssignedAt: time.Now(),
	}
}

func (f *fakeStore) ListMinesForUser(_ context.Context, userID string) ([]domain.MineWithRole, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.MineWithRole
	for mineID, a := range f.assignments[userID] {
		if mine, ok := f.mines[mineID]; ok {
			result = append(result, domain.MineWithRole{Mine: mine, Role: a.Role})
		}
	}
	return result, nil
}

func (f *fakeStore) GetMine(_ context.Context, mineID string) (domain.Mine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	mine, ok := f.mines[mineID]
	if !ok {
		return domain.Mine{}, domain.ErrNotFound
	}
	return mine, nil
}

func (f *fakeStore) GetAssignment(_ context.Context, userID, mineID string) (domain.MineAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assignments[userID][mineID]
	if !ok {
		return domain.MineAssignment{}, domain.ErrNotFound
	}
	return a, nil
}

func (f *fakeStore) ListZones(_ context.Context, mineID string) ([]domain.RiskZone, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.zones[mineID], nil
}

func (f *fakeStore) CountHighRiskZones(_ context.Context, mineID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, z := range f.zones[mineID] {
		if z.RiskLevel == domain.RiskHigh {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) ListReadings(_ context.Context, mineID string, since time.Time, limit int) ([]domain.EnvironmentalReading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.EnvironmentalReading
	for _, r := range f.readings[mineID] {
		if r.Timestamp.After(since) {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Timestamp.After(result[j].Timestamp) })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (f *fakeStore) InsertForecast(_ context.Context, forecast domain.Forecast) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forecasts[forecast.MineID] = append(f.forecasts[forecast.MineID], forecast)
	return nil
}

func (f *fakeStore) LatestForecast(_ context.Context, mineID string) (domain.Forecast, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.forecasts[mineID]
	if len(all) == 0 {
		return domain.Forecast{}, domain.ErrNotFound
	}
	latest := all[0]
	for _, fc := range all[1:] {
		if fc.CreatedAt.After(latest.CreatedAt) {
			latest = fc
		}
	}
	return latest, nil
}

func (f *fakeStore) InsertAlert(_ context.Context, alert domain.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, alert)
	return nil
}

func (f *fakeStore) ListAlertsForUser(_ context.Context, userID string, limit int) ([]domain.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Alert
	for _, a := range f.alerts {
		if a.UserID == userID {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (f *fakeStore) MarkAlertRead(_ context.Context, alertID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, a := range f.alerts {
		if a.ID == alertID && a.UserID == userID {
			f.alerts[i].IsRead = true
			return nil
		}
	}
	return domain.ErrAccessDenied
}

func (f *fakeStore) ListAssignedUsers(_ context.Context, mineID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var users []string
	for userID, byMine := range f.assignments {
		if _, ok := byMine[mineID]; ok {
			users = append(users, userID)
		}
	}
	sort.Strings(users)
	return users, nil
}

func (f *fakeStore) BootstrapAccess(_ context.Context, userID string, seed domain.Mine, role domain.Role) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.assignments[userID]) > 0 {
		return false, nil
	}
	var mineID string
	for id, m := range f.mines {
		if m.Name == seed.Name {
			mineID = id
			break
		}
	}
	if mineID == "" {
		f.mines[seed.ID] = seed
		mineID = seed.ID
	}
	if f.assignments[userID] == nil {
		f.assignments[userID] = map[string]domain.MineAssignment{}
	}
	f.assignments[userID][mineID] = domain.MineAssignment{
		UserID: userID, MineID: mineID, Role: role, AssignedAt: time.Now(),
	}
	return true, nil
}

type capturingPublisher struct {
	mu        sync.Mutex
	published []domain.Alert
}

func (p *capturingPublisher) PublishAlert(_ context.Context, alert domain.Alert) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, alert)
	return nil
}

// --- helpers ---

var testSeed = config.SeedMine{
	Name:        "Barbil Iron Ore Mine",
	Location:    "Barbil, Odisha, India",
	Lat:         22.1167,
	Lng:         85.3833,
	Description: "Large open-pit iron ore mine in Odisha",
	Role:        domain.RoleAnalyst,
}

func newService(store service.Store, pub service.AlertPublisher) *service.Service {
	return service.New(store, pub, testSeed, slog.Default(), observability.NewMetricsForTesting())
}

func asUser(userID string) context.Context {
	return auth.WithUser(context.Background(), userID)
}

func frozenAt(t *testing.T, at time.Time) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(at))
	t.Cleanup(func() { domain.SetClock(nil) })
}

func seedMine(f *fakeStore, name string) domain.Mine {
	mine := domain.Mine{ID: uuid.NewString(), Name: name, Location: "x", IsActive: true}
	f.addMine(mine)
	return mine
}

// --- tests ---

func TestAuthGate_Unauthenticated(t *testing.T) {
	svc := newService(newFakeStore(), nil)
	ctx := context.Background()

	_, err := svc.GetUserMines(ctx)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = svc.GetMineDetails(ctx, "mine-1")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = svc.GetEnvironmentalData(ctx, "mine-1", 24)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = svc.GetUserAlerts(ctx, 10)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	err = svc.MarkAlertAsRead(ctx, "alert-1")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	err = svc.InitializeUserAccess(ctx)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = svc.GenerateRiskForecast(ctx, "mine-1")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestGetMineDetails(t *testing.T) {
	f := newFakeStore()
	mine := seedMine(f, "Mine A")
	f.assign("user-1", mine.ID, domain.RoleViewer)
	svc := newService(f, nil)

	t.Run("assigned user sees mine with role", func(t *testing.T) {
		got, err := svc.GetMineDetails(asUser("user-1"), mine.ID)
		require.NoError(t, err)
		assert.Equal(t, mine.Name, got.Name)
		assert.Equal(t, domain.RoleViewer, got.Role)
	})

	t.Run("unassigned user is denied", func(t *testing.T) {
		_, err := svc.GetMineDetails(asUser("user-2"), mine.ID)
		assert.ErrorIs(t, err, domain.ErrAccessDenied)
	})

	t.Run("nonexistent mine reads as denied, not missing", func(t *testing.T) {
		_, err := svc.GetMineDetails(asUser("user-1"), "no-such-mine")
		assert.ErrorIs(t, err, domain.ErrAccessDenied)
		assert.NotErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestGetEnvironmentalData(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	frozenAt(t, now)

	f := newFakeStore()
	mine := seedMine(f, "Mine A")
	f.assign("user-1", mine.ID, domain.RoleAnalyst)

	for i := 0; i < 30; i++ {
		f.readings[mine.ID] = append(f.readings[mine.ID], domain.EnvironmentalReading{
			ID:        uuid.NewString(),
			MineID:    mine.ID,
			Timestamp: now.Add(-time.Duration(i) * time.Hour),
			Rainfall:  float64(i),
		})
	}
	svc := newService(f, nil)

	t.Run("default window is 24 hours", func(t *testing.T) {
		readings, err := svc.GetEnvironmentalData(asUser("user-1"), mine.ID, 0)
		require.NoError(t, err)
		// Readings at offsets 0..23h are strictly inside the window; 24h+ are not.
		assert.Len(t, readings, 24)
		for _, r := range readings {
			assert.True(t, r.Timestamp.After(now.Add(-24*time.Hour)))
		}
	})

	t.Run("newest first", func(t *testing.T) {
		readings, err := svc.GetEnvironmentalData(asUser("user-1"), mine.ID, 30)
		require.NoError(t, err)
		for i := 1; i < len(readings); i++ {
			assert.True(t, readings[i].Timestamp.Before(readings[i-1].Timestamp))
		}
	})

	t.Run("negative hours rejected", func(t *testing.T) {
		_, err := svc.GetEnvironmentalData(asUser("user-1"), mine.ID, -1)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("oversized window rejected", func(t *testing.T) {
		_, err := svc.GetEnvironmentalData(asUser("user-1"), mine.ID, service.MaxWindowHours+1)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("unassigned user denied", func(t *testing.T) {
		_, err := svc.GetEnvironmentalData(asUser("user-2"), mine.ID, 24)
		assert.ErrorIs(t, err, domain.ErrAccessDenied)
	})
}

func TestGetEnvironmentalData_Cap(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	frozenAt(t, now)

	f := newFakeStore()
	mine := seedMine(f, "Mine A")
	f.assign("user-1", mine.ID, domain.RoleAnalyst)
	for i := 0; i < 150; i++ {
		f.readings[mine.ID] = append(f.readings[mine.ID], domain.EnvironmentalReading{
			ID:        uuid.NewString(),
			MineID:    mine.ID,
			Timestamp: now.Add(-time.Duration(i) * time.Minute),
		})
	}
	svc := newService(f, nil)

	readings, err := svc.GetEnvironmentalData(asUser("user-1"), mine.ID, 24)
	require.NoError(t, err)
	assert.Len(t, readings, service.WindowCap)
}

func TestGenerateRiskForecast(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	addReadings := func(f *fakeStore, mineID string, rainfall, displacement float64) {
		for i := 0; i < 10; i++ {
			f.readings[mineID] = append(f.readings[mineID], domain.EnvironmentalReading{
				ID:           uuid.NewString(),
				MineID:       mineID,
				Timestamp:    now.Add(-time.Duration(i) * time.Hour),
				Rainfall:     rainfall,
				Displacement: displacement,
			})
		}
	}
	addHighZones := func(f *fakeStore, mineID string, n int) {
		for i := 0; i < n; i++ {
			f.zones[mineID] = append(f.zones[mineID], domain.RiskZone{
				ID: uuid.NewString(), MineID: mineID, RiskLevel: domain.RiskHigh,
			})
		}
	}

	t.Run("all factors fire and alerts fan out critically", func(t *testing.T) {
		frozenAt(t, now)
		f := newFakeStore()
		mine := seedMine(f, "Mine A")
		f.assign("user-1", mine.ID, domain.RoleAnalyst)
		f.assign("user-2", mine.ID, domain.RoleViewer)
		addReadings(f, mine.ID, 25, 4)
		addHighZones(f, mine.ID, 3)

		pub := &capturingPublisher{}
		svc := newService(f, pub)

		forecast, err := svc.GenerateRiskForecast(asUser("user-1"), mine.ID)
		require.NoError(t, err)
		assert.Equal(t, 90, forecast.Probability)
		assert.Equal(t, 85, forecast.Confidence)
		assert.Equal(t, "7 days", forecast.Timeframe)
		assert.Equal(t, domain.FactorList{
			domain.FactorHeavyRainfall,
			domain.FactorGroundDisplacement,
			domain.FactorHighRiskZones,
		}, forecast.Factors)
		assert.Equal(t, mine.ID, forecast.MineID)
		assert.NotEmpty(t, forecast.ID)

		// Persisted and retrievable as the latest forecast.
		latest, err := svc.GetLatestForecast(asUser("user-1"), mine.ID)
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, forecast.ID, latest.ID)

		// Probability 90 escalates to critical, one alert per assigned user.
		alerts, err := svc.GetUserAlerts(asUser("user-2"), 10)
		require.NoError(t, err)
		require.Len(t, alerts, 1)
		assert.Equal(t, domain.AlertForecast, alerts[0].Type)
		assert.Equal(t, domain.SeverityCritical, alerts[0].Severity)
		assert.Len(t, pub.published, 2)
	})

	t.Run("quiet conditions yield base probability and no alerts", func(t *testing.T) {
		frozenAt(t, now)
		f := newFakeStore()
		mine := seedMine(f, "Mine A")
		f.assign("user-1", mine.ID, domain.RoleAnalyst)
		addReadings(f, mine.ID, 10, 1)

		pub := &capturingPublisher{}
		svc := newService(f, pub)

		forecast, err := svc.GenerateRiskForecast(asUser("user-1"), mine.ID)
		require.NoError(t, err)
		assert.Equal(t, 30, forecast.Probability)
		assert.Empty(t, forecast.Factors)
		assert.Empty(t, pub.published)

		alerts, err := svc.GetUserAlerts(asUser("user-1"), 10)
		require.NoError(t, err)
		assert.Empty(t, alerts)
	})

	t.Run("probability 75 raises high severity alerts", func(t *testing.T) {
		frozenAt(t, now)
		f := newFakeStore()
		mine := seedMine(f, "Mine A")
		f.assign("user-1", mine.ID, domain.RoleAnalyst)
		addReadings(f, mine.ID, 25, 4) // +25 +20 = 75
		svc := newService(f, nil)

		forecast, err := svc.GenerateRiskForecast(asUser("user-1"), mine.ID)
		require.NoError(t, err)
		assert.Equal(t, 75, forecast.Probability)

		alerts, err := svc.GetUserAlerts(asUser("user-1"), 10)
		require.NoError(t, err)
		require.Len(t, alerts, 1)
		assert.Equal(t, domain.SeverityHigh, alerts[0].Severity)
	})

	t.Run("no readings still forecasts from zones alone", func(t *testing.T) {
		frozenAt(t, now)
		f := newFakeStore()
		mine := seedMine(f, "Mine A")
		f.assign("user-1", mine.ID, domain.RoleAnalyst)
		addHighZones(f, mine.ID, 4)
		svc := newService(f, nil)

		forecast, err := svc.GenerateRiskForecast(asUser("user-1"), mine.ID)
		require.NoError(t, err)
		assert.Equal(t, 45, forecast.Probability)
		assert.Equal(t, domain.FactorList{domain.FactorHighRiskZones}, forecast.Factors)
	})

	t.Run("readings older than 72h are excluded", func(t *testing.T) {
		frozenAt(t, now)
		f := newFakeStore()
		mine := seedMine(f, "Mine A")
		f.assign("user-1", mine.ID, domain.RoleAnalyst)
		// Heavy rainfall, but entirely outside the forecast window.
		for i := 0; i < 10; i++ {
			f.readings[mine.ID] = append(f.readings[mine.ID], domain.EnvironmentalReading{
				ID:        uuid.NewString(),
				MineID:    mine.ID,
				Timestamp: now.Add(-73*time.Hour - time.Duration(i)*time.Hour),
				Rainfall:  100,
			})
		}
		svc := newService(f, nil)

		forecast, err := svc.GenerateRiskForecast(asUser("user-1"), mine.ID)
		require.NoError(t, err)
		assert.Equal(t, 30, forecast.Probability)
		assert.Empty(t, forecast.Factors)
	})

	t.Run("unassigned user denied", func(t *testing.T) {
		f := newFakeStore()
		mine := seedMine(f, "Mine A")
		svc := newService(f, nil)

		_, err := svc.GenerateRiskForecast(asUser("user-1"), mine.ID)
		assert.ErrorIs(t, err, domain.ErrAccessDenied)
	})
}

func TestGetLatestForecast_None(t *testing.T) {
	f := newFakeStore()
	mine := seedMine(f, "Mine A")
	f.assign("user-1", mine.ID, domain.RoleAnalyst)
	svc := newService(f, nil)

	forecast, err := svc.GetLatestForecast(asUser("user-1"), mine.ID)
	require.NoError(t, err)
	assert.Nil(t, forecast)
}

func TestMarkAlertAsRead(t *testing.T) {
	f := newFakeStore()
	mine := seedMine(f, "Mine A")
	alert := domain.Alert{
		ID: uuid.NewString(), MineID: mine.ID, UserID: "user-a",
		Type: domain.AlertHighRisk, Severity: domain.SeverityHigh,
		Message: "High rockfall risk detected in Zone A1", CreatedAt: time.Now(),
	}
	require.NoError(t, f.InsertAlert(context.Background(), alert))
	svc := newService(f, nil)

	t.Run("foreign user denied, flag unchanged", func(t *testing.T) {
		err := svc.MarkAlertAsRead(asUser("user-b"), alert.ID)
		assert.ErrorIs(t, err, domain.ErrAccessDenied)

		alerts, err := svc.GetUserAlerts(asUser("user-a"), 10)
		require.NoError(t, err)
		assert.False(t, alerts[0].IsRead)
	})

	t.Run("owner flips to read", func(t *testing.T) {
		require.NoError(t, svc.MarkAlertAsRead(asUser("user-a"), alert.ID))

		alerts, err := svc.GetUserAlerts(asUser("user-a"), 10)
		require.NoError(t, err)
		assert.True(t, alerts[0].IsRead)
	})

	t.Run("missing alert reads as denied", func(t *testing.T) {
		err := svc.MarkAlertAsRead(asUser("user-a"), uuid.NewString())
		assert.ErrorIs(t, err, domain.ErrAccessDenied)
	})

	t.Run("empty id rejected", func(t *testing.T) {
		err := svc.MarkAlertAsRead(asUser("user-a"), "")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestGetUserAlerts_Limits(t *testing.T) {
	f := newFakeStore()
	now := time.Now()
	for i := 0; i < 15; i++ {
		require.NoError(t, f.InsertAlert(context.Background(), domain.Alert{
			ID: uuid.NewString(), UserID: "user-1", Type: domain.AlertSensor,
			Severity: domain.SeverityLow, CreatedAt: now.Add(-time.Duration(i) * time.Minute),
		}))
	}
	svc := newService(f, nil)

	t.Run("default limit is 10", func(t *testing.T) {
		alerts, err := svc.GetUserAlerts(asUser("user-1"), 0)
		require.NoError(t, err)
		assert.Len(t, alerts, 10)
	})

	t.Run("negative limit rejected", func(t *testing.T) {
		_, err := svc.GetUserAlerts(asUser("user-1"), -5)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("only own alerts returned", func(t *testing.T) {
		alerts, err := svc.GetUserAlerts(asUser("user-2"), 10)
		require.NoError(t, err)
		assert.Empty(t, alerts)
	})
}

func TestGetAlertSummary(t *testing.T) {
	f := newFakeStore()
	require.NoError(t, f.InsertAlert(context.Background(), domain.Alert{
		ID: uuid.NewString(), UserID: "user-1", Type: domain.AlertForecast,
		Severity: domain.SeverityCritical, CreatedAt: time.Now(),
	}))
	svc := newService(f, nil)

	summary, err := svc.GetAlertSummary(asUser("user-1"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUrgent, summary.Status)
	assert.Equal(t, 1, summary.CriticalUnread)

	summary, err = svc.GetAlertSummary(asUser("user-2"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNominal, summary.Status)
}

func TestInitializeUserAccess(t *testing.T) {
	t.Run("fresh user gets exactly one assignment across repeat calls", func(t *testing.T) {
		f := newFakeStore()
		svc := newService(f, nil)
		ctx := asUser("fresh-user")

		require.NoError(t, svc.InitializeUserAccess(ctx))
		require.NoError(t, svc.InitializeUserAccess(ctx))

		mines, err := svc.GetUserMines(ctx)
		require.NoError(t, err)
		require.Len(t, mines, 1)
		assert.Equal(t, testSeed.Name, mines[0].Name)
		assert.Equal(t, domain.RoleAnalyst, mines[0].Role)
	})

	t.Run("concurrent calls never double-provision", func(t *testing.T) {
		f := newFakeStore()
		svc := newService(f, nil)
		ctx := asUser("racing-user")

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, svc.InitializeUserAccess(ctx))
			}()
		}
		wg.Wait()

		mines, err := svc.GetUserMines(ctx)
		require.NoError(t, err)
		assert.Len(t, mines, 1)
	})

	t.Run("user with an existing assignment is left alone", func(t *testing.T) {
		f := newFakeStore()
		other := seedMine(f, "Other Mine")
		f.assign("user-1", other.ID, domain.RoleViewer)
		svc := newService(f, nil)

		require.NoError(t, svc.InitializeUserAccess(asUser("user-1")))

		mines, err := svc.GetUserMines(asUser("user-1"))
		require.NoError(t, err)
		require.Len(t, mines, 1)
		assert.Equal(t, "Other Mine", mines[0].Name)
	})
}

func TestGetRiskZones(t *testing.T) {
	f := newFakeStore()
	mine := seedMine(f, "Mine A")
	f.assign("user-1", mine.ID, domain.RoleViewer)
	f.zones[mine.ID] = []domain.RiskZone{
		{ID: uuid.NewString(), MineID: mine.ID, ZoneID: "ZONE_A1", RiskLevel: domain.RiskHigh, RiskScore: 8.5},
	}
	svc := newService(f, nil)

	zones, err := svc.GetRiskZones(asUser("user-1"), mine.ID)
	require.NoError(t, err)
	require.Len(t, zones, 1)
	assert.Equal(t, "ZONE_A1", zones[0].ZoneID)

	_, err = svc.GetRiskZones(asUser("user-2"), mine.ID)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
}
