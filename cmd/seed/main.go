// Command seed loads a demo fixture into the database: two Odisha mines,
// three risk zones, a day of hourly sensor readings, and a sample alert.
// Optionally assigns a user to the primary mine.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/rockfall-monitor/internal/config"
	"github.com/couchcryptid/rockfall-monitor/internal/domain"
	"github.com/couchcryptid/rockfall-monitor/internal/observability"
	"github.com/couchcryptid/rockfall-monitor/internal/store"
)

func main() {
	userID := flag.String("user", "", "assign this user to the primary demo mine")
	role := flag.String("role", string(domain.RoleAnalyst), "role for the -user assignment (viewer|analyst|admin)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := store.New(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.EnsureSchema(ctx); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	if err := run(ctx, st, logger, *userID, domain.Role(*role)); err != nil {
		logger.Error("seed failed", "error", err)
		os.Exit(1)
	}
	logger.Info("seed complete")
}

func run(ctx context.Context, st *store.Store, logger *slog.Logger, userID string, role domain.Role) error {
	now := time.Now().UTC()

	barbil := domain.Mine{
		ID:          uuid.NewString(),
		Name:        "Barbil Iron Ore Mine",
		Location:    "Barbil, Odisha, India",
		Lat:         22.1167,
		Lng:         85.3833,
		IsActive:    true,
		Description: "Large open-pit iron ore mine in Odisha",
		CreatedAt:   now,
	}
	rourkela := domain.Mine{
		ID:          uuid.NewString(),
		Name:        "Rourkela Steel Plant Mine",
		Location:    "Rourkela, Odisha, India",
		Lat:         22.2604,
		Lng:         84.8536,
		IsActive:    true,
		Description: "Steel plant associated mining operations",
		CreatedAt:   now,
	}

	for _, mine := range []*domain.Mine{&barbil, &rourkela} {
		err := st.CreateMine(ctx, *mine)
		switch {
		case errors.Is(err, domain.ErrConflict):
			existing, findErr := st.FindMineByName(ctx, mine.Name)
			if findErr != nil {
				return fmt.Errorf("resolve existing mine %q: %w", mine.Name, findErr)
			}
			mine.ID = existing.ID
			logger.Info("mine already present", "name", mine.Name)
		case err != nil:
			return fmt.Errorf("create mine %q: %w", mine.Name, err)
		default:
			logger.Info("mine created", "name", mine.Name)
		}
	}

	zones := []domain.RiskZone{
		{
			MineID: barbil.ID, ZoneID: "ZONE_A1",
			Boundary: domain.Polygon{
				{Lat: 22.1170, Lng: 85.3830}, {Lat: 22.1175, Lng: 85.3835},
				{Lat: 22.1172, Lng: 85.3840}, {Lat: 22.1167, Lng: 85.3835},
			},
			RiskLevel: domain.RiskHigh, RiskScore: 8.5, Slope: 65, Elevation: 450,
		},
		{
			MineID: barbil.ID, ZoneID: "ZONE_B2",
			Boundary: domain.Polygon{
				{Lat: 22.1160, Lng: 85.3825}, {Lat: 22.1165, Lng: 85.3830},
				{Lat: 22.1162, Lng: 85.3835}, {Lat: 22.1157, Lng: 85.3830},
			},
			RiskLevel: domain.RiskMedium, RiskScore: 5.2, Slope: 45, Elevation: 420,
		},
		{
			MineID: barbil.ID, ZoneID: "ZONE_C3",
			Boundary: domain.Polygon{
				{Lat: 22.1150, Lng: 85.3820}, {Lat: 22.1155, Lng: 85.3825},
				{Lat: 22.1152, Lng: 85.3830}, {Lat: 22.1147, Lng: 85.3825},
			},
			RiskLevel: domain.RiskLow, RiskScore: 2.8, Slope: 25, Elevation: 380,
		},
	}
	for _, z := range zones {
		z.ID = uuid.NewString()
		z.LastUpdated = now
		if err := st.CreateZone(ctx, z); err != nil {
			return fmt.Errorf("create zone %s: %w", z.ZoneID, err)
		}
	}
	logger.Info("risk zones created", "count", len(zones))

	rng := rand.New(rand.NewSource(now.UnixNano()))
	readings := make([]domain.EnvironmentalReading, 0, 24)
	for i := 0; i < 24; i++ {
		readings = append(readings, domain.EnvironmentalReading{
			ID:           uuid.NewString(),
			MineID:       barbil.ID,
			Timestamp:    now.Add(-time.Duration(i) * time.Hour),
			Rainfall:     rng.Float64() * 50,
			Temperature:  25 + rng.Float64()*15,
			Humidity:     60 + rng.Float64()*30,
			WindSpeed:    rng.Float64() * 20,
			Displacement: rng.Float64() * 5,
			PorePressure: 100 + rng.Float64()*50,
		})
	}
	if err := st.InsertReadings(ctx, readings); err != nil {
		return fmt.Errorf("insert readings: %w", err)
	}
	logger.Info("environmental readings created", "count", len(readings))

	if userID != "" {
		assignment := domain.MineAssignment{
			UserID:     userID,
			MineID:     barbil.ID,
			Role:       role,
			AssignedAt: now,
		}
		err := st.CreateAssignment(ctx, assignment)
		switch {
		case errors.Is(err, domain.ErrConflict):
			logger.Info("user already assigned", "user_id", userID)
		case err != nil:
			return fmt.Errorf("assign user: %w", err)
		default:
			logger.Info("user assigned", "user_id", userID, "role", role)
		}

		alert := domain.Alert{
			ID:        uuid.NewString(),
			MineID:    barbil.ID,
			UserID:    userID,
			Type:      domain.AlertHighRisk,
			Severity:  domain.SeverityHigh,
			Message:   "High rockfall risk detected in Zone A1 due to heavy rainfall",
			CreatedAt: now.Add(-30 * time.Minute),
		}
		if err := st.InsertAlert(ctx, alert); err != nil {
			return fmt.Errorf("insert sample alert: %w", err)
		}
		logger.Info("sample alert created", "user_id", userID)
	}

	return nil
}
