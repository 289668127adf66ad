package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/rockfall-monitor/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DatabaseURL string

	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	BatchSize int

	// Seed mine provisioned to first-time users, injected explicitly
	// instead of being matched by display name at runtime.
	SeedMine SeedMine
}

// SeedMine defines the canonical mine granted to newly seen users.
type SeedMine struct {
	Name        string
	Location    string
	Lat         float64
	Lng         float64
	Description string
	Role        domain.Role
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	batchSize, err := parseIntEnv("BATCH_SIZE", 50)
	if err != nil {
		return nil, err
	}

	seedLat, err := parseFloatEnv("SEED_MINE_LAT", 22.1167)
	if err != nil {
		return nil, err
	}
	seedLng, err := parseFloatEnv("SEED_MINE_LNG", 85.3833)
	if err != nil {
		return nil, err
	}

	seedRole := domain.Role(envOrDefault("SEED_MINE_ROLE", string(domain.RoleAnalyst)))
	switch seedRole {
	case domain.RoleViewer, domain.RoleAnalyst, domain.RoleAdmin:
	default:
		return nil, fmt.Errorf("invalid SEED_MINE_ROLE %q", seedRole)
	}

	cfg := &Config{
		DatabaseURL: envOrDefault("DATABASE_URL", "postgres://localhost:5432/rockfall?sslmode=disable"),

		KafkaBrokers:     parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic: envOrDefault("KAFKA_SOURCE_TOPIC", "raw-sensor-readings"),
		KafkaSinkTopic:   envOrDefault("KAFKA_SINK_TOPIC", "alert-notifications"),
		KafkaGroupID:     envOrDefault("KAFKA_GROUP_ID", "rockfall-monitor"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		BatchSize: batchSize,

		SeedMine: SeedMine{
			Name:        envOrDefault("SEED_MINE_NAME", "Barbil Iron Ore Mine"),
			Location:    envOrDefault("SEED_MINE_LOCATION", "Barbil, Odisha, India"),
			Lat:         seedLat,
			Lng:         seedLng,
			Description: envOrDefault("SEED_MINE_DESCRIPTION", "Large open-pit iron ore mine in Odisha"),
			Role:        seedRole,
		},
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.SeedMine.Name == "" {
		return nil, errors.New("SEED_MINE_NAME is required")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBrokers(raw string) []string {
	parts := strings.Split(raw, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func parseDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return d, nil
}

func parseIntEnv(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return n, nil
}

func parseFloatEnv(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return f, nil
}
