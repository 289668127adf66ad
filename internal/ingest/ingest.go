// Package ingest runs the sensor-reading intake loop: extract raw messages
// from the source topic in batches, parse and validate them, persist the
// survivors, and raise sensor alerts for threshold breaches.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/rockfall-monitor/internal/domain"
	"github.com/couchcryptid/rockfall-monitor/internal/observability"
)

// displacementAlertThreshold is the per-reading ground displacement (mm)
// at which a sensor alert is raised for the mine's users.
const displacementAlertThreshold = 3.0

// BatchExtractor reads up to batchSize raw events from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// ReadingStore is the persistence surface the intake loop requires.
type ReadingStore interface {
	InsertReadings(ctx context.Context, readings []domain.EnvironmentalReading) error
	ListAssignedUsers(ctx context.Context, mineID string) ([]string, error)
	InsertAlert(ctx context.Context, alert domain.Alert) error
}

// AlertPublisher pushes raised alerts to the notification topic. May be nil.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, alert domain.Alert) error
}

// Ingester orchestrates the extract-parse-store loop.
type Ingester struct {
	extractor BatchExtractor
	store     ReadingStore
	publisher AlertPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
	batchSize int
}

// New creates an Ingester with the given stages and observability.
func New(e BatchExtractor, store ReadingStore, publisher AlertPublisher, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Ingester {
	return &Ingester{
		extractor: e,
		store:     store,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		batchSize: batchSize,
	}
}

// CheckReadiness returns nil once the loop has persisted at least one batch,
// or an error describing why the service is not yet ready.
func (in *Ingester) CheckReadiness(_ context.Context) error {
	if !in.ready.Load() {
		return errors.New("ingester has not persisted any readings yet")
	}
	return nil
}

// Run executes the batch intake loop until the context is cancelled.
func (in *Ingester) Run(ctx context.Context) error {
	in.logger.Info("ingester started", "batch_size", in.batchSize)
	in.metrics.IngesterRunning.Set(1)
	defer in.metrics.IngesterRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	// Keeps retry storms short while avoiding tight loops during outages.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			in.logger.Info("ingester stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !in.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch runs one extract-parse-store cycle. Returns false if the loop should stop.
func (in *Ingester) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	start := time.Now()

	rawBatch, err := in.extractor.ExtractBatch(ctx, in.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		in.logger.Error("extract batch failed", "error", err)
		return in.backoffOrStop(ctx, backoff, maxBackoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	in.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = 200 * time.Millisecond

	stored, ok := in.parseAndStore(ctx, rawBatch, backoff, maxBackoff)
	if !ok {
		return false
	}

	if stored > 0 {
		in.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
		in.ready.Store(true)
	}
	return true
}

// parseAndStore parses each message in the batch, persists the survivors,
// commits offsets, and raises threshold alerts. Returns the number of
// persisted readings and false if the loop should stop.
func (in *Ingester) parseAndStore(ctx context.Context, rawBatch []domain.RawEvent, backoff *time.Duration, maxBackoff time.Duration) (int, bool) {
	readings := make([]domain.EnvironmentalReading, 0, len(rawBatch))
	successfulRaws := make([]domain.RawEvent, 0, len(rawBatch))

	for _, raw := range rawBatch {
		reading, err := domain.ParseReadingEvent(raw)
		if err != nil {
			in.logger.Warn("parse failed, skipping message",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			in.metrics.IngestErrors.Inc()
			in.commitOffset(ctx, raw)
			continue
		}
		readings = append(readings, reading)
		successfulRaws = append(successfulRaws, raw)
	}

	if len(readings) == 0 {
		return 0, true
	}

	if err := in.store.InsertReadings(ctx, readings); err != nil {
		in.logger.Error("store batch failed", "error", err, "batch_size", len(readings))
		return 0, in.backoffOrStop(ctx, backoff, maxBackoff)
	}

	in.metrics.ReadingsIngested.Add(float64(len(readings)))

	for _, raw := range successfulRaws {
		in.commitOffset(ctx, raw)
	}

	in.raiseSensorAlerts(ctx, readings)

	return len(readings), true
}

// raiseSensorAlerts creates alerts for displacement threshold breaches, at
// most one per mine per batch, keyed on the worst reading. Failures are
// logged, not surfaced: the readings are already persisted.
func (in *Ingester) raiseSensorAlerts(ctx context.Context, readings []domain.EnvironmentalReading) {
	worst := make(map[string]domain.EnvironmentalReading)
	for _, r := range readings {
		if r.Displacement <= displacementAlertThreshold {
			continue
		}
		if prev, ok := worst[r.MineID]; !ok || r.Displacement > prev.Displacement {
			worst[r.MineID] = r
		}
	}

	for mineID, reading := range worst {
		users, err := in.store.ListAssignedUsers(ctx, mineID)
		if err != nil {
			in.logger.Error("list users for sensor alert failed", "error", err, "mine_id", mineID)
			continue
		}
		message := fmt.Sprintf("Ground displacement of %.1fmm recorded, above the %.0fmm threshold",
			reading.Displacement, displacementAlertThreshold)

		for _, userID := range users {
			alert := domain.Alert{
				ID:        uuid.NewString(),
				MineID:    mineID,
				UserID:    userID,
				Type:      domain.AlertSensor,
				Severity:  domain.SeverityHigh,
				Message:   message,
				CreatedAt: domain.Now(),
			}
			if err := in.store.InsertAlert(ctx, alert); err != nil {
				in.logger.Error("insert sensor alert failed", "error", err, "user_id", userID)
				continue
			}
			in.metrics.AlertsRaised.WithLabelValues(string(domain.AlertSensor)).Inc()
			in.publish(ctx, alert)
		}
	}
}

func (in *Ingester) publish(ctx context.Context, alert domain.Alert) {
	if in.publisher == nil {
		return
	}
	if err := in.publisher.PublishAlert(ctx, alert); err != nil {
		in.logger.Warn("publish alert notification failed", "error", err, "alert_id", alert.ID)
	}
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the loop should stop.
func (in *Ingester) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (in *Ingester) commitOffset(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		in.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
