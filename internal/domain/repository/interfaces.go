package repository

import (
	"context"
	"time"

	"AlphaPulse/internal/domain/models"
)

// ObservationQuery filters an observation read. Zero Since/Until means
// unbounded on that side.
type ObservationQuery struct {
	Asset  string
	Source models.Source // empty = all sources
	Since  time.Time
	Until  time.Time
}

// SummaryQuery filters a summary read. Source is optional.
type SummaryQuery struct {
	Asset  string
	Source models.Source // empty = all sources
	Since  time.Time
	Until  time.Time
}

// RecordStore is the durable, deduplicated, append-only store for
// observations and summary rows. Appends merge by identity key with
// last-write-wins; queries re-read durable storage on every call and return
// records ordered by timestamp ascending. An unreadable store reads as
// empty; an unwritable store fails the append as fatal-for-tick.
type RecordStore interface {
	AppendObservations(ctx context.Context, batch []models.Observation) error
	AppendSummaries(ctx context.Context, batch []models.SummaryRow) error
	QueryObservations(ctx context.Context, q ObservationQuery) ([]models.Observation, error)
	QuerySummaries(ctx context.Context, q SummaryQuery) ([]models.SummaryRow, error)
}

// PredictionStore persists the per-asset prediction log. Load tolerates a
// missing file (empty log) and skips corrupt entries with a warning.
type PredictionStore interface {
	Load(ctx context.Context) (map[string][]models.PredictionEntry, error)
	Save(ctx context.Context, log map[string][]models.PredictionEntry) error
}

// AlertStateStore persists the single alert-throttle record.
type AlertStateStore interface {
	Load(ctx context.Context) (models.AlertState, error)
	Save(ctx context.Context, state models.AlertState) error
}

// Metrics records operational counters for the pipeline.
type Metrics interface {
	RecordObservations(asset, source string, n int)
	RecordSummaries(n int)
	RecordPredictionIssued(asset string)
	RecordPredictionReconciled(asset string, accurate bool)
	RecordAlertSent()
	RecordError(kind string)
	RecordLastPrice(asset string, price float64)
	RecordTickDuration(seconds float64)
}
