package repository

import (
	"context"

	"AlphaPulse/internal/domain/models"
)

// Scorer turns a text fragment into a polarity score in [-1, 1].
// Pure: no state, no failure mode beyond a best-effort score.
type Scorer interface {
	Score(text string) float64
}

// Collector gathers raw observations mentioning an asset from one source.
// Best effort: an empty result is not an error. Returned observations carry
// no sentiment yet; scoring is the pipeline's job.
type Collector interface {
	Source() models.Source
	Collect(ctx context.Context, asset string, keywords []string, limit int) ([]models.Observation, error)
}

// PriceSource fetches current prices for a set of assets. Missing entries
// are expected and must be tolerated by callers; an unknown price is never
// substituted with 0.
type PriceSource interface {
	Fetch(ctx context.Context, assets []string) (map[string]float64, error)
}

// Notifier delivers a formatted report. Fire-and-forget: failures are
// logged by callers, never escalate to abort a tick.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// FeedPublisher mirrors tick outputs onto an integration feed for
// downstream consumers. Optional; best effort.
type FeedPublisher interface {
	PublishSummaries(ctx context.Context, rows []models.SummaryRow) error
	PublishReconciliations(ctx context.Context, entries []models.PredictionEntry) error
	Close() error
}

// PriceTick is one live price update from a streaming source.
type PriceTick struct {
	Asset string
	Price float64
}

// PriceStream is a live price feed used by the monitor mode.
type PriceStream interface {
	Connect(ctx context.Context) error
	Read(ctx context.Context) (<-chan PriceTick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}
