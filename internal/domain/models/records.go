package models

import "time"

// Source identifies where an observation was collected from.
type Source string

const (
	SourceReddit Source = "reddit"
	SourceNews   Source = "news"
)

// Action is the suggested trading action derived from mean sentiment.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// Sentiment thresholds for deriving an Action. The boundary values
// themselves map to hold (0.2 is not > 0.2).
const (
	BuyThreshold  = 0.2
	SellThreshold = -0.2
)

// ActionForSentiment derives the suggested action from a mean sentiment score.
func ActionForSentiment(mean float64) Action {
	switch {
	case mean > BuyThreshold:
		return ActionBuy
	case mean < SellThreshold:
		return ActionSell
	default:
		return ActionHold
	}
}

// Observation is one scored text mention of a tracked asset.
// Observations are append-only and never mutated after creation.
type Observation struct {
	Timestamp time.Time `json:"timestamp"`
	Asset     string    `json:"asset"`
	Source    Source    `json:"source"`
	Text      string    `json:"text"`
	Sentiment float64   `json:"sentiment"`
	Link      string    `json:"link,omitempty"`
}

// ObservationKey is the identity tuple used to collapse duplicate observations.
type ObservationKey struct {
	UnixNano int64
	Asset    string
	Source   Source
	Text     string
}

// Key returns the deduplication identity of the observation.
func (o Observation) Key() ObservationKey {
	return ObservationKey{
		UnixNano: o.Timestamp.UTC().UnixNano(),
		Asset:    o.Asset,
		Source:   o.Source,
		Text:     o.Text,
	}
}

// SummaryRow is the per-tick, per-asset, per-source aggregate of observations.
// Price is optional: a nil price means "unknown", which is distinct from 0.
type SummaryRow struct {
	Timestamp     time.Time `json:"timestamp"`
	Asset         string    `json:"asset"`
	Source        Source    `json:"source"`
	Count         int       `json:"count"`
	MeanSentiment float64   `json:"mean_sentiment"`
	Price         *float64  `json:"price,omitempty"`
	Action        Action    `json:"action"`
}

// SummaryKey is the identity tuple used to collapse duplicate summary rows.
type SummaryKey struct {
	UnixNano int64
	Asset    string
	Source   Source
}

// Key returns the deduplication identity of the summary row.
func (r SummaryRow) Key() SummaryKey {
	return SummaryKey{
		UnixNano: r.Timestamp.UTC().UnixNano(),
		Asset:    r.Asset,
		Source:   r.Source,
	}
}
