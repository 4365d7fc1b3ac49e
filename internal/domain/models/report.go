package models

import "time"

// AssetReport is the per-asset slice of a tick report. Optional values stay
// nil when there is no underlying data; "no data" is never reported as 0.
type AssetReport struct {
	Asset        string           `json:"asset"`
	TrailingMean *float64         `json:"trailing_mean,omitempty"`
	Action       Action           `json:"action"`
	Accuracy     *float64         `json:"accuracy,omitempty"`
	Reconciled   int              `json:"reconciled"`
	AccurateN    int              `json:"accurate"`
	Latest       *PredictionEntry `json:"latest_prediction,omitempty"`
}

// TickReport is the consolidated read model built after each tick, consumed
// by the alert formatter and the read-only API.
type TickReport struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Window      time.Duration `json:"-"`
	Assets      []AssetReport `json:"assets"`
}
