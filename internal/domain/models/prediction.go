package models

import "time"

// PredictionEntry is one forecast issued for an asset. Entries start pending
// (ActualPrice nil) and are reconciled exactly once against the first summary
// row observed past the forecast horizon. Reconciled entries are terminal.
// Entries with no later summary row stay pending forever; that is an accepted
// state, not an error.
type PredictionEntry struct {
	IssuedAt       time.Time `json:"timestamp"`
	Asset          string    `json:"asset"`
	PredictedPrice float64   `json:"predicted"`
	BaselinePrice  float64   `json:"baseline"`
	ActualPrice    *float64  `json:"actual,omitempty"`
	ErrorPct       *float64  `json:"error_pct,omitempty"`
	Accurate       *bool     `json:"accurate,omitempty"`
}

// Reconciled reports whether the entry has been matched with an actual price.
func (e PredictionEntry) Reconciled() bool { return e.ActualPrice != nil }

// AlertState is the single persisted record backing the alert throttle.
type AlertState struct {
	LastAlertAt *time.Time `json:"last_alert_at,omitempty"`
}
