package models

// Requests for the read-only accessor endpoints. Defined in domain for consistency and reuse.

type ObservationsRequest struct {
	Asset  string `query:"asset" json:"asset" validate:"required"`
	Source string `query:"source" json:"source" validate:"omitempty,oneof=reddit news"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"500" validate:"gte=1,lte=10000"`
}

type SummariesRequest struct {
	Asset  string `query:"asset" json:"asset" validate:"required"`
	Source string `query:"source" json:"source" validate:"omitempty,oneof=reddit news"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"500" validate:"gte=1,lte=10000"`
}

type AccuracyRequest struct {
	Asset  string `query:"asset" json:"asset" validate:"required"`
	Window string `query:"window" json:"window" default:"24h"`
}

type LatestPredictionRequest struct {
	Asset string `query:"asset" json:"asset" validate:"required"`
}
