package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AlphaPulse/internal/domain/models"
	applogger "AlphaPulse/pkg/logger"
)

func TestReportBuildPartialData(t *testing.T) {
	records := newMemRecordStore()
	preds := newMemPredictionStore()
	log := applogger.Nop()
	agg := NewAggregator(records)
	ledger := NewLedger(preds, records, nopMetrics{}, log, time.Hour, 4.0)
	r := NewReporter(agg, ledger, log, 24*time.Hour)

	ctx := context.Background()
	now := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, records.AppendObservations(ctx, []models.Observation{
		{Timestamp: now.Add(-time.Hour), Asset: "Bitcoin", Source: models.SourceReddit, Text: "a", Sentiment: 0.5},
	}))

	report := r.Build(ctx, []string{"Bitcoin", "Dogecoin"}, now)
	require.Len(t, report.Assets, 2)

	btc := report.Assets[0]
	require.NotNil(t, btc.TrailingMean)
	assert.Equal(t, 0.5, *btc.TrailingMean)
	assert.Equal(t, models.ActionBuy, btc.Action)

	// no data at all: nil mean, hold, no accuracy
	doge := report.Assets[1]
	assert.Nil(t, doge.TrailingMean)
	assert.Equal(t, models.ActionHold, doge.Action)
	assert.Nil(t, doge.Accuracy)
}

func TestFormatAlert(t *testing.T) {
	mean := 0.4123
	acc := 0.75
	latest := &models.PredictionEntry{PredictedPrice: 68340.5, BaselinePrice: 67000}
	report := models.TickReport{
		GeneratedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Assets: []models.AssetReport{
			{
				Asset:        "Bitcoin",
				TrailingMean: &mean,
				Action:       models.ActionBuy,
				Accuracy:     &acc,
				Reconciled:   4,
				AccurateN:    3,
				Latest:       latest,
			},
			{Asset: "Dogecoin", Action: models.ActionHold},
		},
	}

	text := FormatAlert(report)
	assert.True(t, strings.Contains(text, "<b>Bitcoin</b>"))
	assert.True(t, strings.Contains(text, "BUY"))
	assert.True(t, strings.Contains(text, "3/4 correct (75%)"))
	assert.True(t, strings.Contains(text, "$68340.50"))
	assert.True(t, strings.Contains(text, "sentiment n/a"))
}
