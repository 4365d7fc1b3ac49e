package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AlphaPulse/internal/domain/models"
	drepo "AlphaPulse/internal/domain/repository"
	applogger "AlphaPulse/pkg/logger"
)

type pipelineFixture struct {
	records  *memRecordStore
	preds    *memPredictionStore
	alerts   *memAlertStore
	scorer   *stubScorer
	notifier *spyNotifier
	pipeline *Pipeline
}

func newPipelineFixture(t *testing.T, collectors []CollectorSpec, prices drepo.PriceSource) *pipelineFixture {
	t.Helper()
	log := applogger.Nop()

	f := &pipelineFixture{
		records:  newMemRecordStore(),
		preds:    newMemPredictionStore(),
		alerts:   &memAlertStore{},
		scorer:   &stubScorer{scores: map[string]float64{}},
		notifier: &spyNotifier{},
	}

	agg := NewAggregator(f.records)
	ledger := NewLedger(f.preds, f.records, nopMetrics{}, log, time.Hour, 4.0)
	throttle := NewThrottle(f.alerts, log, time.Hour)
	reporter := NewReporter(agg, ledger, log, 24*time.Hour)

	f.pipeline = NewPipeline(
		collectors, f.scorer, f.records, prices,
		agg, ledger, throttle, reporter,
		f.notifier, nil, nopMetrics{}, log,
		[]TrackedAsset{{Name: "Bitcoin", Keywords: []string{"bitcoin", "btc"}}},
		5*time.Second,
		24*time.Hour,
		0.02,
	)
	return f
}

func TestRunTickEndToEnd(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	collector := &stubCollector{
		source: models.SourceReddit,
		byName: map[string][]models.Observation{
			"Bitcoin": {
				{Timestamp: now, Asset: "Bitcoin", Source: models.SourceReddit, Text: "btc surge incoming"},
				{Timestamp: now, Asset: "Bitcoin", Source: models.SourceReddit, Text: "btc looking strong"},
			},
		},
	}
	prices := &stubPrices{prices: map[string]float64{"Bitcoin": 67000}}

	f := newPipelineFixture(t, []CollectorSpec{{Collector: collector, PerAsset: 5}}, prices)
	f.scorer.scores = map[string]float64{
		"btc surge incoming": 0.6,
		"btc looking strong": 0.4,
	}

	report, err := f.pipeline.RunTick(context.Background(), now)
	require.NoError(t, err)

	// observations persisted and scored
	obs, err := f.records.QueryObservations(context.Background(), drepo.ObservationQuery{Asset: "Bitcoin"})
	require.NoError(t, err)
	require.Len(t, obs, 2)

	// summary row with price and buy action
	rows, err := f.records.QuerySummaries(context.Background(), drepo.SummaryQuery{Asset: "Bitcoin"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 0.5, rows[0].MeanSentiment)
	assert.Equal(t, models.ActionBuy, rows[0].Action)
	require.NotNil(t, rows[0].Price)

	// forecast issued: 67000 * (1 + 0.02*0.5) = 67670
	entries, err := f.preds.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, entries["Bitcoin"], 1)
	assert.InDelta(t, 67670.0, entries["Bitcoin"][0].PredictedPrice, 0.001)
	assert.Equal(t, 67000.0, entries["Bitcoin"][0].BaselinePrice)

	// alert sent and cooldown started
	require.Len(t, f.notifier.sent, 1)
	assert.True(t, strings.Contains(f.notifier.sent[0], "Bitcoin"))
	require.NotNil(t, f.alerts.state.LastAlertAt)

	require.Len(t, report.Assets, 1)
	assert.Equal(t, models.ActionBuy, report.Assets[0].Action)
}

func TestRunTickScoresEachTextOnce(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	collector := &stubCollector{
		source: models.SourceReddit,
		byName: map[string][]models.Observation{
			"Bitcoin": {
				{Asset: "Bitcoin", Source: models.SourceReddit, Text: "same headline"},
				{Asset: "Bitcoin", Source: models.SourceReddit, Text: "same headline"},
			},
		},
	}
	f := newPipelineFixture(t, []CollectorSpec{{Collector: collector, PerAsset: 5}}, &stubPrices{})

	_, err := f.pipeline.RunTick(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, f.scorer.calls)
}

func TestRunTickCollectorFailureDegrades(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	broken := &stubCollector{source: models.SourceNews, err: errBoom}
	working := &stubCollector{
		source: models.SourceReddit,
		byName: map[string][]models.Observation{
			"Bitcoin": {{Asset: "Bitcoin", Source: models.SourceReddit, Text: "btc rally"}},
		},
	}
	prices := &stubPrices{prices: map[string]float64{"Bitcoin": 67000}}

	f := newPipelineFixture(t, []CollectorSpec{
		{Collector: broken, PerAsset: 5},
		{Collector: working, PerAsset: 5},
	}, prices)
	f.scorer.scores["btc rally"] = 0.5

	_, err := f.pipeline.RunTick(context.Background(), now)
	require.NoError(t, err)

	obs, err := f.records.QueryObservations(context.Background(), drepo.ObservationQuery{Asset: "Bitcoin"})
	require.NoError(t, err)
	assert.Len(t, obs, 1)
}

func TestRunTickPriceFailureSkipsForecast(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	collector := &stubCollector{
		source: models.SourceReddit,
		byName: map[string][]models.Observation{
			"Bitcoin": {{Asset: "Bitcoin", Source: models.SourceReddit, Text: "btc rally"}},
		},
	}
	f := newPipelineFixture(t, []CollectorSpec{{Collector: collector, PerAsset: 5}}, &stubPrices{err: errBoom})

	_, err := f.pipeline.RunTick(context.Background(), now)
	require.NoError(t, err)

	// summary row written without a price
	rows, err := f.records.QuerySummaries(context.Background(), drepo.SummaryQuery{Asset: "Bitcoin"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Price)

	// no baseline, no forecast
	entries, err := f.preds.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries["Bitcoin"])
}

func TestRunTickFatalStoreAborts(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	collector := &stubCollector{
		source: models.SourceReddit,
		byName: map[string][]models.Observation{
			"Bitcoin": {{Asset: "Bitcoin", Source: models.SourceReddit, Text: "btc rally"}},
		},
	}
	f := newPipelineFixture(t, []CollectorSpec{{Collector: collector, PerAsset: 5}}, &stubPrices{})
	f.records.appendObsErr = models.Fatal(errBoom)

	_, err := f.pipeline.RunTick(context.Background(), now)
	require.Error(t, err)
	assert.Empty(t, f.notifier.sent)
}

func TestRunTickThrottleGatesAlert(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	collector := &stubCollector{
		source: models.SourceReddit,
		byName: map[string][]models.Observation{
			"Bitcoin": {{Asset: "Bitcoin", Source: models.SourceReddit, Text: "btc rally"}},
		},
	}
	f := newPipelineFixture(t, []CollectorSpec{{Collector: collector, PerAsset: 5}}, &stubPrices{})

	recent := now.Add(-10 * time.Minute)
	f.alerts.state.LastAlertAt = &recent

	_, err := f.pipeline.RunTick(context.Background(), now)
	require.NoError(t, err)
	assert.Empty(t, f.notifier.sent)
	// cooldown unchanged
	assert.True(t, f.alerts.state.LastAlertAt.Equal(recent))
}

func TestRunTickFailedDeliveryKeepsCooldownOpen(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	collector := &stubCollector{
		source: models.SourceReddit,
		byName: map[string][]models.Observation{
			"Bitcoin": {{Asset: "Bitcoin", Source: models.SourceReddit, Text: "btc rally"}},
		},
	}
	f := newPipelineFixture(t, []CollectorSpec{{Collector: collector, PerAsset: 5}}, &stubPrices{})
	f.notifier.err = errBoom

	_, err := f.pipeline.RunTick(context.Background(), now)
	require.NoError(t, err)
	assert.Nil(t, f.alerts.state.LastAlertAt)
}
