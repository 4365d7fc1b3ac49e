package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AlphaPulse/internal/domain/models"
	applogger "AlphaPulse/pkg/logger"
)

func newTestLedger(records *memRecordStore, preds *memPredictionStore) *Ledger {
	return NewLedger(preds, records, nopMetrics{}, applogger.Nop(), time.Hour, 4.0)
}

func summaryAt(ts time.Time, asset string, price float64) models.SummaryRow {
	return models.SummaryRow{
		Timestamp:     ts,
		Asset:         asset,
		Source:        models.SourceReddit,
		Count:         1,
		MeanSentiment: 0,
		Price:         &price,
		Action:        models.ActionHold,
	}
}

func TestIssueAppendsPending(t *testing.T) {
	preds := newMemPredictionStore()
	l := newTestLedger(newMemRecordStore(), preds)
	ctx := context.Background()
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, l.Issue(ctx, "Bitcoin", ts, 68340, 67000))

	entries, err := preds.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries["Bitcoin"], 1)
	p := entries["Bitcoin"][0]
	assert.False(t, p.Reconciled())
	assert.Equal(t, 68340.0, p.PredictedPrice)
	assert.Equal(t, 67000.0, p.BaselinePrice)
}

func TestReconcileUsesFirstRowPastHorizon(t *testing.T) {
	records := newMemRecordStore()
	preds := newMemPredictionStore()
	l := newTestLedger(records, preds)
	ctx := context.Background()
	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, l.Issue(ctx, "Bitcoin", issued, 68000, 67000))

	// one row inside the horizon, two past it
	require.NoError(t, records.AppendSummaries(ctx, []models.SummaryRow{
		summaryAt(issued.Add(30*time.Minute), "Bitcoin", 60000),
		summaryAt(issued.Add(90*time.Minute), "Bitcoin", 69333),
		summaryAt(issued.Add(3*time.Hour), "Bitcoin", 70000),
	}))

	resolved, err := l.Reconcile(ctx, issued.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, resolved, 1)

	p := resolved[0]
	require.NotNil(t, p.ActualPrice)
	// the 30-minute row is inside the horizon and must not be used
	assert.Equal(t, 69333.0, *p.ActualPrice)
	// |68000-69333|/69333*100 = 1.9226 <= 4.0
	assert.InDelta(t, 1.9226, *p.ErrorPct, 0.0001)
	require.NotNil(t, p.Accurate)
	assert.True(t, *p.Accurate)
}

func TestReconcileInaccurateOutsideTolerance(t *testing.T) {
	records := newMemRecordStore()
	preds := newMemPredictionStore()
	l := newTestLedger(records, preds)
	ctx := context.Background()
	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, l.Issue(ctx, "Bitcoin", issued, 68000, 67000))
	require.NoError(t, records.AppendSummaries(ctx, []models.SummaryRow{
		summaryAt(issued.Add(2*time.Hour), "Bitcoin", 60000),
	}))

	resolved, err := l.Reconcile(ctx, issued.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.False(t, *resolved[0].Accurate)
}

func TestReconcileSkipsBeforeHorizon(t *testing.T) {
	records := newMemRecordStore()
	preds := newMemPredictionStore()
	l := newTestLedger(records, preds)
	ctx := context.Background()
	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, l.Issue(ctx, "Bitcoin", issued, 68000, 67000))
	require.NoError(t, records.AppendSummaries(ctx, []models.SummaryRow{
		summaryAt(issued.Add(30*time.Minute), "Bitcoin", 69000),
	}))

	// horizon not elapsed yet
	resolved, err := l.Reconcile(ctx, issued.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, resolved)
}

func TestReconcileStaysPendingWithoutPricedRow(t *testing.T) {
	records := newMemRecordStore()
	preds := newMemPredictionStore()
	l := newTestLedger(records, preds)
	ctx := context.Background()
	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, l.Issue(ctx, "Bitcoin", issued, 68000, 67000))

	// the only row past the horizon has no price
	row := models.SummaryRow{
		Timestamp: issued.Add(2 * time.Hour),
		Asset:     "Bitcoin",
		Source:    models.SourceReddit,
		Action:    models.ActionHold,
	}
	require.NoError(t, records.AppendSummaries(ctx, []models.SummaryRow{row}))

	resolved, err := l.Reconcile(ctx, issued.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, resolved)

	entries, _ := preds.Load(ctx)
	assert.False(t, entries["Bitcoin"][0].Reconciled())
}

func TestReconcileIsTerminal(t *testing.T) {
	records := newMemRecordStore()
	preds := newMemPredictionStore()
	l := newTestLedger(records, preds)
	ctx := context.Background()
	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, l.Issue(ctx, "Bitcoin", issued, 68000, 67000))
	require.NoError(t, records.AppendSummaries(ctx, []models.SummaryRow{
		summaryAt(issued.Add(2*time.Hour), "Bitcoin", 68000),
	}))

	resolved, err := l.Reconcile(ctx, issued.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	first := *resolved[0].ActualPrice

	// a later, different row must not change the outcome
	require.NoError(t, records.AppendSummaries(ctx, []models.SummaryRow{
		summaryAt(issued.Add(4*time.Hour), "Bitcoin", 99999),
	}))
	resolved, err = l.Reconcile(ctx, issued.Add(5*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, resolved)

	entries, _ := preds.Load(ctx)
	assert.Equal(t, first, *entries["Bitcoin"][0].ActualPrice)
}

func TestReconcileLoadErrorIsRetryable(t *testing.T) {
	preds := newMemPredictionStore()
	preds.loadErr = errBoom
	l := newTestLedger(newMemRecordStore(), preds)

	_, err := l.Reconcile(context.Background(), time.Now())
	require.Error(t, err)
	assert.False(t, models.IsFatal(err))
}

func TestReconcileSaveErrorIsFatal(t *testing.T) {
	records := newMemRecordStore()
	preds := newMemPredictionStore()
	l := newTestLedger(records, preds)
	ctx := context.Background()
	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, l.Issue(ctx, "Bitcoin", issued, 68000, 67000))
	require.NoError(t, records.AppendSummaries(ctx, []models.SummaryRow{
		summaryAt(issued.Add(2*time.Hour), "Bitcoin", 68000),
	}))

	preds.saveErr = errBoom
	_, err := l.Reconcile(ctx, issued.Add(3*time.Hour))
	require.Error(t, err)
	assert.True(t, models.IsFatal(err))
}

func TestAccuracyOverWindow(t *testing.T) {
	preds := newMemPredictionStore()
	l := newTestLedger(newMemRecordStore(), preds)
	ctx := context.Background()
	now := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)

	yes, no := true, false
	actual := 68000.0
	preds.entries = map[string][]models.PredictionEntry{
		"Bitcoin": {
			{IssuedAt: now.Add(-2 * time.Hour), Asset: "Bitcoin", ActualPrice: &actual, Accurate: &yes},
			{IssuedAt: now.Add(-3 * time.Hour), Asset: "Bitcoin", ActualPrice: &actual, Accurate: &yes},
			{IssuedAt: now.Add(-4 * time.Hour), Asset: "Bitcoin", ActualPrice: &actual, Accurate: &no},
			// pending, ignored
			{IssuedAt: now.Add(-5 * time.Hour), Asset: "Bitcoin"},
			// outside the window, ignored
			{IssuedAt: now.Add(-48 * time.Hour), Asset: "Bitcoin", ActualPrice: &actual, Accurate: &no},
		},
	}

	acc, ok, err := l.AccuracyOverWindow(ctx, "Bitcoin", 24*time.Hour, now)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 2.0/3.0, acc, 1e-9)

	_, ok, err = l.AccuracyOverWindow(ctx, "Ethereum", 24*time.Hour, now)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLatest(t *testing.T) {
	preds := newMemPredictionStore()
	l := newTestLedger(newMemRecordStore(), preds)
	ctx := context.Background()
	now := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)

	preds.entries = map[string][]models.PredictionEntry{
		"Bitcoin": {
			{IssuedAt: now.Add(-3 * time.Hour), Asset: "Bitcoin", PredictedPrice: 1},
			{IssuedAt: now.Add(-1 * time.Hour), Asset: "Bitcoin", PredictedPrice: 2},
			{IssuedAt: now.Add(-2 * time.Hour), Asset: "Bitcoin", PredictedPrice: 3},
		},
	}

	latest, err := l.Latest(ctx, "Bitcoin")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 2.0, latest.PredictedPrice)

	latest, err = l.Latest(ctx, "Ethereum")
	require.NoError(t, err)
	assert.Nil(t, latest)
}
