package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AlphaPulse/internal/domain/models"
	applogger "AlphaPulse/pkg/logger"
)

func newPredictionStore(t *testing.T) (*FilePredictionStore, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewFilePredictionStore(dir, "prediction_log.json", applogger.Nop())
	require.NoError(t, err)
	return s, dir
}

func TestPredictionStoreMissingFileIsEmpty(t *testing.T) {
	s, _ := newPredictionStore(t)

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPredictionStoreRoundTrip(t *testing.T) {
	s, _ := newPredictionStore(t)
	ctx := context.Background()
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	actual := 68200.0
	errorPct := 1.2
	accurate := true
	entries := map[string][]models.PredictionEntry{
		"Bitcoin": {
			{IssuedAt: ts, Asset: "Bitcoin", PredictedPrice: 68000, BaselinePrice: 67000},
			{IssuedAt: ts.Add(-time.Hour), Asset: "Bitcoin", PredictedPrice: 67500, BaselinePrice: 67000,
				ActualPrice: &actual, ErrorPct: &errorPct, Accurate: &accurate},
		},
	}
	require.NoError(t, s.Save(ctx, entries))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got["Bitcoin"], 2)

	pending := got["Bitcoin"][0]
	assert.False(t, pending.Reconciled())
	assert.Nil(t, pending.ActualPrice)

	done := got["Bitcoin"][1]
	require.True(t, done.Reconciled())
	assert.Equal(t, actual, *done.ActualPrice)
	assert.Equal(t, accurate, *done.Accurate)
}

func TestPredictionStoreSkipsCorruptEntries(t *testing.T) {
	s, dir := newPredictionStore(t)

	raw := `{"Bitcoin": [` +
		`{"timestamp":"2025-03-01T12:00:00Z","predicted":68000,"baseline":67000},` +
		`{"predicted":"not-a-number"},` +
		`{"timestamp":"2025-03-01T13:00:00Z","predicted":68100,"baseline":67100}` +
		`]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prediction_log.json"), []byte(raw), 0o644))

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got["Bitcoin"], 2)
	// asset is filled from the map key
	assert.Equal(t, "Bitcoin", got["Bitcoin"][0].Asset)
}

func TestPredictionStoreWholeDocCorruptErrors(t *testing.T) {
	s, dir := newPredictionStore(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "prediction_log.json"), []byte("{broken"), 0o644))

	_, err := s.Load(context.Background())
	assert.Error(t, err)
}

func TestAlertStateStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileAlertStateStore(dir, "alert_state.json", applogger.Nop())
	require.NoError(t, err)
	ctx := context.Background()

	// missing file means never alerted
	state, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, state.LastAlertAt)

	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Save(ctx, models.AlertState{LastAlertAt: &ts}))

	state, err = s.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, state.LastAlertAt)
	assert.True(t, state.LastAlertAt.Equal(ts))
}

func TestAlertStateStoreCorruptFileAllows(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileAlertStateStore(dir, "alert_state.json", applogger.Nop())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "alert_state.json"), []byte("{broken"), 0o644))

	state, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, state.LastAlertAt)
}
