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
	drepo "AlphaPulse/internal/domain/repository"
	applogger "AlphaPulse/pkg/logger"
)

func newRecordStore(t *testing.T) (*FileRecordStore, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewFileRecordStore(dir, "observations.csv", "summaries.csv", applogger.Nop())
	require.NoError(t, err)
	return s, dir
}

func obs(ts time.Time, asset string, source models.Source, text string, sentiment float64) models.Observation {
	return models.Observation{
		Timestamp: ts,
		Asset:     asset,
		Source:    source,
		Text:      text,
		Sentiment: sentiment,
	}
}

func TestAppendObservationsDeduplicates(t *testing.T) {
	s, _ := newRecordStore(t)
	ctx := context.Background()
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	batch := []models.Observation{
		obs(ts, "Bitcoin", models.SourceReddit, "btc to the moon", 0.8),
		obs(ts, "Bitcoin", models.SourceReddit, "btc to the moon", 0.8),
	}
	require.NoError(t, s.AppendObservations(ctx, batch))
	// second append of the same batch must not duplicate
	require.NoError(t, s.AppendObservations(ctx, batch))

	got, err := s.QueryObservations(ctx, drepo.ObservationQuery{Asset: "Bitcoin"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestAppendObservationsLastWriteWins(t *testing.T) {
	s, _ := newRecordStore(t)
	ctx := context.Background()
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.AppendObservations(ctx, []models.Observation{
		obs(ts, "Bitcoin", models.SourceReddit, "btc pumping", 0.5),
	}))
	require.NoError(t, s.AppendObservations(ctx, []models.Observation{
		obs(ts, "Bitcoin", models.SourceReddit, "btc pumping", 0.9),
	}))

	got, err := s.QueryObservations(ctx, drepo.ObservationQuery{Asset: "Bitcoin"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 0.9, got[0].Sentiment)
}

func TestAppendObservationsEmptyBatchNoFile(t *testing.T) {
	s, dir := newRecordStore(t)

	require.NoError(t, s.AppendObservations(context.Background(), nil))
	_, err := os.Stat(filepath.Join(dir, "observations.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestQueryObservationsFiltersAndSorts(t *testing.T) {
	s, _ := newRecordStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.AppendObservations(ctx, []models.Observation{
		obs(base.Add(3*time.Hour), "Bitcoin", models.SourceNews, "bitcoin rallies", 0.6),
		obs(base.Add(1*time.Hour), "Bitcoin", models.SourceReddit, "btc dropping", -0.4),
		obs(base.Add(2*time.Hour), "Ethereum", models.SourceReddit, "eth upgrade", 0.3),
	}))

	got, err := s.QueryObservations(ctx, drepo.ObservationQuery{Asset: "Bitcoin"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Timestamp.Before(got[1].Timestamp))

	got, err = s.QueryObservations(ctx, drepo.ObservationQuery{
		Asset:  "Bitcoin",
		Source: models.SourceReddit,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "btc dropping", got[0].Text)

	got, err = s.QueryObservations(ctx, drepo.ObservationQuery{
		Asset: "Bitcoin",
		Since: base.Add(2 * time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "bitcoin rallies", got[0].Text)
}

func TestReadLegacyHeaderAliases(t *testing.T) {
	s, dir := newRecordStore(t)

	legacy := "Timestamp,Coin,Source,Content,Sentiment\n" +
		"2025-03-01T12:00:00Z,Bitcoin,Reddit,old row,0.25\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "observations.csv"), []byte(legacy), 0o644))

	got, err := s.QueryObservations(context.Background(), drepo.ObservationQuery{Asset: "Bitcoin"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "old row", got[0].Text)
	assert.Equal(t, models.SourceReddit, got[0].Source)
	assert.Equal(t, 0.25, got[0].Sentiment)
}

func TestReadSkipsMalformedRows(t *testing.T) {
	s, dir := newRecordStore(t)

	raw := "timestamp,asset,source,text,sentiment,link\n" +
		"2025-03-01T12:00:00Z,Bitcoin,reddit,good row,0.5,\n" +
		"not-a-time,Bitcoin,reddit,bad row,0.5,\n" +
		"2025-03-01T13:00:00Z,Bitcoin,reddit,another good row,not-a-number,\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "observations.csv"), []byte(raw), 0o644))

	got, err := s.QueryObservations(context.Background(), drepo.ObservationQuery{Asset: "Bitcoin"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "good row", got[0].Text)
}

func TestCorruptFileTreatedAsEmpty(t *testing.T) {
	s, dir := newRecordStore(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "observations.csv"), []byte("\"unterminated\n"), 0o644))

	got, err := s.QueryObservations(ctx, drepo.ObservationQuery{Asset: "Bitcoin"})
	require.NoError(t, err)
	assert.Empty(t, got)

	// appending over the corrupt file starts a fresh collection
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.AppendObservations(ctx, []models.Observation{
		obs(ts, "Bitcoin", models.SourceReddit, "fresh start", 0.1),
	}))
	got, err = s.QueryObservations(ctx, drepo.ObservationQuery{Asset: "Bitcoin"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestAppendSummariesDedupAndPrice(t *testing.T) {
	s, _ := newRecordStore(t)
	ctx := context.Background()
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	price := 67000.5

	rows := []models.SummaryRow{
		{Timestamp: ts, Asset: "Bitcoin", Source: models.SourceReddit, Count: 3, MeanSentiment: 0.31, Price: &price, Action: models.ActionBuy},
		{Timestamp: ts, Asset: "Bitcoin", Source: models.SourceNews, Count: 2, MeanSentiment: 0.05, Action: models.ActionHold},
	}
	require.NoError(t, s.AppendSummaries(ctx, rows))
	require.NoError(t, s.AppendSummaries(ctx, rows))

	got, err := s.QuerySummaries(ctx, drepo.SummaryQuery{Asset: "Bitcoin"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	for _, row := range got {
		switch row.Source {
		case models.SourceReddit:
			require.NotNil(t, row.Price)
			assert.Equal(t, price, *row.Price)
			assert.Equal(t, 3, row.Count)
		case models.SourceNews:
			// missing price survives the round trip as nil, not 0
			assert.Nil(t, row.Price)
		}
	}
}

func TestNormalizeLegacyActionLabels(t *testing.T) {
	s, dir := newRecordStore(t)

	raw := "timestamp,asset,source,count,mean_sentiment,price,action\n" +
		"2025-03-01T12:00:00Z,Bitcoin,reddit,1,0.5,67000,Consider Buying\n" +
		"2025-03-01T13:00:00Z,Bitcoin,reddit,1,-0.5,66000,SELL NOW\n" +
		"2025-03-01T14:00:00Z,Bitcoin,reddit,1,0.0,66500,neutral\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "summaries.csv"), []byte(raw), 0o644))

	got, err := s.QuerySummaries(context.Background(), drepo.SummaryQuery{Asset: "Bitcoin"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, models.ActionBuy, got[0].Action)
	assert.Equal(t, models.ActionSell, got[1].Action)
	assert.Equal(t, models.ActionHold, got[2].Action)
}
