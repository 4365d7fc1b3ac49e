package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"AlphaPulse/internal/domain/models"
	drepo "AlphaPulse/internal/domain/repository"
	"AlphaPulse/pkg/util"
)

// Aggregator folds scored observations into per-asset, per-source summary
// rows and computes trailing sentiment means over the record store.
type Aggregator struct {
	records drepo.RecordStore
}

// NewAggregator creates a new Aggregator instance.
func NewAggregator(records drepo.RecordStore) *Aggregator {
	return &Aggregator{records: records}
}

type groupKey struct {
	asset  string
	source models.Source
}

// Summarize groups a batch of observations by asset and source and emits
// one summary row per non-empty group, stamped with the tick time. Groups
// with no observations produce no row. Prices are attached only for assets
// present in the prices map.
func (a *Aggregator) Summarize(batch []models.Observation, tick time.Time, prices map[string]float64) []models.SummaryRow {
	if len(batch) == 0 {
		return nil
	}

	sums := make(map[groupKey]float64)
	counts := make(map[groupKey]int)
	for _, obs := range batch {
		k := groupKey{asset: obs.Asset, source: obs.Source}
		sums[k] += obs.Sentiment
		counts[k]++
	}

	rows := make([]models.SummaryRow, 0, len(sums))
	for k, sum := range sums {
		mean := util.Round4(sum / float64(counts[k]))
		row := models.SummaryRow{
			Timestamp:     tick,
			Asset:         k.asset,
			Source:        k.source,
			Count:         counts[k],
			MeanSentiment: mean,
			Action:        models.ActionForSentiment(mean),
		}
		if price, ok := prices[k.asset]; ok {
			p := price
			row.Price = &p
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Asset != rows[j].Asset {
			return rows[i].Asset < rows[j].Asset
		}
		return rows[i].Source < rows[j].Source
	})

	return rows
}

// TrailingMean returns the mean sentiment over observations for the asset
// within the window ending at now. The second return is false when the
// window holds no observations. An empty source matches all sources.
func (a *Aggregator) TrailingMean(ctx context.Context, asset string, source models.Source, window time.Duration, now time.Time) (float64, bool, error) {
	obs, err := a.records.QueryObservations(ctx, drepo.ObservationQuery{
		Asset:  asset,
		Source: source,
		Since:  now.Add(-window),
		Until:  now,
	})
	if err != nil {
		return 0, false, fmt.Errorf("query observations: %w", err)
	}
	if len(obs) == 0 {
		return 0, false, nil
	}

	var sum float64
	for _, o := range obs {
		sum += o.Sentiment
	}
	return util.Round4(sum / float64(len(obs))), true, nil
}
