package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"AlphaPulse/internal/domain/models"
	drepo "AlphaPulse/internal/domain/repository"
	"AlphaPulse/pkg/logger"
	"AlphaPulse/pkg/util"
)

// Ledger issues price forecasts and reconciles them against summary rows
// once the forecast horizon has elapsed.
type Ledger struct {
	preds        drepo.PredictionStore
	records      drepo.RecordStore
	metrics      drepo.Metrics
	log          *logger.Logger
	horizon      time.Duration
	tolerancePct float64
}

// NewLedger creates a new Ledger instance.
func NewLedger(
	preds drepo.PredictionStore,
	records drepo.RecordStore,
	metrics drepo.Metrics,
	log *logger.Logger,
	horizon time.Duration,
	tolerancePct float64,
) *Ledger {
	return &Ledger{
		preds:        preds,
		records:      records,
		metrics:      metrics,
		log:          log,
		horizon:      horizon,
		tolerancePct: tolerancePct,
	}
}

// Issue appends a new pending prediction for the asset. The predicted price
// is derived upstream; the ledger only records and persists it.
func (l *Ledger) Issue(ctx context.Context, asset string, issuedAt time.Time, predicted, baseline float64) error {
	entries, err := l.preds.Load(ctx)
	if err != nil {
		return fmt.Errorf("load predictions: %w", err)
	}

	entries[asset] = append(entries[asset], models.PredictionEntry{
		IssuedAt:       issuedAt,
		Asset:          asset,
		PredictedPrice: predicted,
		BaselinePrice:  baseline,
	})

	if err := l.preds.Save(ctx, entries); err != nil {
		return models.Fatal(fmt.Errorf("save predictions: %w", err))
	}

	l.metrics.RecordPredictionIssued(asset)
	return nil
}

// Reconcile resolves every pending prediction whose horizon has elapsed and
// for which a priced summary row exists at or past the horizon. It returns
// the entries resolved this pass. Reconciliation is terminal: resolved
// entries are never revisited.
func (l *Ledger) Reconcile(ctx context.Context, now time.Time) ([]models.PredictionEntry, error) {
	entries, err := l.preds.Load(ctx)
	if err != nil {
		// Not fatal for the tick; the next run retries.
		return nil, fmt.Errorf("load predictions: %w", err)
	}

	var resolved []models.PredictionEntry
	for asset, preds := range entries {
		for i := range preds {
			p := &preds[i]
			if p.Reconciled() {
				continue
			}
			if now.Sub(p.IssuedAt) < l.horizon {
				continue
			}

			actual, ok, err := l.outcomePrice(ctx, asset, p.IssuedAt)
			if err != nil {
				l.log.Warn("reconcile lookup failed",
					logger.String("asset", asset),
					logger.Error(err))
				continue
			}
			if !ok {
				// No priced row past the horizon yet; stays pending.
				continue
			}

			errorPct := util.Round4(math.Abs(p.PredictedPrice-actual) / actual * 100)
			accurate := errorPct <= l.tolerancePct

			p.ActualPrice = &actual
			p.ErrorPct = &errorPct
			p.Accurate = &accurate
			resolved = append(resolved, *p)

			l.metrics.RecordPredictionReconciled(asset, accurate)
		}
		entries[asset] = preds
	}

	if len(resolved) == 0 {
		return nil, nil
	}

	if err := l.preds.Save(ctx, entries); err != nil {
		return resolved, models.Fatal(fmt.Errorf("save predictions: %w", err))
	}
	return resolved, nil
}

// outcomePrice finds the price of the earliest summary row at or past the
// forecast horizon from issuedAt. Rows without a usable price are skipped.
func (l *Ledger) outcomePrice(ctx context.Context, asset string, issuedAt time.Time) (float64, bool, error) {
	rows, err := l.records.QuerySummaries(ctx, drepo.SummaryQuery{
		Asset: asset,
		Since: issuedAt.Add(l.horizon),
	})
	if err != nil {
		return 0, false, fmt.Errorf("query summaries: %w", err)
	}
	for _, row := range rows {
		if row.Price != nil && *row.Price != 0 {
			return *row.Price, true, nil
		}
	}
	return 0, false, nil
}

// AccuracyOverWindow returns the fraction of reconciled predictions issued
// within the window that were accurate. The second return is false when no
// reconciled predictions fall in the window.
func (l *Ledger) AccuracyOverWindow(ctx context.Context, asset string, window time.Duration, now time.Time) (float64, bool, error) {
	entries, err := l.preds.Load(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("load predictions: %w", err)
	}

	cutoff := now.Add(-window)
	total, accurate := 0, 0
	for _, p := range entries[asset] {
		if !p.Reconciled() || p.IssuedAt.Before(cutoff) {
			continue
		}
		total++
		if p.Accurate != nil && *p.Accurate {
			accurate++
		}
	}
	if total == 0 {
		return 0, false, nil
	}
	return float64(accurate) / float64(total), true, nil
}

// Latest returns the most recently issued prediction for the asset, or nil
// when none exists.
func (l *Ledger) Latest(ctx context.Context, asset string) (*models.PredictionEntry, error) {
	entries, err := l.preds.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load predictions: %w", err)
	}
	preds := entries[asset]
	if len(preds) == 0 {
		return nil, nil
	}

	latest := preds[0]
	for _, p := range preds[1:] {
		if p.IssuedAt.After(latest.IssuedAt) {
			latest = p
		}
	}
	return &latest, nil
}

// Stats reports reconciled and accurate counts over the whole ledger for
// the asset, for accuracy summaries in reports and alerts.
func (l *Ledger) Stats(ctx context.Context, asset string) (reconciled, accurate int, err error) {
	entries, err := l.preds.Load(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("load predictions: %w", err)
	}
	for _, p := range entries[asset] {
		if !p.Reconciled() {
			continue
		}
		reconciled++
		if p.Accurate != nil && *p.Accurate {
			accurate++
		}
	}
	return reconciled, accurate, nil
}
