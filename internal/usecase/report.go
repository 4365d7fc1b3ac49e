package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"AlphaPulse/internal/domain/models"
	"AlphaPulse/pkg/logger"
)

// Reporter assembles the per-tick report shown in alerts and served over
// the API: trailing sentiment, suggested action, and forecast accuracy
// per tracked asset.
type Reporter struct {
	agg    *Aggregator
	ledger *Ledger
	log    *logger.Logger
	window time.Duration
}

// NewReporter creates a new Reporter instance.
func NewReporter(agg *Aggregator, ledger *Ledger, log *logger.Logger, window time.Duration) *Reporter {
	return &Reporter{agg: agg, ledger: ledger, log: log, window: window}
}

// Build produces a report for the given assets as of now. Per-asset
// failures are logged and yield a partial entry rather than failing the
// whole report.
func (r *Reporter) Build(ctx context.Context, assets []string, now time.Time) models.TickReport {
	report := models.TickReport{
		GeneratedAt: now,
		Window:      r.window,
		Assets:      make([]models.AssetReport, 0, len(assets)),
	}

	for _, asset := range assets {
		ar := models.AssetReport{Asset: asset, Action: models.ActionHold}

		mean, ok, err := r.agg.TrailingMean(ctx, asset, "", r.window, now)
		if err != nil {
			r.log.Warn("trailing mean failed",
				logger.String("asset", asset),
				logger.Error(err))
		} else if ok {
			m := mean
			ar.TrailingMean = &m
			ar.Action = models.ActionForSentiment(mean)
		}

		reconciled, accurate, err := r.ledger.Stats(ctx, asset)
		if err != nil {
			r.log.Warn("ledger stats failed",
				logger.String("asset", asset),
				logger.Error(err))
		} else {
			ar.Reconciled = reconciled
			ar.AccurateN = accurate
			if reconciled > 0 {
				acc := float64(accurate) / float64(reconciled)
				ar.Accuracy = &acc
			}
		}

		latest, err := r.ledger.Latest(ctx, asset)
		if err != nil {
			r.log.Warn("latest prediction lookup failed",
				logger.String("asset", asset),
				logger.Error(err))
		} else {
			ar.Latest = latest
		}

		report.Assets = append(report.Assets, ar)
	}

	return report
}

// FormatAlert renders the report as an HTML-formatted message suitable for
// Telegram.
func FormatAlert(report models.TickReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>AlphaPulse report</b> %s\n", report.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"))

	for _, ar := range report.Assets {
		fmt.Fprintf(&b, "\n<b>%s</b>\n", ar.Asset)
		if ar.TrailingMean != nil {
			fmt.Fprintf(&b, "sentiment %+.4f → %s\n", *ar.TrailingMean, actionLabel(ar.Action))
		} else {
			b.WriteString("sentiment n/a\n")
		}
		if ar.Latest != nil {
			fmt.Fprintf(&b, "forecast $%.2f (from $%.2f)\n", ar.Latest.PredictedPrice, ar.Latest.BaselinePrice)
		}
		if ar.Reconciled > 0 {
			fmt.Fprintf(&b, "accuracy %d/%d correct (%.0f%%)\n",
				ar.AccurateN, ar.Reconciled,
				float64(ar.AccurateN)/float64(ar.Reconciled)*100)
		}
	}

	return b.String()
}

func actionLabel(a models.Action) string {
	switch a {
	case models.ActionBuy:
		return "BUY"
	case models.ActionSell:
		return "SELL"
	default:
		return "HOLD"
	}
}
