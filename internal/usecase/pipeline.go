package usecase

import (
	"context"
	"fmt"
	"time"

	"AlphaPulse/internal/domain/models"
	drepo "AlphaPulse/internal/domain/repository"
	"AlphaPulse/pkg/logger"
)

// TrackedAsset is one asset the pipeline collects, scores and forecasts.
type TrackedAsset struct {
	Name     string
	Keywords []string
}

// CollectorSpec pairs a collector with its per-asset item budget.
type CollectorSpec struct {
	Collector drepo.Collector
	PerAsset  int
}

// Pipeline runs one full tick: collect, score, persist, summarize,
// forecast, reconcile and alert. Notifier and feed are optional; a nil
// value disables that stage.
type Pipeline struct {
	collectors []CollectorSpec
	scorer     drepo.Scorer
	records    drepo.RecordStore
	prices     drepo.PriceSource
	agg        *Aggregator
	ledger     *Ledger
	throttle   *Throttle
	reporter   *Reporter
	notifier   drepo.Notifier
	feed       drepo.FeedPublisher
	metrics    drepo.Metrics
	log        *logger.Logger

	assets         []TrackedAsset
	collectTimeout time.Duration
	window         time.Duration
	sensitivity    float64
}

// NewPipeline creates a new Pipeline instance.
func NewPipeline(
	collectors []CollectorSpec,
	scorer drepo.Scorer,
	records drepo.RecordStore,
	prices drepo.PriceSource,
	agg *Aggregator,
	ledger *Ledger,
	throttle *Throttle,
	reporter *Reporter,
	notifier drepo.Notifier,
	feed drepo.FeedPublisher,
	metrics drepo.Metrics,
	log *logger.Logger,
	assets []TrackedAsset,
	collectTimeout time.Duration,
	window time.Duration,
	sensitivity float64,
) *Pipeline {
	return &Pipeline{
		collectors:     collectors,
		scorer:         scorer,
		records:        records,
		prices:         prices,
		agg:            agg,
		ledger:         ledger,
		throttle:       throttle,
		reporter:       reporter,
		notifier:       notifier,
		feed:           feed,
		metrics:        metrics,
		log:            log,
		assets:         assets,
		collectTimeout: collectTimeout,
		window:         window,
		sensitivity:    sensitivity,
	}
}

// RunTick executes one tick as of now and returns the resulting report.
// Collector and price failures degrade the tick; store write failures
// abort it.
func (p *Pipeline) RunTick(ctx context.Context, now time.Time) (models.TickReport, error) {
	start := time.Now()
	defer func() {
		p.metrics.RecordTickDuration(time.Since(start).Seconds())
	}()

	batch := p.collect(ctx, now)
	if len(batch) > 0 {
		if err := p.records.AppendObservations(ctx, batch); err != nil {
			p.metrics.RecordError("append_observations")
			return models.TickReport{}, fmt.Errorf("append observations: %w", err)
		}
	}

	prices := p.fetchPrices(ctx)

	rows := p.agg.Summarize(batch, now, prices)
	if len(rows) > 0 {
		if err := p.records.AppendSummaries(ctx, rows); err != nil {
			p.metrics.RecordError("append_summaries")
			return models.TickReport{}, fmt.Errorf("append summaries: %w", err)
		}
		p.metrics.RecordSummaries(len(rows))
	}

	if err := p.issueForecasts(ctx, prices, now); err != nil {
		return models.TickReport{}, err
	}

	resolved, err := p.ledger.Reconcile(ctx, now)
	if err != nil {
		if models.IsFatal(err) {
			return models.TickReport{}, fmt.Errorf("reconcile: %w", err)
		}
		p.metrics.RecordError("reconcile")
		p.log.Warn("reconciliation failed, will retry next tick", logger.Error(err))
	}

	p.publishFeed(ctx, rows, resolved)

	names := make([]string, 0, len(p.assets))
	for _, a := range p.assets {
		names = append(names, a.Name)
	}
	report := p.reporter.Build(ctx, names, now)

	p.alert(ctx, report, now)

	p.log.Info("tick complete",
		logger.Int("observations", len(batch)),
		logger.Int("summary_rows", len(rows)),
		logger.Int("reconciled", len(resolved)),
		logger.Duration("took", time.Since(start)))

	return report, nil
}

// collect gathers and scores observations from every collector for every
// asset. Each text is scored once; repeated texts reuse the score.
func (p *Pipeline) collect(ctx context.Context, now time.Time) []models.Observation {
	var batch []models.Observation
	scores := make(map[string]float64)

	for _, spec := range p.collectors {
		source := spec.Collector.Source()
		for _, asset := range p.assets {
			cctx, cancel := context.WithTimeout(ctx, p.collectTimeout)
			obs, err := spec.Collector.Collect(cctx, asset.Name, asset.Keywords, spec.PerAsset)
			cancel()
			if err != nil {
				p.metrics.RecordError("collect")
				p.log.Warn("collector failed",
					logger.String("source", string(source)),
					logger.String("asset", asset.Name),
					logger.Error(err))
				continue
			}

			for i := range obs {
				o := &obs[i]
				if o.Timestamp.IsZero() {
					o.Timestamp = now
				}
				score, ok := scores[o.Text]
				if !ok {
					score = p.scorer.Score(o.Text)
					scores[o.Text] = score
				}
				o.Sentiment = score
			}

			batch = append(batch, obs...)
			p.metrics.RecordObservations(asset.Name, string(source), len(obs))
		}
	}

	return batch
}

// fetchPrices is best effort: a failed or partial fetch leaves the affected
// summary rows without a price rather than failing the tick.
func (p *Pipeline) fetchPrices(ctx context.Context) map[string]float64 {
	if p.prices == nil {
		return nil
	}

	names := make([]string, 0, len(p.assets))
	for _, a := range p.assets {
		names = append(names, a.Name)
	}

	prices, err := p.prices.Fetch(ctx, names)
	if err != nil {
		p.metrics.RecordError("prices")
		p.log.Warn("price fetch failed", logger.Error(err))
		return nil
	}
	for asset, price := range prices {
		p.metrics.RecordLastPrice(asset, price)
	}
	return prices
}

// issueForecasts records one prediction per asset that has both a current
// price and trailing sentiment: predicted = price * (1 + sensitivity*mean).
func (p *Pipeline) issueForecasts(ctx context.Context, prices map[string]float64, now time.Time) error {
	for _, asset := range p.assets {
		baseline, ok := prices[asset.Name]
		if !ok || baseline == 0 {
			continue
		}
		mean, ok, err := p.agg.TrailingMean(ctx, asset.Name, "", p.window, now)
		if err != nil {
			p.metrics.RecordError("trailing_mean")
			p.log.Warn("trailing mean failed",
				logger.String("asset", asset.Name),
				logger.Error(err))
			continue
		}
		if !ok {
			continue
		}

		predicted := baseline * (1 + p.sensitivity*mean)
		if err := p.ledger.Issue(ctx, asset.Name, now, predicted, baseline); err != nil {
			if models.IsFatal(err) {
				return fmt.Errorf("issue forecast: %w", err)
			}
			p.metrics.RecordError("issue")
			p.log.Warn("forecast not recorded",
				logger.String("asset", asset.Name),
				logger.Error(err))
		}
	}
	return nil
}

func (p *Pipeline) publishFeed(ctx context.Context, rows []models.SummaryRow, resolved []models.PredictionEntry) {
	if p.feed == nil {
		return
	}
	if len(rows) > 0 {
		if err := p.feed.PublishSummaries(ctx, rows); err != nil {
			p.metrics.RecordError("feed")
			p.log.Warn("feed publish failed", logger.Error(err))
		}
	}
	if len(resolved) > 0 {
		if err := p.feed.PublishReconciliations(ctx, resolved); err != nil {
			p.metrics.RecordError("feed")
			p.log.Warn("feed publish failed", logger.Error(err))
		}
	}
}

// alert sends the report through the notifier if the throttle allows it.
// The cooldown starts only after a successful delivery.
func (p *Pipeline) alert(ctx context.Context, report models.TickReport, now time.Time) {
	if p.notifier == nil {
		return
	}

	ok, err := p.throttle.ShouldAlert(ctx, now)
	if err != nil {
		p.metrics.RecordError("throttle")
		p.log.Warn("throttle check failed", logger.Error(err))
		return
	}
	if !ok {
		p.log.Debug("alert suppressed by throttle")
		return
	}

	if err := p.notifier.Send(ctx, FormatAlert(report)); err != nil {
		p.metrics.RecordError("notify")
		p.log.Warn("alert delivery failed", logger.Error(err))
		return
	}

	p.metrics.RecordAlertSent()
	if err := p.throttle.RecordAlertSent(ctx, now); err != nil {
		p.log.Warn("alert state not persisted", logger.Error(err))
	}
}
