package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	observations *prometheus.CounterVec
	summaries    prometheus.Counter
	issued       *prometheus.CounterVec
	reconciled   *prometheus.CounterVec
	alertsSent   prometheus.Counter
	errorsTotal  *prometheus.CounterVec
	lastPrice    *prometheus.GaugeVec
	tickDuration prometheus.Histogram
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		observations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alphapulse_observations_ingested_total",
				Help: "Total observations appended to the record store",
			},
			[]string{"asset", "source"},
		),
		summaries: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "alphapulse_summary_rows_total",
				Help: "Total summary rows written",
			},
		),
		issued: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alphapulse_predictions_issued_total",
				Help: "Total forecast entries issued",
			},
			[]string{"asset"},
		),
		reconciled: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alphapulse_predictions_reconciled_total",
				Help: "Total forecast entries reconciled against outcomes",
			},
			[]string{"asset", "accurate"},
		),
		alertsSent: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "alphapulse_alerts_sent_total",
				Help: "Total alert reports delivered",
			},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alphapulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "alphapulse_last_price",
				Help: "Last observed price for an asset",
			},
			[]string{"asset"},
		),
		tickDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "alphapulse_tick_duration_seconds",
				Help:    "Duration of full pipeline ticks in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

func (r *Recorder) RecordObservations(asset, source string, n int) {
	r.observations.WithLabelValues(asset, source).Add(float64(n))
}

func (r *Recorder) RecordSummaries(n int) {
	r.summaries.Add(float64(n))
}

func (r *Recorder) RecordPredictionIssued(asset string) {
	r.issued.WithLabelValues(asset).Inc()
}

func (r *Recorder) RecordPredictionReconciled(asset string, accurate bool) {
	label := "false"
	if accurate {
		label = "true"
	}
	r.reconciled.WithLabelValues(asset, label).Inc()
}

func (r *Recorder) RecordAlertSent() {
	r.alertsSent.Inc()
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordLastPrice(asset string, price float64) {
	r.lastPrice.WithLabelValues(asset).Set(price)
}

func (r *Recorder) RecordTickDuration(seconds float64) {
	r.tickDuration.Observe(seconds)
}
