package usecase

import (
	"context"
	"fmt"
	"time"

	drepo "AlphaPulse/internal/domain/repository"
	"AlphaPulse/internal/service/ratelimit"
	"AlphaPulse/pkg/logger"
)

// MonitoredAsset is one asset the monitor watches, with its movement and
// absolute price thresholds. Zero thresholds are disabled.
type MonitoredAsset struct {
	Name             string
	ThresholdUpPct   float64
	ThresholdDownPct float64
	Upper            float64
	Lower            float64
}

// Monitor watches live prices and alerts on sharp moves or absolute bound
// crossings. It runs either from a streaming feed or by polling a price
// source, independent of the sentiment pipeline.
type Monitor struct {
	prices   drepo.PriceSource
	stream   drepo.PriceStream
	notifier drepo.Notifier
	metrics  drepo.Metrics
	log      *logger.Logger
	limiter  *ratelimit.Limiter

	assets         map[string]MonitoredAsset
	interval       time.Duration
	reconnectDelay time.Duration
	alertInterval  time.Duration

	last map[string]float64
}

// NewMonitor creates a new Monitor instance. A nil stream selects polling
// mode.
func NewMonitor(
	prices drepo.PriceSource,
	stream drepo.PriceStream,
	notifier drepo.Notifier,
	metrics drepo.Metrics,
	log *logger.Logger,
	assets []MonitoredAsset,
	interval time.Duration,
	reconnectDelay time.Duration,
	alertInterval time.Duration,
) *Monitor {
	byName := make(map[string]MonitoredAsset, len(assets))
	for _, a := range assets {
		byName[a.Name] = a
	}
	return &Monitor{
		prices:         prices,
		stream:         stream,
		notifier:       notifier,
		metrics:        metrics,
		log:            log,
		limiter:        ratelimit.New(),
		assets:         byName,
		interval:       interval,
		reconnectDelay: reconnectDelay,
		alertInterval:  alertInterval,
		last:           make(map[string]float64),
	}
}

// Run blocks until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	if m.stream != nil {
		return m.runStream(ctx)
	}
	return m.runPoll(ctx)
}

func (m *Monitor) runPoll(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.poll(ctx)
		}
	}
}

func (m *Monitor) poll(ctx context.Context) {
	names := make([]string, 0, len(m.assets))
	for name := range m.assets {
		names = append(names, name)
	}

	prices, err := m.prices.Fetch(ctx, names)
	if err != nil {
		m.metrics.RecordError("monitor_prices")
		m.log.Warn("price poll failed", logger.Error(err))
		return
	}
	for asset, price := range prices {
		m.observe(ctx, asset, price, time.Now())
	}
}

func (m *Monitor) runStream(ctx context.Context) error {
	if err := m.stream.Connect(ctx); err != nil {
		return fmt.Errorf("connect price stream: %w", err)
	}
	defer m.stream.Close()

	for {
		ticks, errs := m.stream.Read(ctx)

	read:
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case tick, ok := <-ticks:
				if !ok {
					break read
				}
				m.observe(ctx, tick.Asset, tick.Price, time.Now())
			case err, ok := <-errs:
				if !ok {
					break read
				}
				m.metrics.RecordError("monitor_stream")
				m.log.Warn("price stream error", logger.Error(err))
				break read
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.reconnectDelay):
		}
		if err := m.stream.Reconnect(ctx); err != nil {
			m.log.Warn("price stream reconnect failed", logger.Error(err))
		}
	}
}

// observe records a price and alerts when it breaches the asset's
// thresholds relative to the previous observation.
func (m *Monitor) observe(ctx context.Context, asset string, price float64, now time.Time) {
	cfg, tracked := m.assets[asset]
	if !tracked || price == 0 {
		return
	}
	m.metrics.RecordLastPrice(asset, price)

	prev, seen := m.last[asset]
	m.last[asset] = price

	var reason string
	switch {
	case cfg.Upper > 0 && price >= cfg.Upper:
		reason = fmt.Sprintf("crossed above $%.2f", cfg.Upper)
	case cfg.Lower > 0 && price <= cfg.Lower:
		reason = fmt.Sprintf("dropped below $%.2f", cfg.Lower)
	case seen && prev != 0:
		change := (price - prev) / prev * 100
		if cfg.ThresholdUpPct > 0 && change >= cfg.ThresholdUpPct {
			reason = fmt.Sprintf("up %.2f%%", change)
		} else if cfg.ThresholdDownPct > 0 && change <= -cfg.ThresholdDownPct {
			reason = fmt.Sprintf("down %.2f%%", -change)
		}
	}
	if reason == "" {
		return
	}

	if !m.limiter.AllowAt(asset, 1, 1/m.alertInterval.Seconds(), now) {
		m.log.Debug("monitor alert suppressed", logger.String("asset", asset))
		return
	}

	text := fmt.Sprintf("<b>%s</b> %s, now $%.2f", asset, reason, price)
	if err := m.notifier.Send(ctx, text); err != nil {
		m.metrics.RecordError("monitor_notify")
		m.log.Warn("monitor alert failed",
			logger.String("asset", asset),
			logger.Error(err))
		return
	}
	m.metrics.RecordAlertSent()
}
