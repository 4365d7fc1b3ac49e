package di

import (
	"fmt"

	"AlphaPulse/internal/domain/repository"
	"AlphaPulse/internal/handler/api"
	internalrepo "AlphaPulse/internal/repository"
	"AlphaPulse/internal/service/coingecko"
	"AlphaPulse/internal/service/pricestream"
	"AlphaPulse/internal/service/reddit"
	"AlphaPulse/internal/service/rssfeed"
	"AlphaPulse/internal/service/sentiment"
	"AlphaPulse/internal/service/telegram"
	"AlphaPulse/internal/usecase"
	"AlphaPulse/pkg/cache"
	"AlphaPulse/pkg/config"
	xhttp "AlphaPulse/pkg/http"
	pkgkafka "AlphaPulse/pkg/kafka"
	applogger "AlphaPulse/pkg/logger"
	"AlphaPulse/pkg/metrics"
	"AlphaPulse/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvidePriceCache creates the price cache: a layered memory+Redis cache
// when Redis is configured, in-process otherwise.
func ProvidePriceCache(cfg *config.Config) (cache.Service, error) {
	if cfg.Prices.Redis.Enabled {
		c, err := cache.NewRedisCache(
			cache.WithRedisHost(cfg.Prices.Redis.Host),
			cache.WithRedisPort(cfg.Prices.Redis.Port),
			cache.WithRedisPassword(cfg.Prices.Redis.Password),
			cache.WithRedisDB(cfg.Prices.Redis.DB),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return cache.NewLayeredCache(c), nil
	}
	return cache.NewMemoryCache(), nil
}

// ProvideRecordStore creates the CSV-backed record store.
func ProvideRecordStore(cfg *config.Config, log *applogger.Logger) (repository.RecordStore, error) {
	return internalrepo.NewFileRecordStore(
		cfg.Storage.Dir,
		cfg.Storage.ObservationsFile,
		cfg.Storage.SummariesFile,
		log,
	)
}

// ProvidePredictionStore creates the JSON prediction store.
func ProvidePredictionStore(cfg *config.Config, log *applogger.Logger) (repository.PredictionStore, error) {
	return internalrepo.NewFilePredictionStore(cfg.Storage.Dir, cfg.Storage.PredictionsFile, log)
}

// ProvideAlertStateStore creates the JSON alert state store.
func ProvideAlertStateStore(cfg *config.Config, log *applogger.Logger) (repository.AlertStateStore, error) {
	return internalrepo.NewFileAlertStateStore(cfg.Storage.Dir, cfg.Storage.AlertStateFile, log)
}

// ProvideScorer creates the sentiment scorer.
func ProvideScorer() repository.Scorer {
	return sentiment.NewLexiconScorer()
}

// ProvidePriceSource creates the CoinGecko price source.
func ProvidePriceSource(cfg *config.Config, log *applogger.Logger, c cache.Service) repository.PriceSource {
	ids := make(map[string]string, len(cfg.Assets))
	for _, a := range cfg.Assets {
		ids[a.Name] = a.CoinGeckoID
	}

	opts := []coingecko.Option{
		coingecko.WithCache(c, cfg.Prices.CacheTTL),
	}
	if cfg.Prices.BaseURL != "" {
		opts = append(opts, coingecko.WithBaseURL(cfg.Prices.BaseURL))
	}
	return coingecko.New(
		xhttp.NewClient(xhttp.WithTimeout(cfg.Prices.Timeout)),
		log, ids, opts...,
	)
}

// ProvideCollectors creates the enabled collectors with their per-asset
// budgets.
func ProvideCollectors(cfg *config.Config, log *applogger.Logger) []usecase.CollectorSpec {
	var specs []usecase.CollectorSpec

	if cfg.Collectors.Reddit.Enabled {
		var opts []reddit.Option
		if cfg.Collectors.Reddit.BaseURL != "" {
			opts = append(opts, reddit.WithBaseURL(cfg.Collectors.Reddit.BaseURL))
		}
		specs = append(specs, usecase.CollectorSpec{
			Collector: reddit.New(
				xhttp.NewClient(xhttp.WithTimeout(cfg.Collectors.Timeout)),
				log,
				cfg.Collectors.Reddit.Subreddit,
				cfg.Collectors.Reddit.Limit,
				cfg.Collectors.Reddit.UserAgent,
				opts...,
			),
			PerAsset: cfg.Collectors.Reddit.PerAsset,
		})
	}

	if cfg.Collectors.RSS.Enabled {
		specs = append(specs, usecase.CollectorSpec{
			Collector: rssfeed.New(
				xhttp.NewClient(xhttp.WithTimeout(cfg.Collectors.Timeout)),
				log,
				cfg.Collectors.RSS.Feeds,
			),
			PerAsset: cfg.Collectors.RSS.PerAsset,
		})
	}

	return specs
}

// ProvideNotifier creates the Telegram notifier, or nil when alerting is
// disabled.
func ProvideNotifier(cfg *config.Config, log *applogger.Logger) repository.Notifier {
	tg := cfg.Alerts.Telegram
	if !tg.Enabled || tg.BotToken == "" || tg.ChatID == "" {
		return nil
	}

	var opts []telegram.Option
	if tg.BaseURL != "" {
		opts = append(opts, telegram.WithBaseURL(tg.BaseURL))
	}
	return telegram.New(
		xhttp.NewClient(xhttp.WithTimeout(tg.Timeout)),
		log, tg.BotToken, tg.ChatID, opts...,
	)
}

// ProvideFeedPublisher creates the Kafka feed publisher, or nil when the
// feed is disabled.
func ProvideFeedPublisher(cfg *config.Config) (repository.FeedPublisher, error) {
	if !cfg.Feed.Enabled {
		return nil, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Feed.Brokers),
		pkgkafka.WithCompression(cfg.Feed.Compression),
		pkgkafka.WithRequiredAcks(cfg.Feed.RequiredAcks),
		pkgkafka.WithTimeouts(cfg.Feed.WriteTimeout, cfg.Feed.WriteTimeout),
		pkgkafka.WithMaxAttempts(cfg.Feed.MaxAttempts),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaFeedPublisher(producer, cfg.Feed.Topic), nil
}

// ProvideAggregator creates the summary aggregator.
func ProvideAggregator(records repository.RecordStore) *usecase.Aggregator {
	return usecase.NewAggregator(records)
}

// ProvideLedger creates the prediction ledger.
func ProvideLedger(
	preds repository.PredictionStore,
	records repository.RecordStore,
	m repository.Metrics,
	log *applogger.Logger,
	cfg *config.Config,
) *usecase.Ledger {
	return usecase.NewLedger(preds, records, m, log, cfg.Forecast.Horizon, cfg.Forecast.TolerancePct)
}

// ProvideThrottle creates the alert throttle.
func ProvideThrottle(store repository.AlertStateStore, log *applogger.Logger, cfg *config.Config) *usecase.Throttle {
	return usecase.NewThrottle(store, log, cfg.Alerts.MinInterval)
}

// ProvideReporter creates the report builder.
func ProvideReporter(agg *usecase.Aggregator, ledger *usecase.Ledger, log *applogger.Logger, cfg *config.Config) *usecase.Reporter {
	return usecase.NewReporter(agg, ledger, log, cfg.Alerts.TrailingWindow)
}

// ProvidePipeline creates the tick pipeline.
func ProvidePipeline(
	collectors []usecase.CollectorSpec,
	scorer repository.Scorer,
	records repository.RecordStore,
	prices repository.PriceSource,
	agg *usecase.Aggregator,
	ledger *usecase.Ledger,
	throttle *usecase.Throttle,
	reporter *usecase.Reporter,
	notifier repository.Notifier,
	feed repository.FeedPublisher,
	m repository.Metrics,
	log *applogger.Logger,
	cfg *config.Config,
) *usecase.Pipeline {
	assets := make([]usecase.TrackedAsset, 0, len(cfg.Assets))
	for _, a := range cfg.Assets {
		assets = append(assets, usecase.TrackedAsset{Name: a.Name, Keywords: a.Keywords})
	}

	return usecase.NewPipeline(
		collectors, scorer, records, prices,
		agg, ledger, throttle, reporter,
		notifier, feed, m, log,
		assets,
		cfg.Collectors.Timeout,
		cfg.Alerts.TrailingWindow,
		cfg.Forecast.Sensitivity,
	)
}

// ProvideMonitor creates the price threshold monitor, or nil when no
// notifier is configured.
func ProvideMonitor(
	prices repository.PriceSource,
	notifier repository.Notifier,
	m repository.Metrics,
	log *applogger.Logger,
	cfg *config.Config,
) *usecase.Monitor {
	if notifier == nil {
		return nil
	}

	var stream repository.PriceStream
	if cfg.Monitor.UseStream && cfg.Monitor.WebSocketURL != "" {
		names := make(map[string]string, len(cfg.Assets))
		for _, a := range cfg.Assets {
			names[a.CoinGeckoID] = a.Name
		}
		stream = pricestream.New(
			cfg.Monitor.WebSocketURL,
			names,
			cfg.Monitor.ReconnectDelay,
			cfg.Monitor.PingInterval,
			log,
		)
	}

	assets := make([]usecase.MonitoredAsset, 0, len(cfg.Assets))
	for _, a := range cfg.Assets {
		assets = append(assets, usecase.MonitoredAsset{
			Name:             a.Name,
			ThresholdUpPct:   a.Monitor.ThresholdUpPct,
			ThresholdDownPct: a.Monitor.ThresholdDownPct,
			Upper:            a.Monitor.Upper,
			Lower:            a.Monitor.Lower,
		})
	}

	return usecase.NewMonitor(
		prices, stream, notifier, m, log,
		assets,
		cfg.Monitor.Interval,
		cfg.Monitor.ReconnectDelay,
		cfg.Monitor.AlertInterval,
	)
}

// ProvideHandler creates the HTTP API handler.
func ProvideHandler(
	log *applogger.Logger,
	records repository.RecordStore,
	ledger *usecase.Ledger,
	reporter *usecase.Reporter,
	cfg *config.Config,
) xhttp.Handler {
	return api.NewRecordsEchoHandler(log, records, ledger, reporter, cfg.AssetNames())
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	pipeline *usecase.Pipeline,
	monitor *usecase.Monitor,
	handler xhttp.Handler,
	feed repository.FeedPublisher,
) *server.App {
	return server.New(cfg, log, pipeline, monitor, handler, feed)
}
