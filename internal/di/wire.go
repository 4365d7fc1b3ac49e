//go:build wireinject
// +build wireinject

package di

import (
	"AlphaPulse/pkg/config"
	"AlphaPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvidePriceCache,

		// Stores
		ProvideRecordStore,
		ProvidePredictionStore,
		ProvideAlertStateStore,

		// Services
		ProvideScorer,
		ProvidePriceSource,
		ProvideCollectors,
		ProvideNotifier,
		ProvideFeedPublisher,

		// Use cases
		ProvideAggregator,
		ProvideLedger,
		ProvideThrottle,
		ProvideReporter,
		ProvidePipeline,
		ProvideMonitor,

		// HTTP and application
		ProvideHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
