//go:build wireinject
// +build wireinject

package di

import (
	"HodlWatch/internal/usecase"
	"HodlWatch/pkg/config"
	"HodlWatch/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Storage and sources
		ProvideSeriesStore,
		ProvidePublisher,
		ProvideSpotChain,

		// Use cases
		ProvideEngine,
		ProvideReconciler,
		ProvideUpdater,

		// Surfaces
		ProvideHandler,
		ProvideScheduler,
		ProvideApp,
	)
	return &server.App{}, nil
}

// InitializeUpdater wires only what a one-shot refresh needs.
func InitializeUpdater(cfg *config.Config) (*usecase.Updater, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideSeriesStore,
		ProvidePublisher,
		ProvideSpotChain,
		ProvideEngine,
		ProvideReconciler,
		ProvideUpdater,
	)
	return &usecase.Updater{}, nil
}
