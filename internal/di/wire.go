//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"MacroSync/internal/handler/api"
	"MacroSync/pkg/config"
	apphttp "MacroSync/pkg/http"
	"MacroSync/pkg/server"
)

// InitializeApp builds the full application graph from configuration.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideProducer,
		ProvideLogger,
		ProvideEventPublisher,
		ProvideClickHouse,
		ProvideTableStore,
		ProvideCache,
		ProvideMetrics,
		ProvideAdapters,
		ProvideSyncer,
		ProvideHandler,
		wire.Bind(new(apphttp.Handler), new(*api.Handler)),
		ProvideServer,
		ProvideApp,
	)
	return nil, nil
}
