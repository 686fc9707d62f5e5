//go:build wireinject
// +build wireinject

package di

import (
	"fpledger/internal"
	"fpledger/internal/controllers"
	"fpledger/internal/ledger"
	"fpledger/internal/persistence"
	"fpledger/internal/policy"
	"fpledger/internal/providers"
	"fpledger/internal/services"
	"fpledger/internal/structures"

	wire "github.com/google/wire"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		ledger.NewStoreProvider,
		policy.NewSharedSecretAuthorizer,
		services.NewLedgerService,
		persistence.NewZstdCompressor,
		persistence.NewFileManager,
		persistence.NewScheduler,
		controllers.NewApiController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewHandler,
		internal.NewApp,
	)

	return nil, nil
}
