package services

import (
	"github.com/SscSPs/fx_rates_proxy/internal/core/ports/providers"
	portsrepo "github.com/SscSPs/fx_rates_proxy/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/fx_rates_proxy/internal/core/ports/services"
	"github.com/SscSPs/fx_rates_proxy/internal/metrics"
	"github.com/SscSPs/fx_rates_proxy/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, provider providers.RateProvider, recorder *metrics.Recorder) *portssvc.ServiceContainer {
	policy := CachePolicy{StartToleranceDays: cfg.StartToleranceDays, Strategy: FetchFullWindow}
	if cfg.FetchStrategy == config.FetchStrategyGap {
		policy.Strategy = FetchMissingTail
	}

	return &portssvc.ServiceContainer{
		Currency: NewCurrencyService(cfg.SupportedCurrencies),
		ExchangeRate: NewExchangeRateService(
			repos.ExchangeRateRepo,
			provider,
			WithCachePolicy(policy),
			WithMetrics(recorder),
		),
		Health: NewHealthService(repos.Pinger),
	}
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.HealthSvc = (*HealthService)(nil)
)
