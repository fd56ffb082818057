package services

import (
	"context"

	"github.com/SscSPs/fx_rates_proxy/internal/core/domain"
	"github.com/SscSPs/fx_rates_proxy/internal/dto"
)

// CurrencyReaderSvc defines read operations for currency data
type CurrencyReaderSvc interface {
	// ListCurrencies returns the supported currencies ordered by code.
	ListCurrencies(ctx context.Context) ([]domain.Currency, error)

	// IsSupported reports whether code is one of the supported currencies.
	IsSupported(code string) bool
}

// CurrencySvcFacade combines all currency-related service interfaces
type CurrencySvcFacade interface {
	CurrencyReaderSvc
}

// ExchangeRateReaderSvc defines read operations for exchange rate data
type ExchangeRateReaderSvc interface {
	// GetRates answers a rate query from the local store, going upstream when the
	// cached rows do not cover it.
	GetRates(ctx context.Context, query domain.RateQuery) ([]dto.DailyRatesResponse, error)
}

// ExchangeRateSvcFacade combines all exchange rate-related service interfaces
type ExchangeRateSvcFacade interface {
	ExchangeRateReaderSvc
}
