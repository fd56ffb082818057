package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/fx_rates_proxy/internal/core/domain"
)

// ExchangeRateReader defines read operations for exchange rate data
type ExchangeRateReader interface {
	// FindRates returns every stored rate for base whose target is in targets and whose
	// date lies in [start, end]. No ordering is guaranteed.
	FindRates(ctx context.Context, base string, targets []string, start, end time.Time) ([]domain.ExchangeRate, error)
}

// ExchangeRateWriter defines write operations for exchange rate data
type ExchangeRateWriter interface {
	// UpsertRates inserts the batch, replacing the rate of any row whose
	// (date, base, target) already exists. The batch is applied atomically.
	// It returns the number of rows written.
	UpsertRates(ctx context.Context, rates []domain.ExchangeRate) (int64, error)
}

// ExchangeRateRepositoryFacade combines all exchange rate-related repository interfaces
// This is a facade for clients that need access to all operations
type ExchangeRateRepositoryFacade interface {
	ExchangeRateReader
	ExchangeRateWriter
}
