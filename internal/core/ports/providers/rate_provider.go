package providers

import (
	"context"
	"time"

	"github.com/SscSPs/fx_rates_proxy/internal/core/domain"
)

// RateProvider fetches historical daily rates from an external source.
type RateProvider interface {
	// FetchRates returns rates for base against targets over [start, end].
	// An empty series (not an error) means the provider has no data for the window.
	// Network failures, timeouts and non-2xx answers wrap apperrors.ErrUpstreamUnavailable.
	FetchRates(ctx context.Context, base string, targets []string, start, end time.Time) (domain.RateSeries, error)
}
