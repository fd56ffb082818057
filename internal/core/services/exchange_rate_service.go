package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/fx_rates_proxy/internal/apperrors"
	"github.com/SscSPs/fx_rates_proxy/internal/core/domain"
	"github.com/SscSPs/fx_rates_proxy/internal/core/ports/providers"
	portsrepo "github.com/SscSPs/fx_rates_proxy/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/fx_rates_proxy/internal/core/ports/services"
	"github.com/SscSPs/fx_rates_proxy/internal/dto"
	"github.com/SscSPs/fx_rates_proxy/internal/metrics"
)

// ExchangeRateService answers rate queries from the local store and fills it
// from the upstream provider on a cache miss.
type ExchangeRateService struct {
	BaseService
	rateRepo portsrepo.ExchangeRateRepositoryFacade
	provider providers.RateProvider
	policy   CachePolicy
	clock    Clock
	metrics  *metrics.Recorder
}

// ExchangeRateOption is a functional option for configuring the exchange rate service
type ExchangeRateOption func(*ExchangeRateService)

// WithClock overrides the clock used to determine today.
func WithClock(clock Clock) ExchangeRateOption {
	return func(s *ExchangeRateService) {
		s.clock = clock
	}
}

// WithCachePolicy overrides the default cache policy.
func WithCachePolicy(policy CachePolicy) ExchangeRateOption {
	return func(s *ExchangeRateService) {
		s.policy = policy
	}
}

// WithMetrics records cache and upstream outcomes on r.
func WithMetrics(r *metrics.Recorder) ExchangeRateOption {
	return func(s *ExchangeRateService) {
		s.metrics = r
	}
}

// NewExchangeRateService creates a new ExchangeRateService.
func NewExchangeRateService(rateRepo portsrepo.ExchangeRateRepositoryFacade, provider providers.RateProvider, options ...ExchangeRateOption) *ExchangeRateService {
	svc := &ExchangeRateService{
		rateRepo: rateRepo,
		provider: provider,
		policy:   DefaultCachePolicy(),
		clock:    SystemClock{},
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

// GetRates returns one record per date that has data in q's window, ascending.
// When the cache is insufficient and the provider fails, cached rows are served
// as-is if there are any.
func (s *ExchangeRateService) GetRates(ctx context.Context, q domain.RateQuery) ([]dto.DailyRatesResponse, error) {
	cached, err := s.rateRepo.FindRates(ctx, q.Base, q.Symbols, q.Start, q.End)
	if err != nil {
		s.LogError(ctx, err, "Failed to read cached rates", slog.String("base", q.Base))
		return nil, fmt.Errorf("failed to read cached rates: %w", err)
	}

	decision := s.policy.Evaluate(q, cached, s.clock.Now())
	if decision.Satisfied {
		s.metrics.CacheHit()
		s.LogDebug(ctx, "Serving rates from cache", slog.String("base", q.Base), slog.Int("rows", len(cached)))
		return dto.GroupRatesByDate(cached), nil
	}

	s.metrics.CacheMiss()
	s.LogInfo(ctx, "Cache miss, fetching from upstream",
		slog.String("base", q.Base),
		slog.String("reason", decision.Reason),
		slog.String("fetch_start", decision.FetchStart.Format(domain.DateLayout)),
		slog.String("fetch_end", decision.FetchEnd.Format(domain.DateLayout)),
	)

	began := time.Now()
	series, err := s.provider.FetchRates(ctx, q.Base, q.Symbols, decision.FetchStart, decision.FetchEnd)
	if err != nil {
		s.metrics.UpstreamFetch(metrics.OutcomeFailure, time.Since(began))
		return s.fallback(ctx, q, cached, err)
	}
	s.metrics.UpstreamFetch(metrics.OutcomeSuccess, time.Since(began))

	rows, err := s.reconcile(ctx, q, series)
	if err != nil {
		return nil, err
	}
	return dto.GroupRatesByDate(rows), nil
}

// reconcile stores the fetched series and re-reads the requested window so the
// answer merges old and new rows.
func (s *ExchangeRateService) reconcile(ctx context.Context, q domain.RateQuery, series domain.RateSeries) ([]domain.ExchangeRate, error) {
	batch := series.ToExchangeRates(q.Base)
	if len(batch) > 0 {
		n, err := s.rateRepo.UpsertRates(ctx, batch)
		if err != nil {
			s.LogError(ctx, err, "Failed to store fetched rates", slog.Int("rows", len(batch)))
			return nil, fmt.Errorf("failed to store fetched rates: %w", err)
		}
		s.metrics.Upserted(n)
	}

	rows, err := s.rateRepo.FindRates(ctx, q.Base, q.Symbols, q.Start, q.End)
	if err != nil {
		s.LogError(ctx, err, "Failed to re-read rates after upsert", slog.String("base", q.Base))
		return nil, fmt.Errorf("failed to re-read rates: %w", err)
	}
	return rows, nil
}

func (s *ExchangeRateService) fallback(ctx context.Context, q domain.RateQuery, cached []domain.ExchangeRate, cause error) ([]dto.DailyRatesResponse, error) {
	if len(cached) > 0 {
		s.metrics.Degraded()
		s.LogWarn(ctx, "Upstream unavailable, serving cached rates",
			slog.String("base", q.Base),
			slog.Int("rows", len(cached)),
			slog.String("error", cause.Error()),
		)
		return dto.GroupRatesByDate(cached), nil
	}

	s.LogError(ctx, cause, "Upstream unavailable and nothing cached", slog.String("base", q.Base))
	if errors.Is(cause, apperrors.ErrUpstreamUnavailable) {
		return nil, fmt.Errorf("failed to fetch rates: %w", cause)
	}
	return nil, apperrors.NewUpstreamUnavailableError(cause.Error())
}

var _ portssvc.ExchangeRateSvcFacade = (*ExchangeRateService)(nil)
