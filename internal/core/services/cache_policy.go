package services

import (
	"fmt"
	"time"

	"github.com/SscSPs/fx_rates_proxy/internal/core/domain"
)

// FetchStrategy chooses the upstream window requested on a cache miss.
type FetchStrategy int

const (
	// FetchFullWindow always refetches the whole requested window.
	FetchFullWindow FetchStrategy = iota
	// FetchMissingTail refetches only the days after the latest cached date when
	// the cache is merely stale; every other miss falls back to the full window.
	FetchMissingTail
)

// DefaultStartToleranceDays is how far past the requested start the earliest
// cached date may lie. Markets close on weekends and holidays, so the first
// published date of a window can trail its start.
const DefaultStartToleranceDays = 3

// Cache miss reasons.
const (
	ReasonEmptyCache    = "empty cache"
	ReasonMissingTarget = "missing target currency"
	ReasonLateStart     = "cache starts after requested start"
	ReasonStale         = "cache has no data for today"
)

// CachePolicy decides whether cached rows answer a query without going upstream.
type CachePolicy struct {
	StartToleranceDays int
	Strategy           FetchStrategy
}

// DefaultCachePolicy refetches the full window with the standard start tolerance.
func DefaultCachePolicy() CachePolicy {
	return CachePolicy{StartToleranceDays: DefaultStartToleranceDays, Strategy: FetchFullWindow}
}

// Evaluate checks cached (rows already filtered to q's base, symbols and window)
// against q. The cache satisfies q only when it is non-empty, holds every
// requested symbol, starts within the tolerance of q.Start, and either the
// window ends before today or the cache already holds today.
func (p CachePolicy) Evaluate(q domain.RateQuery, cached []domain.ExchangeRate, today time.Time) domain.CacheDecision {
	start, end, today := domain.DateOf(q.Start), domain.DateOf(q.End), domain.DateOf(today)
	miss := func(reason string) domain.CacheDecision {
		return domain.CacheDecision{Reason: reason, FetchStart: start, FetchEnd: end}
	}

	earliest, latest, ok := domain.BoundsOf(cached)
	if !ok {
		return miss(ReasonEmptyCache)
	}

	targets := domain.DistinctTargets(cached)
	for _, sym := range q.Symbols {
		if _, found := targets[sym]; !found {
			return miss(fmt.Sprintf("%s: %s", ReasonMissingTarget, sym))
		}
	}

	if earliest.After(start.AddDate(0, 0, p.StartToleranceDays)) {
		return miss(ReasonLateStart)
	}

	if !end.Before(today) && latest.Before(today) {
		decision := miss(ReasonStale)
		if p.Strategy == FetchMissingTail {
			decision.FetchStart = latest.AddDate(0, 0, 1)
		}
		return decision
	}

	return domain.CacheDecision{Satisfied: true}
}
