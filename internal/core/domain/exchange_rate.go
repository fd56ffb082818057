package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date format used on the wire and in storage.
const DateLayout = "2006-01-02"

// ExchangeRate is one observed rate: 1 BaseCurrency = Rate × TargetCurrency on Date.
// (Date, BaseCurrency, TargetCurrency) is the natural key.
type ExchangeRate struct {
	Date           time.Time       `json:"date"`
	BaseCurrency   string          `json:"baseCurrency"`
	TargetCurrency string          `json:"targetCurrency"`
	Rate           decimal.Decimal `json:"rate"`
}

// RateQuery is a validated request for daily rates over an inclusive date window.
// Symbols keeps the caller's order.
type RateQuery struct {
	Base    string
	Symbols []string
	Start   time.Time
	End     time.Time
}

// RateSeries is what the upstream provider returns: date -> target currency -> rate.
type RateSeries map[time.Time]map[string]decimal.Decimal

// Len returns the number of (date, currency) observations in the series.
func (s RateSeries) Len() int {
	n := 0
	for _, rates := range s {
		n += len(rates)
	}
	return n
}

// ToExchangeRates flattens the series into rows quoted against base, ordered by key.
func (s RateSeries) ToExchangeRates(base string) []ExchangeRate {
	rows := make([]ExchangeRate, 0, s.Len())
	for date, rates := range s {
		for target, rate := range rates {
			rows = append(rows, ExchangeRate{
				Date:           DateOf(date),
				BaseCurrency:   base,
				TargetCurrency: target,
				Rate:           rate,
			})
		}
	}
	SortByKey(rows)
	return rows
}

// SortByKey orders rows by (Date, BaseCurrency, TargetCurrency) in place.
func SortByKey(rows []ExchangeRate) {
	sort.Slice(rows, func(i, j int) bool { return KeyLess(rows[i], rows[j]) })
}

// KeyLess compares two rows by natural key.
func KeyLess(a, b ExchangeRate) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	if a.BaseCurrency != b.BaseCurrency {
		return a.BaseCurrency < b.BaseCurrency
	}
	return a.TargetCurrency < b.TargetCurrency
}

// CacheDecision is the outcome of checking cached rows against a RateQuery.
// When Satisfied is false, FetchStart..FetchEnd is the window to request upstream.
type CacheDecision struct {
	Satisfied  bool
	Reason     string
	FetchStart time.Time
	FetchEnd   time.Time
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// DistinctTargets returns the set of target currencies present in rows.
func DistinctTargets(rows []ExchangeRate) map[string]struct{} {
	targets := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		targets[r.TargetCurrency] = struct{}{}
	}
	return targets
}

// BoundsOf returns the earliest and latest dates in rows. ok is false for an empty set.
func BoundsOf(rows []ExchangeRate) (earliest, latest time.Time, ok bool) {
	if len(rows) == 0 {
		return time.Time{}, time.Time{}, false
	}
	earliest, latest = rows[0].Date, rows[0].Date
	for _, r := range rows[1:] {
		if r.Date.Before(earliest) {
			earliest = r.Date
		}
		if r.Date.After(latest) {
			latest = r.Date
		}
	}
	return earliest, latest, true
}
