package dto

import (
	"sort"

	"github.com/SscSPs/fx_rates_proxy/internal/core/domain"
)

// GetRatesQuery defines the query parameters accepted by the rates endpoint.
type GetRatesQuery struct {
	Base      string `form:"base" binding:"omitempty,currency3"`
	Symbols   string `form:"symbols"`
	StartDate string `form:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate   string `form:"end_date" binding:"required,datetime=2006-01-02"`
}

// DailyRatesResponse is one date's worth of rates against a single base.
type DailyRatesResponse struct {
	Date  string             `json:"date"`
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// GroupRatesByDate folds flat rows into one record per distinct date, ascending.
// Dates absent from rows get no record. Rates are narrowed to float64 here and
// nowhere earlier.
func GroupRatesByDate(rows []domain.ExchangeRate) []DailyRatesResponse {
	byDate := make(map[string]*DailyRatesResponse)
	for _, row := range rows {
		key := row.Date.Format(domain.DateLayout)
		rec, ok := byDate[key]
		if !ok {
			rec = &DailyRatesResponse{
				Date:  key,
				Base:  row.BaseCurrency,
				Rates: make(map[string]float64),
			}
			byDate[key] = rec
		}
		rec.Rates[row.TargetCurrency] = row.Rate.InexactFloat64()
	}

	keys := make([]string, 0, len(byDate))
	for k := range byDate {
		keys = append(keys, k)
	}
	// YYYY-MM-DD sorts lexically in date order
	sort.Strings(keys)

	out := make([]DailyRatesResponse, 0, len(keys))
	for _, k := range keys {
		out = append(out, *byDate[k])
	}
	return out
}
