package mapping

import (
	"sort"
	"strings"

	"github.com/SscSPs/fx_rates_proxy/internal/core/domain"
	"github.com/SscSPs/fx_rates_proxy/internal/models"
)

// ToModelExchangeRate converts a domain ExchangeRate to a model ExchangeRate.
// Codes are upper-cased and the date is truncated so the natural key is canonical.
func ToModelExchangeRate(d domain.ExchangeRate) models.ExchangeRate {
	return models.ExchangeRate{
		Date:           domain.DateOf(d.Date),
		BaseCurrency:   strings.ToUpper(d.BaseCurrency),
		TargetCurrency: strings.ToUpper(d.TargetCurrency),
		Rate:           d.Rate,
	}
}

// ToModelExchangeRateBatch converts a write batch to canonical models ordered by
// (date, base, target). Every writer queues rows in this order so overlapping
// batches lock shared keys in the same sequence.
func ToModelExchangeRateBatch(ds []domain.ExchangeRate) []models.ExchangeRate {
	ms := make([]models.ExchangeRate, len(ds))
	for i, d := range ds {
		ms[i] = ToModelExchangeRate(d)
	}
	sort.Slice(ms, func(i, j int) bool {
		return domain.KeyLess(ToDomainExchangeRate(ms[i]), ToDomainExchangeRate(ms[j]))
	})
	return ms
}

// ToDomainExchangeRate converts a model ExchangeRate to a domain ExchangeRate
func ToDomainExchangeRate(m models.ExchangeRate) domain.ExchangeRate {
	return domain.ExchangeRate{
		Date:           domain.DateOf(m.Date),
		BaseCurrency:   m.BaseCurrency,
		TargetCurrency: m.TargetCurrency,
		Rate:           m.Rate,
	}
}

// ToDomainExchangeRateSlice converts a slice of model ExchangeRates to domain ExchangeRates
func ToDomainExchangeRateSlice(ms []models.ExchangeRate) []domain.ExchangeRate {
	ds := make([]domain.ExchangeRate, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainExchangeRate(m)
	}
	return ds
}
