package dto

import (
	"github.com/SscSPs/fx_rates_proxy/internal/core/domain"
)

// ToCurrencyMap converts supported currencies into the code -> name object the
// dashboard consumes.
func ToCurrencyMap(currencies []domain.Currency) map[string]string {
	res := make(map[string]string, len(currencies))
	for _, curr := range currencies {
		res[curr.CurrencyCode] = curr.Name
	}
	return res
}
