package dto_test

import (
	"testing"

	"github.com/SscSPs/fx_rates_proxy/internal/core/domain"
	"github.com/SscSPs/fx_rates_proxy/internal/dto"
	"github.com/stretchr/testify/assert"
)

func TestToCurrencyMap(t *testing.T) {
	got := dto.ToCurrencyMap([]domain.Currency{
		{CurrencyCode: "EUR", Name: "Euro"},
		{CurrencyCode: "USD", Name: "US Dollar"},
	})

	assert.Equal(t, map[string]string{"EUR": "Euro", "USD": "US Dollar"}, got)
}
