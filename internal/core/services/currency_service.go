package services

import (
	"context"
	"sort"
	"strings"

	"github.com/SscSPs/fx_rates_proxy/internal/core/domain"
	portssvc "github.com/SscSPs/fx_rates_proxy/internal/core/ports/services"
)

// CurrencyService serves the configured set of supported currencies.
type CurrencyService struct {
	currencies []domain.Currency
	byCode     map[string]domain.Currency
}

// NewCurrencyService creates a new CurrencyService from a code -> name map.
func NewCurrencyService(supported map[string]string) *CurrencyService {
	svc := &CurrencyService{
		currencies: make([]domain.Currency, 0, len(supported)),
		byCode:     make(map[string]domain.Currency, len(supported)),
	}
	for code, name := range supported {
		c := domain.Currency{CurrencyCode: strings.ToUpper(code), Name: name}
		svc.currencies = append(svc.currencies, c)
		svc.byCode[c.CurrencyCode] = c
	}
	sort.Slice(svc.currencies, func(i, j int) bool {
		return svc.currencies[i].CurrencyCode < svc.currencies[j].CurrencyCode
	})
	return svc
}

// ListCurrencies returns the supported currencies ordered by code.
func (s *CurrencyService) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	out := make([]domain.Currency, len(s.currencies))
	copy(out, s.currencies)
	return out, nil
}

// IsSupported reports whether code (case-insensitive) is supported.
func (s *CurrencyService) IsSupported(code string) bool {
	_, ok := s.byCode[strings.ToUpper(code)]
	return ok
}

var _ portssvc.CurrencySvcFacade = (*CurrencyService)(nil)
