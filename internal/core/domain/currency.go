package domain

// Currency represents a supported currency in the domain.
type Currency struct {
	CurrencyCode string `json:"currencyCode"` // e.g. "USD"
	Name         string `json:"name"`         // e.g. "US Dollar"
}
