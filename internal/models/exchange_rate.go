package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate is the stored row for one (date, base, target) observation.
type ExchangeRate struct {
	Date           time.Time       `json:"date"`           // calendar date, no time component
	BaseCurrency   string          `json:"baseCurrency"`   // 3-letter code
	TargetCurrency string          `json:"targetCurrency"` // 3-letter code
	Rate           decimal.Decimal `json:"rate"`           // Precise decimal type
	LastUpdatedAt  time.Time       `json:"lastUpdatedAt"`  // set by the store on every upsert
}
