package sqlite

import (
	"database/sql"
	"log/slog"

	portsrepo "github.com/SscSPs/fx_rates_proxy/internal/core/ports/repositories"
)

// NewRepositoryProvider wires the SQLite-backed repositories.
func NewRepositoryProvider(db *sql.DB) portsrepo.RepositoryProvider {
	exchangeRateRepo := NewExchangeRateRepository(db)

	return portsrepo.RepositoryProvider{
		ExchangeRateRepo: exchangeRateRepo,
		Pinger:           exchangeRateRepo,
		Close: func() {
			if err := db.Close(); err != nil {
				slog.Error("Error closing SQLite database", slog.String("error", err.Error()))
			}
		},
	}
}
