package pgsql

import (
	portsrepo "github.com/SscSPs/fx_rates_proxy/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires the Postgres-backed repositories.
func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	exchangeRateRepo := newPgxExchangeRateRepository(dbPool)

	return portsrepo.RepositoryProvider{
		ExchangeRateRepo: exchangeRateRepo,
		Pinger:           exchangeRateRepo,
		Close:            dbPool.Close,
	}
}
