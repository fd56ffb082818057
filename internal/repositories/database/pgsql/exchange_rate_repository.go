package pgsql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/fx_rates_proxy/internal/apperrors"
	"github.com/SscSPs/fx_rates_proxy/internal/core/domain"
	portsrepo "github.com/SscSPs/fx_rates_proxy/internal/core/ports/repositories"
	"github.com/SscSPs/fx_rates_proxy/internal/models"
	"github.com/SscSPs/fx_rates_proxy/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const upsertExchangeRateSQL = `
	INSERT INTO exchange_rates (date, base_currency, target_currency, rate, last_updated_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (date, base_currency, target_currency) DO UPDATE SET
		rate = EXCLUDED.rate,
		last_updated_at = EXCLUDED.last_updated_at;
`

// PgxExchangeRateRepository implements the exchange rate repository ports using pgxpool.
type PgxExchangeRateRepository struct {
	BaseRepository
}

// newPgxExchangeRateRepository creates a new PgxExchangeRateRepository.
func newPgxExchangeRateRepository(pool *pgxpool.Pool) *PgxExchangeRateRepository {
	return &PgxExchangeRateRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.ExchangeRateRepositoryFacade = (*PgxExchangeRateRepository)(nil)

// FindRates retrieves all rates for base and targets within [start, end].
func (r *PgxExchangeRateRepository) FindRates(ctx context.Context, base string, targets []string, start, end time.Time) ([]domain.ExchangeRate, error) {
	if len(targets) == 0 {
		return []domain.ExchangeRate{}, nil
	}

	upper := make([]string, len(targets))
	for i, t := range targets {
		upper[i] = strings.ToUpper(t)
	}

	query := `
		SELECT date, base_currency, target_currency, rate, last_updated_at
		FROM exchange_rates
		WHERE base_currency = $1
		  AND target_currency = ANY($2)
		  AND date >= $3 AND date <= $4;
	`
	rows, err := r.Pool.Query(ctx, query, strings.ToUpper(base), upper, domain.DateOf(start), domain.DateOf(end))
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query exchange rates", err)
	}
	defer rows.Close()

	modelRates, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.ExchangeRate, error) {
		var m models.ExchangeRate
		err := row.Scan(&m.Date, &m.BaseCurrency, &m.TargetCurrency, &m.Rate, &m.LastUpdatedAt)
		return m, err
	})
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan exchange rates", err)
	}

	return mapping.ToDomainExchangeRateSlice(modelRates), nil
}

// UpsertRates writes the batch in a single transaction. Conflicting natural keys
// take the new rate, so concurrent writers never produce duplicate rows.
func (r *PgxExchangeRateRepository) UpsertRates(ctx context.Context, rates []domain.ExchangeRate) (int64, error) {
	if len(rates) == 0 {
		return 0, nil
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = r.Rollback(ctx, tx) }()

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, m := range mapping.ToModelExchangeRateBatch(rates) {
		batch.Queue(upsertExchangeRateSQL, m.Date, m.BaseCurrency, m.TargetCurrency, m.Rate, now)
	}

	results := tx.SendBatch(ctx, batch)
	var total int64
	for range rates {
		tag, err := results.Exec()
		if err != nil {
			_ = results.Close()
			return 0, apperrors.NewAppError(500, "failed to upsert exchange rate", err)
		}
		total += tag.RowsAffected()
	}
	if err := results.Close(); err != nil {
		return 0, apperrors.NewAppError(500, "failed to close upsert batch", err)
	}

	if err := r.Commit(ctx, tx); err != nil {
		return 0, fmt.Errorf("upsert exchange rates: %w", err)
	}
	return total, nil
}
