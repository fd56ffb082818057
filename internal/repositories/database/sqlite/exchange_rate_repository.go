package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/fx_rates_proxy/internal/apperrors"
	"github.com/SscSPs/fx_rates_proxy/internal/core/domain"
	portsrepo "github.com/SscSPs/fx_rates_proxy/internal/core/ports/repositories"
	"github.com/SscSPs/fx_rates_proxy/internal/models"
	"github.com/SscSPs/fx_rates_proxy/internal/utils/mapping"
	"github.com/shopspring/decimal"
)

const upsertExchangeRateSQL = `
	INSERT INTO exchange_rates (date, base_currency, target_currency, rate, last_updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (date, base_currency, target_currency) DO UPDATE SET
		rate = excluded.rate,
		last_updated_at = excluded.last_updated_at`

// ExchangeRateRepository stores rates in SQLite. Dates are kept as YYYY-MM-DD text
// and rates as their exact decimal string.
type ExchangeRateRepository struct {
	db *sql.DB
}

// NewExchangeRateRepository creates a repository over an opened database.
func NewExchangeRateRepository(db *sql.DB) *ExchangeRateRepository {
	return &ExchangeRateRepository{db: db}
}

var _ portsrepo.ExchangeRateRepositoryFacade = (*ExchangeRateRepository)(nil)

// FindRates retrieves all rates for base and targets within [start, end].
func (r *ExchangeRateRepository) FindRates(ctx context.Context, base string, targets []string, start, end time.Time) ([]domain.ExchangeRate, error) {
	if len(targets) == 0 {
		return []domain.ExchangeRate{}, nil
	}

	placeholders := make([]string, len(targets))
	args := make([]any, 0, len(targets)+3)
	args = append(args, strings.ToUpper(base))
	for i, t := range targets {
		placeholders[i] = "?"
		args = append(args, strings.ToUpper(t))
	}
	args = append(args, start.Format(domain.DateLayout), end.Format(domain.DateLayout))

	query := fmt.Sprintf( //nolint:gosec // placeholders are not user input
		`SELECT date, base_currency, target_currency, rate, last_updated_at
		FROM exchange_rates
		WHERE base_currency = ? AND target_currency IN (%s) AND date >= ? AND date <= ?`,
		strings.Join(placeholders, ", "),
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query exchange rates", err)
	}
	defer func() { _ = rows.Close() }()

	var modelRates []models.ExchangeRate
	for rows.Next() {
		var m models.ExchangeRate
		var dateStr, rateStr, updatedStr string
		if err := rows.Scan(&dateStr, &m.BaseCurrency, &m.TargetCurrency, &rateStr, &updatedStr); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan exchange rate", err)
		}
		if m.Date, err = domain.ParseDate(dateStr); err != nil {
			return nil, apperrors.NewAppError(500, "invalid stored date "+dateStr, err)
		}
		if m.Rate, err = decimal.NewFromString(rateStr); err != nil {
			return nil, apperrors.NewAppError(500, "invalid stored rate "+rateStr, err)
		}
		m.LastUpdatedAt, _ = time.Parse(time.RFC3339, updatedStr)
		modelRates = append(modelRates, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating exchange rates", err)
	}

	return mapping.ToDomainExchangeRateSlice(modelRates), nil
}

// UpsertRates writes the batch inside one transaction; either every row lands or none does.
func (r *ExchangeRateRepository) UpsertRates(ctx context.Context, rates []domain.ExchangeRate) (int64, error) {
	if len(rates) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsertExchangeRateSQL)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to prepare upsert", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC().Format(time.RFC3339)
	var total int64
	for _, m := range mapping.ToModelExchangeRateBatch(rates) {
		res, err := stmt.ExecContext(ctx,
			m.Date.Format(domain.DateLayout), m.BaseCurrency, m.TargetCurrency, m.Rate.String(), now)
		if err != nil {
			return 0, apperrors.NewAppError(500, "failed to upsert exchange rate", err)
		}
		n, _ := res.RowsAffected()
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, apperrors.NewAppError(500, "failed to commit transaction", err)
	}
	return total, nil
}

// Ping checks connectivity to the database.
func (r *ExchangeRateRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
