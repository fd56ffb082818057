// Package frankfurter fetches historical daily rates from a Frankfurter-compatible API
// (GET {base}/{start}..{end}?base=EUR&symbols=USD,CAD).
package frankfurter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/SscSPs/fx_rates_proxy/internal/apperrors"
	"github.com/SscSPs/fx_rates_proxy/internal/core/domain"
	"github.com/SscSPs/fx_rates_proxy/internal/core/ports/providers"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// DefaultBaseURL is the public Frankfurter v1 endpoint.
const DefaultBaseURL = "https://api.frankfurter.dev/v1"

// DefaultTimeout bounds a single upstream call.
const DefaultTimeout = 10 * time.Second

// maxBodyBytes caps how much of a response is read; a two-year window for a
// handful of symbols is well under this.
const maxBodyBytes = 8 << 20

// Client implements providers.RateProvider.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

var _ providers.RateProvider = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithTimeout sets the per-call deadline.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.timeout = d
		}
	}
}

// WithLogger sets the logger used for payload warnings.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// NewClient creates a Client for baseURL (DefaultBaseURL when empty).
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		timeout:    DefaultTimeout,
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// FetchRates requests rates for base against targets over [start, end].
func (c *Client) FetchRates(ctx context.Context, base string, targets []string, start, end time.Time) (domain.RateSeries, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqURL := c.buildURL(base, targets, start, end)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", apperrors.ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req) //nolint:gosec // URL built from configuration
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrUpstreamUnavailable, err)
	}
	defer func() { _ = res.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", apperrors.ErrUpstreamUnavailable, err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("%w: provider returned HTTP %d", apperrors.ErrUpstreamUnavailable, res.StatusCode)
	}

	return c.parseRates(body)
}

func (c *Client) buildURL(base string, targets []string, start, end time.Time) string {
	q := url.Values{}
	q.Set("base", base)
	q.Set("symbols", strings.Join(targets, ","))
	return fmt.Sprintf("%s/%s..%s?%s",
		c.baseURL,
		start.Format(domain.DateLayout),
		end.Format(domain.DateLayout),
		q.Encode(),
	)
}

// parseRates reads the "rates" object (date -> currency -> number). Numbers are
// taken from their raw JSON text so no float64 rounding happens on the way in.
// A missing "rates" key yields an empty series.
func (c *Client) parseRates(body []byte) (domain.RateSeries, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: provider returned malformed JSON", apperrors.ErrUpstreamUnavailable)
	}

	series := domain.RateSeries{}
	rates := gjson.GetBytes(body, "rates")
	if !rates.Exists() || !rates.IsObject() {
		return series, nil
	}

	rates.ForEach(func(dateKey, day gjson.Result) bool {
		date, err := domain.ParseDate(dateKey.String())
		if err != nil {
			c.logger.Warn("Skipping rate entry with unparseable date", slog.String("date", dateKey.String()))
			return true
		}
		day.ForEach(func(code, value gjson.Result) bool {
			if value.Type != gjson.Number {
				return true
			}
			rate, err := decimal.NewFromString(value.Raw)
			if err != nil {
				c.logger.Warn("Skipping unparseable rate",
					slog.String("date", dateKey.String()),
					slog.String("currency", code.String()),
					slog.String("raw", value.Raw))
				return true
			}
			if series[date] == nil {
				series[date] = make(map[string]decimal.Decimal)
			}
			series[date][strings.ToUpper(code.String())] = rate
			return true
		})
		return true
	})

	return series, nil
}
