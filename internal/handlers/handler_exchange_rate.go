package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/SscSPs/fx_rates_proxy/internal/apperrors"
	"github.com/SscSPs/fx_rates_proxy/internal/core/domain"
	portssvc "github.com/SscSPs/fx_rates_proxy/internal/core/ports/services"
	"github.com/SscSPs/fx_rates_proxy/internal/dto"
	"github.com/SscSPs/fx_rates_proxy/internal/middleware"
	"github.com/SscSPs/fx_rates_proxy/internal/platform/config"
	"github.com/gin-gonic/gin"
)

// rateQueryDefaults fills in omitted query parameters and bounds the window.
type rateQueryDefaults struct {
	Base         string
	Symbols      []string
	MaxRangeDays int
}

// exchangeRateHandler handles HTTP requests related to exchange rates.
type exchangeRateHandler struct {
	exchangeRateService portssvc.ExchangeRateSvcFacade
	currencyService     portssvc.CurrencyReaderSvc
	defaults            rateQueryDefaults
}

// newExchangeRateHandler creates a new exchangeRateHandler.
func newExchangeRateHandler(ers portssvc.ExchangeRateSvcFacade, cs portssvc.CurrencyReaderSvc, defaults rateQueryDefaults) *exchangeRateHandler {
	return &exchangeRateHandler{
		exchangeRateService: ers,
		currencyService:     cs,
		defaults:            defaults,
	}
}

// registerExchangeRateRoutes registers routes related to exchange rates.
func registerExchangeRateRoutes(rg *gin.RouterGroup, ers portssvc.ExchangeRateSvcFacade, cs portssvc.CurrencyReaderSvc, defaults rateQueryDefaults) {
	h := newExchangeRateHandler(ers, cs, defaults)
	rg.GET("/rates", h.getRates)
}

// getRates godoc
// @Summary Get daily exchange rates
// @Description Returns one record per published date in [start_date, end_date] for base against each symbol. Served from the local store when it covers the window, otherwise fetched from the rate provider first.
// @Tags exchange rates
// @Produce json
// @Param start_date query string true "Inclusive start date (YYYY-MM-DD)"
// @Param end_date query string true "Inclusive end date (YYYY-MM-DD)"
// @Param base query string false "Base currency" default(EUR)
// @Param symbols query string false "Comma-separated target currencies" default(USD,CAD)
// @Success 200 {array} dto.DailyRatesResponse
// @Failure 400 {object} map[string]string "Invalid query"
// @Failure 429 {object} map[string]string "Too many requests"
// @Failure 500 {object} map[string]string "Failed to get exchange rates"
// @Failure 502 {object} map[string]string "Rate provider unavailable and nothing cached"
// @Router /rates [get]
func (h *exchangeRateHandler) getRates(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.GetRatesQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		logger.Warn("Failed to bind rates query", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": bindErrorMessage(err)})
		return
	}

	query, err := h.toRateQuery(req)
	if err != nil {
		logger.Warn("Rejected rates query", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rates, err := h.exchangeRateService.GetRates(c.Request.Context(), query)
	if err != nil {
		status := apperrors.HTTPStatus(err)
		logger.Error("Failed to get exchange rates",
			slog.String("error", err.Error()),
			slog.Int("status", status),
		)
		msg := "Failed to get exchange rates"
		if status == http.StatusBadGateway {
			msg = "Exchange rate provider is unavailable"
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, rates)
}

// toRateQuery applies defaults and the checks binding tags cannot express.
func (h *exchangeRateHandler) toRateQuery(req dto.GetRatesQuery) (domain.RateQuery, error) {
	start, err := domain.ParseDate(req.StartDate)
	if err != nil {
		return domain.RateQuery{}, errors.New("Invalid date format. Use YYYY-MM-DD")
	}
	end, err := domain.ParseDate(req.EndDate)
	if err != nil {
		return domain.RateQuery{}, errors.New("Invalid date format. Use YYYY-MM-DD")
	}
	if end.Before(start) {
		return domain.RateQuery{}, errors.New("end_date must not be before start_date")
	}
	if end.Sub(start) > dayDuration(h.defaults.MaxRangeDays) {
		return domain.RateQuery{}, errors.New(rangeLimitMessage(h.defaults.MaxRangeDays))
	}

	base := strings.ToUpper(strings.TrimSpace(req.Base))
	if base == "" {
		base = h.defaults.Base
	}
	symbols := config.SplitCodes(req.Symbols)
	if len(symbols) == 0 {
		symbols = h.defaults.Symbols
	}

	for _, code := range append([]string{base}, symbols...) {
		if !h.currencyService.IsSupported(code) {
			return domain.RateQuery{}, fmt.Errorf("Unsupported currency: %s", code)
		}
	}

	return domain.RateQuery{Base: base, Symbols: symbols, Start: start, End: end}, nil
}
