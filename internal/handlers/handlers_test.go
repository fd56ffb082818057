package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SscSPs/fx_rates_proxy/internal/apperrors"
	"github.com/SscSPs/fx_rates_proxy/internal/core/domain"
	portssvc "github.com/SscSPs/fx_rates_proxy/internal/core/ports/services"
	"github.com/SscSPs/fx_rates_proxy/internal/core/services"
	"github.com/SscSPs/fx_rates_proxy/internal/dto"
	"github.com/SscSPs/fx_rates_proxy/internal/handlers"
	"github.com/SscSPs/fx_rates_proxy/internal/metrics"
	"github.com/SscSPs/fx_rates_proxy/internal/middleware"
	"github.com/SscSPs/fx_rates_proxy/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/ulule/limiter/v3"
)

// --- Mock ExchangeRateService ---
type MockExchangeRateService struct {
	mock.Mock
}

func (m *MockExchangeRateService) GetRates(ctx context.Context, query domain.RateQuery) ([]dto.DailyRatesResponse, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.DailyRatesResponse), args.Error(1)
}

// Ensure mock implements the interface
var _ portssvc.ExchangeRateSvcFacade = (*MockExchangeRateService)(nil)

// --- Mock HealthSvc ---
type MockHealthService struct {
	mock.Mock
}

func (m *MockHealthService) Check(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// --- Test Suite ---
type HandlersTestSuite struct {
	suite.Suite
	router      *gin.Engine
	cfg         *config.Config
	mockRateSvc *MockExchangeRateService
	mockHealth  *MockHealthService
}

func (suite *HandlersTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
}

func (suite *HandlersTestSuite) SetupTest() {
	suite.mockRateSvc = new(MockExchangeRateService)
	suite.mockHealth = new(MockHealthService)
	suite.cfg = &config.Config{
		IsProduction:   true,
		DefaultBase:    "EUR",
		DefaultSymbols: []string{"USD", "CAD"},
		MaxRangeDays:   730,
		SupportedCurrencies: map[string]string{
			"EUR": "Euro",
			"USD": "US Dollar",
			"CAD": "Canadian Dollar",
		},
	}
	suite.router = suite.newRouter(nil)
}

func (suite *HandlersTestSuite) newRouter(rateLimiter *limiter.Limiter) *gin.Engine {
	container := &portssvc.ServiceContainer{
		Currency:     services.NewCurrencyService(suite.cfg.SupportedCurrencies),
		ExchangeRate: suite.mockRateSvc,
		Health:       suite.mockHealth,
	}
	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(newDiscardLogger()))
	handlers.RegisterRoutes(r, suite.cfg, container, metrics.NewRecorder(), rateLimiter)
	return r
}

func (suite *HandlersTestSuite) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlersTestSuite) errorBody(w *httptest.ResponseRecorder) string {
	var body map[string]string
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

// --- Test Cases ---

func (suite *HandlersTestSuite) TestGetRates_DefaultsApplied() {
	want := []dto.DailyRatesResponse{
		{Date: "2024-01-02", Base: "EUR", Rates: map[string]float64{"USD": 1.0956, "CAD": 1.4565}},
	}
	suite.mockRateSvc.On("GetRates", mock.Anything, domain.RateQuery{
		Base:    "EUR",
		Symbols: []string{"USD", "CAD"},
		Start:   mustDate("2024-01-01"),
		End:     mustDate("2024-01-03"),
	}).Return(want, nil).Once()

	w := suite.get("/api/v1/rates?start_date=2024-01-01&end_date=2024-01-03")

	suite.Equal(http.StatusOK, w.Code)
	var got []dto.DailyRatesResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &got))
	suite.Equal(want, got)
	suite.NotEmpty(w.Header().Get(middleware.RequestIDHeader))
	suite.mockRateSvc.AssertExpectations(suite.T())
}

func (suite *HandlersTestSuite) TestGetRates_NormalizesCodes() {
	suite.mockRateSvc.On("GetRates", mock.Anything, domain.RateQuery{
		Base:    "USD",
		Symbols: []string{"CAD", "EUR"},
		Start:   mustDate("2024-01-01"),
		End:     mustDate("2024-01-01"),
	}).Return([]dto.DailyRatesResponse{}, nil).Once()

	w := suite.get("/api/v1/rates?start_date=2024-01-01&end_date=2024-01-01&base=usd&symbols=cad,%20eur,CAD")

	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq("[]", w.Body.String())
	suite.mockRateSvc.AssertExpectations(suite.T())
}

func (suite *HandlersTestSuite) TestGetRates_MaxRangeIsInclusive() {
	suite.mockRateSvc.On("GetRates", mock.Anything, mock.Anything).Return([]dto.DailyRatesResponse{}, nil).Once()

	// 2023-01-01 + 730 days = 2024-12-31 (2024 is a leap year)
	w := suite.get("/api/v1/rates?start_date=2023-01-01&end_date=2024-12-31")

	suite.Equal(http.StatusOK, w.Code)
}

func (suite *HandlersTestSuite) TestGetRates_ValidationErrors() {
	tests := []struct {
		name    string
		query   string
		wantMsg string
	}{
		{"missing both dates", "", "start_date and end_date are required"},
		{"missing end date", "start_date=2024-01-01", "start_date and end_date are required"},
		{"bad date format", "start_date=01-01-2024&end_date=2024-01-03", "Invalid date format. Use YYYY-MM-DD"},
		{"impossible date", "start_date=2024-02-30&end_date=2024-03-03", "Invalid date format. Use YYYY-MM-DD"},
		{"range too long", "start_date=2023-01-01&end_date=2025-01-01", "Date range cannot exceed 2 years"},
		{"end before start", "start_date=2024-01-03&end_date=2024-01-01", "end_date must not be before start_date"},
		{"malformed base", "start_date=2024-01-01&end_date=2024-01-03&base=EURO", "Invalid currency code: EURO"},
		{"unsupported base", "start_date=2024-01-01&end_date=2024-01-03&base=GBP", "Unsupported currency: GBP"},
		{"unsupported symbol", "start_date=2024-01-01&end_date=2024-01-03&symbols=USD,JPY", "Unsupported currency: JPY"},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			w := suite.get("/api/v1/rates?" + tt.query)

			suite.Equal(http.StatusBadRequest, w.Code)
			suite.Equal(tt.wantMsg, suite.errorBody(w))
		})
	}
	suite.mockRateSvc.AssertNotCalled(suite.T(), "GetRates", mock.Anything, mock.Anything)
}

func (suite *HandlersTestSuite) TestGetRates_UpstreamUnavailable() {
	suite.mockRateSvc.On("GetRates", mock.Anything, mock.Anything).
		Return(nil, apperrors.NewUpstreamUnavailableError("provider returned HTTP 503")).Once()

	w := suite.get("/api/v1/rates?start_date=2024-01-01&end_date=2024-01-03")

	suite.Equal(http.StatusBadGateway, w.Code)
	suite.Equal("Exchange rate provider is unavailable", suite.errorBody(w))
}

func (suite *HandlersTestSuite) TestGetRates_InternalError() {
	suite.mockRateSvc.On("GetRates", mock.Anything, mock.Anything).
		Return(nil, errors.New("failed to store fetched rates: disk full")).Once()

	w := suite.get("/api/v1/rates?start_date=2024-01-01&end_date=2024-01-03")

	suite.Equal(http.StatusInternalServerError, w.Code)
	suite.Equal("Failed to get exchange rates", suite.errorBody(w))
}

func (suite *HandlersTestSuite) TestListCurrencies() {
	w := suite.get("/api/v1/currencies")

	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"EUR":"Euro","USD":"US Dollar","CAD":"Canadian Dollar"}`, w.Body.String())
}

func (suite *HandlersTestSuite) TestHealth() {
	w := suite.get("/health")
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("OK", w.Body.String())
	suite.mockHealth.AssertNotCalled(suite.T(), "Check", mock.Anything)
}

func (suite *HandlersTestSuite) TestHealth_StoreDown() {
	suite.cfg.EnableDBCheck = true
	suite.router = suite.newRouter(nil)
	suite.mockHealth.On("Check", mock.Anything).Return(errors.New("connection refused")).Once()

	w := suite.get("/health")

	suite.Equal(http.StatusServiceUnavailable, w.Code)
	suite.mockHealth.AssertExpectations(suite.T())
}

func (suite *HandlersTestSuite) TestMetricsEndpoint() {
	w := suite.get("/metrics")

	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), "go_goroutines")
}

func (suite *HandlersTestSuite) TestRateLimit() {
	rl, closeLimiter, err := middleware.NewLimiter("1-M", "")
	suite.Require().NoError(err)
	defer func() { _ = closeLimiter() }()
	suite.router = suite.newRouter(rl)

	first := suite.get("/api/v1/currencies")
	second := suite.get("/api/v1/currencies")

	suite.Equal(http.StatusOK, first.Code)
	suite.Equal("1", first.Header().Get("X-RateLimit-Limit"))
	suite.Equal(http.StatusTooManyRequests, second.Code)

	// health is outside the throttled group
	suite.Equal(http.StatusOK, suite.get("/health").Code)
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}
