package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/fx_rates_proxy/internal/apperrors"
	"github.com/SscSPs/fx_rates_proxy/internal/core/domain"
	"github.com/SscSPs/fx_rates_proxy/internal/core/services"
	"github.com/SscSPs/fx_rates_proxy/internal/dto"
	"github.com/SscSPs/fx_rates_proxy/internal/metrics"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock ExchangeRateRepository ---
type MockExchangeRateRepository struct {
	mock.Mock
}

func (m *MockExchangeRateRepository) FindRates(ctx context.Context, base string, targets []string, start, end time.Time) ([]domain.ExchangeRate, error) {
	args := m.Called(ctx, base, targets, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExchangeRate), args.Error(1)
}

func (m *MockExchangeRateRepository) UpsertRates(ctx context.Context, rates []domain.ExchangeRate) (int64, error) {
	args := m.Called(ctx, rates)
	return args.Get(0).(int64), args.Error(1)
}

// --- Mock RateProvider ---
type MockRateProvider struct {
	mock.Mock
}

func (m *MockRateProvider) FetchRates(ctx context.Context, base string, targets []string, start, end time.Time) (domain.RateSeries, error) {
	args := m.Called(ctx, base, targets, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.RateSeries), args.Error(1)
}

// --- Test Suite ---
type ExchangeRateServiceTestSuite struct {
	suite.Suite
	mockRateRepo *MockExchangeRateRepository
	mockProvider *MockRateProvider
	service      *services.ExchangeRateService
	query        domain.RateQuery
}

func (suite *ExchangeRateServiceTestSuite) SetupTest() {
	suite.mockRateRepo = new(MockExchangeRateRepository)
	suite.mockProvider = new(MockRateProvider)
	suite.service = services.NewExchangeRateService(
		suite.mockRateRepo,
		suite.mockProvider,
		services.WithClock(services.FixedClock(day("2024-06-15"))),
		services.WithMetrics(metrics.NewRecorder()),
	)
	suite.query = domain.RateQuery{
		Base:    "EUR",
		Symbols: []string{"USD", "CAD"},
		Start:   day("2024-01-01"),
		End:     day("2024-01-03"),
	}
}

func (suite *ExchangeRateServiceTestSuite) TearDownTest() {
	suite.mockRateRepo.AssertExpectations(suite.T())
	suite.mockProvider.AssertExpectations(suite.T())
}

func (suite *ExchangeRateServiceTestSuite) expectFind(rows []domain.ExchangeRate, err error) *mock.Call {
	q := suite.query
	return suite.mockRateRepo.On("FindRates", mock.Anything, q.Base, q.Symbols, q.Start, q.End).Return(rows, err).Once()
}

func (suite *ExchangeRateServiceTestSuite) expectFetch(series domain.RateSeries, err error) *mock.Call {
	q := suite.query
	return suite.mockProvider.On("FetchRates", mock.Anything, q.Base, q.Symbols, q.Start, q.End).Return(series, err).Once()
}

// --- Test Cases ---

func (suite *ExchangeRateServiceTestSuite) TestGetRates_CacheHitSkipsUpstream() {
	cached := rowsFor([]string{"2024-01-02", "2024-01-03"}, "USD", "CAD")
	suite.expectFind(cached, nil)

	got, err := suite.service.GetRates(context.Background(), suite.query)

	suite.Require().NoError(err)
	suite.Equal(dto.GroupRatesByDate(cached), got)
	suite.mockProvider.AssertNotCalled(suite.T(), "FetchRates", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockRateRepo.AssertNotCalled(suite.T(), "UpsertRates", mock.Anything, mock.Anything)
}

func (suite *ExchangeRateServiceTestSuite) TestGetRates_MissFetchesUpsertsAndRereads() {
	series := domain.RateSeries{
		day("2024-01-02"): {"USD": decimal.RequireFromString("1.0956"), "CAD": decimal.RequireFromString("1.4565")},
		day("2024-01-03"): {"USD": decimal.RequireFromString("1.0919")},
	}
	stored := series.ToExchangeRates("EUR")

	suite.expectFind(nil, nil)
	suite.expectFetch(series, nil)
	suite.mockRateRepo.On("UpsertRates", mock.Anything, mock.MatchedBy(func(rows []domain.ExchangeRate) bool {
		if len(rows) != 3 {
			return false
		}
		for _, r := range rows {
			if r.BaseCurrency != "EUR" || !series[r.Date][r.TargetCurrency].Equal(r.Rate) {
				return false
			}
		}
		return true
	})).Return(int64(3), nil).Once()
	suite.expectFind(stored, nil)

	got, err := suite.service.GetRates(context.Background(), suite.query)

	suite.Require().NoError(err)
	suite.Require().Len(got, 2)
	suite.Equal("2024-01-02", got[0].Date)
	suite.Equal("EUR", got[0].Base)
	suite.Equal(map[string]float64{"USD": 1.0956, "CAD": 1.4565}, got[0].Rates)
	suite.Equal("2024-01-03", got[1].Date)
	suite.Equal(map[string]float64{"USD": 1.0919}, got[1].Rates)
}

func (suite *ExchangeRateServiceTestSuite) TestGetRates_EmptyUpstreamAnswerSkipsUpsert() {
	suite.expectFind(nil, nil)
	suite.expectFetch(domain.RateSeries{}, nil)
	suite.expectFind(nil, nil)

	got, err := suite.service.GetRates(context.Background(), suite.query)

	suite.Require().NoError(err)
	suite.NotNil(got)
	suite.Empty(got)
	suite.mockRateRepo.AssertNotCalled(suite.T(), "UpsertRates", mock.Anything, mock.Anything)
}

func (suite *ExchangeRateServiceTestSuite) TestGetRates_UpstreamDownServesPartialCache() {
	cached := rowsFor([]string{"2024-01-02"}, "USD")
	suite.expectFind(cached, nil)
	suite.expectFetch(nil, apperrors.NewUpstreamUnavailableError("timeout"))

	got, err := suite.service.GetRates(context.Background(), suite.query)

	suite.Require().NoError(err)
	suite.Equal(dto.GroupRatesByDate(cached), got)
	suite.mockRateRepo.AssertNotCalled(suite.T(), "UpsertRates", mock.Anything, mock.Anything)
}

func (suite *ExchangeRateServiceTestSuite) TestGetRates_UpstreamDownWithEmptyCache() {
	suite.expectFind([]domain.ExchangeRate{}, nil)
	suite.expectFetch(nil, apperrors.NewUpstreamUnavailableError("status 503"))

	got, err := suite.service.GetRates(context.Background(), suite.query)

	suite.Require().Error(err)
	suite.Nil(got)
	suite.ErrorIs(err, apperrors.ErrUpstreamUnavailable)
}

func (suite *ExchangeRateServiceTestSuite) TestGetRates_UnclassifiedProviderErrorIsUpstreamUnavailable() {
	suite.expectFind(nil, nil)
	suite.expectFetch(nil, errors.New("dns lookup failed"))

	_, err := suite.service.GetRates(context.Background(), suite.query)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrUpstreamUnavailable)
	suite.Contains(err.Error(), "dns lookup failed")
}

func (suite *ExchangeRateServiceTestSuite) TestGetRates_UpsertFailureIsReported() {
	storeErr := errors.New("disk full")
	suite.expectFind(nil, nil)
	suite.expectFetch(domain.RateSeries{day("2024-01-02"): {"USD": decimal.RequireFromString("1.1")}}, nil)
	suite.mockRateRepo.On("UpsertRates", mock.Anything, mock.Anything).Return(int64(0), storeErr).Once()

	got, err := suite.service.GetRates(context.Background(), suite.query)

	suite.Require().Error(err)
	suite.Nil(got)
	suite.ErrorIs(err, storeErr)
	suite.NotErrorIs(err, apperrors.ErrUpstreamUnavailable)
}

func (suite *ExchangeRateServiceTestSuite) TestGetRates_StoreReadFailure() {
	readErr := errors.New("connection reset")
	suite.expectFind(nil, readErr)

	_, err := suite.service.GetRates(context.Background(), suite.query)

	suite.Require().Error(err)
	suite.ErrorIs(err, readErr)
}

func (suite *ExchangeRateServiceTestSuite) TestGetRates_MissingTailFetchesNarrowWindow() {
	svc := services.NewExchangeRateService(
		suite.mockRateRepo,
		suite.mockProvider,
		services.WithClock(services.FixedClock(day("2024-06-15"))),
		services.WithCachePolicy(services.CachePolicy{StartToleranceDays: 3, Strategy: services.FetchMissingTail}),
	)
	q := domain.RateQuery{Base: "EUR", Symbols: []string{"USD"}, Start: day("2024-06-10"), End: day("2024-06-15")}
	cached := rowsFor([]string{"2024-06-10", "2024-06-13"}, "USD")
	fresh := rowsFor([]string{"2024-06-10", "2024-06-13", "2024-06-14"}, "USD")

	suite.mockRateRepo.On("FindRates", mock.Anything, "EUR", q.Symbols, q.Start, q.End).Return(cached, nil).Once()
	suite.mockProvider.On("FetchRates", mock.Anything, "EUR", q.Symbols, day("2024-06-14"), day("2024-06-15")).
		Return(domain.RateSeries{day("2024-06-14"): {"USD": decimal.RequireFromString("1.1")}}, nil).Once()
	suite.mockRateRepo.On("UpsertRates", mock.Anything, mock.Anything).Return(int64(1), nil).Once()
	suite.mockRateRepo.On("FindRates", mock.Anything, "EUR", q.Symbols, q.Start, q.End).Return(fresh, nil).Once()

	got, err := svc.GetRates(context.Background(), q)

	suite.Require().NoError(err)
	suite.Len(got, 3)
	suite.Equal("2024-06-14", got[2].Date)
}

func TestExchangeRateServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ExchangeRateServiceTestSuite))
}
