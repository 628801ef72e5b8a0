package usecase_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"brain-orchestrator/internal/domain"
	"brain-orchestrator/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockSentimentSource struct {
	mock.Mock
}

func (m *mockSentimentSource) Lookup(ctx context.Context, ticker string) (string, error) {
	args := m.Called(ctx, ticker)
	return args.String(0), args.Error(1)
}

type mockPriceSource struct {
	mock.Mock
}

func (m *mockPriceSource) Lookup(ctx context.Context, ticker string) (*domain.PriceQuote, error) {
	args := m.Called(ctx, ticker)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PriceQuote), args.Error(1)
}

type mockTrendSource struct {
	mock.Mock
}

func (m *mockTrendSource) Lookup(ctx context.Context, ticker string) (string, error) {
	args := m.Called(ctx, ticker)
	return args.String(0), args.Error(1)
}

func newAggregator(s *mockSentimentSource, p *mockPriceSource, tr *mockTrendSource) usecase.ContextAggregator {
	return usecase.NewContextAggregator(s, p, tr, time.Second, time.Minute, slog.Default())
}

func quote(close, change string) *domain.PriceQuote {
	c, _ := decimal.NewFromString(close)
	ch, _ := decimal.NewFromString(change)
	return &domain.PriceQuote{Close: c, ChangePct: ch}
}

func TestContextAggregator_AllSourcesHealthy(t *testing.T) {
	sentiment := new(mockSentimentSource)
	price := new(mockPriceSource)
	trend := new(mockTrendSource)

	sentiment.On("Lookup", mock.Anything, "TSLA").Return("65% bullish", nil)
	price.On("Lookup", mock.Anything, "TSLA").Return(quote("723.54", "1.23"), nil)
	trend.On("Lookup", mock.Anything, "TSLA").Return("moderate uptrend", nil)

	bundles := newAggregator(sentiment, price, trend).Gather(context.Background(), []string{"TSLA"})

	assert.Equal(t, domain.TickerContext{
		Sentiment: "65% bullish",
		Price:     "723.54",
		ChangePct: "1.23",
		Trend:     "moderate uptrend",
	}, bundles["TSLA"])
}

func TestContextAggregator_OneSourceDownStillReturnsBundle(t *testing.T) {
	sentiment := new(mockSentimentSource)
	price := new(mockPriceSource)
	trend := new(mockTrendSource)

	sentiment.On("Lookup", mock.Anything, "TSLA").Return("", errors.New("connection refused"))
	price.On("Lookup", mock.Anything, "TSLA").Return(quote("723.54", "1.23"), nil)
	trend.On("Lookup", mock.Anything, "TSLA").Return("moderate uptrend", nil)

	bundles := newAggregator(sentiment, price, trend).Gather(context.Background(), []string{"TSLA"})

	bundle := bundles["TSLA"]
	assert.Equal(t, domain.SentimentUnknown, bundle.Sentiment)
	assert.Equal(t, "723.54", bundle.Price)
	assert.Equal(t, "moderate uptrend", bundle.Trend)
	assert.True(t, bundle.Degraded())
}

func TestContextAggregator_NoTickersIssuesNoCalls(t *testing.T) {
	sentiment := new(mockSentimentSource)
	price := new(mockPriceSource)
	trend := new(mockTrendSource)

	bundles := newAggregator(sentiment, price, trend).Gather(context.Background(), nil)

	assert.Empty(t, bundles)
	sentiment.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
	price.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
	trend.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
}

func TestContextAggregator_HealthyBundleIsCached(t *testing.T) {
	sentiment := new(mockSentimentSource)
	price := new(mockPriceSource)
	trend := new(mockTrendSource)

	sentiment.On("Lookup", mock.Anything, "AAPL").Return("neutral", nil).Once()
	price.On("Lookup", mock.Anything, "AAPL").Return(quote("190.1", "-0.4"), nil).Once()
	trend.On("Lookup", mock.Anything, "AAPL").Return("sideways", nil).Once()

	agg := newAggregator(sentiment, price, trend)
	first := agg.Gather(context.Background(), []string{"AAPL"})
	second := agg.Gather(context.Background(), []string{"AAPL"})

	assert.Equal(t, first, second)
	sentiment.AssertNumberOfCalls(t, "Lookup", 1)
	price.AssertNumberOfCalls(t, "Lookup", 1)
	trend.AssertNumberOfCalls(t, "Lookup", 1)
}

func TestContextAggregator_DegradedBundleIsNotCached(t *testing.T) {
	sentiment := new(mockSentimentSource)
	price := new(mockPriceSource)
	trend := new(mockTrendSource)

	sentiment.On("Lookup", mock.Anything, "TSLA").Return("", errors.New("down")).Once()
	sentiment.On("Lookup", mock.Anything, "TSLA").Return("bullish", nil).Once()
	price.On("Lookup", mock.Anything, "TSLA").Return(quote("1", "0"), nil)
	trend.On("Lookup", mock.Anything, "TSLA").Return("flat", nil)

	agg := newAggregator(sentiment, price, trend)
	first := agg.Gather(context.Background(), []string{"TSLA"})
	second := agg.Gather(context.Background(), []string{"TSLA"})

	assert.Equal(t, domain.SentimentUnknown, first["TSLA"].Sentiment)
	assert.Equal(t, "bullish", second["TSLA"].Sentiment)
}

func TestContextLines_StableOrder(t *testing.T) {
	bundles := map[string]domain.TickerContext{
		"TSLA": {Sentiment: "bullish", Price: "720", ChangePct: "1.2", Trend: "up"},
		"AAPL": {Sentiment: "neutral", Price: "190", ChangePct: "-0.4", Trend: "flat"},
	}

	lines := usecase.ContextLines([]string{"AAPL", "TSLA"}, bundles)

	assert.Equal(t, []string{
		"AAPL sentiment: neutral",
		"AAPL price: 190 (24h change: -0.4%)",
		"AAPL trend prediction: flat",
		"TSLA sentiment: bullish",
		"TSLA price: 720 (24h change: 1.2%)",
		"TSLA trend prediction: up",
	}, lines)
}
