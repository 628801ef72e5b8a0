package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"brain-orchestrator/internal/domain"
	"brain-orchestrator/internal/infra/metrics"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"
)

const enrichmentCacheSize = 256

// ContextAggregator produces one enrichment bundle per ticker, tolerating
// any individual source failing. A failed or timed-out signal degrades to
// its placeholder; nothing escapes the aggregator boundary.
type ContextAggregator interface {
	Gather(ctx context.Context, tickers []string) map[string]domain.TickerContext
}

type contextAggregator struct {
	sentiment domain.SentimentSource
	price     domain.PriceSource
	trend     domain.TrendSource
	timeout   time.Duration
	cache     *expirable.LRU[string, domain.TickerContext]
	logger    *slog.Logger
}

// NewContextAggregator wires the three enrichment sources behind a
// short-TTL per-ticker cache, so bursts of turns mentioning the same
// symbol do not stampede the sibling services.
func NewContextAggregator(
	sentiment domain.SentimentSource,
	price domain.PriceSource,
	trend domain.TrendSource,
	timeout time.Duration,
	cacheTTL time.Duration,
	logger *slog.Logger,
) ContextAggregator {
	return &contextAggregator{
		sentiment: sentiment,
		price:     price,
		trend:     trend,
		timeout:   timeout,
		cache:     expirable.NewLRU[string, domain.TickerContext](enrichmentCacheSize, nil, cacheTTL),
		logger:    logger,
	}
}

// Gather fans out per ticker and, within a ticker, per signal. It always
// returns a bundle for every requested ticker; zero tickers short-circuit
// with no network calls.
func (a *contextAggregator) Gather(ctx context.Context, tickers []string) map[string]domain.TickerContext {
	bundles := make(map[string]domain.TickerContext, len(tickers))
	if len(tickers) == 0 {
		return bundles
	}

	results := make([]domain.TickerContext, len(tickers))
	var g errgroup.Group
	for i, ticker := range tickers {
		g.Go(func() error {
			if cached, ok := a.cache.Get(ticker); ok {
				metrics.EnrichmentCacheHits.Inc()
				results[i] = cached
				return nil
			}
			results[i] = a.gatherOne(ctx, ticker)
			// Degraded bundles are not cached: the next turn should retry
			// the failed source rather than pin the placeholder.
			if !results[i].Degraded() {
				a.cache.Add(ticker, results[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	for i, ticker := range tickers {
		bundles[ticker] = results[i]
	}
	return bundles
}

func (a *contextAggregator) gatherOne(ctx context.Context, ticker string) domain.TickerContext {
	bundle := domain.TickerContext{}

	var g errgroup.Group

	g.Go(func() error {
		fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		summary, err := a.sentiment.Lookup(fetchCtx, ticker)
		if err != nil {
			a.degrade(ticker, "sentiment", err)
			bundle.Sentiment = domain.SentimentUnknown
			return nil
		}
		bundle.Sentiment = summary
		return nil
	})

	g.Go(func() error {
		fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		quote, err := a.price.Lookup(fetchCtx, ticker)
		if err != nil {
			a.degrade(ticker, "price", err)
			bundle.Price = domain.ValueUnavailable
			bundle.ChangePct = domain.ValueUnavailable
			return nil
		}
		bundle.Price = quote.Close.String()
		bundle.ChangePct = quote.ChangePct.String()
		return nil
	})

	g.Go(func() error {
		fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		trend, err := a.trend.Lookup(fetchCtx, ticker)
		if err != nil {
			a.degrade(ticker, "trend", err)
			bundle.Trend = domain.ValueUnavailable
			return nil
		}
		bundle.Trend = trend
		return nil
	})

	_ = g.Wait()
	return bundle
}

func (a *contextAggregator) degrade(ticker, signal string, err error) {
	metrics.EnrichmentDegradations.WithLabelValues(signal).Inc()
	a.logger.Warn("context source degraded",
		slog.String("ticker", ticker),
		slog.String("signal", signal),
		slog.String("error", err.Error()))
}

// ContextLines flattens bundles into human-readable prompt lines. Ticker
// order follows the input order; within a ticker the signal order is
// fixed: sentiment, price, trend.
func ContextLines(tickers []string, bundles map[string]domain.TickerContext) []string {
	lines := make([]string, 0, len(tickers)*3)
	for _, ticker := range tickers {
		bundle, ok := bundles[ticker]
		if !ok {
			continue
		}
		lines = append(lines,
			fmt.Sprintf("%s sentiment: %s", ticker, bundle.Sentiment),
			fmt.Sprintf("%s price: %s (24h change: %s%%)", ticker, bundle.Price, bundle.ChangePct),
			fmt.Sprintf("%s trend prediction: %s", ticker, bundle.Trend),
		)
	}
	return lines
}
