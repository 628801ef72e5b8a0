package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// Placeholder values substituted when an enrichment source fails or
// times out. They are part of the prompt contract, not error states.
const (
	SentimentUnknown = "Unknown"
	ValueUnavailable = "N/A"
)

// PriceQuote is the latest traded price for a ticker together with its
// 24h change percentage.
type PriceQuote struct {
	Close     decimal.Decimal
	ChangePct decimal.Decimal
}

// SentimentSource looks up an aggregated market-sentiment summary for a
// ticker, e.g. "65% bullish".
type SentimentSource interface {
	Lookup(ctx context.Context, ticker string) (string, error)
}

// PriceSource looks up the latest quote for a ticker.
type PriceSource interface {
	Lookup(ctx context.Context, ticker string) (*PriceQuote, error)
}

// TrendSource looks up a trend prediction for a ticker, e.g.
// "moderate uptrend".
type TrendSource interface {
	Lookup(ctx context.Context, ticker string) (string, error)
}

// TickerContext is the per-ticker enrichment bundle attached to one
// prompt. It lives only for the turn that gathered it. Fields hold the
// placeholder values above when the corresponding source degraded.
type TickerContext struct {
	Sentiment string
	Price     string
	ChangePct string
	Trend     string
}

// Degraded reports whether any signal in the bundle fell back to a
// placeholder.
func (c TickerContext) Degraded() bool {
	return c.Sentiment == SentimentUnknown ||
		c.Price == ValueUnavailable ||
		c.ChangePct == ValueUnavailable ||
		c.Trend == ValueUnavailable
}
