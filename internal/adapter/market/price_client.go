package market

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"brain-orchestrator/internal/domain"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// Numbers arrive as json.Number so quotes survive the round trip without
// float drift before decimal parsing.
type quoteResponse struct {
	Close         json.Number `json:"close"`
	ChangePercent json.Number `json:"change_percent"`
}

// PriceClient fetches the latest traded quote for a ticker from
// x-service.
type PriceClient struct {
	client  *resty.Client
	limiter *rate.Limiter
}

func NewPriceClient(baseURL string, timeout time.Duration, limiter *rate.Limiter) *PriceClient {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)

	return &PriceClient{
		client:  client,
		limiter: limiter,
	}
}

var _ domain.PriceSource = (*PriceClient)(nil)

func (c *PriceClient) Lookup(ctx context.Context, ticker string) (*domain.PriceQuote, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var result quoteResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&result).
		Get(fmt.Sprintf("/api/v1/trading/%s/latest", ticker))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch price for %s: %w", ticker, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("trading endpoint returned %d for %s", resp.StatusCode(), ticker)
	}

	closePrice, err := decimal.NewFromString(result.Close.String())
	if err != nil {
		return nil, fmt.Errorf("invalid close price %q for %s: %w", result.Close, ticker, err)
	}
	changePct, err := decimal.NewFromString(result.ChangePercent.String())
	if err != nil {
		return nil, fmt.Errorf("invalid change percent %q for %s: %w", result.ChangePercent, ticker, err)
	}

	return &domain.PriceQuote{
		Close:     closePrice,
		ChangePct: changePct,
	}, nil
}
