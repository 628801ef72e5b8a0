package market

import (
	"context"
	"fmt"
	"time"

	"brain-orchestrator/internal/domain"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

type trendResponse struct {
	Trend string `json:"trend"`
}

// TrendClient fetches a trend forecast for a ticker from ml-service.
type TrendClient struct {
	client  *resty.Client
	limiter *rate.Limiter
}

func NewTrendClient(baseURL string, timeout time.Duration, limiter *rate.Limiter) *TrendClient {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)

	return &TrendClient{
		client:  client,
		limiter: limiter,
	}
}

var _ domain.TrendSource = (*TrendClient)(nil)

func (c *TrendClient) Lookup(ctx context.Context, ticker string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	var result trendResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&result).
		Get(fmt.Sprintf("/api/v1/predict/%s", ticker))
	if err != nil {
		return "", fmt.Errorf("failed to fetch prediction for %s: %w", ticker, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("predict endpoint returned %d for %s", resp.StatusCode(), ticker)
	}
	if result.Trend == "" {
		return "", fmt.Errorf("empty trend prediction for %s", ticker)
	}
	return result.Trend, nil
}
