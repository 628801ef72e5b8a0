// Package market holds the HTTP clients for the sibling services that
// enrich prompts with live market context: x-service (sentiment and
// trading data) and ml-service (trend forecasts). Each client maps one
// enrichment signal; failures are reported to the aggregator, which
// degrades them to placeholders instead of surfacing them.
package market

import (
	"context"
	"fmt"
	"time"

	"brain-orchestrator/internal/domain"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

type sentimentResponse struct {
	Summary string `json:"summary"`
}

// SentimentClient fetches aggregated market sentiment for a ticker from
// x-service.
type SentimentClient struct {
	client  *resty.Client
	limiter *rate.Limiter
}

// NewSentimentClient builds a client against the x-service base URL. The
// limiter is shared across all market clients to cap total upstream QPS.
func NewSentimentClient(baseURL string, timeout time.Duration, limiter *rate.Limiter) *SentimentClient {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)

	return &SentimentClient{
		client:  client,
		limiter: limiter,
	}
}

var _ domain.SentimentSource = (*SentimentClient)(nil)

func (c *SentimentClient) Lookup(ctx context.Context, ticker string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	var result sentimentResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&result).
		Get(fmt.Sprintf("/api/v1/sentiment/%s/summary", ticker))
	if err != nil {
		return "", fmt.Errorf("failed to fetch sentiment for %s: %w", ticker, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("sentiment endpoint returned %d for %s", resp.StatusCode(), ticker)
	}
	if result.Summary == "" {
		return "", fmt.Errorf("empty sentiment summary for %s", ticker)
	}
	return result.Summary, nil
}
