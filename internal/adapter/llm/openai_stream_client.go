package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"brain-orchestrator/internal/domain"
)

const dataPrefix = "data: "

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatStreamResponse struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// OpenAIStreamClient speaks the OpenAI-compatible chat completions SSE
// protocol: one "data:" JSON line per fragment, terminated by the
// literal "[DONE]" sentinel.
type OpenAIStreamClient struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Client      *http.Client
}

// NewOpenAIStreamClient constructs a streaming client for the given
// endpoint and model name.
func NewOpenAIStreamClient(baseURL, apiKey, model string, temperature float64, client *http.Client) *OpenAIStreamClient {
	return &OpenAIStreamClient{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		APIKey:      apiKey,
		Model:       model,
		Temperature: temperature,
		Client:      client,
	}
}

var _ domain.StreamingLLMClient = (*OpenAIStreamClient)(nil)

// GenerateStream opens the completion stream and delivers fragments on
// the returned chunk channel. The chunk channel has capacity one: the
// reader goroutine never runs ahead of the consumer by more than a
// single fragment, so emission order is preserved end to end.
func (c *OpenAIStreamClient) GenerateStream(ctx context.Context, messages []domain.PromptMessage) (<-chan domain.LLMStreamChunk, <-chan error, error) {
	reqBody := chatRequest{
		Model:       c.Model,
		Temperature: c.Temperature,
		Stream:      true,
		Messages:    make([]chatMessage, 0, len(messages)),
	}
	for _, m := range messages {
		reqBody.Messages = append(reqBody.Messages, chatMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	jsonPayload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/chat/completions", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonPayload))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to call completion endpoint: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, nil, fmt.Errorf("completion endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	chunks := make(chan domain.LLMStreamChunk, 1)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		done := false
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, dataPrefix) {
				continue
			}
			payload := strings.TrimPrefix(line, dataPrefix)
			if payload == "[DONE]" {
				done = true
				break
			}

			var event chatStreamResponse
			if err := json.Unmarshal([]byte(payload), &event); err != nil {
				errs <- fmt.Errorf("failed to decode stream event: %w", err)
				return
			}
			if len(event.Choices) == 0 {
				continue
			}
			if content := event.Choices[0].Delta.Content; content != "" {
				select {
				case <-ctx.Done():
					return
				case chunks <- domain.LLMStreamChunk{Content: content}:
				}
			}
			if event.Choices[0].FinishReason != nil {
				done = true
				break
			}
		}

		if err := scanner.Err(); err != nil {
			if ctx.Err() == nil {
				errs <- fmt.Errorf("stream read failed: %w", err)
			}
			return
		}
		if !done && ctx.Err() == nil {
			errs <- fmt.Errorf("stream ended before completion: %w", io.ErrUnexpectedEOF)
		}
	}()

	return chunks, errs, nil
}

// Version returns the wrapped model name.
func (c *OpenAIStreamClient) Version() string {
	return c.Model
}
