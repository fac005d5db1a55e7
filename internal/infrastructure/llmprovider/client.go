package llmprovider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"github.com/janhq/client-sim/internal/domain/generation"
)

// Config configures the OpenAI-compatible completion client.
type Config struct {
	BaseURL         string
	APIKey          string
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// Client implements generation.Completer over /chat/completions.
type Client struct {
	httpClient *resty.Client
	breaker    *gobreaker.CircuitBreaker
}

// NewClient creates a Resty-backed client guarded by a circuit breaker.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	failures := cfg.BreakerFailures

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout)
	if cfg.APIKey != "" {
		httpClient.SetAuthToken(cfg.APIKey)
	}

	return &Client{
		httpClient: httpClient,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "llm-provider",
			Timeout: cfg.BreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
		}),
	}
}

// Complete runs one non-streaming chat completion and returns the first choice text.
func (c *Client) Complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	req.Stream = false
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.createChatCompletion(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("llm provider unavailable: %w", err)
		}
		return "", err
	}

	completion := out.(*openai.ChatCompletionResponse)
	if len(completion.Choices) == 0 {
		return "", generation.ErrEmptyCompletion
	}
	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return "", generation.ErrEmptyCompletion
	}
	return text, nil
}

// State reports the breaker state. /readyz lists it under the "llm" dependency.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

func (c *Client) createChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error) {
	var completion openai.ChatCompletionResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&completion).
		Post("/chat/completions")
	if err != nil {
		return nil, err
	}

	if resp.IsError() {
		return nil, fmt.Errorf("llm api error: %d %s", resp.StatusCode(), resp.String())
	}
	return &completion, nil
}

// Ensure interface compliance.
var _ generation.Completer = (*Client)(nil)
