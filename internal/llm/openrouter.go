package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Default configuration values.
const (
	DefaultEndpoint   = "https://openrouter.ai/api/v1/chat/completions"
	DefaultTimeout    = 120 * time.Second
	DefaultMaxRetries = 5
	DefaultRetryDelay = 5 * time.Second
	DefaultMaxTokens  = 4096
)

// OpenRouterClient implements Client against the OpenRouter
// chat-completions HTTP API. Only HTTP 429 is retried, with exponential
// backoff; every other failure returns immediately.
type OpenRouterClient struct {
	endpoint     string
	apiKey       string
	defaultModel string
	client       *http.Client
	maxRetries   int
	retryDelay   time.Duration
	onRetry      func() // retry observation hook, may be nil
}

// ClientOption configures OpenRouterClient.
type ClientOption func(*OpenRouterClient)

// WithEndpoint overrides the completions endpoint (used in tests).
func WithEndpoint(endpoint string) ClientOption {
	return func(c *OpenRouterClient) {
		c.endpoint = endpoint
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *OpenRouterClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets the maximum rate-limit retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *OpenRouterClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets the initial rate-limit retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *OpenRouterClient) {
		c.retryDelay = d
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *OpenRouterClient) {
		c.client = client
	}
}

// WithRetryHook installs a callback invoked before each rate-limit retry.
func WithRetryHook(fn func()) ClientOption {
	return func(c *OpenRouterClient) {
		c.onRetry = fn
	}
}

// NewOpenRouterClient creates a completion client for OpenRouter.
func NewOpenRouterClient(apiKey, defaultModel string, opts ...ClientOption) *OpenRouterClient {
	c := &OpenRouterClient{
		endpoint:     DefaultEndpoint,
		apiKey:       apiKey,
		defaultModel: defaultModel,
		client:       &http.Client{Timeout: DefaultTimeout},
		maxRetries:   DefaultMaxRetries,
		retryDelay:   DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete performs one chat completion with rate-limit retries.
func (c *OpenRouterClient) Complete(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}

	body, err := json.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", ErrService, err)
	}

	delay := c.retryDelay

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if c.onRetry != nil {
				c.onRetry()
			}
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", ErrService, ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("%w: create request: %v", ErrService, err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.client.Do(httpReq)
		if err != nil {
			return "", fmt.Errorf("%w: http request: %v", ErrService, err)
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return "", fmt.Errorf("%w: read response: %v", ErrService, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			// Retry with backoff; falls through to the loop header.
			continue
		}

		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("%w: unexpected status %d: %s",
				ErrService, resp.StatusCode, truncate(string(respBody), 200))
		}

		var parsed chatResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return "", fmt.Errorf("%w: unmarshal response: %v", ErrService, err)
		}
		if len(parsed.Choices) == 0 {
			return "", fmt.Errorf("%w: response has no choices", ErrService)
		}

		return parsed.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("%w: %d retries exhausted", ErrRateLimited, c.maxRetries)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ Client = (*OpenRouterClient)(nil)
