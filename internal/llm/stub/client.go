// Package stub provides a scripted llm.Client for testing.
package stub

import (
	"context"
	"strings"
	"sync"

	"wallet-chronicle/internal/llm"
)

// Client implements llm.Client with scripted behavior. By default every
// call echoes a deterministic marker derived from the user prompt;
// CompleteFunc overrides the behavior entirely.
type Client struct {
	mu    sync.Mutex
	calls []llm.Request

	// CompleteFunc, when set, handles every call.
	CompleteFunc func(ctx context.Context, req llm.Request) (string, error)

	// Err, when set, fails every call (ignored when CompleteFunc is set).
	Err error
}

// NewClient creates a stub completion client.
func NewClient() *Client {
	return &Client{}
}

// Complete records the request and returns the scripted response.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	c.mu.Lock()
	c.calls = append(c.calls, req)
	c.mu.Unlock()

	if c.CompleteFunc != nil {
		return c.CompleteFunc(ctx, req)
	}
	if c.Err != nil {
		return "", c.Err
	}
	return defaultResponse(req), nil
}

// Calls returns a copy of all recorded requests.
func (c *Client) Calls() []llm.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]llm.Request, len(c.calls))
	copy(out, c.calls)
	return out
}

// CallCount returns how many completions have been requested.
func (c *Client) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// Reset clears recorded calls.
func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = nil
}

// defaultResponse derives a short deterministic reply from the prompt so
// tests can assert on round-tripped content.
func defaultResponse(req llm.Request) string {
	line := req.User
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	return "stub: " + line
}

var _ llm.Client = (*Client)(nil)
