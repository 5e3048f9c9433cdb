// Package llm provides the text-completion client used by the analysis
// pipeline. The pipeline treats a completion as an opaque blocking call:
// prompt in, text out, with rate-limit failures distinguished from
// everything else.
package llm

import (
	"context"
	"errors"
)

// Failure kinds. Rate limiting is retried inside the HTTP client with
// bounded backoff; any other failure surfaces immediately as ErrService.
// At the chunk level both kinds stop the run and checkpoint state.
var (
	// ErrRateLimited is returned when the provider keeps responding 429
	// after all retries.
	ErrRateLimited = errors.New("llm: rate limited")

	// ErrService is returned for non-retryable failures: network, auth,
	// malformed responses, any non-429 error status.
	ErrService = errors.New("llm: service error")
)

// Request is one completion call.
type Request struct {
	System    string
	User      string
	Model     string // empty means the client's default model
	MaxTokens int    // zero means the client's default budget
}

// Client is a text-completion service.
type Client interface {
	// Complete blocks until the model responds or the call fails.
	Complete(ctx context.Context, req Request) (string, error)
}
