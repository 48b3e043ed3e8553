// Package llm provides the text-completion boundary used for entity
// classification, intent classification, sentiment analysis, and advice
// generation. All callers go through the small Provider interface so the
// pipeline can be exercised with mocks.
package llm

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Common errors returned by providers.
var (
	ErrNoAPIKey     = errors.New("llm: API key not configured")
	ErrRateLimited  = errors.New("llm: rate limit exceeded")
	ErrProviderDown = errors.New("llm: provider unavailable")
	ErrBadResponse  = errors.New("llm: malformed provider response")
)

// Options configures a single completion request.
type Options struct {
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// Provider is the text-completion boundary. Implementations must honor the
// context and return a complete error rather than blocking indefinitely.
type Provider interface {
	// Name returns the provider identifier (e.g., "openai").
	Name() string

	// Complete sends a system instruction and a user text and returns the
	// model's reply as plain text.
	Complete(ctx context.Context, system, user string, opts *Options) (string, error)
}

// ExtractJSON returns the first top-level JSON object embedded in a model
// reply. Models frequently wrap JSON in prose or code fences; callers treat
// a missing object as a recoverable parse failure.
func ExtractJSON(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}
