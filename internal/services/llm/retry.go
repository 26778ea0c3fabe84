package llm

import (
	"context"
	"errors"
	"strings"
)

// IsRateLimitError checks if an error is a provider rate limit error.
// Matches 429 status codes, Gemini RESOURCE_EXHAUSTED and quota messages.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(errStr, "rate_limit") ||
		strings.Contains(errStr, "quota")
}

// failureReason labels a tier failure for logs and metrics
func failureReason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case IsRateLimitError(err):
		return "rate_limited"
	case errors.Is(err, ErrNoJSON):
		return "malformed"
	default:
		return "error"
	}
}
