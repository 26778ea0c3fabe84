package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/marketpulse/internal/models"
)

// ErrProviderUnavailable is returned by a generator whose credential is not configured
var ErrProviderUnavailable = errors.New("provider not configured")

// TextGenerator is a single AI provider in the fallback chain
type TextGenerator interface {
	// Name identifies the provider in logs and response provenance
	Name() string

	// Available reports whether the provider is configured
	Available() bool

	// Generate returns free text. When schema is non-nil the provider is
	// asked for a JSON object matching it.
	Generate(ctx context.Context, prompt string, schema *models.Schema) (string, error)
}

// ResponseGenerator is the ordered fallback chain as seen by callers
type ResponseGenerator interface {
	Generate(ctx context.Context, prompt string) (*models.AIResponse, error)

	// GenerateStructured decodes a JSON object matching schema into out.
	// It always returns a result; out is populated by exactly one tier.
	GenerateStructured(ctx context.Context, prompt string, schema *models.Schema, out any) (*models.AIResponse, error)
}

// SentimentAnalyzer classifies free text through the fallback chain
type SentimentAnalyzer interface {
	AnalyzeSentiment(ctx context.Context, text string) (*models.SentimentResult, error)
}

// ProviderReporter lists the AI tiers and whether each is configured
type ProviderReporter interface {
	Providers() map[string]bool
}
