package interfaces

import (
	"context"

	"github.com/ternarybob/marketpulse/internal/models"
)

// Validator validates ticker symbols
type Validator interface {
	Validate(ctx context.Context, symbol string) models.ValidationResult
	Suggestions(symbol string) []string
}
