package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/marketpulse/internal/models"
)

// ErrDocumentNotFound is returned when no news document exists for a date
var ErrDocumentNotFound = errors.New("news document not found")

// NewsStore persists dated news documents
type NewsStore interface {
	LoadMacro(ctx context.Context, date string) (*models.NewsDocument, error)
	SaveMacro(ctx context.Context, doc *models.NewsDocument) error
	LoadStock(ctx context.Context, symbol, date string) (*models.NewsDocument, error)
	SaveStock(ctx context.Context, doc *models.NewsDocument) error
	LoadOverview(ctx context.Context, symbol, date string) (*models.NewsDocument, error)
	SaveOverview(ctx context.Context, doc *models.NewsDocument) error
}

// NewsPipeline produces the daily news decision for a symbol
type NewsPipeline interface {
	Process(ctx context.Context, symbol string) *models.NewsDecision
}
