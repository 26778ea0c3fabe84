package models

import "time"

// NewsArticle is sourced verbatim from an upstream search provider
type NewsArticle struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet,omitempty"`
	Date    string `json:"date"`
	Source  string `json:"source"`
}

// StockOverview is the AI generated daily view of a symbol
type StockOverview struct {
	Symbol         string    `json:"symbol"`
	Overview       string    `json:"overview" validate:"required"`
	Recommendation string    `json:"recommendation" validate:"required,oneof=BUY HOLD SELL"`
	Confidence     int       `json:"confidence" validate:"min=0,max=100"`
	KeyFactors     []string  `json:"keyFactors" validate:"required,min=1"`
	RiskLevel      string    `json:"riskLevel" validate:"required,oneof=LOW MEDIUM HIGH"`
	TimeHorizon    string    `json:"timeHorizon" validate:"required"`
	Source         string    `json:"source"`
	Timestamp      time.Time `json:"timestamp"`
}

// DocumentMetadata describes how a news document was produced
type DocumentMetadata struct {
	ArticleCount  int      `json:"articleCount"`
	FilteredCount int      `json:"filteredCount"`
	Queries       []string `json:"queries,omitempty"`
	Provider      string   `json:"provider,omitempty"`
	CorrelationID string   `json:"correlationId,omitempty"`
}

// NewsDocument is the on-disk shape of every dated news file
type NewsDocument struct {
	Symbol    string           `json:"symbol,omitempty"`
	Date      string           `json:"date"`
	Timestamp time.Time        `json:"timestamp"`
	Query     string           `json:"query"`
	Summary   string           `json:"summary,omitempty"`
	Overview  *StockOverview   `json:"overview,omitempty"`
	Articles  []NewsArticle    `json:"articles"`
	Metadata  DocumentMetadata `json:"metadata"`
}

// NewsDecision is the single result of a news pipeline run
type NewsDecision struct {
	IsValid          bool              `json:"isValid"`
	Symbol           string            `json:"symbol,omitempty"`
	Date             string            `json:"date,omitempty"`
	Overview         *StockOverview    `json:"overview,omitempty"`
	StockNews        []NewsArticle     `json:"stockNews,omitempty"`
	MacroNews        []NewsArticle     `json:"macroNews,omitempty"`
	ValidationResult *ValidationResult `json:"validationResult,omitempty"`
	Error            string            `json:"error,omitempty"`
	Suggestions      []string          `json:"suggestions,omitempty"`
}
