package models

// Sentiment labels produced by the fallback chain
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// AIResponse carries the text produced by exactly one tier of the fallback chain
type AIResponse struct {
	Text     string `json:"text"`
	Provider string `json:"provider"` // gemini, claude, heuristic, fallback
	Tier     int    `json:"tier"`     // 1..3, 0 for synthesized fallback
}

// SentimentResult is the response of a free-text sentiment request
type SentimentResult struct {
	Sentiment string   `json:"sentiment"`
	Summary   string   `json:"summary,omitempty"`
	Positive  []string `json:"positive,omitempty"`
	Negative  []string `json:"negative,omitempty"`
	Source    string   `json:"source"`
}

// Schema describes the JSON object a structured generation must return.
// Default and BySentiment let the heuristic tier fill fields with typed
// values instead of shape placeholders.
type Schema struct {
	Type        string             `json:"type"` // object, array, string, number, integer, boolean
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Order       []string           `json:"-"` // property order for prompts and provider schemas
	Items       *Schema            `json:"items,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Default     any                `json:"-"`
	BySentiment map[string]any     `json:"-"`
	Keywords    bool               `json:"-"` // array of strings filled with matched keywords
}
