package llm

import (
	"context"
	"strings"
	"unicode"

	json "github.com/goccy/go-json"

	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
)

// ProviderHeuristic names the keyword tier in response provenance.
const ProviderHeuristic = "heuristic"

var positiveWords = []string{
	"beat", "beats", "surge", "surges", "soar", "soars", "gain", "gains",
	"record", "upgrade", "upgraded", "bullish", "outperform", "profit",
	"profits", "rally", "rallies", "raises", "raised", "expands", "exceeds",
	"jump", "jumps", "boost", "boosts", "optimism", "breakthrough", "approval",
}

var negativeWords = []string{
	"miss", "misses", "plunge", "plunges", "fall", "falls", "drop", "drops",
	"decline", "declines", "loss", "losses", "downgrade", "downgraded",
	"bearish", "underperform", "lawsuit", "layoffs", "recall", "probe",
	"investigation", "bankruptcy", "fraud", "slump", "slumps", "warning",
	"tumble", "tumbles", "selloff",
}

// Sentiment is the keyword tally behind a heuristic result
type Sentiment struct {
	Label    string
	Score    float64 // (positive - negative) / matches, 0 without matches
	Positive []string
	Negative []string
}

// Keywords returns matched words, positive first
func (s Sentiment) Keywords() []string {
	return append(append([]string(nil), s.Positive...), s.Negative...)
}

// AnalyzeSentiment counts positive and negative keywords in text
func AnalyzeSentiment(text string) Sentiment {
	pos := wordSet(positiveWords)
	neg := wordSet(negativeWords)

	var result Sentiment
	seen := make(map[string]bool)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	posCount, negCount := 0, 0
	for _, w := range words {
		switch {
		case pos[w]:
			posCount++
			if !seen[w] {
				result.Positive = append(result.Positive, w)
				seen[w] = true
			}
		case neg[w]:
			negCount++
			if !seen[w] {
				result.Negative = append(result.Negative, w)
				seen[w] = true
			}
		}
	}

	switch {
	case posCount > negCount:
		result.Label = models.SentimentPositive
	case negCount > posCount:
		result.Label = models.SentimentNegative
	default:
		result.Label = models.SentimentNeutral
	}
	if total := posCount + negCount; total > 0 {
		result.Score = float64(posCount-negCount) / float64(total)
	}

	return result
}

func wordSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// HeuristicGenerator is the always-available keyword tier
type HeuristicGenerator struct{}

var _ interfaces.TextGenerator = (*HeuristicGenerator)(nil)

// NewHeuristicGenerator creates the keyword tier
func NewHeuristicGenerator() *HeuristicGenerator {
	return &HeuristicGenerator{}
}

func (h *HeuristicGenerator) Name() string {
	return ProviderHeuristic
}

func (h *HeuristicGenerator) Available() bool {
	return true
}

// Generate returns the sentiment label, or a schema-shaped JSON object steered by it
func (h *HeuristicGenerator) Generate(ctx context.Context, prompt string, schema *models.Schema) (string, error) {
	sentiment := AnalyzeSentiment(prompt)
	if schema == nil {
		return sentiment.Label, nil
	}

	obj := Synthesize(schema, &Hints{
		Sentiment: sentiment.Label,
		Keywords:  sentiment.Keywords(),
	})
	data, err := json.Marshal(obj)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
