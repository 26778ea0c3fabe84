package market

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/ternarybob/marketpulse/internal/models"
	"github.com/ternarybob/marketpulse/internal/services/cache"
	"github.com/ternarybob/marketpulse/internal/services/llm"
)

// ErrEmptyText is returned when there is nothing to analyse
var ErrEmptyText = errors.New("text is required")

// SentimentKey is the cache key for the sentiment of text
func SentimentKey(text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return cache.Key(cache.NamespaceAI, "sentiment", hex.EncodeToString(sum[:8]))
}

// AnalyzeSentiment classifies free text through the AI chain. The matched
// keywords are always reported so the label can be explained.
func (s *Service) AnalyzeSentiment(ctx context.Context, text string) (*models.SentimentResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	if s.ai == nil {
		return nil, errNoProvider
	}

	return cached(ctx, s.cache, SentimentKey(text), func(ctx context.Context) (*models.SentimentResult, error) {
		resp, err := s.ai.Generate(ctx, sentimentPrompt(text))
		if err != nil {
			return nil, err
		}

		keywords := llm.AnalyzeSentiment(text)
		result := &models.SentimentResult{
			Sentiment: parseLabel(resp.Text, keywords.Label),
			Positive:  keywords.Positive,
			Negative:  keywords.Negative,
			Source:    resp.Provider,
		}
		if summary := strings.TrimSpace(resp.Text); !strings.EqualFold(summary, result.Sentiment) {
			result.Summary = summary
		}
		return result, nil
	})
}

func sentimentPrompt(text string) string {
	return "Classify the market sentiment of the following text as positive, negative or neutral. " +
		"Answer with the label first, then one short sentence of explanation.\n\nText:\n" + text
}

// parseLabel takes the first sentiment label mentioned in a model answer
func parseLabel(answer, fallback string) string {
	lower := strings.ToLower(answer)
	best, bestIdx := "", -1
	for _, label := range []string{models.SentimentPositive, models.SentimentNegative, models.SentimentNeutral} {
		if i := strings.Index(lower, label); i >= 0 && (bestIdx < 0 || i < bestIdx) {
			best, bestIdx = label, i
		}
	}
	if best == "" {
		return fallback
	}
	return best
}
