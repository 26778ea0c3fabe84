package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeSentiment(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"positive", "Apple beats estimates, shares surge to record", "positive"},
		{"negative", "Retailer misses forecast as sales decline; stock plunges after downgrade", "negative"},
		{"balanced", "Profit gains offset by lawsuit losses", "neutral"},
		{"no keywords", "The company held its annual meeting", "neutral"},
		{"case insensitive", "SHARES SURGE", "positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AnalyzeSentiment(tt.text).Label)
		})
	}
}

func TestAnalyzeSentiment_Explains(t *testing.T) {
	s := AnalyzeSentiment("Beat, beat and beat again but a recall")

	assert.Equal(t, []string{"beat"}, s.Positive)
	assert.Equal(t, []string{"recall"}, s.Negative)
	assert.InDelta(t, 0.5, s.Score, 1e-9)
	assert.Equal(t, []string{"beat", "recall"}, s.Keywords())
}

func TestHeuristicGenerator(t *testing.T) {
	h := NewHeuristicGenerator()
	assert.True(t, h.Available())
	assert.Equal(t, ProviderHeuristic, h.Name())

	text, err := h.Generate(context.Background(), "shares tumble", nil)
	require.NoError(t, err)
	assert.Equal(t, "negative", text)

	text, err = h.Generate(context.Background(), "shares tumble", ratingSchema())
	require.NoError(t, err)
	assert.JSONEq(t, `{"verdict":"DOWN","confidence":30,"reasons":["tumble"]}`, text)
}
