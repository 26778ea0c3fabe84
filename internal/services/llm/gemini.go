package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"google.golang.org/genai"

	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
)

// ProviderGemini names the primary tier in response provenance.
const ProviderGemini = "gemini"

// GeminiGenerator is the primary AI tier
type GeminiGenerator struct {
	client      *genai.Client
	model       string
	temperature float32
	timeout     time.Duration
	logger      arbor.ILogger
}

var _ interfaces.TextGenerator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates the Gemini tier. An empty apiKey yields an
// unavailable generator rather than an error.
func NewGeminiGenerator(ctx context.Context, config *common.GeminiConfig, apiKey string, logger arbor.ILogger) (*GeminiGenerator, error) {
	g := &GeminiGenerator{
		model:       config.Model,
		temperature: config.Temperature,
		timeout:     config.GetTimeout(),
		logger:      logger,
	}
	if g.model == "" {
		g.model = "gemini-2.0-flash"
	}

	if apiKey == "" {
		logger.Info().Msg("Gemini tier disabled: no primary AI key configured")
		return g, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	g.client = client

	logger.Debug().
		Str("model", g.model).
		Dur("timeout", g.timeout).
		Float32("temperature", g.temperature).
		Msg("Gemini tier initialized")

	return g, nil
}

func (g *GeminiGenerator) Name() string {
	return ProviderGemini
}

func (g *GeminiGenerator) Available() bool {
	return g.client != nil
}

// Generate calls GenerateContent, constraining output to JSON when a schema is given
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, schema *models.Schema) (string, error) {
	if g.client == nil {
		return "", interfaces.ErrProviderUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	}
	if schema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = toGenaiSchema(schema)
	}

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	// Use the first candidate with any text
	var response strings.Builder
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate == nil || candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part != nil && part.Text != "" {
					response.WriteString(part.Text)
				}
			}
			if response.Len() > 0 {
				break
			}
		}
	}

	if response.Len() == 0 {
		return "", fmt.Errorf("no response generated from Gemini")
	}
	return response.String(), nil
}
