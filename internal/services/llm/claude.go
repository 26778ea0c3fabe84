package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
)

// ProviderClaude names the secondary tier in response provenance.
const ProviderClaude = "claude"

const jsonSystemPrompt = "You are a financial analysis assistant. When asked for JSON, respond with a single JSON object and no other text."

// ClaudeGenerator is the secondary AI tier
type ClaudeGenerator struct {
	client      anthropic.Client
	configured  bool
	model       string
	maxTokens   int
	temperature float32
	timeout     time.Duration
	logger      arbor.ILogger
}

var _ interfaces.TextGenerator = (*ClaudeGenerator)(nil)

// NewClaudeGenerator creates the Claude tier. An empty apiKey yields an unavailable generator.
func NewClaudeGenerator(config *common.ClaudeConfig, apiKey string, logger arbor.ILogger) *ClaudeGenerator {
	c := &ClaudeGenerator{
		model:       config.Model,
		maxTokens:   config.MaxTokens,
		temperature: config.Temperature,
		timeout:     config.GetTimeout(),
		logger:      logger,
	}
	if c.model == "" {
		c.model = "claude-sonnet-4-20250514"
	}
	if c.maxTokens <= 0 {
		c.maxTokens = 2048
	}

	if apiKey == "" {
		logger.Info().Msg("Claude tier disabled: no secondary AI key configured")
		return c
	}

	c.client = anthropic.NewClient(option.WithAPIKey(apiKey))
	c.configured = true

	logger.Debug().
		Str("model", c.model).
		Dur("timeout", c.timeout).
		Int("max_tokens", c.maxTokens).
		Msg("Claude tier initialized")

	return c
}

func (c *ClaudeGenerator) Name() string {
	return ProviderClaude
}

func (c *ClaudeGenerator) Available() bool {
	return c.configured
}

// Generate sends a single user message. Claude has no native schema
// enforcement, so the schema is described in the prompt.
func (c *ClaudeGenerator) Generate(ctx context.Context, prompt string, schema *models.Schema) (string, error) {
	if !c.configured {
		return "", interfaces.ErrProviderUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if schema != nil {
		prompt = prompt + "\n\nRespond with only a JSON object of this shape:\n" + describeSchema(schema)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		System: []anthropic.TextBlockParam{
			{Text: jsonSystemPrompt},
		},
	}
	if c.temperature > 0 {
		params.Temperature = anthropic.Float(float64(c.temperature))
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude API call failed: %w", err)
	}

	var response strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			response.WriteString(block.Text)
		}
	}

	if response.Len() == 0 {
		return "", fmt.Errorf("no response generated from Claude")
	}
	return response.String(), nil
}
