// Package llm implements the ordered AI fallback chain: primary provider,
// secondary provider, then a deterministic keyword heuristic.
package llm

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
)

// ProviderFallback marks a result synthesized after every tier failed.
const ProviderFallback = "fallback"

// ErrProvidersExhausted is returned in text mode when no tier produced a result.
var ErrProvidersExhausted = errors.New("all AI providers exhausted")

// Chain tries each tier in order and returns the first success
type Chain struct {
	tiers    []interfaces.TextGenerator
	validate *validator.Validate
	logger   arbor.ILogger
}

var _ interfaces.ResponseGenerator = (*Chain)(nil)

// NewChain builds a chain over tiers in priority order. Tier numbers in
// responses are positions in this list, starting at 1.
func NewChain(logger arbor.ILogger, tiers ...interfaces.TextGenerator) *Chain {
	return &Chain{
		tiers:    tiers,
		validate: validator.New(),
		logger:   logger,
	}
}

// Providers lists every tier with its availability, for diagnostics
func (c *Chain) Providers() map[string]bool {
	out := make(map[string]bool, len(c.tiers))
	for _, t := range c.tiers {
		out[t.Name()] = t.Available()
	}
	return out
}

// Generate returns free text from the first available tier that succeeds
func (c *Chain) Generate(ctx context.Context, prompt string) (*models.AIResponse, error) {
	for i, tier := range c.tiers {
		if !tier.Available() {
			continue
		}

		text, err := c.call(ctx, tier, prompt, nil)
		if err == nil && strings.TrimSpace(text) == "" {
			err = fmt.Errorf("empty response")
		}
		if err != nil {
			c.tierFailed(tier, err)
			continue
		}

		TierAttemptsTotal.WithLabelValues(tier.Name(), "ok").Inc()
		return &models.AIResponse{Text: text, Provider: tier.Name(), Tier: i + 1}, nil
	}

	return nil, ErrProvidersExhausted
}

// GenerateStructured decodes the first tier's JSON object into out, which
// must be a non-nil pointer. A tier whose output has no JSON object, does
// not decode, or fails validation counts as failed. When every tier fails,
// out receives an object synthesized from the schema shape.
func (c *Chain) GenerateStructured(ctx context.Context, prompt string, schema *models.Schema, out any) (*models.AIResponse, error) {
	target := reflect.ValueOf(out)
	if target.Kind() != reflect.Ptr || target.IsNil() {
		return nil, fmt.Errorf("structured output target must be a non-nil pointer, got %T", out)
	}

	for i, tier := range c.tiers {
		if !tier.Available() {
			continue
		}

		text, err := c.call(ctx, tier, prompt, schema)
		if err == nil {
			err = c.decode(text, schema, target)
		}
		if err != nil {
			c.tierFailed(tier, err)
			continue
		}

		TierAttemptsTotal.WithLabelValues(tier.Name(), "ok").Inc()
		return &models.AIResponse{Text: text, Provider: tier.Name(), Tier: i + 1}, nil
	}

	c.logger.Warn().Int("tiers", len(c.tiers)).Msg("Every AI tier failed, synthesizing fallback from schema")

	data, err := json.Marshal(Synthesize(schema, nil))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProvidersExhausted, err)
	}
	fresh := reflect.New(target.Elem().Type())
	if err := json.Unmarshal(data, fresh.Interface()); err != nil {
		return nil, fmt.Errorf("%w: synthesized fallback does not fit target: %w", ErrProvidersExhausted, err)
	}
	target.Elem().Set(fresh.Elem())

	return &models.AIResponse{Text: string(data), Provider: ProviderFallback, Tier: 0}, nil
}

// decode extracts, unmarshals and validates into a fresh value, and only
// then copies it into target so a failed tier leaves no partial state.
func (c *Chain) decode(text string, schema *models.Schema, target reflect.Value) error {
	raw, err := ExtractJSON(text)
	if err != nil {
		return err
	}

	fresh := reflect.New(target.Elem().Type())
	if err := json.Unmarshal(raw, fresh.Interface()); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}

	if fresh.Elem().Kind() == reflect.Struct {
		if err := c.validate.Struct(fresh.Interface()); err != nil {
			return fmt.Errorf("response failed validation: %w", err)
		}
	} else if schema != nil && len(schema.Required) > 0 {
		var fields map[string]any
		if err := json.Unmarshal(raw, &fields); err != nil {
			return fmt.Errorf("failed to parse JSON response: %w", err)
		}
		for _, name := range schema.Required {
			if _, ok := fields[name]; !ok {
				return fmt.Errorf("response missing required field %q", name)
			}
		}
	}

	target.Elem().Set(fresh.Elem())
	return nil
}

// call runs one tier, converting a panic into a tier failure
func (c *Chain) call(ctx context.Context, tier interfaces.TextGenerator, prompt string, schema *models.Schema) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = common.PanicError(c.logger, "ai:"+tier.Name(), r)
		}
	}()
	return tier.Generate(ctx, prompt, schema)
}

func (c *Chain) tierFailed(tier interfaces.TextGenerator, err error) {
	reason := failureReason(err)
	TierAttemptsTotal.WithLabelValues(tier.Name(), reason).Inc()
	c.logger.Warn().
		Str("provider", tier.Name()).
		Str("reason", reason).
		Err(err).
		Msg("AI tier failed, falling through")
}
