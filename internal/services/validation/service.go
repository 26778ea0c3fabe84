// Package validation implements the three-stage ticker symbol cascade:
// format, then the known list, then a live quote lookup.
package validation

import (
	"context"
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"
	"gopkg.in/yaml.v3"

	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
	"github.com/ternarybob/marketpulse/internal/services/aggregator"
)

// MaxSuggestions caps the suggestion list.
const MaxSuggestions = 5

// Reasons reported on invalid results
const (
	ReasonInvalidFormat = "Symbol must be 1-5 letters"
	ReasonLookupFailed  = "API validation failed"
	ReasonNotFound      = "Symbol not found"
)

var symbolPattern = regexp.MustCompile(`^[A-Z]{1,5}$`)

//go:embed known_symbols.yaml
var knownSymbolsYAML []byte

type symbolList struct {
	Popular []string `yaml:"popular"`
	Symbols []string `yaml:"symbols"`
}

// Service validates ticker symbols
type Service struct {
	quotes  interfaces.QuoteProvider
	logger  arbor.ILogger
	known   map[string]struct{}
	ordered []string
	popular []string
}

var _ interfaces.Validator = (*Service)(nil)

// NewService creates a validator using the embedded known symbol list.
// quotes may be nil, in which case the live lookup stage always fails.
func NewService(quotes interfaces.QuoteProvider, logger arbor.ILogger) (*Service, error) {
	var list symbolList
	if err := yaml.Unmarshal(knownSymbolsYAML, &list); err != nil {
		return nil, fmt.Errorf("failed to parse known symbols: %w", err)
	}
	return newService(quotes, logger, list), nil
}

func newService(quotes interfaces.QuoteProvider, logger arbor.ILogger, list symbolList) *Service {
	s := &Service{
		quotes:  quotes,
		logger:  logger,
		known:   make(map[string]struct{}, len(list.Symbols)),
		popular: list.Popular,
	}
	for _, sym := range list.Symbols {
		sym = Normalize(sym)
		if _, dup := s.known[sym]; dup {
			continue
		}
		s.known[sym] = struct{}{}
		s.ordered = append(s.ordered, sym)
	}
	return s
}

// Normalize trims and uppercases a symbol
func Normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// IsKnown reports whether symbol is in the curated list
func (s *Service) IsKnown(symbol string) bool {
	_, ok := s.known[Normalize(symbol)]
	return ok
}

// KnownCount returns the size of the curated list
func (s *Service) KnownCount() int {
	return len(s.ordered)
}

// Validate runs the cascade. Each stage short-circuits, so a known symbol
// never reaches the network and a malformed one never reaches the list.
func (s *Service) Validate(ctx context.Context, symbol string) models.ValidationResult {
	sym := Normalize(symbol)

	if !symbolPattern.MatchString(sym) {
		return models.ValidationResult{
			Symbol: sym,
			Method: models.ValidationMethodFormat,
			Reason: ReasonInvalidFormat,
		}
	}

	if _, ok := s.known[sym]; ok {
		return models.ValidationResult{
			Symbol:  sym,
			IsValid: true,
			Method:  models.ValidationMethodKnownList,
		}
	}

	return s.lookup(ctx, sym)
}

func (s *Service) lookup(ctx context.Context, sym string) models.ValidationResult {
	result := models.ValidationResult{
		Symbol: sym,
		Method: models.ValidationMethodLiveLookup,
	}

	if s.quotes == nil {
		result.Reason = ReasonLookupFailed
		return result
	}

	payload, err := s.quotes.GetQuote(ctx, sym)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn().Str("symbol", sym).Err(err).Msg("Live symbol lookup failed")
		}
		result.Reason = ReasonLookupFailed
		return result
	}

	price := aggregator.Number(payload, "close", "price", "previousClose")
	if price == nil || *price <= 0 {
		result.Reason = ReasonNotFound
		return result
	}

	result.IsValid = true
	result.Price = price
	return result
}

// Suggestions returns up to MaxSuggestions known symbols sharing a
// substring with the input, or the popular list when nothing matches.
func (s *Service) Suggestions(symbol string) []string {
	input := Normalize(symbol)

	var matches []string
	if input != "" {
		for _, known := range s.ordered {
			if strings.Contains(known, input) || strings.Contains(input, known) {
				matches = append(matches, known)
				if len(matches) == MaxSuggestions {
					break
				}
			}
		}
	}

	if len(matches) > 0 {
		return matches
	}

	popular := s.popular
	if len(popular) > MaxSuggestions {
		popular = popular[:MaxSuggestions]
	}
	return append([]string(nil), popular...)
}
