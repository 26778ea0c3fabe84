package llm

import (
	"errors"
	"sort"
	"strings"

	"google.golang.org/genai"

	"github.com/ternarybob/marketpulse/internal/models"
)

// Placeholder fills string fields of a synthesized fallback object.
const Placeholder = "N/A"

// ErrNoJSON is returned when a response contains no balanced JSON object.
var ErrNoJSON = errors.New("no JSON object found in response")

// Hints steer synthesis toward typed values for the heuristic tier
type Hints struct {
	Sentiment string
	Keywords  []string
}

// Synthesize builds a value shaped like schema. Without hints it applies
// the plain placeholder rules: strings become Placeholder, numbers 0,
// booleans false, arrays a single placeholder element. With hints, a
// field's BySentiment value, matched keywords, Default and first enum
// value take precedence in that order.
func Synthesize(schema *models.Schema, hints *Hints) any {
	if schema == nil {
		return Placeholder
	}

	if hints != nil {
		if v, ok := schema.BySentiment[hints.Sentiment]; ok {
			return v
		}
		if schema.Keywords && len(hints.Keywords) > 0 {
			out := make([]any, 0, len(hints.Keywords))
			for _, k := range hints.Keywords {
				out = append(out, k)
			}
			return out
		}
		if schema.Default != nil {
			return schema.Default
		}
	}

	switch schema.Type {
	case "object":
		obj := make(map[string]any, len(schema.Properties))
		for name, prop := range schema.Properties {
			obj[name] = Synthesize(prop, hints)
		}
		return obj
	case "array":
		return []any{Synthesize(schema.Items, hints)}
	case "number", "integer":
		return 0
	case "boolean":
		return false
	default:
		if hints != nil && len(schema.Enum) > 0 {
			return schema.Enum[0]
		}
		return Placeholder
	}
}

// ExtractJSON returns the first balanced {...} block in text, honouring
// string literals and escapes so braces inside strings do not count.
func ExtractJSON(text string) ([]byte, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return nil, ErrNoJSON
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return []byte(text[start : i+1]), nil
			}
		}
	}

	return nil, ErrNoJSON
}

// propertyNames returns schema property names in declared order, then any remaining sorted
func propertyNames(schema *models.Schema) []string {
	seen := make(map[string]bool, len(schema.Properties))
	names := make([]string, 0, len(schema.Properties))
	for _, name := range schema.Order {
		if _, ok := schema.Properties[name]; ok && !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range schema.Properties {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// toGenaiSchema converts a schema for Gemini's constrained JSON output
func toGenaiSchema(schema *models.Schema) *genai.Schema {
	if schema == nil {
		return nil
	}

	out := &genai.Schema{
		Description: schema.Description,
		Enum:        schema.Enum,
		Required:    schema.Required,
	}

	switch strings.ToLower(schema.Type) {
	case "object":
		out.Type = genai.TypeObject
	case "array":
		out.Type = genai.TypeArray
	case "number":
		out.Type = genai.TypeNumber
	case "integer":
		out.Type = genai.TypeInteger
	case "boolean":
		out.Type = genai.TypeBoolean
	default:
		out.Type = genai.TypeString
	}

	if len(schema.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(schema.Properties))
		for _, name := range propertyNames(schema) {
			out.Properties[name] = toGenaiSchema(schema.Properties[name])
		}
	}
	if schema.Items != nil {
		out.Items = toGenaiSchema(schema.Items)
	}

	return out
}

// describeSchema renders the schema as a compact field list for providers
// without native structured output
func describeSchema(schema *models.Schema) string {
	var b strings.Builder
	b.WriteString("{\n")
	for _, name := range propertyNames(schema) {
		prop := schema.Properties[name]
		b.WriteString("  \"")
		b.WriteString(name)
		b.WriteString("\": ")
		b.WriteString(prop.Type)
		if prop.Type == "array" && prop.Items != nil {
			b.WriteString(" of ")
			b.WriteString(prop.Items.Type)
		}
		if len(prop.Enum) > 0 {
			b.WriteString(" (one of ")
			b.WriteString(strings.Join(prop.Enum, ", "))
			b.WriteString(")")
		}
		if prop.Description != "" {
			b.WriteString(" - ")
			b.WriteString(prop.Description)
		}
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String()
}
