package models

// ValidationMethod identifies the stage that decided a validation result
type ValidationMethod string

const (
	ValidationMethodFormat     ValidationMethod = "format"
	ValidationMethodKnownList  ValidationMethod = "known_list"
	ValidationMethodLiveLookup ValidationMethod = "live_lookup"
)

// ValidationResult is the outcome of validating a ticker symbol.
// Callers should assert on Method as well as IsValid.
type ValidationResult struct {
	Symbol  string           `json:"symbol"`
	IsValid bool             `json:"isValid"`
	Method  ValidationMethod `json:"method"`
	Reason  string           `json:"reason,omitempty"`
	Price   *float64         `json:"price,omitempty"`
}
