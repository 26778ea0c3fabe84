package common

import (
	"github.com/google/uuid"
)

// NewCorrelationID generates a request/run correlation id
// Format: run_<uuid>
func NewCorrelationID() string {
	return "run_" + uuid.New().String()
}
