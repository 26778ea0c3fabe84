package models

import (
	"context"
	"time"
)

// Source is one independent upstream call. Fetch returns a provider-shaped
// payload (decoded JSON, a typed slice, or a map) and knows nothing about
// the other sources in the batch.
type Source struct {
	Name  string
	Fetch func(ctx context.Context) (any, error)
}

// SourceResult is the settled outcome of a single Source
type SourceResult struct {
	Name     string
	Payload  any
	Err      error
	Duration time.Duration
}

// OK reports whether the source settled successfully
func (r SourceResult) OK() bool {
	return r.Err == nil
}
