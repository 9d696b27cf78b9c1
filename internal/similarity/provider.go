// Package similarity abstracts the semantic-similarity provider behind a
// small interface so the analyzer can swap between a real embedding API and
// the keyword-overlap fallback without caring which one answered.
package similarity

import "context"

// Provider scores how topically close each candidate text is to a query.
// Scores are in [0,1], one per candidate, in candidate order. A provider
// call is a blocking I/O boundary: implementations must honor context
// cancellation and deadlines.
type Provider interface {
	Similarities(ctx context.Context, query string, candidates []string) ([]float64, error)
	// Name identifies the provider in warnings and cache metadata.
	Name() string
}
