// Package mi defines the contract shared by every pairwise mutual
// information estimator, so callers can swap one for another.
package mi

import "context"

// Estimator computes the mutual information, in bits, between two paired
// sample sequences.
type Estimator interface {
	Name() string
	Estimate(ctx context.Context, x, y []float64) (float64, error)
}

// Result is a single estimate together with the marginal entropies it was
// composed from.
type Result struct {
	Method   string  `json:"method"`
	MI       float64 `json:"mi"`
	EntropyX float64 `json:"entropy_x"`
	EntropyY float64 `json:"entropy_y"`
	Samples  int     `json:"samples"`
}

// Analyzer is an Estimator that also reports the marginal entropies.
type Analyzer interface {
	Estimator
	Analyze(ctx context.Context, x, y []float64) (Result, error)
}
