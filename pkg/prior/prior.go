// Package prior builds the dense seed-label vectors the propagators start from.
package prior

import (
	"github.com/ritzau/sybil-ranker/pkg/input"
)

// ForRank returns the SybilRank prior: 1.0 for every positive seed and 0
// elsewhere. Negative seeds are neither used nor validated.
func ForRank(labels *input.Labels, nodeCount int) ([]float64, error) {
	if err := labels.ValidatePositive(nodeCount); err != nil {
		return nil, err
	}

	prior := make([]float64, nodeCount)
	for _, id := range input.Sorted(labels.Positive) {
		prior[id] = 1.0
	}
	return prior, nil
}

// Thetas calibrates the SybilScar prior.
type Thetas struct {
	Pos float64
	Neg float64
	Unl float64
}

// ForScar returns the centered SybilScar prior: theta.Pos-0.5 for positive
// seeds, theta.Neg-0.5 for negative seeds and theta.Unl-0.5 for the rest.
// A node labeled both ways ends up negative.
func ForScar(labels *input.Labels, nodeCount int, theta Thetas) ([]float64, error) {
	if err := labels.Validate(nodeCount); err != nil {
		return nil, err
	}

	prior := make([]float64, nodeCount)
	if unl := theta.Unl - 0.5; unl != 0 {
		for i := range prior {
			prior[i] = unl
		}
	}
	for _, id := range input.Sorted(labels.Positive) {
		prior[id] = theta.Pos - 0.5
	}
	for _, id := range input.Sorted(labels.Negative) {
		prior[id] = theta.Neg - 0.5
	}
	return prior, nil
}
