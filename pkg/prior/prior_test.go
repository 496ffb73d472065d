package prior

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritzau/sybil-ranker/pkg/input"
)

func TestForRank(t *testing.T) {
	labels := input.NewLabels([]int{0, 3}, []int{1})

	prior, err := ForRank(labels, 5)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 0, 1, 0}, prior)
}

func TestForRankIgnoresNegativeSeeds(t *testing.T) {
	labels := input.NewLabels([]int{1}, []int{99})

	prior, err := ForRank(labels, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 0}, prior)

	_, err = ForScar(labels, 3, Thetas{Pos: 0.6, Neg: 0.4, Unl: 0.5})
	assert.ErrorIs(t, err, input.ErrUnknownNode)
}

func TestForScar(t *testing.T) {
	labels := input.NewLabels([]int{0}, []int{2})

	prior, err := ForScar(labels, 4, Thetas{Pos: 0.6, Neg: 0.4, Unl: 0.5})
	require.NoError(t, err)

	assert.InDelta(t, 0.1, prior[0], 1e-12)
	assert.Equal(t, 0.0, prior[1])
	assert.InDelta(t, -0.1, prior[2], 1e-12)
	assert.Equal(t, 0.0, prior[3])
}

func TestForScarUnlabeledTheta(t *testing.T) {
	labels := input.NewLabels([]int{0}, nil)

	prior, err := ForScar(labels, 3, Thetas{Pos: 0.9, Neg: 0.1, Unl: 0.45})
	require.NoError(t, err)

	assert.InDelta(t, 0.4, prior[0], 1e-12)
	assert.InDelta(t, -0.05, prior[1], 1e-12)
	assert.InDelta(t, -0.05, prior[2], 1e-12)
}

func TestForScarNegativeWins(t *testing.T) {
	labels := input.NewLabels([]int{1}, []int{1})

	prior, err := ForScar(labels, 2, Thetas{Pos: 0.6, Neg: 0.4, Unl: 0.5})
	require.NoError(t, err)
	assert.InDelta(t, -0.1, prior[1], 1e-12)
}

func TestPriorRejectsUnknownSeed(t *testing.T) {
	labels := input.NewLabels([]int{0, 9}, nil)

	_, err := ForRank(labels, 3)
	assert.True(t, errors.Is(err, input.ErrUnknownNode), "got %v", err)

	_, err = ForScar(labels, 3, Thetas{Pos: 0.6, Neg: 0.4, Unl: 0.5})
	assert.ErrorIs(t, err, input.ErrUnknownNode)
}
