package hmmlib

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleShapes(t *testing.T) {

	h := wikiModel(t)
	rng := rand.New(rand.NewSource(5))

	X, states, err := h.Sample(rng, 5, 1000, true)
	require.NoError(t, err)
	require.Len(t, X, 5)
	require.Len(t, states, 5)

	for i := range X {
		require.Len(t, X[i], 1000)
		require.Len(t, states[i], 1000)
		seen := make(map[int]bool)
		for t0, x := range X[i] {
			require.Len(t, x, h.NEmission)
			for m, v := range x {
				assert.GreaterOrEqual(t, v, 0)
				assert.Less(t, v, h.NFeature[m])
			}
			st := states[i][t0]
			require.GreaterOrEqual(t, st, 0)
			require.Less(t, st, h.NState)
			seen[x[0]] = true
		}
		// Over 1000 draws every symbol of the three-letter alphabet
		// should occur.
		assert.Len(t, seen, h.NFeature[0])
	}
}

func TestSampleDeterminism(t *testing.T) {

	h := wikiModel(t)

	X1, s1, err := h.Sample(rand.New(rand.NewSource(42)), 3, 50, true)
	require.NoError(t, err)
	X2, s2, err := h.Sample(rand.New(rand.NewSource(42)), 3, 50, true)
	require.NoError(t, err)

	assert.Equal(t, X1, X2)
	assert.Equal(t, s1, s2)

	X3, _, err := h.Sample(rand.New(rand.NewSource(43)), 3, 50, true)
	require.NoError(t, err)
	assert.NotEqual(t, X1, X3)
}

func TestSampleNoStates(t *testing.T) {

	h := wikiModel(t)

	X, states, err := h.Sample(rand.New(rand.NewSource(1)), 2, 10, false)
	require.NoError(t, err)
	assert.Len(t, X, 2)
	assert.Nil(t, states)
}

func TestSampleErrors(t *testing.T) {

	var ierr *InitializationError
	h, err := New(2, 1, []int{3})
	require.NoError(t, err)
	_, _, err = h.Sample(nil, 1, 10, false)
	assert.ErrorAs(t, err, &ierr)

	var serr *ShapeError
	h = wikiModel(t)
	_, _, err = h.Sample(nil, 0, 10, false)
	assert.ErrorAs(t, err, &serr)
	_, _, err = h.Sample(nil, 1, 0, false)
	assert.ErrorAs(t, err, &serr)
}

func TestDrawCategorical(t *testing.T) {

	rng := rand.New(rand.NewSource(9))

	// A degenerate row always yields its single support point.
	for i := 0; i < 20; i++ {
		assert.Equal(t, 2, drawCategorical(rng, []float64{0, 0, 1}))
	}

	// Empirical frequencies approach the row over many draws.
	row := []float64{0.2, 0.5, 0.3}
	counts := make([]float64, 3)
	n := 200000
	for i := 0; i < n; i++ {
		counts[drawCategorical(rng, row)]++
	}
	for j := range row {
		assert.InDelta(t, row[j], counts[j]/float64(n), 5e-3)
	}
}
