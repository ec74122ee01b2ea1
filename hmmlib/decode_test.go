package hmmlib

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// From http://en.wikipedia.org/wiki/Viterbi_algorithm: the observations
// [walk, shop, clean] were most likely generated by [Sunny, Rainy, Rainy]
// with probability 0.01344.
func TestDecodeViterbiWikipedia(t *testing.T) {

	h := wikiModel(t)

	results, err := h.Decode([][][]int{{{0}, {1}, {2}}}, AlgoViterbi)
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	require.True(t, res.HasLogProb)
	assert.InDelta(t, 0.01344, math.Exp(res.LogProb), 5e-6)
	assert.Equal(t, []int{1, 0, 0}, res.States)
}

func TestDecodeMAPWikipedia(t *testing.T) {

	h := wikiModel(t)

	results, err := h.Decode([][][]int{{{0}, {1}, {2}}}, AlgoMAP)
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.False(t, res.HasLogProb)
	assert.Equal(t, []int{1, 0, 0}, res.States)
}

func TestDecodeUnknownAlgorithm(t *testing.T) {

	h := wikiModel(t)

	var cerr *ConfigError
	_, err := h.Decode([][][]int{{{0}}}, "forward")
	assert.ErrorAs(t, err, &cerr)
}

func TestDecodeUninitialized(t *testing.T) {

	h, err := New(2, 1, []int{3})
	require.NoError(t, err)

	var ierr *InitializationError
	_, err = h.Decode([][][]int{{{0}}}, AlgoViterbi)
	assert.ErrorAs(t, err, &ierr)
}

func TestDecodeBatchOrder(t *testing.T) {

	h := wikiModel(t)
	rng := rand.New(rand.NewSource(3))

	X, _, err := h.Sample(rng, 6, 10, false)
	require.NoError(t, err)

	batch, err := h.Decode(X, AlgoViterbi)
	require.NoError(t, err)
	require.Len(t, batch, 6)

	for i, obs := range X {
		single, err := h.Decode([][][]int{obs}, AlgoViterbi)
		require.NoError(t, err)
		assert.Equal(t, single[0].States, batch[i].States)
		assert.Equal(t, single[0].LogProb, batch[i].LogProb)
	}
}

// Viterbi must return the log of the maximum joint path probability, with
// ties broken toward the lowest state index.  Checked exhaustively on
// small models.
func TestViterbiAgainstEnumeration(t *testing.T) {

	rng := rand.New(rand.NewSource(11))

	for _, ns := range []int{2, 3} {
		for _, nt := range []int{1, 2, 4, 5} {

			h, err := New(ns, 2, []int{3, 2})
			require.NoError(t, err)
			h.InitParams(rng)

			X, _, err := h.Sample(rng, 1, nt, false)
			require.NoError(t, err)
			obs := X[0]

			best := math.Inf(-1)
			var bestPath []int
			enumPaths(ns, nt, func(path []int) {
				pr := pathProb(h, obs, path)
				if pr > best {
					best = pr
					bestPath = append([]int(nil), path...)
				}
			})

			results, err := h.Decode(X, AlgoViterbi)
			require.NoError(t, err)
			assert.InDelta(t, math.Log(best), results[0].LogProb, 1e-10)
			assert.Equal(t, bestPath, results[0].States)
		}
	}
}

func TestCompareStates(t *testing.T) {

	e, n, err := CompareStates([]int{0, 1, 1, 0}, []int{0, 1, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 1, e)
	assert.Equal(t, 4, n)

	var serr *ShapeError
	_, _, err = CompareStates([]int{0}, []int{0, 1})
	assert.ErrorAs(t, err, &serr)
}
