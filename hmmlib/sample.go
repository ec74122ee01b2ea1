package hmmlib

import (
	"math/rand"
	"time"
)

// Sample draws nSequences independent observation sequences of length
// nSamples from the model by ancestral sampling: the initial state comes
// from Pi, each subsequent state from the Trans row of the current state,
// and each channel's symbol from the matching emission row.  The result
// holds one T x NEmission array per sequence.  When returnStates is true
// the underlying state paths are returned as well.
//
// Sampling is deterministic for a fixed rng seed.  If rng is nil a
// time-seeded source is used.
func (h *MultinomialHMM) Sample(rng *rand.Rand, nSequences, nSamples int, returnStates bool) ([][][]int, [][]int, error) {

	if !h.Initialized() {
		return nil, nil, &InitializationError{Reason: "model parameters have not been set or initialized"}
	}
	if nSequences <= 0 {
		return nil, nil, &ShapeError{Param: "nSequences", Want: 1, Got: nSequences}
	}
	if nSamples <= 0 {
		return nil, nil, &ShapeError{Param: "nSamples", Want: 1, Got: nSamples}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	X := make([][][]int, nSequences)
	var states [][]int
	if returnStates {
		states = make([][]int, nSequences)
	}

	for i := 0; i < nSequences; i++ {
		obs := make([][]int, nSamples)
		path := make([]int, nSamples)

		st := drawCategorical(rng, h.pi)
		for t := 0; t < nSamples; t++ {
			if t > 0 {
				st = drawCategorical(rng, h.trans[st*h.NState:(st+1)*h.NState])
			}
			path[t] = st

			x := make([]int, h.NEmission)
			for m := 0; m < h.NEmission; m++ {
				q := h.NFeature[m]
				x[m] = drawCategorical(rng, h.b[m][st*q:(st+1)*q])
			}
			obs[t] = x
		}

		X[i] = obs
		if returnStates {
			states[i] = path
		}
	}

	return X, states, nil
}

// drawCategorical samples an index from the distribution given by row,
// walking the cumulative sums against one uniform variate.
func drawCategorical(rng *rand.Rand, row []float64) int {

	u := rng.Float64()
	c := 0.0
	for j, p := range row {
		c += p
		if u < c {
			return j
		}
	}

	// Rounding can leave the final cumulative sum a hair below 1.
	return len(row) - 1
}
