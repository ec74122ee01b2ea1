package hmmlib

import (
	"math"

	"github.com/pkg/errors"
)

// Decoding algorithms accepted by Decode.
const (
	AlgoViterbi = "viterbi"
	AlgoMAP     = "map"
)

// DecodeResult is the reconstructed state path for one sequence.  LogProb
// is the log joint probability of the path with the observations and is
// only set for Viterbi decoding; per-step marginal (MAP) decoding has no
// single path probability, so HasLogProb is false there.
type DecodeResult struct {
	LogProb    float64
	HasLogProb bool
	States     []int
}

// Decode reconstructs the hidden state path of every sequence in X, in
// input order.  The algorithm is "viterbi" for the maximum joint
// probability path or "map" for the per-step maximum of the posterior.
// Ties are broken toward the lowest state index in both cases.
func (h *MultinomialHMM) Decode(X [][][]int, algorithm string) ([]DecodeResult, error) {

	if algorithm != AlgoViterbi && algorithm != AlgoMAP {
		return nil, &ConfigError{Option: "algorithm", Value: algorithm}
	}
	if !h.Initialized() {
		return nil, &InitializationError{Reason: "model parameters have not been set or initialized"}
	}

	results := make([]DecodeResult, len(X))
	for i, obs := range X {
		var err error
		switch algorithm {
		case AlgoViterbi:
			results[i], err = h.viterbi(obs)
		case AlgoMAP:
			results[i], err = h.mapPath(obs)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "sequence %d", i)
		}
	}

	return results, nil
}

// viterbi runs the log-space dynamic program over one sequence and
// backtracks the best path.
func (h *MultinomialHMM) viterbi(obs [][]int) (DecodeResult, error) {

	if err := h.checkObs(obs); err != nil {
		return DecodeResult{}, err
	}

	ns := h.NState
	nt := len(obs)
	if nt == 0 {
		return DecodeResult{}, &ShapeError{Param: "sequence", Want: 1, Got: 0}
	}

	lt := make([]float64, ns*ns)
	for j := range h.trans {
		lt[j] = math.Log(h.trans[j])
	}

	lpr := make([]float64, nt*ns)
	lpt := make([]int, nt*ns)
	pr := make([]float64, ns)
	wk := make([]float64, ns)

	h.obsProb(obs[0], pr)
	for st := 0; st < ns; st++ {
		lpr[st] = math.Log(h.pi[st]) + math.Log(pr[st])
	}

	for t := 1; t < nt; t++ {
		j0 := (t - 1) * ns
		j1 := t * ns
		h.obsProb(obs[t], pr)
		for st2 := 0; st2 < ns; st2++ {
			for st1 := 0; st1 < ns; st1++ {
				wk[st1] = lpr[j0+st1] + lt[st1*ns+st2]
			}
			jj := argmax(wk)
			lpt[j1+st2] = jj
			lpr[j1+st2] = wk[jj] + math.Log(pr[st2])
		}
	}

	// Backtrack from the best terminal state
	y := make([]int, nt)
	jt := (nt - 1) * ns
	y[nt-1] = argmax(lpr[jt : jt+ns])
	llf := lpr[jt+y[nt-1]]
	for t := nt - 2; t >= 0; t-- {
		y[t] = lpt[(t+1)*ns+y[t+1]]
	}

	return DecodeResult{LogProb: llf, HasLogProb: true, States: y}, nil
}

// mapPath takes the per-step argmax of the posterior state probabilities.
func (h *MultinomialHMM) mapPath(obs [][]int) (DecodeResult, error) {

	post, err := h.forwardBackward(obs)
	if err != nil {
		return DecodeResult{}, err
	}

	ns := h.NState
	y := make([]int, post.ntime)
	for t := 0; t < post.ntime; t++ {
		y[t] = argmax(post.gamma[t*ns : (t+1)*ns])
	}

	return DecodeResult{States: y}, nil
}

// CompareStates returns the number of positions where the state sequences
// x and y disagree, and the number of positions compared.  The lengths
// must be equal.
func CompareStates(x, y []int) (int, int, error) {

	if len(x) != len(y) {
		return 0, 0, &ShapeError{Param: "states", Want: len(x), Got: len(y)}
	}

	var e int
	for t := range x {
		if x[t] != y[t] {
			e++
		}
	}

	return e, len(x), nil
}
