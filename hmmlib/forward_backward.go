package hmmlib

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// posterior holds the expectations produced by one forward-backward pass
// over a single sequence.
type posterior struct {

	// State occupancy probabilities, NTime x NState
	gamma []float64

	// Expected transition counts summed over time, NState x NState
	xi []float64

	// Log-likelihood of the sequence
	loglik float64

	// Sequence length
	ntime int
}

// obsProb fills pr with the probability of emitting the observation vector
// x from each state, taking the product across channels.
func (h *MultinomialHMM) obsProb(x []int, pr []float64) {

	for st := 0; st < h.NState; st++ {
		pr[st] = 1
	}
	for m, v := range x {
		q := h.NFeature[m]
		tab := h.b[m]
		for st := 0; st < h.NState; st++ {
			pr[st] *= tab[st*q+v]
		}
	}
}

// forwardBackward runs the scaled forward and backward recursions over one
// sequence.  Each forward row is normalized to sum to 1 and the log scale
// factors are accumulated into the sequence log-likelihood, so the
// recursion does not underflow on long sequences.  The backward rows reuse
// the same scale factors, which makes gamma a proper distribution at every
// time point without a further normalization.
func (h *MultinomialHMM) forwardBackward(obs [][]int) (*posterior, error) {

	if err := h.checkObs(obs); err != nil {
		return nil, err
	}

	ns := h.NState
	nt := len(obs)
	if nt == 0 {
		return nil, &ShapeError{Param: "sequence", Want: 1, Got: 0}
	}

	// Emission probabilities for every time point
	bt := make([]float64, nt*ns)
	for t := 0; t < nt; t++ {
		h.obsProb(obs[t], bt[t*ns:(t+1)*ns])
	}

	fprob := make([]float64, nt*ns)
	scale := make([]float64, nt)
	var llf float64

	// Forward sweep
	for st := 0; st < ns; st++ {
		fprob[st] = h.pi[st] * bt[st]
	}
	if err := rescale(fprob[0:ns], scale, 0, obs[0]); err != nil {
		return nil, err
	}
	llf += math.Log(scale[0])
	for t := 1; t < nt; t++ {
		j0 := (t - 1) * ns
		j1 := t * ns
		for st2 := 0; st2 < ns; st2++ {
			u := 0.0
			for st1 := 0; st1 < ns; st1++ {
				u += fprob[j0+st1] * h.trans[st1*ns+st2]
			}
			fprob[j1+st2] = u * bt[j1+st2]
		}
		if err := rescale(fprob[j1:j1+ns], scale, t, obs[t]); err != nil {
			return nil, err
		}
		llf += math.Log(scale[t])
	}

	// Backward sweep, sharing the forward scale factors
	bprob := make([]float64, nt*ns)
	for st := 0; st < ns; st++ {
		bprob[(nt-1)*ns+st] = 1
	}
	for t := nt - 2; t >= 0; t-- {
		j0 := t * ns
		j1 := (t + 1) * ns
		for st1 := 0; st1 < ns; st1++ {
			u := 0.0
			for st2 := 0; st2 < ns; st2++ {
				u += h.trans[st1*ns+st2] * bt[j1+st2] * bprob[j1+st2]
			}
			bprob[j0+st1] = u / scale[t+1]
		}
	}

	// State occupancy
	gamma := make([]float64, nt*ns)
	floats.MulTo(gamma, fprob, bprob)
	for t := 0; t < nt; t++ {
		normalizeSum(gamma[t*ns:(t+1)*ns], 1/float64(ns))
	}

	// Expected transition counts, summed over time
	xi := make([]float64, ns*ns)
	for t := 0; t < nt-1; t++ {
		j0 := t * ns
		j1 := (t + 1) * ns
		for st1 := 0; st1 < ns; st1++ {
			fp := fprob[j0+st1]
			for st2 := 0; st2 < ns; st2++ {
				xi[st1*ns+st2] += fp * h.trans[st1*ns+st2] * bt[j1+st2] * bprob[j1+st2] / scale[t+1]
			}
		}
	}

	return &posterior{gamma: gamma, xi: xi, loglik: llf, ntime: nt}, nil
}

// rescale normalizes one forward row to sum to 1 and records the scale
// factor.  A zero row means the observation at t has probability zero under
// the current parameters.
func rescale(row []float64, scale []float64, t int, x []int) error {

	s := floats.Sum(row)
	if s <= 0 {
		return errors.Errorf("hmmlib: observation %v at time %d has zero probability under the model", x, t)
	}
	floats.Scale(1/s, row)
	scale[t] = s

	return nil
}

// ScoreSamples computes the posterior state-occupancy probabilities for
// each sequence in X.  The result holds one flat T_i x NState array per
// sequence, together with the total log-likelihood of the batch.  Every row
// of each posterior array sums to 1.
func (h *MultinomialHMM) ScoreSamples(X [][][]int) ([][]float64, float64, error) {

	if !h.Initialized() {
		return nil, 0, &InitializationError{Reason: "model parameters have not been set or initialized"}
	}

	posteriors := make([][]float64, len(X))
	var llf float64
	for i, obs := range X {
		post, err := h.forwardBackward(obs)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "sequence %d", i)
		}
		posteriors[i] = post.gamma
		llf += post.loglik
	}

	return posteriors, llf, nil
}
