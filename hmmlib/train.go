package hmmlib

import (
	"math/rand"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// TrainConfig describes one training call.  The value is read-only during
// training, so a call is fully described by its config and can be replayed.
type TrainConfig struct {

	// Maximum number of EM iterations
	NIter int

	// Stop when the log-likelihood gain between consecutive iterations
	// falls below this threshold
	ConvThresh float64

	// Comparison tolerance for the convergence and monotonicity checks.
	// Zero selects the default of 1e-10.
	ConvEps float64

	// Which parameters the M-step updates: any subset of "ste" for the
	// initial distribution, transition matrix and emission tables.
	Trainable string

	// The last FrozenEmissions rows of every emission table are excluded
	// from re-estimation.  The caller must have set those rows before
	// training.
	FrozenEmissions int

	// Return the per-iteration log-likelihood trace
	ReturnLogLikelihoods bool

	// Keep the caller-supplied parameters instead of drawing fresh
	// starting values
	NoInit bool

	// Number of concurrent E-step workers; zero or negative selects
	// GOMAXPROCS
	Workers int
}

const defaultConvEps = 1e-10

// seqStats holds the sufficient statistics contributed by one sequence.
type seqStats struct {

	// Posterior of the first time point, length NState
	gamma0 []float64

	// Expected transition counts, NState x NState
	xi []float64

	// Expected symbol counts per channel, NState x NFeature[m]
	bnum [][]float64

	loglik float64
}

// trainSelector validates the trainable-parameter string and reports which
// of the three tables the M-step should update.
func trainSelector(trainable string) (start, trans, emis bool, err error) {

	for _, c := range trainable {
		switch c {
		case 's':
			start = true
		case 't':
			trans = true
		case 'e':
			emis = true
		default:
			return false, false, false, &ConfigError{Option: "trainable selector", Value: string(c)}
		}
	}

	return start, trans, emis, nil
}

// Train estimates the model parameters from the corpus X using the
// Baum-Welch EM algorithm.  Each iteration runs the forward-backward
// recursions over every sequence, fanned out across cfg.Workers
// goroutines, then re-estimates the parameters selected by cfg.Trainable
// from the pooled statistics.  Iteration stops when the log-likelihood
// gain drops below cfg.ConvThresh or after cfg.NIter iterations.
//
// Unless cfg.NoInit is set, fresh starting values are drawn from rng
// before the first iteration.  With cfg.NoInit the model must already be
// fully initialized.  The per-iteration log-likelihood trace is returned
// when cfg.ReturnLogLikelihoods is set.
//
// On any failure the model retains the parameters of the last completed
// iteration; the M-step never commits partially.
func (h *MultinomialHMM) Train(X [][][]int, cfg TrainConfig, rng *rand.Rand) ([]float64, error) {

	upStart, upTrans, upEmis, err := trainSelector(cfg.Trainable)
	if err != nil {
		return nil, err
	}
	if len(X) == 0 {
		return nil, &ShapeError{Param: "corpus", Want: 1, Got: 0}
	}

	if cfg.FrozenEmissions > 0 && !cfg.NoInit {
		return nil, &InitializationError{
			Reason: "training with frozen emission rows requires explicitly initialized parameters (NoInit)",
		}
	}
	if !cfg.NoInit {
		h.InitParams(rng)
	}
	if err := h.checkReady(cfg.FrozenEmissions); err != nil {
		return nil, err
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(X) {
		workers = len(X)
	}

	eps := cfg.ConvEps
	if eps == 0 {
		eps = defaultConvEps
	}

	trace := make([]float64, 0, cfg.NIter)

	for iter := 0; iter < cfg.NIter; iter++ {

		stats, llf, err := h.estep(X, workers)
		if err != nil {
			return nil, err
		}

		if err := h.mstep(stats, upStart, upTrans, upEmis, cfg.FrozenEmissions); err != nil {
			return nil, err
		}

		logger.WithField("iter", iter).WithField("loglik", llf).Debug("EM iteration")

		if n := len(trace); n > 0 {
			prev := trace[n-1]
			if llf < prev-eps {
				logger.WithField("decrease", prev-llf).Warn("log-likelihood decreased")
			}
			if llf-prev < cfg.ConvThresh {
				trace = append(trace, llf)
				logger.WithField("iter", iter).Debug("converged")
				break
			}
		}
		trace = append(trace, llf)
	}

	if cfg.ReturnLogLikelihoods {
		return trace, nil
	}
	return nil, nil
}

// estep runs the forward-backward recursions over every sequence and
// reduces the per-sequence statistics.  The sequences are independent, so
// they are distributed over a fixed pool of workers; the reduction waits
// for all of them.  The first failure aborts the whole call.
func (h *MultinomialHMM) estep(X [][][]int, workers int) (*seqStats, float64, error) {

	stats := make([]*seqStats, len(X))
	errs := make([]error, len(X))
	work := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				stats[i], errs[i] = h.seqStats(X[i])
			}
		}()
	}
	for i := range X {
		work <- i
	}
	close(work)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, 0, errors.Wrapf(err, "sequence %d", i)
		}
	}

	// Pool the statistics
	total := h.newSeqStats()
	var llf float64
	for _, s := range stats {
		floats.Add(total.gamma0, s.gamma0)
		floats.Add(total.xi, s.xi)
		for m := range total.bnum {
			floats.Add(total.bnum[m], s.bnum[m])
		}
		llf += s.loglik
	}

	return total, llf, nil
}

func (h *MultinomialHMM) newSeqStats() *seqStats {

	bnum := make([][]float64, h.NEmission)
	for m, q := range h.NFeature {
		bnum[m] = make([]float64, h.NState*q)
	}

	return &seqStats{
		gamma0: make([]float64, h.NState),
		xi:     make([]float64, h.NState*h.NState),
		bnum:   bnum,
	}
}

// seqStats computes the sufficient statistics for one sequence.
func (h *MultinomialHMM) seqStats(obs [][]int) (*seqStats, error) {

	post, err := h.forwardBackward(obs)
	if err != nil {
		return nil, err
	}

	ns := h.NState
	s := h.newSeqStats()
	copy(s.gamma0, post.gamma[0:ns])
	copy(s.xi, post.xi)
	s.loglik = post.loglik

	for t, x := range obs {
		g := post.gamma[t*ns : (t+1)*ns]
		for m, v := range x {
			q := h.NFeature[m]
			for st := 0; st < ns; st++ {
				s.bnum[m][st*q+v] += g[st]
			}
		}
	}

	return s, nil
}

// mstep re-estimates the selected parameters from the pooled statistics.
// The new tables are built and validated in scratch space and committed
// together, so a failure leaves the model untouched.
func (h *MultinomialHMM) mstep(stats *seqStats, upStart, upTrans, upEmis bool, nFrozen int) error {

	ns := h.NState

	var newPi []float64
	if upStart {
		newPi = make([]float64, ns)
		copy(newPi, stats.gamma0)
		normalizeSum(newPi, 1/float64(ns))
		if err := checkRow("Pi", newPi, 0); err != nil {
			return err
		}
	}

	var newTrans []float64
	if upTrans {
		newTrans = make([]float64, ns*ns)
		copy(newTrans, stats.xi)
		for st := 0; st < ns; st++ {
			row := newTrans[st*ns : (st+1)*ns]
			normalizeSum(row, 1/float64(ns))
			if err := checkRow("Trans", row, st); err != nil {
				return err
			}
		}
	}

	var newB [][]float64
	if upEmis {
		newB = make([][]float64, h.NEmission)
		for m, q := range h.NFeature {
			tab := make([]float64, ns*q)
			copy(tab, stats.bnum[m])
			for st := 0; st < ns-nFrozen; st++ {
				row := tab[st*q : (st+1)*q]
				normalizeSum(row, 1/float64(q))
				if err := checkRow("B", row, st); err != nil {
					return err
				}
			}
			// Frozen rows pass through unchanged
			for st := ns - nFrozen; st < ns; st++ {
				copy(tab[st*q:(st+1)*q], h.b[m][st*q:(st+1)*q])
			}
			newB[m] = tab
		}
	}

	if newPi != nil {
		h.pi = newPi
	}
	if newTrans != nil {
		h.trans = newTrans
	}
	if newB != nil {
		h.b = newB
	}

	return nil
}
