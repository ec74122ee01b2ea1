package hmmlib

import (
	"io"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// Tolerance for the row-stochasticity checks.  Each row of Pi, Trans and
// the emission tables must sum to 1 within this amount.
const stochTol = 1e-8

var logger logrus.FieldLogger = newNopLogger()

func newNopLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// SetLogger directs the package's log messages to the given logger.  By
// default all messages are discarded.
func SetLogger(l logrus.FieldLogger) {
	logger = l
}

// MultinomialHMM is a hidden Markov model whose observations are vectors of
// categorical symbols, one symbol per emission channel per time step.  The
// channels are conditionally independent given the state, so the emission
// probabilities are held as one table per channel.
//
// The probability tables are nil until set by the caller or filled in by
// InitParams.  All tables are stored as flat row-major slices.
type MultinomialHMM struct {

	// Number of hidden states
	NState int

	// Number of emission channels per time step
	NEmission int

	// Alphabet size of each channel
	NFeature []int

	// Initial state distribution, length NState
	pi []float64

	// Transition probabilities, NState x NState
	trans []float64

	// Emission probabilities, one NState x NFeature[m] table per channel
	b [][]float64
}

// New returns a model with the given size parameters.  The probability
// tables are left unset.
func New(nState, nEmission int, nFeature []int) (*MultinomialHMM, error) {

	if nState <= 0 {
		return nil, &ShapeError{Param: "NState", Want: 1, Got: nState}
	}
	if nEmission <= 0 {
		return nil, &ShapeError{Param: "NEmission", Want: 1, Got: nEmission}
	}
	if len(nFeature) != nEmission {
		return nil, &ShapeError{Param: "NFeature", Want: nEmission, Got: len(nFeature)}
	}
	for _, q := range nFeature {
		if q <= 0 {
			return nil, &ShapeError{Param: "NFeature", Want: 1, Got: q}
		}
	}

	nf := make([]int, nEmission)
	copy(nf, nFeature)

	return &MultinomialHMM{
		NState:    nState,
		NEmission: nEmission,
		NFeature:  nf,
	}, nil
}

// checkRow confirms that row is a probability distribution within tolerance.
func checkRow(param string, row []float64, ix int) error {

	s := 0.0
	for _, v := range row {
		if v < 0 {
			return &ValidationError{Param: param, Row: ix, Sum: v}
		}
		s += v
	}
	if s < 1-stochTol || s > 1+stochTol {
		return &ValidationError{Param: param, Row: ix, Sum: s}
	}

	return nil
}

// SetPi sets the initial state distribution.  The vector must have length
// NState and sum to 1; it is copied in.
func (h *MultinomialHMM) SetPi(pi []float64) error {

	if len(pi) != h.NState {
		return &ShapeError{Param: "Pi", Want: h.NState, Got: len(pi)}
	}
	if err := checkRow("Pi", pi, 0); err != nil {
		return err
	}

	h.pi = make([]float64, h.NState)
	copy(h.pi, pi)

	return nil
}

// SetTrans sets the transition probability matrix, given as a flat
// row-major NState x NState slice with stochastic rows.
func (h *MultinomialHMM) SetTrans(trans []float64) error {

	if len(trans) != h.NState*h.NState {
		return &ShapeError{Param: "Trans", Want: h.NState * h.NState, Got: len(trans)}
	}
	for st := 0; st < h.NState; st++ {
		if err := checkRow("Trans", trans[st*h.NState:(st+1)*h.NState], st); err != nil {
			return err
		}
	}

	h.trans = make([]float64, len(trans))
	copy(h.trans, trans)

	return nil
}

// SetEmission sets the emission table for channel m, given as a flat
// row-major NState x NFeature[m] slice with stochastic rows.
func (h *MultinomialHMM) SetEmission(m int, table []float64) error {

	if m < 0 || m >= h.NEmission {
		return &ShapeError{Param: "channel", Want: h.NEmission - 1, Got: m}
	}
	q := h.NFeature[m]
	if len(table) != h.NState*q {
		return &ShapeError{Param: "B", Want: h.NState * q, Got: len(table)}
	}
	for st := 0; st < h.NState; st++ {
		if err := checkRow("B", table[st*q:(st+1)*q], st); err != nil {
			return err
		}
	}

	if h.b == nil {
		h.b = make([][]float64, h.NEmission)
	}
	h.b[m] = make([]float64, len(table))
	copy(h.b[m], table)

	return nil
}

// SetEmissions sets the emission tables for all channels at once.
func (h *MultinomialHMM) SetEmissions(tables [][]float64) error {

	if len(tables) != h.NEmission {
		return &ShapeError{Param: "B", Want: h.NEmission, Got: len(tables)}
	}

	// Validate everything before touching the stored tables.
	for m, tab := range tables {
		q := h.NFeature[m]
		if len(tab) != h.NState*q {
			return &ShapeError{Param: "B", Want: h.NState * q, Got: len(tab)}
		}
		for st := 0; st < h.NState; st++ {
			if err := checkRow("B", tab[st*q:(st+1)*q], st); err != nil {
				return err
			}
		}
	}

	h.b = make([][]float64, h.NEmission)
	for m, tab := range tables {
		h.b[m] = make([]float64, len(tab))
		copy(h.b[m], tab)
	}

	return nil
}

// PiDist returns a copy of the initial state distribution, or nil if it has
// not been set.
func (h *MultinomialHMM) PiDist() []float64 {

	if h.pi == nil {
		return nil
	}
	pi := make([]float64, len(h.pi))
	copy(pi, h.pi)
	return pi
}

// TransMat returns a copy of the transition matrix as a flat row-major
// slice, or nil if it has not been set.
func (h *MultinomialHMM) TransMat() []float64 {

	if h.trans == nil {
		return nil
	}
	tr := make([]float64, len(h.trans))
	copy(tr, h.trans)
	return tr
}

// EmissionTable returns a copy of the emission table for channel m, or nil
// if it has not been set.
func (h *MultinomialHMM) EmissionTable(m int) []float64 {

	if m < 0 || m >= h.NEmission || h.b == nil || h.b[m] == nil {
		return nil
	}
	tab := make([]float64, len(h.b[m]))
	copy(tab, h.b[m])
	return tab
}

// InitParams fills in starting values for the probability tables: uniform
// initial and transition distributions, and random stochastic emission rows
// to break symmetry between states.  If rng is nil a time-seeded source is
// used.
func (h *MultinomialHMM) InitParams(rng *rand.Rand) {

	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	h.pi = make([]float64, h.NState)
	for st := range h.pi {
		h.pi[st] = 1 / float64(h.NState)
	}

	h.trans = make([]float64, h.NState*h.NState)
	for st := range h.trans {
		h.trans[st] = 1 / float64(h.NState)
	}

	h.b = make([][]float64, h.NEmission)
	for m := 0; m < h.NEmission; m++ {
		q := h.NFeature[m]
		tab := make([]float64, h.NState*q)
		for i := range tab {
			tab[i] = rng.Float64()
		}
		for st := 0; st < h.NState; st++ {
			normalizeSum(tab[st*q:(st+1)*q], 1/float64(q))
		}
		h.b[m] = tab
	}
}

// Initialized reports whether all probability tables have been set.
func (h *MultinomialHMM) Initialized() bool {

	if h.pi == nil || h.trans == nil || h.b == nil {
		return false
	}
	for _, tab := range h.b {
		if tab == nil {
			return false
		}
	}
	return true
}

// checkReady confirms that the model can run the forward-backward
// recursions: all tables set, and when the last nFrozen emission rows are
// excluded from re-estimation, that those rows hold valid distributions
// supplied by the caller.
func (h *MultinomialHMM) checkReady(nFrozen int) error {

	if !h.Initialized() {
		return &InitializationError{Reason: "model parameters have not been set or initialized"}
	}

	if nFrozen == 0 {
		return nil
	}
	if nFrozen < 0 || nFrozen > h.NState {
		return &ShapeError{Param: "FrozenEmissions", Want: h.NState, Got: nFrozen}
	}
	for m, tab := range h.b {
		q := h.NFeature[m]
		for st := h.NState - nFrozen; st < h.NState; st++ {
			if err := checkRow("B", tab[st*q:(st+1)*q], st); err != nil {
				return &InitializationError{
					Reason: "frozen emission rows were not populated before training",
				}
			}
		}
	}

	return nil
}

// checkObs validates one observation sequence against the model shape: each
// time step carries one symbol per channel, each symbol within its
// channel's alphabet.
func (h *MultinomialHMM) checkObs(obs [][]int) error {

	for t, x := range obs {
		if len(x) != h.NEmission {
			return &ShapeError{Param: "observation", Want: h.NEmission, Got: len(x)}
		}
		for m, v := range x {
			if v < 0 || v >= h.NFeature[m] {
				return &DomainError{Time: t, Channel: m, Symbol: v, Limit: h.NFeature[m]}
			}
		}
	}

	return nil
}

// normalize the values in x to have a sum of 1, or set them all to z when
// the sum underflows.
func normalizeSum(x []float64, z float64) {
	scale := floats.Sum(x)
	if scale < 1e-300 {
		for j := range x {
			x[j] = z
		}
		return
	}
	floats.Scale(1/scale, x)
}

func argmax(x []float64) int {
	j := 0
	v := x[0]
	for i := 1; i < len(x); i++ {
		if x[i] > v {
			v = x[i]
			j = i
		}
	}

	return j
}
