package hmmlib

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

// wikiModel is the two-state weather model from the Wikipedia HMM article.
// State 0 is Rainy, state 1 is Sunny; symbols are walk, shop, clean.
func wikiModel(t *testing.T) *MultinomialHMM {
	t.Helper()

	h, err := New(2, 1, []int{3})
	require.NoError(t, err)
	require.NoError(t, h.SetPi([]float64{0.6, 0.4}))
	require.NoError(t, h.SetTrans([]float64{
		0.7, 0.3,
		0.4, 0.6,
	}))
	require.NoError(t, h.SetEmission(0, []float64{
		0.1, 0.4, 0.5,
		0.6, 0.3, 0.1,
	}))

	return h
}

func TestNewShapes(t *testing.T) {

	var serr *ShapeError

	_, err := New(0, 1, []int{2})
	require.ErrorAs(t, err, &serr)

	_, err = New(2, 0, nil)
	require.ErrorAs(t, err, &serr)

	_, err = New(2, 2, []int{3})
	require.ErrorAs(t, err, &serr)

	_, err = New(2, 1, []int{0})
	require.ErrorAs(t, err, &serr)

	h, err := New(3, 2, []int{4, 2})
	require.NoError(t, err)
	assert.Equal(t, 3, h.NState)
	assert.Equal(t, []int{4, 2}, h.NFeature)
	assert.False(t, h.Initialized())
}

func TestSetValidation(t *testing.T) {

	h, err := New(2, 1, []int{3})
	require.NoError(t, err)

	var serr *ShapeError
	var verr *ValidationError

	assert.ErrorAs(t, h.SetPi([]float64{1}), &serr)
	assert.ErrorAs(t, h.SetPi([]float64{0.7, 0.4}), &verr)
	assert.ErrorAs(t, h.SetPi([]float64{1.2, -0.2}), &verr)
	assert.NoError(t, h.SetPi([]float64{0.5, 0.5}))

	assert.ErrorAs(t, h.SetTrans([]float64{1, 0}), &serr)
	assert.ErrorAs(t, h.SetTrans([]float64{0.9, 0.2, 0.5, 0.5}), &verr)
	assert.NoError(t, h.SetTrans([]float64{0.9, 0.1, 0.5, 0.5}))

	assert.ErrorAs(t, h.SetEmission(1, make([]float64, 6)), &serr)
	assert.ErrorAs(t, h.SetEmission(0, []float64{1, 0}), &serr)
	assert.ErrorAs(t, h.SetEmission(0, []float64{0.5, 0.5, 0.5, 0.2, 0.3, 0.5}), &verr)
	assert.NoError(t, h.SetEmission(0, []float64{0.2, 0.3, 0.5, 0.1, 0.1, 0.8}))

	assert.True(t, h.Initialized())
}

func TestNoImplicitNormalization(t *testing.T) {

	h, err := New(2, 1, []int{2})
	require.NoError(t, err)

	// A nearly-stochastic row must be rejected, not silently rescaled.
	var verr *ValidationError
	assert.ErrorAs(t, h.SetPi([]float64{0.6, 0.41}), &verr)
	assert.Nil(t, h.PiDist())
}

func TestGettersCopy(t *testing.T) {

	h := wikiModel(t)

	pi := h.PiDist()
	pi[0] = 99
	assert.Equal(t, []float64{0.6, 0.4}, h.PiDist())

	tr := h.TransMat()
	tr[0] = 99
	assert.Equal(t, 0.7, h.TransMat()[0])

	b := h.EmissionTable(0)
	b[0] = 99
	assert.Equal(t, 0.1, h.EmissionTable(0)[0])
}

func TestInitParams(t *testing.T) {

	h, err := New(4, 2, []int{3, 5})
	require.NoError(t, err)

	h.InitParams(rand.New(rand.NewSource(1)))
	require.True(t, h.Initialized())

	assert.InDelta(t, 1.0, floats.Sum(h.pi), 1e-12)
	for st := 0; st < h.NState; st++ {
		assert.InDelta(t, 1.0, floats.Sum(h.trans[st*h.NState:(st+1)*h.NState]), 1e-12)
	}
	for m, q := range h.NFeature {
		for st := 0; st < h.NState; st++ {
			assert.InDelta(t, 1.0, floats.Sum(h.b[m][st*q:(st+1)*q]), 1e-12)
		}
	}
}
