package main

import (
	"compress/gzip"
	"encoding/gob"
	"os"

	"github.com/pkg/errors"

	"github.com/tahaceritli/HeterogeneousHMM/hmmlib"
)

// modelFile is the on-disk form of a model: the three probability tables
// plus shape metadata, gob-encoded and gzip-compressed.
type modelFile struct {
	NState    int
	NEmission int
	NFeature  []int
	Pi        []float64
	Trans     []float64
	B         [][]float64
}

// corpusFile holds a batch of observation sequences and, when they are
// known, the generating state paths.
type corpusFile struct {
	Sequences [][][]int
	States    [][]int
}

func writeGob(fname string, v interface{}) error {

	fid, err := os.Create(fname)
	if err != nil {
		return errors.Wrap(err, "create")
	}
	defer fid.Close()

	gid := gzip.NewWriter(fid)
	defer gid.Close()

	if err := gob.NewEncoder(gid).Encode(v); err != nil {
		return errors.Wrapf(err, "encode %s", fname)
	}

	return nil
}

func readGob(fname string, v interface{}) error {

	fid, err := os.Open(fname)
	if err != nil {
		return errors.Wrap(err, "open")
	}
	defer fid.Close()

	gid, err := gzip.NewReader(fid)
	if err != nil {
		return errors.Wrapf(err, "decompress %s", fname)
	}
	defer gid.Close()

	if err := gob.NewDecoder(gid).Decode(v); err != nil {
		return errors.Wrapf(err, "decode %s", fname)
	}

	return nil
}

// writeModel saves the model tables to fname.
func writeModel(fname string, h *hmmlib.MultinomialHMM) error {

	mf := modelFile{
		NState:    h.NState,
		NEmission: h.NEmission,
		NFeature:  h.NFeature,
		Pi:        h.PiDist(),
		Trans:     h.TransMat(),
		B:         make([][]float64, h.NEmission),
	}
	for m := 0; m < h.NEmission; m++ {
		mf.B[m] = h.EmissionTable(m)
	}

	return writeGob(fname, &mf)
}

// readModel loads a model from fname, validating the tables on the way in.
func readModel(fname string) (*hmmlib.MultinomialHMM, error) {

	var mf modelFile
	if err := readGob(fname, &mf); err != nil {
		return nil, err
	}

	h, err := hmmlib.New(mf.NState, mf.NEmission, mf.NFeature)
	if err != nil {
		return nil, err
	}
	if mf.Pi != nil {
		if err := h.SetPi(mf.Pi); err != nil {
			return nil, err
		}
	}
	if mf.Trans != nil {
		if err := h.SetTrans(mf.Trans); err != nil {
			return nil, err
		}
	}
	if mf.B != nil {
		if err := h.SetEmissions(mf.B); err != nil {
			return nil, err
		}
	}

	return h, nil
}
