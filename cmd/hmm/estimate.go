package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/tahaceritli/HeterogeneousHMM/hmmlib"
)

func estimateCmd() *cobra.Command {

	var (
		inCorpus   string
		inModel    string
		outModel   string
		nState     int
		nFeature   []int
		nIter      int
		convThresh float64
		trainable  string
		frozen     int
		workers    int
		seed       int64
	)

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Fit model parameters to a corpus with Baum-Welch EM",
		RunE: func(cmd *cobra.Command, args []string) error {

			var corpus corpusFile
			if err := readGob(inCorpus, &corpus); err != nil {
				return err
			}

			var h *hmmlib.MultinomialHMM
			var err error
			noInit := false
			if inModel != "" {
				// Resume from caller-supplied parameters.
				h, err = readModel(inModel)
				noInit = true
			} else {
				h, err = hmmlib.New(nState, len(nFeature), nFeature)
			}
			if err != nil {
				return err
			}

			if seed == 0 {
				seed = time.Now().UTC().UnixNano()
			}

			start := time.Now()
			trace, err := h.Train(corpus.Sequences, hmmlib.TrainConfig{
				NIter:                nIter,
				ConvThresh:           convThresh,
				Trainable:            trainable,
				FrozenEmissions:      frozen,
				ReturnLogLikelihoods: true,
				NoInit:               noInit,
				Workers:              workers,
			}, rand.New(rand.NewSource(seed)))
			if err != nil {
				return errors.Wrap(err, "training failed")
			}

			log.WithFields(map[string]interface{}{
				"iterations": len(trace),
				"elapsed":    time.Since(start).Round(time.Millisecond),
			}).Info("training finished")
			for i, llf := range trace {
				fmt.Printf("iter %3d  loglik %.6f\n", i, llf)
			}

			return writeModel(outModel, h)
		},
	}

	cmd.Flags().StringVar(&inCorpus, "in", "corpus.gob.gz", "training corpus file")
	cmd.Flags().StringVar(&inModel, "model", "", "starting model file (skips random initialization)")
	cmd.Flags().StringVar(&outModel, "out", "fitted.gob.gz", "output model file")
	cmd.Flags().IntVar(&nState, "nstate", 2, "number of hidden states")
	cmd.Flags().IntSliceVar(&nFeature, "nfeature", []int{3}, "alphabet size of each emission channel")
	cmd.Flags().IntVar(&nIter, "niter", 100, "maximum EM iterations")
	cmd.Flags().Float64Var(&convThresh, "convthresh", 0.01, "log-likelihood convergence threshold")
	cmd.Flags().StringVar(&trainable, "trainable", "ste", "parameters to update: any subset of 'ste'")
	cmd.Flags().IntVar(&frozen, "frozen", 0, "number of trailing emission rows to hold fixed")
	cmd.Flags().IntVar(&workers, "workers", 0, "E-step workers (0 uses all CPUs)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed for starting values (0 uses the clock)")

	return cmd
}
