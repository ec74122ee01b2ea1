package main

import (
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/tahaceritli/HeterogeneousHMM/hmmlib"
)

func generateCmd() *cobra.Command {

	var (
		nState     int
		nFeature   []int
		nSequences int
		nSamples   int
		seed       int64
		outCorpus  string
		outModel   string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Sample a synthetic corpus from a randomly initialized model",
		RunE: func(cmd *cobra.Command, args []string) error {

			if seed == 0 {
				seed = time.Now().UTC().UnixNano()
			}
			rng := rand.New(rand.NewSource(seed))

			h, err := hmmlib.New(nState, len(nFeature), nFeature)
			if err != nil {
				return err
			}
			h.InitParams(rng)

			X, states, err := h.Sample(rng, nSequences, nSamples, true)
			if err != nil {
				return err
			}

			log.WithFields(map[string]interface{}{
				"nstate":     nState,
				"nsequences": nSequences,
				"nsamples":   nSamples,
				"seed":       seed,
			}).Info("sampled corpus")

			if err := writeGob(outCorpus, &corpusFile{Sequences: X, States: states}); err != nil {
				return err
			}
			if outModel != "" {
				return writeModel(outModel, h)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&nState, "nstate", 2, "number of hidden states")
	cmd.Flags().IntSliceVar(&nFeature, "nfeature", []int{3}, "alphabet size of each emission channel")
	cmd.Flags().IntVar(&nSequences, "nsequences", 10, "number of sequences to sample")
	cmd.Flags().IntVar(&nSamples, "nsamples", 100, "length of each sequence")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 uses the clock)")
	cmd.Flags().StringVar(&outCorpus, "out", "corpus.gob.gz", "output corpus file")
	cmd.Flags().StringVar(&outModel, "outmodel", "", "also write the generating model here")

	return cmd
}
