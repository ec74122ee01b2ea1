package main

import (
	"fmt"

	"github.com/schollz/progressbar"
	"github.com/spf13/cobra"

	"github.com/tahaceritli/HeterogeneousHMM/hmmlib"
)

func decodeCmd() *cobra.Command {

	var (
		inCorpus  string
		inModel   string
		algorithm string
		outStates string
	)

	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Reconstruct state paths for a corpus under a fitted model",
		RunE: func(cmd *cobra.Command, args []string) error {

			var corpus corpusFile
			if err := readGob(inCorpus, &corpus); err != nil {
				return err
			}

			h, err := readModel(inModel)
			if err != nil {
				return err
			}

			bar := progressbar.New(len(corpus.Sequences))
			results := make([]hmmlib.DecodeResult, len(corpus.Sequences))
			for i, obs := range corpus.Sequences {
				res, err := h.Decode([][][]int{obs}, algorithm)
				if err != nil {
					return err
				}
				results[i] = res[0]
				_ = bar.Add(1)
			}
			fmt.Println()

			// Agreement report against the generating states, when the
			// corpus carries them.
			if corpus.States != nil {
				var errs, total int
				for i, res := range results {
					e, n, err := hmmlib.CompareStates(corpus.States[i], res.States)
					if err != nil {
						return err
					}
					errs += e
					total += n
				}
				fmt.Printf("state agreement: %.2f%% (%d/%d positions)\n",
					100*float64(total-errs)/float64(total), total-errs, total)
			}

			if outStates != "" {
				paths := make([][]int, len(results))
				for i, res := range results {
					paths[i] = res.States
				}
				return writeGob(outStates, &corpusFile{States: paths})
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inCorpus, "in", "corpus.gob.gz", "corpus file")
	cmd.Flags().StringVar(&inModel, "model", "fitted.gob.gz", "model file")
	cmd.Flags().StringVar(&algorithm, "algorithm", hmmlib.AlgoViterbi, "decoding algorithm: viterbi or map")
	cmd.Flags().StringVar(&outStates, "outstates", "", "write reconstructed state paths here")

	return cmd
}
