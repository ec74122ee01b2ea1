// Command hmm is a small harness around the hmmlib engine: it samples
// synthetic corpora from a model, fits model parameters with Baum-Welch,
// and reconstructs state paths.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tahaceritli/HeterogeneousHMM/hmmlib"
)

var log = logrus.New()

func main() {

	root := &cobra.Command{
		Use:           "hmm",
		Short:         "Discrete multinomial hidden Markov model toolkit",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var verbose bool
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetLevel(logrus.DebugLevel)
		}
		hmmlib.SetLogger(log)
	}

	root.AddCommand(generateCmd())
	root.AddCommand(estimateCmd())
	root.AddCommand(decodeCmd())

	if err := root.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
