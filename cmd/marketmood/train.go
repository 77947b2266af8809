package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the sentiment classifier and report its held-out accuracy",
	Long:  `Loads the labeled corpus, fits the classifier and prints the purity ratio (accuracy on the held-out share) and the fitted coefficients. Nothing is parsed or written.`,
	Args:  cobra.NoArgs,
	RunE:  runTrain,
}

var trainCorpus string

func init() {
	trainCmd.Flags().StringVar(&trainCorpus, "corpus", "", "Labeled corpus (overrides config)")
}

func runTrain(cmd *cobra.Command, args []string) error {
	if trainCorpus != "" {
		config.Imputation.CorpusPath = trainCorpus
	}

	ctx, cancel := signalContext()
	defer cancel()

	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	model, stats, err := application.TrainModel(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Corpus %s: %d rows, %d usable (%d unlabeled, %d incomplete)\n",
		config.Imputation.CorpusPath, stats.Rows, stats.Kept, stats.Unlabeled, stats.Incomplete)
	fmt.Fprintf(out, "Purity ratio: %.4f (scored fit trained on %d, %d held-out rows, final fit on %d)\n",
		model.Score(), model.TrainedRows(), model.ScoredRows(), model.FittedRows())

	coefficients := model.Coefficients()
	names := make([]string, 0, len(coefficients))
	for name := range coefficients {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %-10s %+.4f\n", name, coefficients[name])
	}
	return nil
}
