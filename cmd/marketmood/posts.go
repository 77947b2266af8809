package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/ternarybob/marketmood/internal/models"
	"github.com/ternarybob/marketmood/internal/pipeline"
)

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Extract post records from a saved page or stored snapshot",
	Long: `Extracts one record per post, scores its emotion and writes posts_<label>.csv.
With imputation the classifier is trained on the configured corpus and missing
sentiment is filled; the table is then written as posts_<label>_filled_na.csv.
--both writes the unfilled and filled tables in one run.`,
	Args: cobra.NoArgs,
	RunE: runPosts,
}

var (
	postsInput    string
	postsSnapshot string
	postsLabel    string
	postsImpute   bool
	postsNoImpute bool
	postsBoth     bool
)

func init() {
	postsCmd.Flags().StringVarP(&postsInput, "input", "i", "", "Saved stream page (UTF-8 or UTF-16)")
	postsCmd.Flags().StringVar(&postsSnapshot, "snapshot", "", "Stored snapshot key (default: newest post snapshot)")
	postsCmd.Flags().StringVar(&postsLabel, "label", "", "Name used in output files (default: input name or symbol)")
	postsCmd.Flags().BoolVar(&postsImpute, "impute", false, "Fill missing sentiment (overrides config)")
	postsCmd.Flags().BoolVar(&postsNoImpute, "no-impute", false, "Leave missing sentiment empty (overrides config)")
	postsCmd.Flags().BoolVar(&postsBoth, "both", false, "Write both the unfilled and filled tables")
	postsCmd.MarkFlagsMutuallyExclusive("input", "snapshot")
	postsCmd.MarkFlagsMutuallyExclusive("impute", "no-impute")
}

func runPosts(cmd *cobra.Command, args []string) error {
	impute := config.Imputation.Enabled
	switch {
	case postsImpute, postsBoth:
		impute = true
	case postsNoImpute:
		impute = false
	}
	if postsBoth && postsNoImpute {
		return fmt.Errorf("--both requires imputation")
	}

	opts := pipeline.PostsOptions{
		Label:     postsLabel,
		Impute:    impute,
		WriteBoth: postsBoth || (impute && config.Output.WriteBoth),
	}

	ctx, cancel := signalContext()
	defer cancel()

	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	var summary *models.RunSummary
	if postsInput != "" {
		summary, err = application.RunPostsFile(ctx, postsInput, opts)
	} else {
		summary, err = application.RunPostsSnapshot(ctx, postsSnapshot, opts)
	}
	if err != nil {
		if pipeline.IsConfigurationError(err) {
			return fmt.Errorf("imputation is not configured correctly (corpus %s): %w", config.Imputation.CorpusPath, err)
		}
		return err
	}

	printSummary(cmd, summary)
	return nil
}

func printSummary(cmd *cobra.Command, summary *models.RunSummary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s: %d records", summary.ID, summary.Records)
	if summary.Kind == models.RunKindPosts {
		fmt.Fprintf(out, " (%d stated, %d imputed, %d unlabeled)", summary.Stated, summary.Imputed, summary.Unlabeled)
	}
	fmt.Fprintln(out)
	if summary.ModelScore != nil {
		fmt.Fprintf(out, "Classifier held-out accuracy: %.4f\n", *summary.ModelScore)
	}
	if summary.UnresolvedTimestamps > 0 {
		fmt.Fprintf(out, "Unresolved timestamps: %d\n", summary.UnresolvedTimestamps)
	}
	fmt.Fprintf(out, "Wrote %s\n", strings.Join(summary.OutputPaths, ", "))
}
