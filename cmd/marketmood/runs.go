package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/ternarybob/marketmood/internal/pipeline"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run id>",
	Short: "Print the report of a recorded run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var (
	runsLimit int
	runsHTML  bool
)

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "Maximum runs to list, 0 for all")
	runsShowCmd.Flags().BoolVar(&runsHTML, "html", false, "Print HTML instead of markdown")
	runsCmd.AddCommand(runsShowCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	runs, err := application.StorageManager.RunStorage().ListRuns(ctx, runsLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tSTARTED\tRECORDS\tSTATED\tIMPUTED\tSCORE\tSOURCE")
	for _, run := range runs {
		score := "-"
		if run.ModelScore != nil {
			score = fmt.Sprintf("%.4f", *run.ModelScore)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			run.ID, run.Kind, run.StartedAt.Format("2006-01-02 15:04:05"),
			run.Records, run.Stated, run.Imputed, score, run.Source)
	}
	return w.Flush()
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	run, err := application.StorageManager.RunStorage().GetRun(ctx, args[0])
	if err != nil {
		return err
	}

	report := pipeline.RenderReport(run, nil)
	if runsHTML {
		if report, err = pipeline.MarkdownToHTML(report); err != nil {
			return err
		}
	}
	fmt.Fprint(cmd.OutOrStdout(), report)
	return nil
}
