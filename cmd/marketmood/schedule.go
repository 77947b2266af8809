package main

import (
	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Fetch and process the configured symbol on a cron schedule",
	Long:  `Runs until interrupted, fetching the post stream of schedule.symbol and writing its tables on every schedule.cron tick.`,
	Args:  cobra.NoArgs,
	RunE:  runSchedule,
}

var scheduleNow bool

func init() {
	scheduleCmd.Flags().BoolVar(&scheduleNow, "now", false, "Also run once immediately")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	if err := application.StartSchedule(); err != nil {
		return err
	}

	logger.Info().
		Str("cron", config.Schedule.Cron).
		Str("symbol", config.Schedule.Symbol).
		Msg("Scheduler ready - Press Ctrl+C to stop")

	if scheduleNow {
		go application.SchedulerService.RunNow()
	}

	<-ctx.Done()
	logger.Info().Msg("Interrupt signal received")
	return nil
}
