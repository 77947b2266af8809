package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketmood/internal/app"
	"github.com/ternarybob/marketmood/internal/common"
)

var (
	// Command-line flags
	configFiles []string // Later files override earlier ones
	logLevel    string
	maxRecords  int
	quiet       bool

	// Global state
	config *common.Config
	logger arbor.ILogger
)

var rootCmd = &cobra.Command{
	Use:           "marketmood",
	Short:         "Extract market posts and articles and impute missing sentiment",
	Long:          `MarketMood turns fetched social-post and news-article markup into tab-separated tables, scoring each post's emotion and filling missing Bullish/Bearish tags with a classifier trained on labeled posts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd == versionCmd {
			return nil
		}
		return loadConfig()
	},
}

func init() {
	rootCmd.PersistentFlags().StringArrayVarP(&configFiles, "config", "c", nil, "Configuration file path (repeatable, later files override earlier ones)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides config)")
	rootCmd.PersistentFlags().IntVar(&maxRecords, "max-records", -1, "Maximum records per document, 0 for all (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress the banner")

	rootCmd.AddCommand(versionCmd, fetchCmd, postsCmd, articlesCmd, trainCmd, runsCmd, scheduleCmd)
}

func main() {
	defer common.RecoverWithCrashFile()

	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.Error().Err(err).Msg("Command failed")
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig runs the startup sequence: config files, env, flags, logger, banner
func loadConfig() error {
	if len(configFiles) == 0 {
		if _, err := os.Stat("marketmood.toml"); err == nil {
			configFiles = append(configFiles, "marketmood.toml")
		} else if _, err := os.Stat("deployments/local/marketmood.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/marketmood.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		return fmt.Errorf("failed to load configuration %v: %w", configFiles, err)
	}

	common.ApplyFlagOverrides(config, logLevel, maxRecords)
	if err := config.Validate(); err != nil {
		return err
	}

	logger = common.InitLogger(config)
	common.InstallCrashHandler(common.LogDir(config))

	if !quiet {
		common.PrintBanner(config)
	}

	logger.Debug().
		Strs("config_files", configFiles).
		Str("log_level", config.Logging.Level).
		Int("max_records", config.Extraction.MaxRecords).
		Str("badger_path", config.Storage.Badger.Path).
		Str("log_file", common.GetLogFilePath(logger)).
		Msg("Configuration loaded")
	return nil
}

// newApp builds the application; callers must Close it
func newApp() (*app.App, error) {
	return app.New(config, logger)
}

// signalContext is cancelled on interrupt or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
