package mealplan

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/saadjs/mealplan-cli/internal/app"
	"github.com/saadjs/mealplan-cli/internal/logger"
)

var (
	dbPath   string
	logMode  string
	logLevel string

	log = logger.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "mealplan",
	Short: "mealplan builds weekly diet plans from your terminal",
	Long:  "mealplan is a local-first diet plan generator: set a profile, keep an ingredient catalog, and generate reproducible week plans.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := app.LoadDotEnv(); err != nil {
			return err
		}
		mode := logMode
		if !cmd.Flags().Changed("log-mode") {
			mode = app.String(app.EnvLogMode, logMode)
		}
		level := logLevel
		if !cmd.Flags().Changed("log-level") {
			level = app.String(app.EnvLogLevel, logLevel)
		}
		l, err := logger.New(mode, level)
		if err != nil {
			return err
		}
		log = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.Sync()
	},
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database (default: $MEALPLAN_DB or the user config dir)")
	rootCmd.PersistentFlags().StringVar(&logMode, "log-mode", "dev", "Log encoding: dev (console) or prod (json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Minimum log level written to stderr")
}
