package mealplan

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saadjs/mealplan-cli/internal/app"
	"github.com/saadjs/mealplan-cli/internal/db"
	"github.com/saadjs/mealplan-cli/internal/service"
)

var initNoSeed bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the local database and load the built-in ingredient catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveDBPath()
		if err != nil {
			return err
		}
		if err := app.EnsureDBDir(path); err != nil {
			return err
		}

		sqldb, err := db.Open(path)
		if err != nil {
			return err
		}
		defer sqldb.Close()

		if err := db.ApplyMigrations(sqldb); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Initialized mealplan database at %s\n", path)
		if initNoSeed {
			return nil
		}
		report, err := service.SeedCatalog(sqldb)
		if err != nil {
			return err
		}
		log.Debug("seed catalog loaded", "inserted", report.Inserted, "skipped", report.Skipped)
		fmt.Fprintf(cmd.OutOrStdout(), "Catalog: %d added, %d already present\n", report.Inserted, report.Skipped)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initNoSeed, "no-seed", false, "Skip loading the built-in ingredient catalog")
}
