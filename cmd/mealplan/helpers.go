package mealplan

import (
	"database/sql"

	"github.com/spf13/cobra"

	"github.com/saadjs/mealplan-cli/internal/app"
	"github.com/saadjs/mealplan-cli/internal/db"
)

func resolveDBPath() (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}
	return app.DefaultDBPath()
}

func withDB(run func(*sql.DB) error) error {
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
	return run(sqldb)
}

// seedFlag returns nil unless --seed was passed, so the config and env
// fallbacks still apply.
func seedFlag(cmd *cobra.Command, value int64) *int64 {
	if !cmd.Flags().Changed("seed") {
		return nil
	}
	return &value
}

func optionalFloatFlag(cmd *cobra.Command, name string, value float64) *float64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &value
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
