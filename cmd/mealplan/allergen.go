package mealplan

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saadjs/mealplan-cli/internal/service"
)

var allergenCmd = &cobra.Command{
	Use:     "allergen",
	Aliases: []string{"allergens"},
	Short:   "Manage allergens",
}

var allergenListCmd = &cobra.Command{
	Use:   "list",
	Short: "List allergens",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			items, err := service.ListAllergens(sqldb)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tNAME")
			for _, a := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", a.ID, a.Name)
			}
			return nil
		})
	},
}

var allergenName string

var allergenAddCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Add a custom allergen",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			a, err := service.AddAllergen(sqldb, args[0], allergenName)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added allergen %s (%s)\n", a.ID, a.Name)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(allergenCmd)
	allergenCmd.AddCommand(allergenListCmd, allergenAddCmd)
	allergenAddCmd.Flags().StringVar(&allergenName, "name", "", "Display name")
}
