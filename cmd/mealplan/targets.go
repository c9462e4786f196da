package mealplan

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saadjs/mealplan-cli/internal/service"
)

var (
	targetsDate string
	targetsJSON bool
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "Show energy and macro targets for the current profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			r, err := service.Targets(sqldb, targetsDate)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if targetsJSON {
				b, err := json.MarshalIndent(r, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(b))
				return nil
			}
			fmt.Fprintf(out, "BMR: %d kcal\nTDEE: %d kcal\nTarget: %d kcal\n", r.Energy.BMR, r.Energy.TDEE, r.Energy.TargetKcal)
			fmt.Fprintf(out, "Protein: %dg\nCarbs: %dg\nFat: %dg\nFiber: %dg\n", r.Daily.ProteinG, r.Daily.CarbsG, r.Daily.FatG, r.Daily.FiberG)
			fmt.Fprintln(out, "\nMEAL\tSHARE\tKCAL\tP\tC\tF")
			for _, m := range r.Meals {
				fmt.Fprintf(out, "%s\t%.0f%%\t%d\t%d\t%d\t%d\n", m.MealType, m.Fraction*100, m.Targets.Kcal, m.Targets.ProteinG, m.Targets.CarbsG, m.Targets.FatG)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(targetsCmd)
	targetsCmd.Flags().StringVar(&targetsDate, "date", "", "Use the profile effective on this date (default today)")
	targetsCmd.Flags().BoolVar(&targetsJSON, "json", false, "Output JSON")
}
