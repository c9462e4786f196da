package mealplan

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saadjs/mealplan-cli/internal/service"
)

var doctorFix bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run plan integrity checks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			report, err := service.RunDoctor(sqldb, doctorFix)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Plan items with unknown ingredients: %d\n", report.OrphanPlanItems)
			fmt.Fprintf(out, "Repeated ingredients within a day: %d\n", report.DuplicateDayIngredient)
			fmt.Fprintf(out, "Meals with stale totals: %d\n", report.MealTotalMismatches)
			fmt.Fprintf(out, "Empty meals: %d\n", report.EmptyMeals)
			if doctorFix {
				fmt.Fprintf(out, "Fixed meal totals: %d\n", report.FixedMealTotals)
				// Re-check so the exit status reflects the repaired state.
				report, err = service.RunDoctor(sqldb, false)
				if err != nil {
					return err
				}
			}
			if report.HasIssues() {
				return fmt.Errorf("doctor found integrity issues")
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Recompute stale meal totals")
}
