package mealplan

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/saadjs/mealplan-cli/internal/model"
	"github.com/saadjs/mealplan-cli/internal/service"
)

var planCmd = &cobra.Command{
	Use:     "plan",
	Aliases: []string{"plans"},
	Short:   "Generate and manage weekly meal plans",
}

var (
	planWeek        string
	planSeed        int64
	planProfileDate string
	planFormat      string
)

var (
	planShowFormat   string
	planExportFormat string
)

var planGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a 7-day plan for the current profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := service.GeneratePlanInput{
			WeekStart:   planWeek,
			Seed:        seedFlag(cmd, planSeed),
			ProfileDate: planProfileDate,
		}
		return withDB(func(sqldb *sql.DB) error {
			sp, err := service.GeneratePlan(sqldb, log, in)
			if err != nil {
				return err
			}
			return writePlan(cmd.OutOrStdout(), sp, planFormat)
		})
	},
}

var planShowCmd = &cobra.Command{
	Use:   "show [plan-id|latest]",
	Short: "Show a stored plan (default latest)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref := service.PlanRefLatest
		if len(args) == 1 {
			ref = args[0]
		}
		return withDB(func(sqldb *sql.DB) error {
			sp, err := service.GetPlan(sqldb, ref)
			if err != nil {
				return err
			}
			return writePlan(cmd.OutOrStdout(), sp, planShowFormat)
		})
	},
}

var planListLimit int

var planListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored plans, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			items, err := service.ListPlans(sqldb, planListLimit)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tWEEK\tKCAL\tDAYS\tMEALS\tGENERATED")
			for _, p := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d\t%d\t%d\t%s\n", p.ID, p.WeekStart, p.TargetKcal, p.DayCount, p.MealCount, p.GeneratedAt.Local().Format(time.RFC3339))
			}
			return nil
		})
	},
}

var (
	regenDay         string
	regenMeal        int
	regenSeed        int64
	regenKeepCurrent bool
)

var planRegenerateMealCmd = &cobra.Command{
	Use:   "regenerate-meal [plan-id|latest]",
	Short: "Replace one meal of a stored plan",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref := service.PlanRefLatest
		if len(args) == 1 {
			ref = args[0]
		}
		day, err := service.ParseDay(regenDay)
		if err != nil {
			return err
		}
		if regenMeal <= 0 {
			return fmt.Errorf("--meal must be >= 1")
		}
		in := service.RegenerateMealInput{
			PlanRef:      ref,
			Day:          day,
			Slot:         regenMeal - 1,
			Seed:         seedFlag(cmd, regenSeed),
			AvoidCurrent: !regenKeepCurrent,
		}
		return withDB(func(sqldb *sql.DB) error {
			meal, err := service.RegenerateMeal(sqldb, log, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Regenerated %s %s\n", dayTitle(day), meal.MealType)
			printMeal(cmd.OutOrStdout(), *meal)
			return nil
		})
	},
}

var planExportOut string

var planExportCmd = &cobra.Command{
	Use:   "export [plan-id|latest]",
	Short: "Export a stored plan as json or yaml",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref := service.PlanRefLatest
		if len(args) == 1 {
			ref = args[0]
		}
		return withDB(func(sqldb *sql.DB) error {
			sp, err := service.GetPlan(sqldb, ref)
			if err != nil {
				return err
			}
			if planExportOut == "" {
				return service.WritePlanExport(cmd.OutOrStdout(), sp, service.ExportFormat(planExportFormat))
			}
			f, err := os.Create(planExportOut)
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}
			defer f.Close()
			if err := service.WritePlanExport(f, sp, service.ExportFormat(planExportFormat)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported plan %s to %s\n", sp.ID, planExportOut)
			return nil
		})
	},
}

var planDeleteCmd = &cobra.Command{
	Use:   "delete <plan-id>",
	Short: "Delete a stored plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			id, err := service.DeletePlan(sqldb, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted plan %s\n", id)
			return nil
		})
	},
}

func writePlan(w io.Writer, sp *model.StoredPlan, format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		printPlan(w, sp)
		return nil
	default:
		return service.WritePlanExport(w, sp, service.ExportFormat(format))
	}
}

func printPlan(w io.Writer, sp *model.StoredPlan) {
	p := sp.Plan
	fmt.Fprintf(w, "Plan %s (seed %d)\n", sp.ID, sp.Seed)
	fmt.Fprintf(w, "Week of %s\n", p.WeekStart.Format("2006-01-02"))
	fmt.Fprintf(w, "Daily target: %d kcal, P %dg, C %dg, F %dg\n", p.TargetKcal, p.TargetProteinG, p.TargetCarbsG, p.TargetFatG)
	for _, day := range p.Days {
		date := p.WeekStart.AddDate(0, 0, day.DayOfWeek).Format("2006-01-02")
		fmt.Fprintf(w, "\n%s %s: %d kcal, P %.1fg, C %.1fg, F %.1fg\n",
			dayTitle(day.DayOfWeek), date, day.TotalKcal, day.TotalProteinG, day.TotalCarbsG, day.TotalFatG)
		for _, meal := range day.Meals {
			printMeal(w, meal)
		}
	}
}

func dayTitle(day int) string {
	name := service.DayName(day)
	return strings.ToUpper(name[:1]) + name[1:]
}

func printMeal(w io.Writer, meal model.GeneratedMeal) {
	fmt.Fprintf(w, "  %s: %d kcal, P %.1fg, C %.1fg, F %.1fg\n", meal.MealType, meal.TotalKcal, meal.TotalProteinG, meal.TotalCarbsG, meal.TotalFatG)
	if len(meal.Items) == 0 {
		fmt.Fprintln(w, "    (no matching ingredients)")
	}
	for _, it := range meal.Items {
		fmt.Fprintf(w, "    %s\t%dg\t%d kcal\tP %.1f\tC %.1f\tF %.1f\n", it.IngredientName, it.Grams, it.Kcal, it.ProteinG, it.CarbsG, it.FatG)
	}
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.AddCommand(planGenerateCmd, planShowCmd, planListCmd, planRegenerateMealCmd, planExportCmd, planDeleteCmd)

	planGenerateCmd.Flags().StringVar(&planWeek, "week", "", "Any date in the target week, YYYY-MM-DD (default this week)")
	planGenerateCmd.Flags().Int64Var(&planSeed, "seed", 0, "Random seed (default: config rng_seed, $MEALPLAN_SEED, then clock)")
	planGenerateCmd.Flags().StringVar(&planProfileDate, "profile-date", "", "Use the profile effective on this date (default today)")
	planGenerateCmd.Flags().StringVar(&planFormat, "format", "text", "Output format: text, json or yaml")

	planShowCmd.Flags().StringVar(&planShowFormat, "format", "text", "Output format: text, json or yaml")
	planListCmd.Flags().IntVar(&planListLimit, "limit", 20, "Max rows")

	planRegenerateMealCmd.Flags().StringVar(&regenDay, "day", "", "Day: 0-6 or monday..sunday")
	planRegenerateMealCmd.Flags().IntVar(&regenMeal, "meal", 0, "Meal number within the day, starting at 1")
	planRegenerateMealCmd.Flags().Int64Var(&regenSeed, "seed", 0, "Random seed")
	planRegenerateMealCmd.Flags().BoolVar(&regenKeepCurrent, "keep-current", false, "Allow the meal's current ingredients to be picked again")
	_ = planRegenerateMealCmd.MarkFlagRequired("day")
	_ = planRegenerateMealCmd.MarkFlagRequired("meal")

	planExportCmd.Flags().StringVar(&planExportFormat, "format", "json", "Export format: json or yaml")
	planExportCmd.Flags().StringVar(&planExportOut, "out", "", "Output file (default stdout)")
}
