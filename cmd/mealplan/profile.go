package mealplan

import (
	"database/sql"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saadjs/mealplan-cli/internal/model"
	"github.com/saadjs/mealplan-cli/internal/service"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the biometric profile used for plans",
}

var (
	profileAge        int
	profileSex        string
	profileWeight     float64
	profileWeightUnit string
	profileHeight     float64
	profileHeightUnit string
	profileActivity   string
	profileMeals      int
	profileDiet       string
	profileGoal       float64
	profileAllergens  []string
	profileDate       string
)

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the profile with an effective date",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := service.SetProfileInput{
			Age:           profileAge,
			Sex:           profileSex,
			Weight:        profileWeight,
			WeightUnit:    profileWeightUnit,
			Height:        profileHeight,
			HeightUnit:    profileHeightUnit,
			ActivityLevel: profileActivity,
			MealsPerDay:   profileMeals,
			DietPattern:   profileDiet,
			WeightGoal:    optionalFloatFlag(cmd, "goal", profileGoal),
			Allergens:     profileAllergens,
			EffectiveDate: profileDate,
		}
		return withDB(func(sqldb *sql.DB) error {
			id, err := service.SetProfile(sqldb, in)
			if err != nil {
				return err
			}
			if in.EffectiveDate == "" {
				in.EffectiveDate = "today"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set profile %d effective %s\n", id, in.EffectiveDate)
			return nil
		})
	},
}

var profileShowDate string

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the profile effective on a date",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			p, err := service.CurrentProfile(sqldb, profileShowDate)
			if err != nil {
				return err
			}
			if p == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No profile configured")
				return nil
			}
			printProfile(cmd.OutOrStdout(), p)
			return nil
		})
	},
}

var profileHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show profile history",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			items, err := service.ProfileHistory(sqldb)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "DATE\tAGE\tSEX\tKG\tCM\tACTIVITY\tMEALS\tDIET\tGOAL_KG\tALLERGENS")
			for _, p := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\t%.1f\t%.1f\t%s\t%d\t%s\t%s\t%s\n",
					p.EffectiveDate, p.Age, p.Sex, p.WeightKg, p.HeightCm, p.ActivityLevel, p.MealsPerDay, p.DietPattern,
					goalString(p.WeightGoalKg), strings.Join(p.AllergenIDs, ","))
			}
			return nil
		})
	},
}

func goalString(goal *float64) string {
	if goal == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *goal)
}

func printProfile(w io.Writer, p *model.Profile) {
	allergens := "none"
	if len(p.AllergenIDs) > 0 {
		allergens = strings.Join(p.AllergenIDs, ", ")
	}
	fmt.Fprintf(w, "Effective: %s\n", p.EffectiveDate)
	fmt.Fprintf(w, "Age: %d\nSex: %s\n", p.Age, p.Sex)
	fmt.Fprintf(w, "Weight: %.1fkg\nHeight: %.1fcm\n", p.WeightKg, p.HeightCm)
	fmt.Fprintf(w, "Weight goal: %s\n", goalString(p.WeightGoalKg))
	fmt.Fprintf(w, "Activity: %s\nMeals per day: %d\nDiet: %s\n", p.ActivityLevel, p.MealsPerDay, p.DietPattern)
	fmt.Fprintf(w, "Allergens: %s\n", allergens)
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileSetCmd, profileShowCmd, profileHistoryCmd)

	f := profileSetCmd.Flags()
	f.IntVar(&profileAge, "age", 0, "Age in years (18-100)")
	f.StringVar(&profileSex, "sex", "", "male or female")
	f.Float64Var(&profileWeight, "weight", 0, "Body weight")
	f.StringVar(&profileWeightUnit, "weight-unit", "kg", "Weight unit for --weight and --goal: kg or lb")
	f.Float64Var(&profileHeight, "height", 0, "Height")
	f.StringVar(&profileHeightUnit, "height-unit", "cm", "Height unit: cm, m or in")
	f.StringVar(&profileActivity, "activity", "moderate", "Activity level: sedentary, light, moderate, very, extreme")
	f.IntVar(&profileMeals, "meals", 0, "Meals per day (2-6; default from config or 3)")
	f.StringVar(&profileDiet, "diet", "omnivore", "Diet pattern: omnivore, vegetarian, vegan, pescatarian")
	f.Float64Var(&profileGoal, "goal", 0, "Target body weight")
	f.StringSliceVar(&profileAllergens, "allergen", nil, "Allergen id to exclude (repeatable or comma-separated)")
	f.StringVar(&profileDate, "date", "", "Effective date YYYY-MM-DD (default today)")
	_ = profileSetCmd.MarkFlagRequired("age")
	_ = profileSetCmd.MarkFlagRequired("sex")
	_ = profileSetCmd.MarkFlagRequired("weight")
	_ = profileSetCmd.MarkFlagRequired("height")

	profileShowCmd.Flags().StringVar(&profileShowDate, "date", "", "Date YYYY-MM-DD (default today)")
}
