package mealplan

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saadjs/mealplan-cli/internal/catalog"
	"github.com/saadjs/mealplan-cli/internal/service"
)

var ingredientCmd = &cobra.Command{
	Use:     "ingredient",
	Aliases: []string{"ingredients"},
	Short:   "Manage the ingredient catalog",
}

var (
	ingID         string
	ingName       string
	ingCategory   string
	ingKcal       float64
	ingProtein    float64
	ingCarbs      float64
	ingFat        float64
	ingFiber      float64
	ingVegan      bool
	ingVegetarian bool
	ingAllergens  []string
)

var ingredientAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an ingredient with per-100g nutrition",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := service.AddIngredientInput{
			ID:             ingID,
			Name:           ingName,
			Category:       ingCategory,
			KcalPer100g:    ingKcal,
			ProteinPer100g: ingProtein,
			CarbsPer100g:   ingCarbs,
			FatPer100g:     ingFat,
			FiberPer100g:   ingFiber,
			Vegan:          ingVegan,
			Vegetarian:     ingVegetarian,
			Allergens:      ingAllergens,
		}
		return withDB(func(sqldb *sql.DB) error {
			ing, err := service.AddIngredient(sqldb, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added ingredient %s (%s)\n", ing.ID, ing.Name)
			return nil
		})
	},
}

var (
	ingListCategory string
	ingListSearch   string
	ingListArchived bool
	ingListLimit    int
)

var ingredientListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingredients",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			items, err := service.ListIngredients(sqldb, service.ListIngredientsFilter{
				Category:        ingListCategory,
				Search:          ingListSearch,
				IncludeArchived: ingListArchived,
				Limit:           ingListLimit,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tNAME\tCATEGORY\tKCAL\tP\tC\tF\tVEGAN\tVEG\tALLERGENS")
			for _, i := range items {
				name := i.Name
				if i.ArchivedAt != nil {
					name += " (archived)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%.0f\t%.1f\t%.1f\t%.1f\t%s\t%s\t%s\n",
					i.ID, name, i.Category, i.KcalPer100g, i.ProteinPer100g, i.CarbsPer100g, i.FatPer100g,
					yesNo(i.IsVegan), yesNo(i.IsVegetarian), strings.Join(i.AllergenIDs, ","))
			}
			return nil
		})
	},
}

var ingredientShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one ingredient",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			i, err := service.GetIngredient(sqldb, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID: %s\nName: %s\nCategory: %s\n", i.ID, i.Name, i.Category)
			fmt.Fprintf(out, "Per 100g: %.1f kcal, P %.1fg, C %.1fg, F %.1fg, fiber %.1fg\n", i.KcalPer100g, i.ProteinPer100g, i.CarbsPer100g, i.FatPer100g, i.FiberPer100g)
			fmt.Fprintf(out, "Vegan: %s\nVegetarian: %s\n", yesNo(i.IsVegan), yesNo(i.IsVegetarian))
			fmt.Fprintf(out, "Allergens: %s\nSource: %s\n", strings.Join(i.AllergenIDs, ", "), i.Source)
			if i.ArchivedAt != nil {
				fmt.Fprintf(out, "Archived: %s\n", i.ArchivedAt.Format("2006-01-02"))
			}
			return nil
		})
	},
}

var ingredientArchiveCmd = &cobra.Command{
	Use:   "archive <id>",
	Short: "Archive an ingredient so new plans skip it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			if err := service.ArchiveIngredient(sqldb, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Archived ingredient %s\n", args[0])
			return nil
		})
	},
}

var ingImportMode string

var ingredientImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import ingredients from a yaml or json catalog file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open catalog file: %w", err)
		}
		defer f.Close()
		items, err := catalog.Decode(f)
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			report, err := service.ImportIngredients(sqldb, items, service.ImportMode(ingImportMode))
			if err != nil {
				return err
			}
			log.Info("ingredients imported", "file", args[0], "inserted", report.Inserted, "updated", report.Updated, "skipped", report.Skipped)
			fmt.Fprintf(cmd.OutOrStdout(), "Imported: %d added, %d updated, %d skipped\n", report.Inserted, report.Updated, report.Skipped)
			return nil
		})
	},
}

var ingExportOut string

var ingredientExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export active ingredients as a yaml catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			items, err := service.ActiveCatalog(sqldb)
			if err != nil {
				return err
			}
			if ingExportOut == "" {
				return catalog.Encode(cmd.OutOrStdout(), items)
			}
			f, err := os.Create(ingExportOut)
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}
			defer f.Close()
			if err := catalog.Encode(f, items); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d ingredients to %s\n", len(items), ingExportOut)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(ingredientCmd)
	ingredientCmd.AddCommand(ingredientAddCmd, ingredientListCmd, ingredientShowCmd, ingredientArchiveCmd, ingredientImportCmd, ingredientExportCmd)

	f := ingredientAddCmd.Flags()
	f.StringVar(&ingID, "id", "", "Ingredient id (default: derived from name)")
	f.StringVar(&ingName, "name", "", "Display name")
	f.StringVar(&ingCategory, "category", "", "Category: protein, carbohydrate, vegetable, fruit, dairy, grain, legume, fat, nut_seed, condiment, other")
	f.Float64Var(&ingKcal, "kcal", 0, "kcal per 100g")
	f.Float64Var(&ingProtein, "protein", 0, "Protein grams per 100g")
	f.Float64Var(&ingCarbs, "carbs", 0, "Carb grams per 100g")
	f.Float64Var(&ingFat, "fat", 0, "Fat grams per 100g")
	f.Float64Var(&ingFiber, "fiber", 0, "Fiber grams per 100g")
	f.BoolVar(&ingVegan, "vegan", false, "Suitable for vegans (implies --vegetarian)")
	f.BoolVar(&ingVegetarian, "vegetarian", false, "Suitable for vegetarians")
	f.StringSliceVar(&ingAllergens, "allergen", nil, "Allergen id (repeatable or comma-separated)")
	_ = ingredientAddCmd.MarkFlagRequired("name")
	_ = ingredientAddCmd.MarkFlagRequired("category")

	ingredientListCmd.Flags().StringVar(&ingListCategory, "category", "", "Filter by category")
	ingredientListCmd.Flags().StringVar(&ingListSearch, "search", "", "Filter by name substring")
	ingredientListCmd.Flags().BoolVar(&ingListArchived, "archived", false, "Include archived ingredients")
	ingredientListCmd.Flags().IntVar(&ingListLimit, "limit", 100, "Max rows")

	ingredientImportCmd.Flags().StringVar(&ingImportMode, "mode", "fail", "On existing ids: fail, skip or merge")
	ingredientExportCmd.Flags().StringVar(&ingExportOut, "out", "", "Output file (default stdout)")
}
