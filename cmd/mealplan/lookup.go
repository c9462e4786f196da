package mealplan

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/saadjs/mealplan-cli/internal/model"
	"github.com/saadjs/mealplan-cli/internal/provider/openfoodfacts"
	"github.com/saadjs/mealplan-cli/internal/service"
)

const lookupTimeout = 20 * time.Second

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Look up ingredients in Open Food Facts or USDA FoodData Central",
}

var (
	lookupBaseURL  string
	lookupCategory string
	lookupSave     bool
	lookupJSON     bool
	lookupLimit    int

	usdaAPIKey     string
	usdaFDCID      int64
	usdaList       bool
	usdaVegan      bool
	usdaVegetarian bool
	usdaAllergens  []string
)

var lookupOFFCmd = &cobra.Command{
	Use:   "off <barcode>",
	Short: "Fetch a product by barcode and map it to an ingredient",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), lookupTimeout)
			defer cancel()
			res, err := service.LookupOFF(ctx, sqldb, nil, service.OFFLookupInput{
				Barcode:  args[0],
				BaseURL:  lookupBaseURL,
				Category: lookupCategory,
				Save:     lookupSave,
			})
			if err != nil {
				return err
			}
			if len(res.DroppedAllergens) > 0 {
				log.Warn("unmapped allergen tags dropped", "barcode", args[0], "tags", res.DroppedAllergens)
			}
			out := cmd.OutOrStdout()
			if lookupJSON {
				b, err := json.MarshalIndent(res, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(b))
				return nil
			}
			printLookupIngredient(out, res.Ingredient, res.Saved)
			return nil
		})
	},
}

var lookupSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search Open Food Facts products by name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			base, err := service.ResolveOFFBaseURL(sqldb, lookupBaseURL)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), lookupTimeout)
			defer cancel()
			client := &openfoodfacts.Client{BaseURL: base}
			items, err := client.SearchProducts(ctx, strings.Join(args, " "), lookupLimit)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "BARCODE\tNAME\tBRAND\tKCAL/100G\tP\tC\tF")
			for _, p := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%.0f\t%.1f\t%.1f\t%.1f\n", p.Barcode, p.Name, p.Brand, p.KcalPer100g, p.ProteinPer100g, p.CarbsPer100g, p.FatPer100g)
			}
			return nil
		})
	},
}

var lookupUSDACmd = &cobra.Command{
	Use:   "usda <query>",
	Short: "Search USDA generic foods and map a result to an ingredient",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		client, err := service.NewUSDAClient(usdaAPIKey, lookupBaseURL)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), lookupTimeout)
		defer cancel()
		out := cmd.OutOrStdout()

		if usdaList {
			foods, err := client.SearchFoods(ctx, query, lookupLimit)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "FDC_ID\tDESCRIPTION\tCATEGORY\tKCAL/100G\tP\tC\tF")
			for _, f := range foods {
				fmt.Fprintf(out, "%d\t%s\t%s\t%.0f\t%.1f\t%.1f\t%.1f\n", f.FDCID, f.Description, f.FoodCategory, f.KcalPer100g, f.ProteinPer100g, f.CarbsPer100g, f.FatPer100g)
			}
			return nil
		}

		return withDB(func(sqldb *sql.DB) error {
			res, err := service.LookupUSDA(ctx, sqldb, client, service.USDALookupInput{
				Query:      query,
				FDCID:      usdaFDCID,
				Category:   lookupCategory,
				Vegan:      usdaVegan,
				Vegetarian: usdaVegetarian,
				Allergens:  usdaAllergens,
				Save:       lookupSave,
			})
			if err != nil {
				return err
			}
			if lookupJSON {
				b, err := json.MarshalIndent(res, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(b))
				return nil
			}
			printLookupIngredient(out, res.Ingredient, res.Saved)
			return nil
		})
	},
}

func printLookupIngredient(out io.Writer, i model.Ingredient, saved bool) {
	fmt.Fprintf(out, "ID: %s\nName: %s\nCategory: %s\n", i.ID, i.Name, i.Category)
	fmt.Fprintf(out, "Per 100g: %.1f kcal, P %.1fg, C %.1fg, F %.1fg, fiber %.1fg\n", i.KcalPer100g, i.ProteinPer100g, i.CarbsPer100g, i.FatPer100g, i.FiberPer100g)
	fmt.Fprintf(out, "Vegan: %s\nVegetarian: %s\nAllergens: %s\n", yesNo(i.IsVegan), yesNo(i.IsVegetarian), strings.Join(i.AllergenIDs, ", "))
	if saved {
		fmt.Fprintf(out, "Saved ingredient %s\n", i.ID)
	}
}

func init() {
	rootCmd.AddCommand(lookupCmd)
	lookupCmd.AddCommand(lookupOFFCmd, lookupSearchCmd, lookupUSDACmd)
	lookupCmd.PersistentFlags().StringVar(&lookupBaseURL, "base-url", "", "Provider base URL (default: config off_base_url or $MEALPLAN_OFF_BASE_URL for Open Food Facts, $MEALPLAN_USDA_BASE_URL for USDA, then the public API)")

	for _, c := range []*cobra.Command{lookupOFFCmd, lookupUSDACmd} {
		c.Flags().StringVar(&lookupCategory, "category", "", "Ingredient category (default: guessed from the provider's food category)")
		c.Flags().BoolVar(&lookupSave, "save", false, "Save the result to the ingredient catalog")
		c.Flags().BoolVar(&lookupJSON, "json", false, "Output JSON")
	}
	for _, c := range []*cobra.Command{lookupSearchCmd, lookupUSDACmd} {
		c.Flags().IntVar(&lookupLimit, "limit", 10, "Max results")
	}

	f := lookupUSDACmd.Flags()
	f.StringVar(&usdaAPIKey, "api-key", "", "USDA API key (fallback: $MEALPLAN_USDA_API_KEY)")
	f.Int64Var(&usdaFDCID, "fdc-id", 0, "Pick this FDC id from the results (default: first result)")
	f.BoolVar(&usdaList, "list", false, "List matching foods instead of mapping one")
	f.BoolVar(&usdaVegan, "vegan", false, "Mark the ingredient vegan (implies --vegetarian)")
	f.BoolVar(&usdaVegetarian, "vegetarian", false, "Mark the ingredient vegetarian")
	f.StringSliceVar(&usdaAllergens, "allergen", nil, "Allergen id (repeatable or comma-separated)")
}
