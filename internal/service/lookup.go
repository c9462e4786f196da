package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/saadjs/mealplan-cli/internal/app"
	"github.com/saadjs/mealplan-cli/internal/catalog"
	"github.com/saadjs/mealplan-cli/internal/model"
	"github.com/saadjs/mealplan-cli/internal/provider/openfoodfacts"
)

type OFFLookupInput struct {
	Barcode  string
	BaseURL  string
	Category string
	Save     bool
}

type OFFLookupResult struct {
	Product    openfoodfacts.Product
	Ingredient model.Ingredient
	Saved      bool
	// DroppedAllergens are OFF tags with no matching allergen row.
	DroppedAllergens []string
}

var offAllergenAliases = map[string]string{
	"eggs":                          "egg",
	"soybeans":                      "soy",
	"sesame-seeds":                  "sesame",
	"sulphur-dioxide-and-sulphites": "sulphites",
	"tree-nuts":                     "nuts",
}

var offCategoryHints = []struct {
	tag      string
	category model.IngredientCategory
}{
	{"nuts", model.CategoryNutSeed},
	{"seeds", model.CategoryNutSeed},
	{"dairies", model.CategoryDairy},
	{"yogurts", model.CategoryDairy},
	{"cheeses", model.CategoryDairy},
	{"fruits", model.CategoryFruit},
	{"vegetables", model.CategoryVegetable},
	{"legumes", model.CategoryLegume},
	{"cereals-and-their-products", model.CategoryGrain},
	{"breads", model.CategoryGrain},
	{"pastas", model.CategoryCarbohydrate},
	{"rices", model.CategoryCarbohydrate},
	{"meats", model.CategoryProtein},
	{"fishes", model.CategoryProtein},
	{"seafood", model.CategoryProtein},
	{"eggs", model.CategoryProtein},
	{"fats", model.CategoryFat},
	{"vegetable-oils", model.CategoryFat},
	{"sauces", model.CategoryCondiment},
	{"condiments", model.CategoryCondiment},
}

// ResolveOFFBaseURL picks the explicit URL, then the off_base_url config
// key, then MEALPLAN_OFF_BASE_URL. Empty means the public endpoint.
func ResolveOFFBaseURL(db *sql.DB, explicit string) (string, error) {
	if v := strings.TrimSpace(explicit); v != "" {
		return v, nil
	}
	v, ok, err := GetConfig(db, ConfigOFFBaseURL)
	if err != nil {
		return "", err
	}
	if ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v), nil
	}
	return app.String(app.EnvOFFBaseURL, ""), nil
}

func LookupOFF(ctx context.Context, db *sql.DB, client *openfoodfacts.Client, in OFFLookupInput) (OFFLookupResult, error) {
	if client == nil {
		base, err := ResolveOFFBaseURL(db, in.BaseURL)
		if err != nil {
			return OFFLookupResult{}, err
		}
		client = &openfoodfacts.Client{BaseURL: base}
	}
	product, err := client.LookupBarcode(ctx, in.Barcode)
	if err != nil {
		return OFFLookupResult{}, err
	}

	category := model.IngredientCategory(normalizeName(in.Category))
	if category == "" {
		category = guessCategory(product.CategoriesTags)
	}
	allergens, dropped, err := mapOFFAllergens(db, product.Allergens)
	if err != nil {
		return OFFLookupResult{}, err
	}
	input := AddIngredientInput{
		ID:             "off-" + catalog.Slug(product.Barcode),
		Name:           offDisplayName(product),
		Category:       string(category),
		KcalPer100g:    round1(product.KcalPer100g),
		ProteinPer100g: round1(product.ProteinPer100g),
		CarbsPer100g:   round1(product.CarbsPer100g),
		FatPer100g:     round1(product.FatPer100g),
		FiberPer100g:   round1(product.FiberPer100g),
		Vegan:          product.Vegan,
		Vegetarian:     product.Vegetarian,
		Allergens:      allergens,
		Source:         "openfoodfacts",
	}
	result := OFFLookupResult{
		Product:          product,
		Ingredient:       ingredientFromInput(input),
		DroppedAllergens: dropped,
	}
	if !in.Save {
		return result, nil
	}
	saved, err := AddIngredient(db, input)
	if err != nil {
		return result, err
	}
	result.Ingredient = saved
	result.Saved = true
	return result, nil
}

func offDisplayName(p openfoodfacts.Product) string {
	if p.Brand == "" {
		return p.Name
	}
	brand := strings.TrimSpace(strings.Split(p.Brand, ",")[0])
	return fmt.Sprintf("%s (%s)", p.Name, brand)
}

func guessCategory(tags []string) model.IngredientCategory {
	for _, hint := range offCategoryHints {
		for _, t := range tags {
			if t == hint.tag {
				return hint.category
			}
		}
	}
	return model.CategoryOther
}

func mapOFFAllergens(db *sql.DB, tags []string) ([]string, []string, error) {
	kept := make([]string, 0, len(tags))
	dropped := make([]string, 0)
	for _, t := range tags {
		id := t
		if alias, ok := offAllergenAliases[t]; ok {
			id = alias
		}
		ok, err := allergenExists(db, id)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			kept = append(kept, id)
		} else {
			dropped = append(dropped, t)
		}
	}
	return normalizeIDs(kept), dropped, nil
}
