package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/saadjs/mealplan-cli/internal/app"
	"github.com/saadjs/mealplan-cli/internal/model"
	"github.com/saadjs/mealplan-cli/internal/provider/usda"
)

const usdaSearchLimit = 10

type USDALookupInput struct {
	Query string
	// FDCID picks a specific search result; zero takes the first.
	FDCID      int64
	APIKey     string
	BaseURL    string
	Category   string
	Vegan      bool
	Vegetarian bool
	Allergens  []string
	Save       bool
}

type USDALookupResult struct {
	Food       usda.Food
	Ingredient model.Ingredient
	Saved      bool
}

// FoodData Central food categories, lowercased.
var usdaCategoryHints = map[string]model.IngredientCategory{
	"beef products":                     model.CategoryProtein,
	"pork products":                     model.CategoryProtein,
	"poultry products":                  model.CategoryProtein,
	"lamb, veal, and game products":     model.CategoryProtein,
	"finfish and shellfish products":    model.CategoryProtein,
	"sausages and luncheon meats":       model.CategoryProtein,
	"dairy and egg products":            model.CategoryDairy,
	"fruits and fruit juices":           model.CategoryFruit,
	"vegetables and vegetable products": model.CategoryVegetable,
	"legumes and legume products":       model.CategoryLegume,
	"cereal grains and pasta":           model.CategoryGrain,
	"breakfast cereals":                 model.CategoryGrain,
	"baked products":                    model.CategoryCarbohydrate,
	"nut and seed products":             model.CategoryNutSeed,
	"fats and oils":                     model.CategoryFat,
	"spices and herbs":                  model.CategoryCondiment,
	"soups, sauces, and gravies":        model.CategoryCondiment,
}

// USDAAPIKey picks the explicit key, then MEALPLAN_USDA_API_KEY.
func USDAAPIKey(explicit string) (string, error) {
	if v := strings.TrimSpace(explicit); v != "" {
		return v, nil
	}
	if v := app.String(app.EnvUSDAAPIKey, ""); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("missing USDA API key; set --api-key or %s (free keys: https://api.data.gov/signup/)", app.EnvUSDAAPIKey)
}

func NewUSDAClient(apiKey, baseURL string) (*usda.Client, error) {
	key, err := USDAAPIKey(apiKey)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = app.String(app.EnvUSDABaseURL, "")
	}
	return &usda.Client{APIKey: key, BaseURL: baseURL}, nil
}

func LookupUSDA(ctx context.Context, db *sql.DB, client *usda.Client, in USDALookupInput) (USDALookupResult, error) {
	if client == nil {
		c, err := NewUSDAClient(in.APIKey, in.BaseURL)
		if err != nil {
			return USDALookupResult{}, err
		}
		client = c
	}
	foods, err := client.SearchFoods(ctx, in.Query, usdaSearchLimit)
	if err != nil {
		return USDALookupResult{}, err
	}
	food, err := pickUSDAFood(foods, in.Query, in.FDCID)
	if err != nil {
		return USDALookupResult{}, err
	}

	category := model.IngredientCategory(normalizeName(in.Category))
	if category == "" {
		category = usdaCategory(food.FoodCategory)
	}
	input := AddIngredientInput{
		ID:             "usda-" + strconv.FormatInt(food.FDCID, 10),
		Name:           food.Description,
		Category:       string(category),
		KcalPer100g:    round1(food.KcalPer100g),
		ProteinPer100g: round1(food.ProteinPer100g),
		CarbsPer100g:   round1(food.CarbsPer100g),
		FatPer100g:     round1(food.FatPer100g),
		FiberPer100g:   round1(food.FiberPer100g),
		Vegan:          in.Vegan,
		Vegetarian:     in.Vegetarian,
		Allergens:      in.Allergens,
		Source:         "usda",
	}
	result := USDALookupResult{Food: food, Ingredient: ingredientFromInput(input)}
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

func pickUSDAFood(foods []usda.Food, query string, fdcID int64) (usda.Food, error) {
	if len(foods) == 0 {
		return usda.Food{}, fmt.Errorf("no USDA food found for %q: %w", query, ErrNotFound)
	}
	if fdcID == 0 {
		return foods[0], nil
	}
	for _, f := range foods {
		if f.FDCID == fdcID {
			return f, nil
		}
	}
	return usda.Food{}, fmt.Errorf("fdc id %d not among results for %q: %w", fdcID, query, ErrNotFound)
}

func usdaCategory(foodCategory string) model.IngredientCategory {
	if c, ok := usdaCategoryHints[strings.ToLower(strings.TrimSpace(foodCategory))]; ok {
		return c
	}
	return model.CategoryOther
}
