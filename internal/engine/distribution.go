package engine

import "github.com/saadjs/mealplan-cli/internal/model"

const fallbackMealsPerDay = 3

var (
	breakfastCategories = []model.IngredientCategory{model.CategoryDairy, model.CategoryFruit, model.CategoryGrain}
	lunchCategories     = []model.IngredientCategory{model.CategoryProtein, model.CategoryCarbohydrate, model.CategoryVegetable}
	dinnerCategories    = []model.IngredientCategory{model.CategoryProtein, model.CategoryVegetable, model.CategoryFat}
)

// Fractions in each table sum to 1.0.
var mealDistributions = map[int]model.MealDistribution{
	3: {
		{MealType: model.MealBreakfast, KcalFraction: 0.25, Categories: breakfastCategories},
		{MealType: model.MealLunch, KcalFraction: 0.40, Categories: lunchCategories},
		{MealType: model.MealDinner, KcalFraction: 0.35, Categories: dinnerCategories},
	},
	4: {
		{MealType: model.MealBreakfast, KcalFraction: 0.25, Categories: breakfastCategories},
		{MealType: model.MealLunch, KcalFraction: 0.35, Categories: lunchCategories},
		{MealType: model.MealSnack, KcalFraction: 0.10, Categories: []model.IngredientCategory{model.CategoryFruit, model.CategoryNutSeed}},
		{MealType: model.MealDinner, KcalFraction: 0.30, Categories: dinnerCategories},
	},
	5: {
		{MealType: model.MealBreakfast, KcalFraction: 0.20, Categories: breakfastCategories},
		{MealType: model.MealSnack, KcalFraction: 0.10, Categories: []model.IngredientCategory{model.CategoryFruit}},
		{MealType: model.MealLunch, KcalFraction: 0.30, Categories: lunchCategories},
		{MealType: model.MealSnack, KcalFraction: 0.10, Categories: []model.IngredientCategory{model.CategoryNutSeed}},
		{MealType: model.MealDinner, KcalFraction: 0.30, Categories: dinnerCategories},
	},
}

type MealDistributionTable struct{}

// For returns a copy of the slot table for mealsPerDay. Counts without a
// table use the 3-meal layout.
func (MealDistributionTable) For(mealsPerDay int) model.MealDistribution {
	dist, ok := mealDistributions[mealsPerDay]
	if !ok {
		dist = mealDistributions[fallbackMealsPerDay]
	}
	out := make(model.MealDistribution, len(dist))
	for i, slot := range dist {
		out[i] = model.MealSlot{
			MealType:     slot.MealType,
			KcalFraction: slot.KcalFraction,
			Categories:   append([]model.IngredientCategory(nil), slot.Categories...),
		}
	}
	return out
}
