package engine_test

import "github.com/saadjs/mealplan-cli/internal/model"

// firstRand always picks the first candidate.
type firstRand struct{}

func (firstRand) IntN(int) int { return 0 }

func floatPtr(v float64) *float64 { return &v }

func ing(id, name string, cat model.IngredientCategory, kcal, protein, carbs, fat float64, vegan, vegetarian bool, allergens ...string) model.Ingredient {
	return model.Ingredient{
		ID:             id,
		Name:           name,
		Category:       cat,
		KcalPer100g:    kcal,
		ProteinPer100g: protein,
		CarbsPer100g:   carbs,
		FatPer100g:     fat,
		IsVegan:        vegan,
		IsVegetarian:   vegetarian,
		AllergenIDs:    allergens,
	}
}

func testCatalog() []model.Ingredient {
	return []model.Ingredient{
		ing("chicken", "Chicken breast", model.CategoryProtein, 165, 31, 0, 3.6, false, false),
		ing("salmon", "Salmon fillet", model.CategoryProtein, 208, 20, 0, 13, false, false, "fish"),
		ing("tofu", "Firm tofu", model.CategoryProtein, 144, 17, 3, 9, true, true, "soy"),
		ing("eggs", "Eggs", model.CategoryProtein, 155, 13, 1.1, 11, false, true, "egg"),
		ing("rice", "Brown rice", model.CategoryCarbohydrate, 112, 2.3, 24, 0.8, true, true),
		ing("potato", "Potato", model.CategoryCarbohydrate, 77, 2, 17, 0.1, true, true),
		ing("pasta", "Wholewheat pasta", model.CategoryCarbohydrate, 124, 5, 25, 1, true, true, "gluten"),
		ing("broccoli", "Broccoli", model.CategoryVegetable, 34, 2.8, 7, 0.4, true, true),
		ing("spinach", "Spinach", model.CategoryVegetable, 23, 2.9, 3.6, 0.4, true, true),
		ing("peppers", "Bell pepper", model.CategoryVegetable, 31, 1, 6, 0.3, true, true),
		ing("zucchini", "Zucchini", model.CategoryVegetable, 17, 1.2, 3.1, 0.3, true, true),
		ing("banana", "Banana", model.CategoryFruit, 89, 1.1, 23, 0.3, true, true),
		ing("apple", "Apple", model.CategoryFruit, 52, 0.3, 14, 0.2, true, true),
		ing("berries", "Blueberries", model.CategoryFruit, 57, 0.7, 14, 0.3, true, true),
		ing("yogurt", "Greek yogurt", model.CategoryDairy, 97, 9, 3.9, 5, false, true, "milk"),
		ing("soyyog", "Soy yogurt", model.CategoryDairy, 66, 4, 5, 3, true, true, "soy"),
		ing("oats", "Rolled oats", model.CategoryGrain, 389, 16.9, 66, 6.9, true, true, "gluten"),
		ing("quinoa", "Quinoa", model.CategoryGrain, 120, 4.4, 21, 1.9, true, true),
		ing("olive", "Olive oil", model.CategoryFat, 884, 0, 0, 100, true, true),
		ing("avocado", "Avocado", model.CategoryFat, 160, 2, 9, 15, true, true),
		ing("almonds", "Almonds", model.CategoryNutSeed, 579, 21, 22, 50, true, true, "nuts"),
		ing("chia", "Chia seeds", model.CategoryNutSeed, 486, 17, 42, 31, true, true),
	}
}

func ids(items []model.Ingredient) map[string]bool {
	out := map[string]bool{}
	for _, i := range items {
		out[i.ID] = true
	}
	return out
}
