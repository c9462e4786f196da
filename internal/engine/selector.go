package engine

import "github.com/saadjs/mealplan-cli/internal/model"

const (
	defaultPortionCapG   = 150
	proteinOvershootBand = 1.5
	minPortionG          = 1
)

var portionCapsG = map[model.IngredientCategory]float64{
	model.CategoryProtein:      200,
	model.CategoryCarbohydrate: 200,
	model.CategoryGrain:        200,
	model.CategoryFruit:        200,
	model.CategoryVegetable:    300,
	model.CategoryDairy:        250,
	model.CategoryLegume:       150,
	model.CategoryFat:          50,
	model.CategoryNutSeed:      50,
}

func portionCap(c model.IngredientCategory) float64 {
	if v, ok := portionCapsG[c]; ok {
		return v
	}
	return defaultPortionCapG
}

// IngredientSelector fills a meal with one ingredient per category.
// It is not safe for concurrent use because it draws from a single Rand.
type IngredientSelector struct {
	rng Rand
}

func NewIngredientSelector(rng Rand) *IngredientSelector {
	return &IngredientSelector{rng: rng}
}

// Select picks one unused ingredient per category, in order, sized against
// target. Categories without a candidate are skipped. Every pick is added
// to used.
func (s *IngredientSelector) Select(pool []model.Ingredient, categories []model.IngredientCategory, target model.DailyTargets, used map[string]struct{}) []model.GeneratedMealItem {
	remainingKcal := float64(target.Kcal)
	remainingProtein := float64(target.ProteinG)
	items := make([]model.GeneratedMealItem, 0, len(categories))

	for i, category := range categories {
		candidates := availableInCategory(pool, category, used)
		if len(candidates) == 0 {
			continue
		}
		pick := candidates[s.rng.IntN(len(candidates))]
		used[pick.ID] = struct{}{}

		budget := remainingKcal / float64(len(categories)-i)
		item := portionItem(pick, portionGrams(pick, category, budget, remainingProtein))
		items = append(items, item)

		remainingKcal -= float64(item.Kcal)
		remainingProtein -= item.ProteinG
	}
	return items
}

func availableInCategory(pool []model.Ingredient, category model.IngredientCategory, used map[string]struct{}) []model.Ingredient {
	out := make([]model.Ingredient, 0)
	for _, ing := range pool {
		if ing.Category != category {
			continue
		}
		if _, taken := used[ing.ID]; taken {
			continue
		}
		out = append(out, ing)
	}
	return out
}

func portionGrams(ing model.Ingredient, category model.IngredientCategory, kcalBudget, proteinBudget float64) int {
	limit := portionCap(category)
	if category == model.CategoryProtein && ing.ProteinPer100g > 0 {
		limit = proteinOvershootBand * proteinBudget / ing.ProteinPer100g * 100
	}
	grams := limit
	if ing.KcalPer100g > 0 {
		grams = kcalBudget / ing.KcalPer100g * 100
		if limit < grams {
			grams = limit
		}
	}
	g := roundInt(grams)
	if g < minPortionG {
		g = minPortionG
	}
	return g
}

func portionItem(ing model.Ingredient, grams int) model.GeneratedMealItem {
	factor := float64(grams) / 100
	return model.GeneratedMealItem{
		IngredientID:   ing.ID,
		IngredientName: ing.Name,
		Grams:          grams,
		Kcal:           roundInt(ing.KcalPer100g * factor),
		ProteinG:       round1(ing.ProteinPer100g * factor),
		CarbsG:         round1(ing.CarbsPer100g * factor),
		FatG:           round1(ing.FatPer100g * factor),
	}
}
