package engine

import (
	"strings"

	"github.com/saadjs/mealplan-cli/internal/model"
)

// pescatarianKeywords admits seafood proteins that are not flagged
// vegetarian. Matching is by name only and misses anything named otherwise
// (cod, prawns, mussels).
var pescatarianKeywords = []string{"fish", "salmon", "tuna", "shrimp"}

type AllergenFilter struct{}

// Apply drops every ingredient carrying any of allergenIDs. With no
// allergens the input slice is returned as is.
func (AllergenFilter) Apply(ingredients []model.Ingredient, allergenIDs []string) []model.Ingredient {
	if len(allergenIDs) == 0 {
		return ingredients
	}
	blocked := make(map[string]struct{}, len(allergenIDs))
	for _, id := range allergenIDs {
		blocked[id] = struct{}{}
	}
	out := make([]model.Ingredient, 0, len(ingredients))
	for _, ing := range ingredients {
		if !containsAny(ing.AllergenIDs, blocked) {
			out = append(out, ing)
		}
	}
	return out
}

func containsAny(ids []string, set map[string]struct{}) bool {
	for _, id := range ids {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}

type DietPatternFilter struct{}

func (DietPatternFilter) Apply(ingredients []model.Ingredient, pattern model.DietPattern) []model.Ingredient {
	var keep func(model.Ingredient) bool
	switch pattern {
	case model.DietVegan:
		keep = func(i model.Ingredient) bool { return i.IsVegan }
	case model.DietVegetarian:
		keep = func(i model.Ingredient) bool { return i.IsVegetarian }
	case model.DietPescatarian:
		keep = func(i model.Ingredient) bool { return i.IsVegetarian || isSeafoodProtein(i) }
	default:
		return ingredients
	}
	out := make([]model.Ingredient, 0, len(ingredients))
	for _, ing := range ingredients {
		if keep(ing) {
			out = append(out, ing)
		}
	}
	return out
}

func isSeafoodProtein(i model.Ingredient) bool {
	if i.Category != model.CategoryProtein {
		return false
	}
	name := strings.ToLower(i.Name)
	for _, kw := range pescatarianKeywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}
