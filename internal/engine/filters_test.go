package engine_test

import (
	"testing"

	"github.com/saadjs/mealplan-cli/internal/engine"
	"github.com/saadjs/mealplan-cli/internal/model"
)

func TestAllergenFilterExcludesIntersectingIngredients(t *testing.T) {
	t.Parallel()

	catalog := testCatalog()
	blocked := []string{"gluten", "nuts"}
	out := ids(engine.AllergenFilter{}.Apply(catalog, blocked))

	for _, i := range catalog {
		hit := false
		for _, a := range i.AllergenIDs {
			if a == "gluten" || a == "nuts" {
				hit = true
			}
		}
		if out[i.ID] == hit {
			t.Fatalf("ingredient %s: present=%v but allergen hit=%v", i.ID, out[i.ID], hit)
		}
	}
}

func TestAllergenFilterEmptySetIsIdentity(t *testing.T) {
	t.Parallel()

	catalog := testCatalog()
	out := engine.AllergenFilter{}.Apply(catalog, nil)
	if len(out) != len(catalog) {
		t.Fatalf("expected %d ingredients, got %d", len(catalog), len(out))
	}
}

func TestDietPatternFilter(t *testing.T) {
	t.Parallel()

	catalog := append(testCatalog(),
		ing("tuna", "Canned TUNA", model.CategoryProtein, 116, 26, 0, 1, false, false, "fish"),
		ing("fishsauce", "Fish sauce", model.CategoryCondiment, 35, 5, 3.6, 0, false, false, "fish"),
	)
	f := engine.DietPatternFilter{}

	for _, i := range f.Apply(catalog, model.DietVegan) {
		if !i.IsVegan {
			t.Fatalf("vegan output contains %s", i.ID)
		}
	}
	for _, i := range f.Apply(catalog, model.DietVegetarian) {
		if !i.IsVegetarian {
			t.Fatalf("vegetarian output contains %s", i.ID)
		}
	}

	pesc := ids(f.Apply(catalog, model.DietPescatarian))
	if !pesc["salmon"] || !pesc["tuna"] || !pesc["eggs"] {
		t.Fatalf("pescatarian should keep salmon, tuna and eggs: %v", pesc)
	}
	if pesc["chicken"] {
		t.Fatalf("pescatarian should drop chicken")
	}
	if pesc["fishsauce"] {
		t.Fatalf("pescatarian keyword match applies to protein category only")
	}

	if got := f.Apply(catalog, model.DietOmnivore); len(got) != len(catalog) {
		t.Fatalf("omnivore should keep all %d, got %d", len(catalog), len(got))
	}
	if got := f.Apply(catalog, "carnivore"); len(got) != len(catalog) {
		t.Fatalf("unknown pattern should keep all %d, got %d", len(catalog), len(got))
	}
}

func TestFiltersShareInputOnlyWhenNothingIsDropped(t *testing.T) {
	t.Parallel()

	catalog := testCatalog()
	before := make([]model.Ingredient, len(catalog))
	copy(before, catalog)

	if out := (engine.AllergenFilter{}).Apply(catalog, nil); &out[0] != &catalog[0] {
		t.Fatalf("empty allergen set should return the input slice")
	}
	if out := (engine.DietPatternFilter{}).Apply(catalog, model.DietOmnivore); &out[0] != &catalog[0] {
		t.Fatalf("omnivore should return the input slice")
	}

	vegan := engine.DietPatternFilter{}.Apply(catalog, model.DietVegan)
	if len(vegan) == len(catalog) {
		t.Fatalf("test catalog should contain non-vegan ingredients")
	}
	_ = engine.AllergenFilter{}.Apply(catalog, []string{"fish"})
	for i := range catalog {
		if catalog[i].ID != before[i].ID {
			t.Fatalf("filter reordered input at %d: %s != %s", i, catalog[i].ID, before[i].ID)
		}
	}
}
