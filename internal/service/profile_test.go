package service_test

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/saadjs/mealplan-cli/internal/model"
	"github.com/saadjs/mealplan-cli/internal/service"
)

func TestProfileVersioningByEffectiveDate(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	setTestProfile(t, db, service.SetProfileInput{Weight: 90, EffectiveDate: "2026-01-01"})
	setTestProfile(t, db, service.SetProfileInput{Weight: 85, DietPattern: "vegan", Allergens: []string{"Soy", "soy"}, EffectiveDate: "2026-02-01"})

	jan, err := service.CurrentProfile(db, "2026-01-15")
	if err != nil {
		t.Fatalf("current profile jan: %v", err)
	}
	if jan == nil || jan.WeightKg != 90 || jan.DietPattern != model.DietOmnivore {
		t.Fatalf("unexpected january profile: %+v", jan)
	}
	feb, err := service.CurrentProfile(db, "2026-02-10")
	if err != nil {
		t.Fatalf("current profile feb: %v", err)
	}
	if feb.WeightKg != 85 || feb.DietPattern != model.DietVegan {
		t.Fatalf("unexpected february profile: %+v", feb)
	}
	if !reflect.DeepEqual(feb.AllergenIDs, []string{"soy"}) {
		t.Fatalf("expected deduplicated soy allergen, got %v", feb.AllergenIDs)
	}

	before, err := service.CurrentProfile(db, "2025-12-31")
	if err != nil {
		t.Fatalf("current profile before: %v", err)
	}
	if before != nil {
		t.Fatalf("expected no profile before first effective date, got %+v", before)
	}

	history, err := service.ProfileHistory(db)
	if err != nil {
		t.Fatalf("profile history: %v", err)
	}
	if len(history) != 2 || history[0].EffectiveDate != "2026-02-01" {
		t.Fatalf("unexpected history: %+v", history)
	}
}

func TestSetProfileUpsertsSameDateAndReplacesAllergens(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	first := setTestProfile(t, db, service.SetProfileInput{Allergens: []string{"milk", "egg"}, EffectiveDate: "2026-03-02"})
	second := setTestProfile(t, db, service.SetProfileInput{Age: 41, Allergens: []string{"fish"}, EffectiveDate: "2026-03-02"})
	if first != second {
		t.Fatalf("expected upsert to keep id %d, got %d", first, second)
	}
	p, err := service.ProfileByID(db, first)
	if err != nil {
		t.Fatalf("profile by id: %v", err)
	}
	if p.Age != 41 || !reflect.DeepEqual(p.AllergenIDs, []string{"fish"}) {
		t.Fatalf("unexpected profile after upsert: %+v", p)
	}
}

func TestSetProfileConvertsImperialUnits(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	setTestProfile(t, db, service.SetProfileInput{
		Weight:        176,
		WeightUnit:    "lb",
		WeightGoal:    floatPtr(165),
		Height:        70,
		HeightUnit:    "in",
		EffectiveDate: "2026-01-01",
	})
	p, err := service.CurrentProfile(db, "2026-01-01")
	if err != nil {
		t.Fatalf("current profile: %v", err)
	}
	if math.Abs(p.WeightKg-79.832) > 0.001 || math.Abs(p.HeightCm-177.8) > 0.001 {
		t.Fatalf("unexpected converted profile: %+v", p)
	}
	if p.WeightGoalKg == nil || math.Abs(*p.WeightGoalKg-74.843) > 0.001 {
		t.Fatalf("unexpected goal: %v", p.WeightGoalKg)
	}
}

func TestSetProfileDefaultsMealsFromConfig(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	if err := service.SetConfig(db, service.ConfigDefaultMealsPerDay, "5"); err != nil {
		t.Fatalf("set config: %v", err)
	}
	if _, err := service.SetProfile(db, service.SetProfileInput{
		Age: 25, Sex: "female", Weight: 60, Height: 165, ActivityLevel: "light", EffectiveDate: "2026-01-01",
	}); err != nil {
		t.Fatalf("set profile: %v", err)
	}
	p, err := service.CurrentProfile(db, "2026-01-01")
	if err != nil {
		t.Fatalf("current profile: %v", err)
	}
	if p.MealsPerDay != 5 {
		t.Fatalf("expected 5 meals from config, got %d", p.MealsPerDay)
	}
}

func TestSetProfileValidation(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	base := service.SetProfileInput{Age: 30, Sex: "male", Weight: 80, Height: 180, ActivityLevel: "moderate", MealsPerDay: 3}
	cases := map[string]func(*service.SetProfileInput){
		"age too low":       func(in *service.SetProfileInput) { in.Age = 17 },
		"age too high":      func(in *service.SetProfileInput) { in.Age = 101 },
		"unknown sex":       func(in *service.SetProfileInput) { in.Sex = "other" },
		"unknown activity":  func(in *service.SetProfileInput) { in.ActivityLevel = "couch" },
		"too many meals":    func(in *service.SetProfileInput) { in.MealsPerDay = 7 },
		"unknown diet":      func(in *service.SetProfileInput) { in.DietPattern = "keto" },
		"unknown allergen":  func(in *service.SetProfileInput) { in.Allergens = []string{"kryptonite"} },
		"bad weight unit":   func(in *service.SetProfileInput) { in.WeightUnit = "stone" },
		"bad date":          func(in *service.SetProfileInput) { in.EffectiveDate = "2026-13-01" },
		"non-positive goal": func(in *service.SetProfileInput) { in.WeightGoal = floatPtr(-1) },
	}
	for name, mutate := range cases {
		in := base
		mutate(&in)
		if _, err := service.SetProfile(db, in); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
	history, err := service.ProfileHistory(db)
	if err != nil {
		t.Fatalf("profile history: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected no profiles stored, got %d", len(history))
	}
}

func TestProfileByIDNotFound(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	if _, err := service.ProfileByID(db, 99); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
