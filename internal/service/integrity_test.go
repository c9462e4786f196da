package service_test

import (
	"testing"

	"github.com/saadjs/mealplan-cli/internal/service"
)

func TestDoctorDetectsAndFixesMealTotals(t *testing.T) {
	t.Parallel()
	db := newSeededTestDB(t)
	defer db.Close()

	sp, err := service.GeneratePlan(db, nil, service.GeneratePlanInput{Seed: int64Ptr(21)})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	clean, err := service.RunDoctor(db, false)
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	if clean.HasIssues() {
		t.Fatalf("fresh plan should be clean: %+v", clean)
	}

	if _, err := db.Exec(`UPDATE plan_meals SET total_kcal = total_kcal + 10 WHERE plan_id = ? AND day_of_week = 0 AND position = 0`, sp.ID); err != nil {
		t.Fatalf("corrupt totals: %v", err)
	}
	var firstItem, secondMeal int64
	if err := db.QueryRow(`
SELECT pi.id FROM plan_items pi JOIN plan_meals pm ON pm.id = pi.meal_id
WHERE pm.plan_id = ? AND pm.day_of_week = 1 AND pm.position = 0 ORDER BY pi.position LIMIT 1`, sp.ID).Scan(&firstItem); err != nil {
		t.Fatalf("find item: %v", err)
	}
	if err := db.QueryRow(`SELECT id FROM plan_meals WHERE plan_id = ? AND day_of_week = 1 AND position = 1`, sp.ID).Scan(&secondMeal); err != nil {
		t.Fatalf("find meal: %v", err)
	}
	if _, err := db.Exec(`
INSERT INTO plan_items(meal_id, position, ingredient_id, ingredient_name, grams, kcal, protein_g, carbs_g, fat_g)
SELECT ?, 99, ingredient_id, ingredient_name, grams, 0, 0, 0, 0 FROM plan_items WHERE id = ?`, secondMeal, firstItem); err != nil {
		t.Fatalf("duplicate item: %v", err)
	}
	if _, err := db.Exec(`
INSERT INTO plan_items(meal_id, position, ingredient_id, ingredient_name, grams, kcal, protein_g, carbs_g, fat_g)
VALUES(?, 100, 'unicorn-steak', 'Unicorn steak', 10, 0, 0, 0, 0)`, secondMeal); err != nil {
		t.Fatalf("orphan item: %v", err)
	}

	report, err := service.RunDoctor(db, true)
	if err != nil {
		t.Fatalf("doctor fix: %v", err)
	}
	if report.MealTotalMismatches != 1 || report.FixedMealTotals != 1 {
		t.Fatalf("unexpected totals report: %+v", report)
	}
	if report.DuplicateDayIngredient != 1 || report.OrphanPlanItems != 1 {
		t.Fatalf("unexpected duplicate/orphan report: %+v", report)
	}

	after, err := service.RunDoctor(db, false)
	if err != nil {
		t.Fatalf("doctor recheck: %v", err)
	}
	if after.MealTotalMismatches != 0 {
		t.Fatalf("expected totals fixed: %+v", after)
	}
}
