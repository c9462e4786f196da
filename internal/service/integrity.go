package service

import (
	"database/sql"
	"fmt"
	"math"
)

const totalsTolerance = 0.05

type DoctorReport struct {
	OrphanPlanItems        int `json:"orphan_plan_items"`
	DuplicateDayIngredient int `json:"duplicate_day_ingredients"`
	MealTotalMismatches    int `json:"meal_total_mismatches"`
	EmptyMeals             int `json:"empty_meals"`
	FixedMealTotals        int `json:"fixed_meal_totals,omitempty"`
}

// HasIssues reports problems worth a non-zero exit. Empty meals are allowed
// when the catalog could not fill a slot.
func (r DoctorReport) HasIssues() bool {
	return r.OrphanPlanItems > 0 || r.DuplicateDayIngredient > 0 || r.MealTotalMismatches > 0
}

type mealSums struct {
	id                        int64
	storedKcal                int
	storedP, storedC, storedF float64
	kcal                      int
	protein, carbs, fat       float64
}

func (m mealSums) mismatched() bool {
	return m.storedKcal != m.kcal ||
		math.Abs(m.storedP-m.protein) > totalsTolerance ||
		math.Abs(m.storedC-m.carbs) > totalsTolerance ||
		math.Abs(m.storedF-m.fat) > totalsTolerance
}

func RunDoctor(db *sql.DB, fix bool) (DoctorReport, error) {
	report := DoctorReport{}
	if err := db.QueryRow(`
SELECT COUNT(1)
FROM plan_items pi
LEFT JOIN ingredients i ON i.id = pi.ingredient_id
WHERE i.id IS NULL
`).Scan(&report.OrphanPlanItems); err != nil {
		return report, fmt.Errorf("doctor orphan check: %w", err)
	}

	if err := db.QueryRow(`
SELECT COALESCE(SUM(cnt-1),0) FROM (
  SELECT COUNT(*) AS cnt
  FROM plan_items pi JOIN plan_meals pm ON pm.id = pi.meal_id
  GROUP BY pm.plan_id, pm.day_of_week, pi.ingredient_id
  HAVING cnt > 1
)
`).Scan(&report.DuplicateDayIngredient); err != nil {
		return report, fmt.Errorf("doctor duplicate query: %w", err)
	}

	rows, err := db.Query(`
SELECT pm.id, pm.total_kcal, pm.total_protein_g, pm.total_carbs_g, pm.total_fat_g,
       COUNT(pi.id), COALESCE(SUM(pi.kcal),0), COALESCE(SUM(pi.protein_g),0), COALESCE(SUM(pi.carbs_g),0), COALESCE(SUM(pi.fat_g),0)
FROM plan_meals pm
LEFT JOIN plan_items pi ON pi.meal_id = pm.id
GROUP BY pm.id
`)
	if err != nil {
		return report, fmt.Errorf("doctor totals query: %w", err)
	}
	bad := make([]mealSums, 0)
	for rows.Next() {
		var m mealSums
		var items int
		if err := rows.Scan(&m.id, &m.storedKcal, &m.storedP, &m.storedC, &m.storedF, &items, &m.kcal, &m.protein, &m.carbs, &m.fat); err != nil {
			_ = rows.Close()
			return report, fmt.Errorf("doctor totals scan: %w", err)
		}
		if items == 0 {
			report.EmptyMeals++
		}
		if m.mismatched() {
			report.MealTotalMismatches++
			bad = append(bad, m)
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return report, fmt.Errorf("doctor totals iterate: %w", err)
	}
	_ = rows.Close()

	if fix && len(bad) > 0 {
		tx, err := db.Begin()
		if err != nil {
			return report, fmt.Errorf("doctor fix begin tx: %w", err)
		}
		for _, m := range bad {
			if _, err := tx.Exec(`
UPDATE plan_meals SET total_kcal = ?, total_protein_g = ?, total_carbs_g = ?, total_fat_g = ? WHERE id = ?
`, m.kcal, m.protein, m.carbs, m.fat, m.id); err != nil {
				_ = tx.Rollback()
				return report, fmt.Errorf("doctor fix meal %d: %w", m.id, err)
			}
			report.FixedMealTotals++
		}
		if err := tx.Commit(); err != nil {
			return report, fmt.Errorf("doctor fix commit: %w", err)
		}
	}
	return report, nil
}
