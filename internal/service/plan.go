package service

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/saadjs/mealplan-cli/internal/app"
	"github.com/saadjs/mealplan-cli/internal/engine"
	"github.com/saadjs/mealplan-cli/internal/logger"
	"github.com/saadjs/mealplan-cli/internal/model"
)

// PlanRefLatest resolves to the most recently generated plan.
const PlanRefLatest = "latest"

const minPlanPrefixLen = 4

type GeneratePlanInput struct {
	// WeekStart is any date in the target week; it is moved back to Monday.
	WeekStart   string
	Seed        *int64
	ProfileDate string
}

type RegenerateMealInput struct {
	PlanRef      string
	Day          int
	Slot         int
	Seed         *int64
	AvoidCurrent bool
}

type MealTarget struct {
	MealType model.MealType
	Fraction float64
	Targets  model.DailyTargets
}

type TargetsReport struct {
	Profile model.Profile
	Energy  model.EnergyResult
	Daily   model.DailyTargets
	Meals   []MealTarget
}

// ResolveSeed picks the rng seed: explicit value, then the rng_seed config
// key, then MEALPLAN_SEED, then the clock.
func ResolveSeed(db *sql.DB, explicit *int64) (int64, error) {
	if explicit != nil {
		return *explicit, nil
	}
	if v, ok, err := configInt64(db, ConfigRNGSeed); err != nil {
		return 0, err
	} else if ok {
		return v, nil
	}
	now := time.Now().UnixNano()
	seed, err := app.Int64(app.EnvSeed, now)
	if err != nil {
		return 0, err
	}
	return seed, nil
}

func requireProfile(db *sql.DB, date string) (*model.Profile, error) {
	p, err := CurrentProfile(db, date)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("no profile set (run `mealplan profile set` first)")
	}
	return p, nil
}

func Targets(db *sql.DB, date string) (*TargetsReport, error) {
	p, err := requireProfile(db, date)
	if err != nil {
		return nil, err
	}
	a := engine.NewAssembler(engine.NewSeededRand(0), nil)
	energy, daily := a.Targets(*p)
	report := &TargetsReport{Profile: *p, Energy: energy, Daily: daily}
	for _, slot := range a.Distribution.For(p.MealsPerDay) {
		report.Meals = append(report.Meals, MealTarget{
			MealType: slot.MealType,
			Fraction: slot.KcalFraction,
			Targets:  a.Macros.ScaleToFraction(daily, slot.KcalFraction),
		})
	}
	return report, nil
}

func GeneratePlan(db *sql.DB, log *logger.Logger, in GeneratePlanInput) (*model.StoredPlan, error) {
	if log == nil {
		log = logger.Nop()
	}
	weekStart, err := resolveWeekStart(in.WeekStart)
	if err != nil {
		return nil, err
	}
	p, err := requireProfile(db, in.ProfileDate)
	if err != nil {
		return nil, err
	}
	catalog, err := ActiveCatalog(db)
	if err != nil {
		return nil, err
	}
	if len(catalog) == 0 {
		return nil, fmt.Errorf("ingredient catalog is empty (run `mealplan init` or `mealplan ingredient import`)")
	}
	seed, err := ResolveSeed(db, in.Seed)
	if err != nil {
		return nil, err
	}

	a := engine.NewAssembler(engine.NewSeededRand(seed), log)
	week := a.GenerateWeeklyPlan(*p, catalog, weekStart)
	stored := &model.StoredPlan{
		ID:          uuid.NewString(),
		ProfileID:   p.ID,
		Seed:        seed,
		GeneratedAt: time.Now().UTC().Truncate(time.Second),
		Plan:        week,
	}
	if err := savePlan(db, stored); err != nil {
		return nil, err
	}
	log.Info("plan generated",
		"plan_id", stored.ID,
		"week_start", weekStart.Format(dateLayout),
		"seed", seed,
		"target_kcal", week.TargetKcal,
		"days", len(week.Days),
	)
	return stored, nil
}

func resolveWeekStart(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return MondayOf(time.Now()), nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid week start %q (expected YYYY-MM-DD)", value)
	}
	return MondayOf(t), nil
}

func savePlan(db *sql.DB, sp *model.StoredPlan) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin plan tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var profileID any
	if sp.ProfileID > 0 {
		profileID = sp.ProfileID
	}
	w := sp.Plan
	if _, err := tx.Exec(`
INSERT INTO plans(id, profile_id, week_start, seed, target_kcal, target_protein_g, target_carbs_g, target_fat_g, generated_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
`, sp.ID, profileID, w.WeekStart.Format(dateLayout), sp.Seed, w.TargetKcal, w.TargetProteinG, w.TargetCarbsG, w.TargetFatG, sp.GeneratedAt); err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}
	for _, day := range w.Days {
		for pos, meal := range day.Meals {
			res, err := tx.Exec(`
INSERT INTO plan_meals(plan_id, day_of_week, position, meal_type, total_kcal, total_protein_g, total_carbs_g, total_fat_g)
VALUES(?, ?, ?, ?, ?, ?, ?, ?)
`, sp.ID, day.DayOfWeek, pos, meal.MealType, meal.TotalKcal, meal.TotalProteinG, meal.TotalCarbsG, meal.TotalFatG)
			if err != nil {
				return fmt.Errorf("insert plan meal day %d slot %d: %w", day.DayOfWeek, pos, err)
			}
			mealID, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("plan meal id: %w", err)
			}
			if err := insertPlanItems(tx, mealID, meal.Items); err != nil {
				return err
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit plan: %w", err)
	}
	return nil
}

func insertPlanItems(tx *sql.Tx, mealID int64, items []model.GeneratedMealItem) error {
	for pos, it := range items {
		if _, err := tx.Exec(`
INSERT INTO plan_items(meal_id, position, ingredient_id, ingredient_name, grams, kcal, protein_g, carbs_g, fat_g)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
`, mealID, pos, it.IngredientID, it.IngredientName, it.Grams, it.Kcal, it.ProteinG, it.CarbsG, it.FatG); err != nil {
			return fmt.Errorf("insert plan item %q: %w", it.IngredientID, err)
		}
	}
	return nil
}

// ResolvePlanID accepts a full id, a unique prefix of at least four
// characters, or "latest".
func ResolvePlanID(db *sql.DB, ref string) (string, error) {
	ref = strings.TrimSpace(strings.ToLower(ref))
	if ref == "" {
		return "", fmt.Errorf("plan id is required")
	}
	if ref == PlanRefLatest {
		var id string
		err := db.QueryRow(`SELECT id FROM plans ORDER BY generated_at DESC, rowid DESC LIMIT 1`).Scan(&id)
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("no plans generated yet: %w", ErrNotFound)
		}
		if err != nil {
			return "", fmt.Errorf("latest plan: %w", err)
		}
		return id, nil
	}
	var id string
	err := db.QueryRow(`SELECT id FROM plans WHERE id = ?`, ref).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("lookup plan %q: %w", ref, err)
	}
	if len(ref) < minPlanPrefixLen {
		return "", fmt.Errorf("plan %q: %w", ref, ErrNotFound)
	}
	rows, err := db.Query(`SELECT id FROM plans WHERE substr(id, 1, ?) = ? ORDER BY id LIMIT 2`, len(ref), ref)
	if err != nil {
		return "", fmt.Errorf("lookup plan prefix %q: %w", ref, err)
	}
	defer rows.Close()
	matches := make([]string, 0, 2)
	for rows.Next() {
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("scan plan id: %w", err)
		}
		matches = append(matches, id)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterate plan ids: %w", err)
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("plan %q: %w", ref, ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("plan prefix %q is ambiguous", ref)
	}
}

func GetPlan(db *sql.DB, ref string) (*model.StoredPlan, error) {
	id, err := ResolvePlanID(db, ref)
	if err != nil {
		return nil, err
	}
	var sp model.StoredPlan
	var profileID sql.NullInt64
	var weekStart string
	err = db.QueryRow(`
SELECT id, profile_id, week_start, seed, target_kcal, target_protein_g, target_carbs_g, target_fat_g, generated_at
FROM plans WHERE id = ?
`, id).Scan(&sp.ID, &profileID, &weekStart, &sp.Seed, &sp.Plan.TargetKcal, &sp.Plan.TargetProteinG, &sp.Plan.TargetCarbsG, &sp.Plan.TargetFatG, &sp.GeneratedAt)
	if err != nil {
		return nil, fmt.Errorf("get plan %s: %w", id, err)
	}
	if profileID.Valid {
		sp.ProfileID = profileID.Int64
	}
	if sp.Plan.WeekStart, err = time.Parse(dateLayout, weekStart); err != nil {
		return nil, fmt.Errorf("plan %s: invalid week start %q", id, weekStart)
	}

	meals, err := loadPlanMeals(db, id)
	if err != nil {
		return nil, err
	}
	days := make([]model.GeneratedDayPlan, engine.DaysPerWeek)
	for d := range days {
		days[d].DayOfWeek = d
	}
	for _, m := range meals {
		if m.DayOfWeek < 0 || m.DayOfWeek >= engine.DaysPerWeek {
			continue
		}
		days[m.DayOfWeek].Meals = append(days[m.DayOfWeek].Meals, m.GeneratedMeal)
	}
	for d := range days {
		engine.SumDayTotals(&days[d])
	}
	sp.Plan.Days = days
	return &sp, nil
}

type storedMeal struct {
	model.GeneratedMeal
	ID       int64
	Position int
}

func loadPlanMeals(db *sql.DB, planID string) ([]storedMeal, error) {
	rows, err := db.Query(`
SELECT id, day_of_week, position, meal_type, total_kcal, total_protein_g, total_carbs_g, total_fat_g
FROM plan_meals
WHERE plan_id = ?
ORDER BY day_of_week ASC, position ASC
`, planID)
	if err != nil {
		return nil, fmt.Errorf("list plan meals: %w", err)
	}
	defer rows.Close()
	meals := make([]storedMeal, 0)
	index := map[int64]int{}
	for rows.Next() {
		var m storedMeal
		if err := rows.Scan(&m.ID, &m.DayOfWeek, &m.Position, &m.MealType, &m.TotalKcal, &m.TotalProteinG, &m.TotalCarbsG, &m.TotalFatG); err != nil {
			return nil, fmt.Errorf("scan plan meal: %w", err)
		}
		m.Items = make([]model.GeneratedMealItem, 0)
		index[m.ID] = len(meals)
		meals = append(meals, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plan meals: %w", err)
	}
	rows.Close()

	itemRows, err := db.Query(`
SELECT pi.meal_id, pi.ingredient_id, pi.ingredient_name, pi.grams, pi.kcal, pi.protein_g, pi.carbs_g, pi.fat_g
FROM plan_items pi
JOIN plan_meals pm ON pm.id = pi.meal_id
WHERE pm.plan_id = ?
ORDER BY pi.meal_id ASC, pi.position ASC
`, planID)
	if err != nil {
		return nil, fmt.Errorf("list plan items: %w", err)
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var mealID int64
		var it model.GeneratedMealItem
		if err := itemRows.Scan(&mealID, &it.IngredientID, &it.IngredientName, &it.Grams, &it.Kcal, &it.ProteinG, &it.CarbsG, &it.FatG); err != nil {
			return nil, fmt.Errorf("scan plan item: %w", err)
		}
		if i, ok := index[mealID]; ok {
			meals[i].Items = append(meals[i].Items, it)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plan items: %w", err)
	}
	return meals, nil
}

func ListPlans(db *sql.DB, limit int) ([]model.PlanSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`
SELECT p.id, p.week_start, p.target_kcal,
       COUNT(DISTINCT pm.day_of_week), COUNT(pm.id), p.generated_at
FROM plans p
LEFT JOIN plan_meals pm ON pm.plan_id = p.id
GROUP BY p.id
ORDER BY p.generated_at DESC, p.rowid DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()
	out := make([]model.PlanSummary, 0)
	for rows.Next() {
		var s model.PlanSummary
		if err := rows.Scan(&s.ID, &s.WeekStart, &s.TargetKcal, &s.DayCount, &s.MealCount, &s.GeneratedAt); err != nil {
			return nil, fmt.Errorf("scan plan summary: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plans: %w", err)
	}
	return out, nil
}

func DeletePlan(db *sql.DB, ref string) (string, error) {
	id, err := ResolvePlanID(db, ref)
	if err != nil {
		return "", err
	}
	if _, err := db.Exec(`DELETE FROM plans WHERE id = ?`, id); err != nil {
		return "", fmt.Errorf("delete plan %s: %w", id, err)
	}
	return id, nil
}

// RegenerateMeal replaces one stored meal. The other meals of that day are
// excluded so a day still never repeats an ingredient; with AvoidCurrent the
// meal's own ingredients are excluded too.
func RegenerateMeal(db *sql.DB, log *logger.Logger, in RegenerateMealInput) (*model.GeneratedMeal, error) {
	if log == nil {
		log = logger.Nop()
	}
	if in.Day < 0 || in.Day >= engine.DaysPerWeek {
		return nil, fmt.Errorf("day must be between 0 and %d", engine.DaysPerWeek-1)
	}
	id, err := ResolvePlanID(db, in.PlanRef)
	if err != nil {
		return nil, err
	}
	var profileID sql.NullInt64
	if err := db.QueryRow(`SELECT profile_id FROM plans WHERE id = ?`, id).Scan(&profileID); err != nil {
		return nil, fmt.Errorf("get plan %s: %w", id, err)
	}
	if !profileID.Valid {
		return nil, fmt.Errorf("plan %s has no profile; generate a new plan instead", id)
	}
	p, err := ProfileByID(db, profileID.Int64)
	if err != nil {
		return nil, err
	}

	meals, err := loadPlanMeals(db, id)
	if err != nil {
		return nil, err
	}
	var target *storedMeal
	dayMeals := 0
	exclude := map[string]struct{}{}
	for i := range meals {
		m := &meals[i]
		if m.DayOfWeek != in.Day {
			continue
		}
		dayMeals++
		if m.Position == in.Slot {
			target = m
			if !in.AvoidCurrent {
				continue
			}
		}
		for _, it := range m.Items {
			exclude[it.IngredientID] = struct{}{}
		}
	}
	if target == nil {
		return nil, fmt.Errorf("plan %s day %d slot %d: %w", id, in.Day, in.Slot, ErrNotFound)
	}

	catalog, err := ActiveCatalog(db)
	if err != nil {
		return nil, err
	}
	seed, err := ResolveSeed(db, in.Seed)
	if err != nil {
		return nil, err
	}
	a := engine.NewAssembler(engine.NewSeededRand(seed), log)
	dist := a.Distribution.For(dayMeals)
	if in.Slot < 0 || in.Slot >= len(dist) || dist[in.Slot].MealType != target.MealType {
		return nil, fmt.Errorf("plan %s day %d slot %d does not match the %d-meal layout", id, in.Day, in.Slot, dayMeals)
	}
	meal := a.RegenerateMeal(*p, catalog, in.Day, dist[in.Slot], sortedKeys(exclude))

	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin regenerate tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.Exec(`DELETE FROM plan_items WHERE meal_id = ?`, target.ID); err != nil {
		return nil, fmt.Errorf("clear meal items: %w", err)
	}
	if err := insertPlanItems(tx, target.ID, meal.Items); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(`
UPDATE plan_meals
SET total_kcal = ?, total_protein_g = ?, total_carbs_g = ?, total_fat_g = ?
WHERE id = ?
`, meal.TotalKcal, meal.TotalProteinG, meal.TotalCarbsG, meal.TotalFatG, target.ID); err != nil {
		return nil, fmt.Errorf("update meal totals: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit regenerate: %w", err)
	}
	log.Info("meal regenerated",
		"plan_id", id,
		"day", in.Day,
		"slot", in.Slot,
		"meal_type", meal.MealType,
		"seed", seed,
		"items", len(meal.Items),
	)
	return &meal, nil
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
