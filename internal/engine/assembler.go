// Package engine builds week-long diet plans from a profile and an
// ingredient catalog. It does no I/O; callers load inputs and persist
// outputs.
package engine

import (
	"time"

	"github.com/saadjs/mealplan-cli/internal/logger"
	"github.com/saadjs/mealplan-cli/internal/model"
)

const DaysPerWeek = 7

// Assembler composes the calculators, filters and selector into plan
// generation. Apart from the selector's Rand it holds no state, so one
// Assembler per goroutine is enough.
type Assembler struct {
	Energy       EnergyCalculator
	Macros       MacroCalculator
	Allergens    AllergenFilter
	Patterns     DietPatternFilter
	Distribution MealDistributionTable
	Selector     *IngredientSelector
	Log          *logger.Logger
}

func NewAssembler(rng Rand, log *logger.Logger) *Assembler {
	if log == nil {
		log = logger.Nop()
	}
	return &Assembler{
		Selector: NewIngredientSelector(rng),
		Log:      log,
	}
}

// Targets returns the energy breakdown and the day-level targets for p.
func (a *Assembler) Targets(p model.Profile) (model.EnergyResult, model.DailyTargets) {
	energy := a.Energy.Calculate(p)
	return energy, a.Macros.Calculate(energy.TargetKcal)
}

// CandidatePool applies the allergen filter and then the diet pattern filter.
func (a *Assembler) CandidatePool(p model.Profile, catalog []model.Ingredient) []model.Ingredient {
	return a.Patterns.Apply(a.Allergens.Apply(catalog, p.AllergenIDs), p.DietPattern)
}

func (a *Assembler) GenerateWeeklyPlan(p model.Profile, catalog []model.Ingredient, weekStart time.Time) model.GeneratedWeekPlan {
	_, daily := a.Targets(p)
	pool := a.CandidatePool(p, catalog)
	dist := a.Distribution.For(p.MealsPerDay)

	a.Log.Debug("generating week plan",
		"target_kcal", daily.Kcal,
		"pool_size", len(pool),
		"catalog_size", len(catalog),
		"slots", len(dist),
	)

	days := make([]model.GeneratedDayPlan, 0, DaysPerWeek)
	for day := 0; day < DaysPerWeek; day++ {
		days = append(days, a.GenerateDayPlan(day, pool, dist, daily))
	}
	return model.GeneratedWeekPlan{
		WeekStart:      weekStart,
		Days:           days,
		TargetKcal:     daily.Kcal,
		TargetProteinG: daily.ProteinG,
		TargetCarbsG:   daily.CarbsG,
		TargetFatG:     daily.FatG,
	}
}

// GenerateDayPlan builds one day. The used-ingredient set lives only for the
// duration of this call.
func (a *Assembler) GenerateDayPlan(day int, pool []model.Ingredient, dist model.MealDistribution, daily model.DailyTargets) model.GeneratedDayPlan {
	used := make(map[string]struct{})
	plan := model.GeneratedDayPlan{DayOfWeek: day, Meals: make([]model.GeneratedMeal, 0, len(dist))}
	for _, slot := range dist {
		meal := a.buildMeal(day, slot, pool, daily, used)
		plan.Meals = append(plan.Meals, meal)
	}
	SumDayTotals(&plan)
	return plan
}

// RegenerateMeal rebuilds a single slot for day. excludeIDs are treated as
// already used, typically the other meals of that day. The rest of the week
// is not consulted.
func (a *Assembler) RegenerateMeal(p model.Profile, catalog []model.Ingredient, day int, slot model.MealSlot, excludeIDs []string) model.GeneratedMeal {
	_, daily := a.Targets(p)
	pool := a.CandidatePool(p, catalog)
	used := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		used[id] = struct{}{}
	}
	return a.buildMeal(day, slot, pool, daily, used)
}

func (a *Assembler) buildMeal(day int, slot model.MealSlot, pool []model.Ingredient, daily model.DailyTargets, used map[string]struct{}) model.GeneratedMeal {
	target := a.Macros.ScaleToFraction(daily, slot.KcalFraction)
	items := a.Selector.Select(pool, slot.Categories, target, used)
	if len(items) < len(slot.Categories) {
		a.Log.Debug("meal slot under-filled",
			"day", day,
			"meal_type", slot.MealType,
			"categories", len(slot.Categories),
			"items", len(items),
		)
	}
	meal := model.GeneratedMeal{DayOfWeek: day, MealType: slot.MealType, Items: items}
	SumMealTotals(&meal)
	return meal
}

// SumMealTotals sets the meal totals to the exact sum of its items.
func SumMealTotals(m *model.GeneratedMeal) {
	m.TotalKcal, m.TotalProteinG, m.TotalCarbsG, m.TotalFatG = 0, 0, 0, 0
	for _, it := range m.Items {
		m.TotalKcal += it.Kcal
		m.TotalProteinG += it.ProteinG
		m.TotalCarbsG += it.CarbsG
		m.TotalFatG += it.FatG
	}
}

// SumDayTotals sets the day totals to the exact sum of its meal totals.
func SumDayTotals(d *model.GeneratedDayPlan) {
	d.TotalKcal, d.TotalProteinG, d.TotalCarbsG, d.TotalFatG = 0, 0, 0, 0
	for _, m := range d.Meals {
		d.TotalKcal += m.TotalKcal
		d.TotalProteinG += m.TotalProteinG
		d.TotalCarbsG += m.TotalCarbsG
		d.TotalFatG += m.TotalFatG
	}
}
