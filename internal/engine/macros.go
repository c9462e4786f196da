package engine

import "github.com/saadjs/mealplan-cli/internal/model"

const (
	proteinShare     = 0.30
	carbsShare       = 0.40
	fatShare         = 0.30
	kcalPerGramProt  = 4
	kcalPerGramCarbs = 4
	kcalPerGramFat   = 9
	fiberPer1000Kcal = 14
)

// MacroCalculator splits a calorie target 30/40/30 protein/carbs/fat.
type MacroCalculator struct{}

func (MacroCalculator) Calculate(kcal int) model.DailyTargets {
	k := float64(kcal)
	return model.DailyTargets{
		Kcal: kcal,
		MacroTargets: model.MacroTargets{
			ProteinG: roundInt(k * proteinShare / kcalPerGramProt),
			CarbsG:   roundInt(k * carbsShare / kcalPerGramCarbs),
			FatG:     roundInt(k * fatShare / kcalPerGramFat),
			FiberG:   roundInt(k / 1000 * fiberPer1000Kcal),
		},
	}
}

// ScaleToFraction derives a meal-sized target. Every field is rounded on its
// own, so scaled macros need not re-add to the scaled kcal.
func (MacroCalculator) ScaleToFraction(daily model.DailyTargets, fraction float64) model.DailyTargets {
	return model.DailyTargets{
		Kcal: roundInt(float64(daily.Kcal) * fraction),
		MacroTargets: model.MacroTargets{
			ProteinG: roundInt(float64(daily.ProteinG) * fraction),
			CarbsG:   roundInt(float64(daily.CarbsG) * fraction),
			FatG:     roundInt(float64(daily.FatG) * fraction),
			FiberG:   roundInt(float64(daily.FiberG) * fraction),
		},
	}
}
