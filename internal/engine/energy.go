package engine

import (
	"math"

	"github.com/saadjs/mealplan-cli/internal/model"
)

const (
	weightLossDeficitKcal = 500
	weightGainSurplusKcal = 300
	minKcalMale           = 1500
	minKcalFemale         = 1200
)

var activityMultipliers = map[model.ActivityLevel]float64{
	model.ActivitySedentary: 1.2,
	model.ActivityLight:     1.375,
	model.ActivityModerate:  1.55,
	model.ActivityVery:      1.725,
	model.ActivityExtreme:   1.9,
}

// ActivityMultiplier returns the TDEE multiplier for level. Unknown levels
// resolve to the sedentary multiplier.
func ActivityMultiplier(level model.ActivityLevel) float64 {
	if m, ok := activityMultipliers[level]; ok {
		return m
	}
	return activityMultipliers[model.ActivitySedentary]
}

// EnergyCalculator derives basal, maintenance and target energy from a
// profile using Mifflin-St Jeor.
type EnergyCalculator struct{}

func (EnergyCalculator) Calculate(p model.Profile) model.EnergyResult {
	// The basal rate is rounded before the activity multiplier is applied.
	bmr := roundInt(basalRate(p))
	tdee := roundInt(float64(bmr) * ActivityMultiplier(p.ActivityLevel))

	target := tdee
	if p.WeightGoalKg != nil {
		switch {
		case *p.WeightGoalKg < p.WeightKg:
			target = tdee - weightLossDeficitKcal
		case *p.WeightGoalKg > p.WeightKg:
			target = tdee + weightGainSurplusKcal
		}
	}
	if floor := minimumKcal(p.Sex); target < floor {
		target = floor
	}
	return model.EnergyResult{BMR: bmr, TDEE: tdee, TargetKcal: target}
}

func basalRate(p model.Profile) float64 {
	base := 10*p.WeightKg + 6.25*p.HeightCm - 5*float64(p.Age)
	if p.Sex == model.SexMale {
		return base + 5
	}
	return base - 161
}

func minimumKcal(sex model.Sex) int {
	if sex == model.SexMale {
		return minKcalMale
	}
	return minKcalFemale
}

// roundInt rounds half up. math.Round differs only for negative halves.
func roundInt(v float64) int {
	return int(math.Floor(v + 0.5))
}

func round1(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}
