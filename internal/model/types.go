package model

import "time"

type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

type ActivityLevel string

const (
	ActivitySedentary ActivityLevel = "sedentary"
	ActivityLight     ActivityLevel = "light"
	ActivityModerate  ActivityLevel = "moderate"
	ActivityVery      ActivityLevel = "very"
	ActivityExtreme   ActivityLevel = "extreme"
)

type DietPattern string

const (
	DietOmnivore    DietPattern = "omnivore"
	DietVegetarian  DietPattern = "vegetarian"
	DietVegan       DietPattern = "vegan"
	DietPescatarian DietPattern = "pescatarian"
)

type IngredientCategory string

const (
	CategoryProtein      IngredientCategory = "protein"
	CategoryCarbohydrate IngredientCategory = "carbohydrate"
	CategoryVegetable    IngredientCategory = "vegetable"
	CategoryFruit        IngredientCategory = "fruit"
	CategoryDairy        IngredientCategory = "dairy"
	CategoryGrain        IngredientCategory = "grain"
	CategoryLegume       IngredientCategory = "legume"
	CategoryFat          IngredientCategory = "fat"
	CategoryNutSeed      IngredientCategory = "nut_seed"
	CategoryCondiment    IngredientCategory = "condiment"
	CategoryOther        IngredientCategory = "other"
)

// IngredientCategories lists every category in declaration order.
var IngredientCategories = []IngredientCategory{
	CategoryProtein,
	CategoryCarbohydrate,
	CategoryVegetable,
	CategoryFruit,
	CategoryDairy,
	CategoryGrain,
	CategoryLegume,
	CategoryFat,
	CategoryNutSeed,
	CategoryCondiment,
	CategoryOther,
}

type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// Profile is the biometric input to plan generation. Allergen IDs are
// already flattened by the caller.
type Profile struct {
	ID            int64
	Age           int
	Sex           Sex
	WeightKg      float64
	HeightCm      float64
	ActivityLevel ActivityLevel
	MealsPerDay   int
	DietPattern   DietPattern
	WeightGoalKg  *float64
	AllergenIDs   []string
	EffectiveDate string
	CreatedAt     time.Time
}

type Ingredient struct {
	ID             string
	Name           string
	Category       IngredientCategory
	KcalPer100g    float64
	ProteinPer100g float64
	CarbsPer100g   float64
	FatPer100g     float64
	FiberPer100g   float64
	IsVegan        bool
	IsVegetarian   bool
	AllergenIDs    []string
	Source         string
	ArchivedAt     *time.Time
	CreatedAt      time.Time
}

type Allergen struct {
	ID   string
	Name string
}

type EnergyResult struct {
	BMR        int
	TDEE       int
	TargetKcal int
}

type MacroTargets struct {
	ProteinG int
	CarbsG   int
	FatG     int
	FiberG   int
}

type DailyTargets struct {
	Kcal int
	MacroTargets
}

type MealSlot struct {
	MealType     MealType
	KcalFraction float64
	Categories   []IngredientCategory
}

type MealDistribution []MealSlot

type GeneratedMealItem struct {
	IngredientID   string
	IngredientName string
	Grams          int
	Kcal           int
	ProteinG       float64
	CarbsG         float64
	FatG           float64
}

type GeneratedMeal struct {
	DayOfWeek     int
	MealType      MealType
	Items         []GeneratedMealItem
	TotalKcal     int
	TotalProteinG float64
	TotalCarbsG   float64
	TotalFatG     float64
}

type GeneratedDayPlan struct {
	DayOfWeek     int
	Meals         []GeneratedMeal
	TotalKcal     int
	TotalProteinG float64
	TotalCarbsG   float64
	TotalFatG     float64
}

type GeneratedWeekPlan struct {
	WeekStart      time.Time
	Days           []GeneratedDayPlan
	TargetKcal     int
	TargetProteinG int
	TargetCarbsG   int
	TargetFatG     int
}

// StoredPlan is a persisted week plan.
type StoredPlan struct {
	ID          string
	ProfileID   int64
	Seed        int64
	GeneratedAt time.Time
	Plan        GeneratedWeekPlan
}

type PlanSummary struct {
	ID          string
	WeekStart   string
	TargetKcal  int
	DayCount    int
	MealCount   int
	GeneratedAt time.Time
}
