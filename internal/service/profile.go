package service

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/saadjs/mealplan-cli/internal/model"
)

const (
	minProfileAge      = 18
	maxProfileAge      = 100
	minProfileMeals    = 2
	maxProfileMeals    = 6
	defaultMealsPerDay = 3
)

type SetProfileInput struct {
	Age           int
	Sex           string
	Weight        float64
	WeightUnit    string
	Height        float64
	HeightUnit    string
	ActivityLevel string
	MealsPerDay   int
	DietPattern   string
	WeightGoal    *float64
	Allergens     []string
	EffectiveDate string
}

var (
	validSexes = map[model.Sex]bool{model.SexMale: true, model.SexFemale: true}

	validActivity = map[model.ActivityLevel]bool{
		model.ActivitySedentary: true,
		model.ActivityLight:     true,
		model.ActivityModerate:  true,
		model.ActivityVery:      true,
		model.ActivityExtreme:   true,
	}

	validDiets = map[model.DietPattern]bool{
		model.DietOmnivore:    true,
		model.DietVegetarian:  true,
		model.DietVegan:       true,
		model.DietPescatarian: true,
	}
)

// ValidateProfile checks the ranges the plan engine assumes. The engine
// itself accepts anything.
func ValidateProfile(p model.Profile) error {
	if p.Age < minProfileAge || p.Age > maxProfileAge {
		return fmt.Errorf("age must be between %d and %d", minProfileAge, maxProfileAge)
	}
	if !validSexes[p.Sex] {
		return fmt.Errorf("invalid sex %q (use male or female)", p.Sex)
	}
	if p.WeightKg <= 0 {
		return fmt.Errorf("weight must be > 0")
	}
	if p.HeightCm <= 0 {
		return fmt.Errorf("height must be > 0")
	}
	if !validActivity[p.ActivityLevel] {
		return fmt.Errorf("invalid activity level %q (use sedentary, light, moderate, very or extreme)", p.ActivityLevel)
	}
	if p.MealsPerDay < minProfileMeals || p.MealsPerDay > maxProfileMeals {
		return fmt.Errorf("meals per day must be between %d and %d", minProfileMeals, maxProfileMeals)
	}
	if !validDiets[p.DietPattern] {
		return fmt.Errorf("invalid diet pattern %q (use omnivore, vegetarian, vegan or pescatarian)", p.DietPattern)
	}
	if p.WeightGoalKg != nil && *p.WeightGoalKg <= 0 {
		return fmt.Errorf("weight goal must be > 0")
	}
	return nil
}

func SetProfile(db *sql.DB, in SetProfileInput) (int64, error) {
	weightKg, err := convertWeightToKg(in.Weight, in.WeightUnit)
	if err != nil {
		return 0, err
	}
	heightCm, err := convertHeightToCm(in.Height, in.HeightUnit)
	if err != nil {
		return 0, err
	}
	var goalKg *float64
	if in.WeightGoal != nil {
		v, err := convertWeightToKg(*in.WeightGoal, in.WeightUnit)
		if err != nil {
			return 0, fmt.Errorf("weight goal: %w", err)
		}
		goalKg = &v
	}
	effective, err := resolveDate("effective date", in.EffectiveDate)
	if err != nil {
		return 0, err
	}
	if in.MealsPerDay == 0 {
		in.MealsPerDay = defaultMealsPerDay
		if v, ok, err := configInt64(db, ConfigDefaultMealsPerDay); err != nil {
			return 0, err
		} else if ok {
			in.MealsPerDay = int(v)
		}
	}
	diet := strings.TrimSpace(in.DietPattern)
	if diet == "" {
		diet = string(model.DietOmnivore)
	}
	p := model.Profile{
		Age:           in.Age,
		Sex:           model.Sex(normalizeName(in.Sex)),
		WeightKg:      weightKg,
		HeightCm:      heightCm,
		ActivityLevel: model.ActivityLevel(normalizeName(in.ActivityLevel)),
		MealsPerDay:   in.MealsPerDay,
		DietPattern:   model.DietPattern(normalizeName(diet)),
		WeightGoalKg:  goalKg,
		AllergenIDs:   normalizeIDs(in.Allergens),
	}
	if err := ValidateProfile(p); err != nil {
		return 0, err
	}
	if err := requireAllergens(db, p.AllergenIDs); err != nil {
		return 0, err
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin profile tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	err = tx.QueryRow(`
INSERT INTO profiles(age, sex, weight_kg, height_cm, activity_level, meals_per_day, diet_pattern, weight_goal_kg, effective_date)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(effective_date) DO UPDATE SET
  age=excluded.age,
  sex=excluded.sex,
  weight_kg=excluded.weight_kg,
  height_cm=excluded.height_cm,
  activity_level=excluded.activity_level,
  meals_per_day=excluded.meals_per_day,
  diet_pattern=excluded.diet_pattern,
  weight_goal_kg=excluded.weight_goal_kg
RETURNING id
`, p.Age, p.Sex, p.WeightKg, p.HeightCm, p.ActivityLevel, p.MealsPerDay, p.DietPattern, p.WeightGoalKg, effective).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("set profile: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM profile_allergens WHERE profile_id = ?`, id); err != nil {
		return 0, fmt.Errorf("reset profile allergens: %w", err)
	}
	for _, a := range p.AllergenIDs {
		if _, err := tx.Exec(`INSERT INTO profile_allergens(profile_id, allergen_id) VALUES(?, ?)`, id, a); err != nil {
			return 0, fmt.Errorf("add profile allergen %q: %w", a, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit profile: %w", err)
	}
	return id, nil
}

const profileColumns = `id, age, sex, weight_kg, height_cm, activity_level, meals_per_day, diet_pattern, weight_goal_kg, effective_date, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (model.Profile, error) {
	var p model.Profile
	var goal sql.NullFloat64
	if err := row.Scan(&p.ID, &p.Age, &p.Sex, &p.WeightKg, &p.HeightCm, &p.ActivityLevel, &p.MealsPerDay, &p.DietPattern, &goal, &p.EffectiveDate, &p.CreatedAt); err != nil {
		return model.Profile{}, err
	}
	if goal.Valid {
		v := goal.Float64
		p.WeightGoalKg = &v
	}
	return p, nil
}

// CurrentProfile returns the profile effective at date (default today), or
// nil when none has been set.
func CurrentProfile(db *sql.DB, date string) (*model.Profile, error) {
	date, err := resolveDate("date", date)
	if err != nil {
		return nil, err
	}
	p, err := scanProfile(db.QueryRow(`
SELECT `+profileColumns+`
FROM profiles
WHERE effective_date <= ?
ORDER BY effective_date DESC
LIMIT 1
`, date))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("current profile for %s: %w", date, err)
	}
	if p.AllergenIDs, err = profileAllergens(db, p.ID); err != nil {
		return nil, err
	}
	return &p, nil
}

func ProfileByID(db *sql.DB, id int64) (*model.Profile, error) {
	p, err := scanProfile(db.QueryRow(`SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("profile %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get profile %d: %w", id, err)
	}
	if p.AllergenIDs, err = profileAllergens(db, p.ID); err != nil {
		return nil, err
	}
	return &p, nil
}

func ProfileHistory(db *sql.DB) ([]model.Profile, error) {
	rows, err := db.Query(`SELECT ` + profileColumns + ` FROM profiles ORDER BY effective_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("list profile history: %w", err)
	}
	defer rows.Close()

	out := make([]model.Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile history: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profile history: %w", err)
	}
	rows.Close()
	for i := range out {
		if out[i].AllergenIDs, err = profileAllergens(db, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func profileAllergens(db *sql.DB, profileID int64) ([]string, error) {
	rows, err := db.Query(`SELECT allergen_id FROM profile_allergens WHERE profile_id = ? ORDER BY allergen_id`, profileID)
	if err != nil {
		return nil, fmt.Errorf("list profile allergens: %w", err)
	}
	defer rows.Close()
	out := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan profile allergen: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profile allergens: %w", err)
	}
	return out, nil
}
