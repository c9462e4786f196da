package db

import (
	"database/sql"
	"fmt"
)

type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		name:    "ingredient_catalog",
		sql: `
CREATE TABLE IF NOT EXISTS allergens (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS ingredients (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  name_norm TEXT NOT NULL UNIQUE,
  category TEXT NOT NULL CHECK(category IN ('protein', 'carbohydrate', 'vegetable', 'fruit', 'dairy', 'grain', 'legume', 'fat', 'nut_seed', 'condiment', 'other')),
  kcal_per_100g REAL NOT NULL CHECK(kcal_per_100g >= 0),
  protein_per_100g REAL NOT NULL CHECK(protein_per_100g >= 0),
  carbs_per_100g REAL NOT NULL CHECK(carbs_per_100g >= 0),
  fat_per_100g REAL NOT NULL CHECK(fat_per_100g >= 0),
  fiber_per_100g REAL NOT NULL DEFAULT 0 CHECK(fiber_per_100g >= 0),
  is_vegan INTEGER NOT NULL DEFAULT 0,
  is_vegetarian INTEGER NOT NULL DEFAULT 0,
  source TEXT NOT NULL DEFAULT 'manual',
  archived_at DATETIME,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_ingredients_category ON ingredients(category);

CREATE TABLE IF NOT EXISTS ingredient_allergens (
  ingredient_id TEXT NOT NULL,
  allergen_id TEXT NOT NULL,
  PRIMARY KEY(ingredient_id, allergen_id),
  FOREIGN KEY(ingredient_id) REFERENCES ingredients(id) ON DELETE CASCADE,
  FOREIGN KEY(allergen_id) REFERENCES allergens(id)
);
`,
	},
	{
		version: 2,
		name:    "profiles",
		sql: `
CREATE TABLE IF NOT EXISTS profiles (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  age INTEGER NOT NULL CHECK(age >= 18 AND age <= 100),
  sex TEXT NOT NULL CHECK(sex IN ('male', 'female')),
  weight_kg REAL NOT NULL CHECK(weight_kg > 0),
  height_cm REAL NOT NULL CHECK(height_cm > 0),
  activity_level TEXT NOT NULL,
  meals_per_day INTEGER NOT NULL CHECK(meals_per_day >= 2 AND meals_per_day <= 6),
  diet_pattern TEXT NOT NULL,
  weight_goal_kg REAL CHECK(weight_goal_kg > 0),
  effective_date TEXT NOT NULL,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(effective_date)
);

CREATE TABLE IF NOT EXISTS profile_allergens (
  profile_id INTEGER NOT NULL,
  allergen_id TEXT NOT NULL,
  PRIMARY KEY(profile_id, allergen_id),
  FOREIGN KEY(profile_id) REFERENCES profiles(id) ON DELETE CASCADE,
  FOREIGN KEY(allergen_id) REFERENCES allergens(id)
);
`,
	},
	{
		version: 3,
		name:    "plans",
		sql: `
CREATE TABLE IF NOT EXISTS plans (
  id TEXT PRIMARY KEY,
  profile_id INTEGER,
  week_start TEXT NOT NULL,
  seed INTEGER NOT NULL,
  target_kcal INTEGER NOT NULL CHECK(target_kcal >= 0),
  target_protein_g INTEGER NOT NULL CHECK(target_protein_g >= 0),
  target_carbs_g INTEGER NOT NULL CHECK(target_carbs_g >= 0),
  target_fat_g INTEGER NOT NULL CHECK(target_fat_g >= 0),
  generated_at DATETIME NOT NULL,
  FOREIGN KEY(profile_id) REFERENCES profiles(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_plans_week_start ON plans(week_start);

CREATE TABLE IF NOT EXISTS plan_meals (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  plan_id TEXT NOT NULL,
  day_of_week INTEGER NOT NULL CHECK(day_of_week >= 0 AND day_of_week <= 6),
  position INTEGER NOT NULL,
  meal_type TEXT NOT NULL,
  total_kcal INTEGER NOT NULL,
  total_protein_g REAL NOT NULL,
  total_carbs_g REAL NOT NULL,
  total_fat_g REAL NOT NULL,
  UNIQUE(plan_id, day_of_week, position),
  FOREIGN KEY(plan_id) REFERENCES plans(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS plan_items (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  meal_id INTEGER NOT NULL,
  position INTEGER NOT NULL,
  ingredient_id TEXT NOT NULL,
  ingredient_name TEXT NOT NULL,
  grams INTEGER NOT NULL CHECK(grams > 0),
  kcal INTEGER NOT NULL,
  protein_g REAL NOT NULL,
  carbs_g REAL NOT NULL,
  fat_g REAL NOT NULL,
  FOREIGN KEY(meal_id) REFERENCES plan_meals(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_plan_items_meal_id ON plan_items(meal_id);
`,
	},
	{
		version: 4,
		name:    "app_config",
		sql: `
CREATE TABLE IF NOT EXISTS app_config (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`,
	},
}

var defaultAllergens = [][2]string{
	{"gluten", "Cereals containing gluten"},
	{"crustaceans", "Crustaceans"},
	{"egg", "Eggs"},
	{"fish", "Fish"},
	{"peanuts", "Peanuts"},
	{"soy", "Soybeans"},
	{"milk", "Milk"},
	{"nuts", "Tree nuts"},
	{"celery", "Celery"},
	{"mustard", "Mustard"},
	{"sesame", "Sesame seeds"},
	{"sulphites", "Sulphur dioxide and sulphites"},
	{"lupin", "Lupin"},
	{"molluscs", "Molluscs"},
}

// LatestVersion is the schema version ApplyMigrations brings a database to.
func LatestVersion() int {
	v := 0
	for _, m := range migrations {
		if m.version > v {
			v = m.version
		}
	}
	return v
}

func ApplyMigrations(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`); err != nil {
		return fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	for _, m := range migrations {
		var exists int
		err := db.QueryRow(`SELECT 1 FROM schema_migrations WHERE version = ?`, m.version).Scan(&exists)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("check migration version %d: %w", m.version, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration tx: %w", err)
		}

		if _, err := tx.Exec(m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration version %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations(version, name) VALUES(?, ?)`, m.version, m.name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration version %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration version %d: %w", m.version, err)
		}
	}

	for _, a := range defaultAllergens {
		if _, err := db.Exec(`INSERT OR IGNORE INTO allergens(id, name) VALUES(?, ?)`, a[0], a[1]); err != nil {
			return fmt.Errorf("seed default allergen %s: %w", a[0], err)
		}
	}

	return nil
}
