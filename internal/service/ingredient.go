package service

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/saadjs/mealplan-cli/internal/catalog"
	"github.com/saadjs/mealplan-cli/internal/model"
)

const defaultIngredientListLimit = 100

type AddIngredientInput struct {
	ID             string
	Name           string
	Category       string
	KcalPer100g    float64
	ProteinPer100g float64
	CarbsPer100g   float64
	FatPer100g     float64
	FiberPer100g   float64
	Vegan          bool
	Vegetarian     bool
	Allergens      []string
	Source         string
}

type ListIngredientsFilter struct {
	Category        string
	Search          string
	IncludeArchived bool
	Limit           int
}

type ImportMode string

const (
	ImportModeFail  ImportMode = "fail"
	ImportModeSkip  ImportMode = "skip"
	ImportModeMerge ImportMode = "merge"
)

type ImportReport struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
}

var validCategories = func() map[model.IngredientCategory]bool {
	m := make(map[model.IngredientCategory]bool, len(model.IngredientCategories))
	for _, c := range model.IngredientCategories {
		m[c] = true
	}
	return m
}()

func ValidateIngredient(i model.Ingredient) error {
	if strings.TrimSpace(i.ID) == "" {
		return fmt.Errorf("ingredient id is required")
	}
	if strings.TrimSpace(i.Name) == "" {
		return fmt.Errorf("ingredient name is required")
	}
	if !validCategories[i.Category] {
		return fmt.Errorf("invalid category %q", i.Category)
	}
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"kcal_per_100g", i.KcalPer100g},
		{"protein_per_100g", i.ProteinPer100g},
		{"carbs_per_100g", i.CarbsPer100g},
		{"fat_per_100g", i.FatPer100g},
		{"fiber_per_100g", i.FiberPer100g},
	} {
		if err := validateNonNegativeFloat(f.name, f.value); err != nil {
			return err
		}
	}
	if i.IsVegan && !i.IsVegetarian {
		return fmt.Errorf("vegan ingredients must also be vegetarian")
	}
	return nil
}

func AddIngredient(db *sql.DB, in AddIngredientInput) (model.Ingredient, error) {
	ing := ingredientFromInput(in)
	if err := ValidateIngredient(ing); err != nil {
		return model.Ingredient{}, err
	}
	if err := requireAllergens(db, ing.AllergenIDs); err != nil {
		return model.Ingredient{}, err
	}
	tx, err := db.Begin()
	if err != nil {
		return model.Ingredient{}, fmt.Errorf("begin ingredient tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if err := insertIngredient(tx, ing); err != nil {
		return model.Ingredient{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Ingredient{}, fmt.Errorf("commit ingredient: %w", err)
	}
	return GetIngredient(db, ing.ID)
}

func ingredientFromInput(in AddIngredientInput) model.Ingredient {
	name := strings.TrimSpace(in.Name)
	id := strings.TrimSpace(strings.ToLower(in.ID))
	if id == "" {
		id = catalog.Slug(name)
	}
	source := strings.TrimSpace(in.Source)
	if source == "" {
		source = "manual"
	}
	return model.Ingredient{
		ID:             id,
		Name:           name,
		Category:       model.IngredientCategory(normalizeName(in.Category)),
		KcalPer100g:    in.KcalPer100g,
		ProteinPer100g: in.ProteinPer100g,
		CarbsPer100g:   in.CarbsPer100g,
		FatPer100g:     in.FatPer100g,
		FiberPer100g:   in.FiberPer100g,
		IsVegan:        in.Vegan,
		IsVegetarian:   in.Vegetarian || in.Vegan,
		AllergenIDs:    normalizeIDs(in.Allergens),
		Source:         source,
	}
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertIngredient(tx execer, i model.Ingredient) error {
	_, err := tx.Exec(`
INSERT INTO ingredients(id, name, name_norm, category, kcal_per_100g, protein_per_100g, carbs_per_100g, fat_per_100g, fiber_per_100g, is_vegan, is_vegetarian, source)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, i.ID, i.Name, normalizeName(i.Name), i.Category, i.KcalPer100g, i.ProteinPer100g, i.CarbsPer100g, i.FatPer100g, i.FiberPer100g, boolToInt(i.IsVegan), boolToInt(i.IsVegetarian), i.Source)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return fmt.Errorf("ingredient %q already exists", i.Name)
		}
		return fmt.Errorf("insert ingredient %q: %w", i.Name, err)
	}
	return setIngredientAllergens(tx, i.ID, i.AllergenIDs)
}

func updateIngredient(tx execer, i model.Ingredient) error {
	_, err := tx.Exec(`
UPDATE ingredients
SET name = ?, name_norm = ?, category = ?, kcal_per_100g = ?, protein_per_100g = ?, carbs_per_100g = ?, fat_per_100g = ?, fiber_per_100g = ?,
    is_vegan = ?, is_vegetarian = ?, source = ?, archived_at = NULL, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`, i.Name, normalizeName(i.Name), i.Category, i.KcalPer100g, i.ProteinPer100g, i.CarbsPer100g, i.FatPer100g, i.FiberPer100g, boolToInt(i.IsVegan), boolToInt(i.IsVegetarian), i.Source, i.ID)
	if err != nil {
		return fmt.Errorf("update ingredient %q: %w", i.Name, err)
	}
	return setIngredientAllergens(tx, i.ID, i.AllergenIDs)
}

func setIngredientAllergens(tx execer, id string, allergens []string) error {
	if _, err := tx.Exec(`DELETE FROM ingredient_allergens WHERE ingredient_id = ?`, id); err != nil {
		return fmt.Errorf("reset ingredient allergens: %w", err)
	}
	for _, a := range allergens {
		if _, err := tx.Exec(`INSERT INTO ingredient_allergens(ingredient_id, allergen_id) VALUES(?, ?)`, id, a); err != nil {
			return fmt.Errorf("add allergen %q to %q: %w", a, id, err)
		}
	}
	return nil
}

const ingredientColumns = `id, name, category, kcal_per_100g, protein_per_100g, carbs_per_100g, fat_per_100g, fiber_per_100g, is_vegan, is_vegetarian, source, archived_at, created_at`

func scanIngredient(row rowScanner) (model.Ingredient, error) {
	var i model.Ingredient
	var vegan, vegetarian int
	var archived sql.NullTime
	if err := row.Scan(&i.ID, &i.Name, &i.Category, &i.KcalPer100g, &i.ProteinPer100g, &i.CarbsPer100g, &i.FatPer100g, &i.FiberPer100g, &vegan, &vegetarian, &i.Source, &archived, &i.CreatedAt); err != nil {
		return model.Ingredient{}, err
	}
	i.IsVegan = vegan == 1
	i.IsVegetarian = vegetarian == 1
	if archived.Valid {
		t := archived.Time
		i.ArchivedAt = &t
	}
	return i, nil
}

func GetIngredient(db *sql.DB, id string) (model.Ingredient, error) {
	id = normalizeName(id)
	i, err := scanIngredient(db.QueryRow(`SELECT `+ingredientColumns+` FROM ingredients WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Ingredient{}, fmt.Errorf("ingredient %q: %w", id, ErrNotFound)
		}
		return model.Ingredient{}, fmt.Errorf("get ingredient %q: %w", id, err)
	}
	allergens, err := allergensByIngredient(db)
	if err != nil {
		return model.Ingredient{}, err
	}
	i.AllergenIDs = allergens[i.ID]
	return i, nil
}

func ListIngredients(db *sql.DB, f ListIngredientsFilter) ([]model.Ingredient, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultIngredientListLimit
	}
	where := make([]string, 0, 3)
	args := make([]any, 0, 4)
	if !f.IncludeArchived {
		where = append(where, "archived_at IS NULL")
	}
	if c := normalizeName(f.Category); c != "" {
		if !validCategories[model.IngredientCategory(c)] {
			return nil, fmt.Errorf("invalid category %q", c)
		}
		where = append(where, "category = ?")
		args = append(args, c)
	}
	if s := normalizeName(f.Search); s != "" {
		where = append(where, "name_norm LIKE ?")
		args = append(args, "%"+s+"%")
	}
	q := `SELECT ` + ingredientColumns + ` FROM ingredients`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY category ASC, name_norm ASC LIMIT ?"
	args = append(args, limit)
	return queryIngredients(db, q, args...)
}

// ActiveCatalog returns every non-archived ingredient with its allergens, in
// id order so seeded plans stay stable across runs.
func ActiveCatalog(db *sql.DB) ([]model.Ingredient, error) {
	return queryIngredients(db, `SELECT `+ingredientColumns+` FROM ingredients WHERE archived_at IS NULL ORDER BY id ASC`)
}

func queryIngredients(db *sql.DB, q string, args ...any) ([]model.Ingredient, error) {
	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	defer rows.Close()
	out := make([]model.Ingredient, 0)
	for rows.Next() {
		i, err := scanIngredient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ingredient: %w", err)
		}
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ingredients: %w", err)
	}
	rows.Close()

	allergens, err := allergensByIngredient(db)
	if err != nil {
		return nil, err
	}
	for k := range out {
		out[k].AllergenIDs = allergens[out[k].ID]
	}
	return out, nil
}

func allergensByIngredient(db *sql.DB) (map[string][]string, error) {
	rows, err := db.Query(`SELECT ingredient_id, allergen_id FROM ingredient_allergens ORDER BY ingredient_id, allergen_id`)
	if err != nil {
		return nil, fmt.Errorf("list ingredient allergens: %w", err)
	}
	defer rows.Close()
	out := map[string][]string{}
	for rows.Next() {
		var ing, a string
		if err := rows.Scan(&ing, &a); err != nil {
			return nil, fmt.Errorf("scan ingredient allergen: %w", err)
		}
		out[ing] = append(out[ing], a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ingredient allergens: %w", err)
	}
	return out, nil
}

// ArchiveIngredient hides an ingredient from new plans. Stored plans keep
// the name they were generated with.
func ArchiveIngredient(db *sql.DB, id string) error {
	res, err := db.Exec(`UPDATE ingredients SET archived_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND archived_at IS NULL`, normalizeName(id))
	if err != nil {
		return fmt.Errorf("archive ingredient: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("ingredient %q: %w", id, ErrNotFound)
	}
	return nil
}

// ImportIngredients writes items in one transaction. In fail mode any
// existing id aborts the whole import.
func ImportIngredients(db *sql.DB, items []model.Ingredient, mode ImportMode) (ImportReport, error) {
	switch mode {
	case "":
		mode = ImportModeFail
	case ImportModeFail, ImportModeSkip, ImportModeMerge:
	default:
		return ImportReport{}, fmt.Errorf("invalid import mode %q (use fail, skip or merge)", mode)
	}
	seen := make(map[string]struct{}, len(items))
	for _, i := range items {
		if err := ValidateIngredient(i); err != nil {
			return ImportReport{}, fmt.Errorf("ingredient %q: %w", i.Name, err)
		}
		if _, dup := seen[i.ID]; dup {
			return ImportReport{}, fmt.Errorf("duplicate ingredient id %q in import", i.ID)
		}
		seen[i.ID] = struct{}{}
		if err := requireAllergens(db, i.AllergenIDs); err != nil {
			return ImportReport{}, fmt.Errorf("ingredient %q: %w", i.Name, err)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return ImportReport{}, fmt.Errorf("begin import tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var rep ImportReport
	for _, i := range items {
		var one int
		err := tx.QueryRow(`SELECT 1 FROM ingredients WHERE id = ?`, i.ID).Scan(&one)
		exists := err == nil
		if err != nil && err != sql.ErrNoRows {
			return ImportReport{}, fmt.Errorf("check ingredient %q: %w", i.ID, err)
		}
		switch {
		case !exists:
			if err := insertIngredient(tx, i); err != nil {
				return ImportReport{}, err
			}
			rep.Inserted++
		case mode == ImportModeSkip:
			rep.Skipped++
		case mode == ImportModeMerge:
			if err := updateIngredient(tx, i); err != nil {
				return ImportReport{}, err
			}
			rep.Updated++
		default:
			return ImportReport{}, fmt.Errorf("ingredient %q already exists (use skip or merge mode)", i.ID)
		}
	}
	if err := tx.Commit(); err != nil {
		return ImportReport{}, fmt.Errorf("commit import: %w", err)
	}
	return rep, nil
}

// SeedCatalog loads the built-in ingredients, leaving existing rows alone.
func SeedCatalog(db *sql.DB) (ImportReport, error) {
	items, err := catalog.Seed()
	if err != nil {
		return ImportReport{}, err
	}
	return ImportIngredients(db, items, ImportModeSkip)
}

func ListAllergens(db *sql.DB) ([]model.Allergen, error) {
	rows, err := db.Query(`SELECT id, name FROM allergens ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list allergens: %w", err)
	}
	defer rows.Close()
	out := make([]model.Allergen, 0)
	for rows.Next() {
		var a model.Allergen
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, fmt.Errorf("scan allergen: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate allergens: %w", err)
	}
	return out, nil
}

func AddAllergen(db *sql.DB, id, name string) (model.Allergen, error) {
	id = catalog.Slug(id)
	name = strings.TrimSpace(name)
	if id == "" {
		return model.Allergen{}, fmt.Errorf("allergen id is required")
	}
	if name == "" {
		name = id
	}
	if _, err := db.Exec(`INSERT INTO allergens(id, name) VALUES(?, ?)`, id, name); err != nil {
		if strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "PRIMARY KEY") {
			return model.Allergen{}, fmt.Errorf("allergen %q already exists", id)
		}
		return model.Allergen{}, fmt.Errorf("add allergen: %w", err)
	}
	return model.Allergen{ID: id, Name: name}, nil
}

// CategoryCounts returns the number of active ingredients per category.
func CategoryCounts(db *sql.DB) (map[model.IngredientCategory]int, error) {
	items, err := ActiveCatalog(db)
	if err != nil {
		return nil, err
	}
	out := make(map[model.IngredientCategory]int, len(model.IngredientCategories))
	for _, i := range items {
		out[i.Category]++
	}
	return out, nil
}
