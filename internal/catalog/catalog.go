// Package catalog reads ingredient catalogs from yaml or json documents,
// including the built-in seed catalog.
package catalog

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/saadjs/mealplan-cli/internal/model"
)

//go:embed seed.yaml
var seedFS embed.FS

// Document is the on-disk catalog layout. JSON documents use the same keys.
type Document struct {
	Version     int     `yaml:"version" json:"version"`
	Ingredients []Entry `yaml:"ingredients" json:"ingredients"`
}

type Entry struct {
	ID             string   `yaml:"id" json:"id"`
	Name           string   `yaml:"name" json:"name"`
	Category       string   `yaml:"category" json:"category"`
	KcalPer100g    float64  `yaml:"kcal_per_100g" json:"kcal_per_100g"`
	ProteinPer100g float64  `yaml:"protein_per_100g" json:"protein_per_100g"`
	CarbsPer100g   float64  `yaml:"carbs_per_100g" json:"carbs_per_100g"`
	FatPer100g     float64  `yaml:"fat_per_100g" json:"fat_per_100g"`
	FiberPer100g   float64  `yaml:"fiber_per_100g" json:"fiber_per_100g"`
	Vegan          bool     `yaml:"vegan" json:"vegan"`
	Vegetarian     bool     `yaml:"vegetarian" json:"vegetarian"`
	Allergens      []string `yaml:"allergens,omitempty" json:"allergens,omitempty"`
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slug derives a stable ingredient id from a display name.
func Slug(name string) string {
	return strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-"), "-")
}

// Seed returns the built-in catalog.
func Seed() ([]model.Ingredient, error) {
	raw, err := seedFS.ReadFile("seed.yaml")
	if err != nil {
		return nil, fmt.Errorf("read seed catalog: %w", err)
	}
	items, err := Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode seed catalog: %w", err)
	}
	for i := range items {
		items[i].Source = "seed"
	}
	return items, nil
}

// Decode parses a yaml or json catalog document. Unknown keys are rejected
// so typos such as "protien_per_100g" do not silently become zero.
func Decode(r io.Reader) ([]model.Ingredient, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("catalog document is empty")
		}
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	out := make([]model.Ingredient, 0, len(doc.Ingredients))
	for i, e := range doc.Ingredients {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, fmt.Errorf("ingredient %d: name is required", i+1)
		}
		id := strings.TrimSpace(e.ID)
		if id == "" {
			id = Slug(name)
		}
		out = append(out, model.Ingredient{
			ID:             id,
			Name:           name,
			Category:       model.IngredientCategory(strings.ToLower(strings.TrimSpace(e.Category))),
			KcalPer100g:    e.KcalPer100g,
			ProteinPer100g: e.ProteinPer100g,
			CarbsPer100g:   e.CarbsPer100g,
			FatPer100g:     e.FatPer100g,
			FiberPer100g:   e.FiberPer100g,
			IsVegan:        e.Vegan,
			IsVegetarian:   e.Vegetarian || e.Vegan,
			AllergenIDs:    normalizeAllergens(e.Allergens),
			Source:         "import",
		})
	}
	return out, nil
}

// Encode writes ingredients as a yaml catalog document.
func Encode(w io.Writer, items []model.Ingredient) error {
	doc := Document{Version: 1, Ingredients: make([]Entry, 0, len(items))}
	for _, i := range items {
		doc.Ingredients = append(doc.Ingredients, Entry{
			ID:             i.ID,
			Name:           i.Name,
			Category:       string(i.Category),
			KcalPer100g:    i.KcalPer100g,
			ProteinPer100g: i.ProteinPer100g,
			CarbsPer100g:   i.CarbsPer100g,
			FatPer100g:     i.FatPer100g,
			FiberPer100g:   i.FiberPer100g,
			Vegan:          i.IsVegan,
			Vegetarian:     i.IsVegetarian,
			Allergens:      i.AllergenIDs,
		})
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return enc.Close()
}

func normalizeAllergens(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, a := range in {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
