package service

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/saadjs/mealplan-cli/internal/model"
)

type ExportFormat string

const (
	ExportJSON ExportFormat = "json"
	ExportYAML ExportFormat = "yaml"
)

var weekdayNames = [...]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// DayName maps a day index (0 = Monday) to its lowercase name.
func DayName(day int) string {
	if day < 0 || day >= len(weekdayNames) {
		return fmt.Sprintf("day-%d", day)
	}
	return weekdayNames[day]
}

// ParseDay accepts a day index 0-6 or a weekday name or its three-letter
// prefix.
func ParseDay(value string) (int, error) {
	v := normalizeName(value)
	if len(v) == 1 && v[0] >= '0' && v[0] <= '6' {
		return int(v[0] - '0'), nil
	}
	if len(v) >= 3 {
		for i, name := range weekdayNames {
			if strings.HasPrefix(name, v) {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("invalid day %q (use 0-6 or monday..sunday)", value)
}

type ExportItem struct {
	IngredientID   string  `json:"ingredient_id" yaml:"ingredient_id"`
	IngredientName string  `json:"ingredient_name" yaml:"ingredient_name"`
	Grams          int     `json:"grams" yaml:"grams"`
	Kcal           int     `json:"kcal" yaml:"kcal"`
	ProteinG       float64 `json:"protein_g" yaml:"protein_g"`
	CarbsG         float64 `json:"carbs_g" yaml:"carbs_g"`
	FatG           float64 `json:"fat_g" yaml:"fat_g"`
}

type ExportTotals struct {
	Kcal     int     `json:"kcal" yaml:"kcal"`
	ProteinG float64 `json:"protein_g" yaml:"protein_g"`
	CarbsG   float64 `json:"carbs_g" yaml:"carbs_g"`
	FatG     float64 `json:"fat_g" yaml:"fat_g"`
}

type ExportMeal struct {
	MealType string       `json:"meal_type" yaml:"meal_type"`
	Items    []ExportItem `json:"items" yaml:"items"`
	Totals   ExportTotals `json:"totals" yaml:"totals"`
}

type ExportDay struct {
	DayOfWeek int          `json:"day_of_week" yaml:"day_of_week"`
	Day       string       `json:"day" yaml:"day"`
	Date      string       `json:"date" yaml:"date"`
	Meals     []ExportMeal `json:"meals" yaml:"meals"`
	Totals    ExportTotals `json:"totals" yaml:"totals"`
}

type ExportTargets struct {
	Kcal     int `json:"kcal" yaml:"kcal"`
	ProteinG int `json:"protein_g" yaml:"protein_g"`
	CarbsG   int `json:"carbs_g" yaml:"carbs_g"`
	FatG     int `json:"fat_g" yaml:"fat_g"`
}

type PlanExport struct {
	ID          string        `json:"id" yaml:"id"`
	WeekStart   string        `json:"week_start" yaml:"week_start"`
	Seed        int64         `json:"seed" yaml:"seed"`
	GeneratedAt string        `json:"generated_at" yaml:"generated_at"`
	Targets     ExportTargets `json:"targets" yaml:"targets"`
	Days        []ExportDay   `json:"days" yaml:"days"`
}

func NewPlanExport(sp *model.StoredPlan) PlanExport {
	w := sp.Plan
	out := PlanExport{
		ID:          sp.ID,
		WeekStart:   w.WeekStart.Format(dateLayout),
		Seed:        sp.Seed,
		GeneratedAt: sp.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z"),
		Targets: ExportTargets{
			Kcal:     w.TargetKcal,
			ProteinG: w.TargetProteinG,
			CarbsG:   w.TargetCarbsG,
			FatG:     w.TargetFatG,
		},
		Days: make([]ExportDay, 0, len(w.Days)),
	}
	for _, d := range w.Days {
		day := ExportDay{
			DayOfWeek: d.DayOfWeek,
			Day:       DayName(d.DayOfWeek),
			Date:      w.WeekStart.AddDate(0, 0, d.DayOfWeek).Format(dateLayout),
			Meals:     make([]ExportMeal, 0, len(d.Meals)),
			Totals:    ExportTotals{Kcal: d.TotalKcal, ProteinG: d.TotalProteinG, CarbsG: d.TotalCarbsG, FatG: d.TotalFatG},
		}
		for _, m := range d.Meals {
			meal := ExportMeal{
				MealType: string(m.MealType),
				Items:    make([]ExportItem, 0, len(m.Items)),
				Totals:   ExportTotals{Kcal: m.TotalKcal, ProteinG: m.TotalProteinG, CarbsG: m.TotalCarbsG, FatG: m.TotalFatG},
			}
			for _, it := range m.Items {
				meal.Items = append(meal.Items, ExportItem(it))
			}
			day.Meals = append(day.Meals, meal)
		}
		out.Days = append(out.Days, day)
	}
	return out
}

func WritePlanExport(w io.Writer, sp *model.StoredPlan, format ExportFormat) error {
	doc := NewPlanExport(sp)
	switch ExportFormat(normalizeName(string(format))) {
	case ExportJSON, "":
		b, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("encode plan json: %w", err)
		}
		if _, err := fmt.Fprintln(w, string(b)); err != nil {
			return err
		}
		return nil
	case ExportYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode plan yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("invalid export format %q (use json or yaml)", format)
	}
}
