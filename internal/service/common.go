package service

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var ErrNotFound = errors.New("not found")

func validateNonNegativeFloat(name string, value float64) error {
	if value < 0 {
		return fmt.Errorf("%s must be >= 0", name)
	}
	return nil
}

func normalizeName(name string) string {
	return strings.TrimSpace(strings.ToLower(name))
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// resolveDate defaults an empty value to today and validates YYYY-MM-DD.
func resolveDate(label, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Now().Format(dateLayout), nil
	}
	if _, err := time.Parse(dateLayout, value); err != nil {
		return "", fmt.Errorf("invalid %s %q (expected YYYY-MM-DD)", label, value)
	}
	return value, nil
}

// MondayOf returns midnight UTC of the Monday in t's week.
func MondayOf(t time.Time) time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	weekday := int(d.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return d.AddDate(0, 0, -(weekday - 1))
}

func allergenExists(db *sql.DB, id string) (bool, error) {
	var one int
	err := db.QueryRow(`SELECT 1 FROM allergens WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup allergen %q: %w", id, err)
	}
	return true, nil
}

func requireAllergens(db *sql.DB, ids []string) error {
	for _, id := range ids {
		ok, err := allergenExists(db, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("allergen %q does not exist", id)
		}
	}
	return nil
}

func normalizeIDs(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = normalizeName(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func round1(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
