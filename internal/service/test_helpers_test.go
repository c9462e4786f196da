package service_test

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/saadjs/mealplan-cli/internal/db"
	"github.com/saadjs/mealplan-cli/internal/service"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mealplan.db")
	sqldb, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return sqldb
}

// newSeededTestDB returns a migrated database with the built-in catalog and
// a default male profile effective 2026-01-01.
func newSeededTestDB(t *testing.T) *sql.DB {
	t.Helper()
	sqldb := newTestDB(t)
	if _, err := service.SeedCatalog(sqldb); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	setTestProfile(t, sqldb, service.SetProfileInput{EffectiveDate: "2026-01-01"})
	return sqldb
}

// setTestProfile fills unset fields with a 30 year old, 80 kg, 180 cm,
// moderately active male eating three meals.
func setTestProfile(t *testing.T, sqldb *sql.DB, in service.SetProfileInput) int64 {
	t.Helper()
	if in.Age == 0 {
		in.Age = 30
	}
	if in.Sex == "" {
		in.Sex = "male"
	}
	if in.Weight == 0 {
		in.Weight = 80
	}
	if in.Height == 0 {
		in.Height = 180
	}
	if in.ActivityLevel == "" {
		in.ActivityLevel = "moderate"
	}
	if in.MealsPerDay == 0 {
		in.MealsPerDay = 3
	}
	id, err := service.SetProfile(sqldb, in)
	if err != nil {
		t.Fatalf("set profile: %v", err)
	}
	return id
}

func int64Ptr(v int64) *int64 { return &v }

func floatPtr(v float64) *float64 { return &v }
