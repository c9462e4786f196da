package service_test

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/saadjs/mealplan-cli/internal/db"
	"github.com/saadjs/mealplan-cli/internal/service"
)

// newPlanDBAt builds a seeded database with a profile and one plan at path.
func newPlanDBAt(t *testing.T, path string) *sql.DB {
	t.Helper()
	sqldb, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := service.SeedCatalog(sqldb); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	setTestProfile(t, sqldb, service.SetProfileInput{EffectiveDate: "2026-01-01"})
	if _, err := service.GeneratePlan(sqldb, nil, service.GeneratePlanInput{WeekStart: "2026-03-02", Seed: int64Ptr(3)}); err != nil {
		t.Fatalf("generate plan: %v", err)
	}
	return sqldb
}

func countPlans(t *testing.T, path string) int {
	t.Helper()
	sqldb, err := db.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer sqldb.Close()
	var n int
	if err := sqldb.QueryRow(`SELECT COUNT(1) FROM plans`).Scan(&n); err != nil {
		t.Fatalf("count plans: %v", err)
	}
	return n
}

func TestBackupSnapshotListAndRestore(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "mealplan.db")
	sqldb := newPlanDBAt(t, dbPath)
	defer sqldb.Close()

	info, err := service.CreateBackup(sqldb, dbPath, "")
	if err != nil {
		t.Fatalf("create backup: %v", err)
	}
	if filepath.Dir(info.Path) != filepath.Join(dir, "backups") || filepath.Ext(info.Path) != ".db" {
		t.Fatalf("unexpected backup path %s", info.Path)
	}
	if info.SchemaVersion != db.LatestVersion() || info.Plans != 1 || info.Profiles != 1 || info.Ingredients == 0 {
		t.Fatalf("unexpected backup contents: %+v", info)
	}
	sidecar, err := os.ReadFile(info.Path + ".sha256")
	if err != nil {
		t.Fatalf("read checksum file: %v", err)
	}
	if want := info.Checksum + "  " + filepath.Base(info.Path) + "\n"; string(sidecar) != want {
		t.Fatalf("checksum file %q, expected %q", sidecar, want)
	}
	if _, err := service.CreateBackup(sqldb, dbPath, info.Path); err == nil {
		t.Fatalf("expected refusal to overwrite an existing backup")
	}

	list, err := service.ListBackups(filepath.Join(dir, "backups"))
	if err != nil {
		t.Fatalf("list backups: %v", err)
	}
	if len(list) != 1 || list[0].Checksum != info.Checksum || list[0].Plans != 1 || list[0].Problem != "" {
		t.Fatalf("unexpected list: %+v", list)
	}

	if _, err := service.RestoreBackup(info.Path, dbPath, false); err == nil {
		t.Fatalf("expected refusal to overwrite without force")
	}
	target := filepath.Join(dir, "restored", "mealplan.db")
	restored, err := service.RestoreBackup(info.Path, target, false)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.Plans != 1 || countPlans(t, target) != 1 {
		t.Fatalf("expected restored database with one plan, got %+v", restored)
	}
	if _, err := os.Stat(target + ".restoring"); !os.IsNotExist(err) {
		t.Fatalf("staging file left behind: %v", err)
	}
}

func TestRestoreRejectsForeignDatabase(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "mealplan.db")
	live := newPlanDBAt(t, dbPath)
	live.Close()

	foreignPath := filepath.Join(dir, "kcal.db")
	foreign, err := db.Open(foreignPath)
	if err != nil {
		t.Fatalf("open foreign db: %v", err)
	}
	_, err = foreign.Exec(`
CREATE TABLE schema_migrations (version INTEGER PRIMARY KEY, name TEXT NOT NULL);
CREATE TABLE entries (id INTEGER PRIMARY KEY, calories INTEGER NOT NULL);
INSERT INTO schema_migrations(version, name) VALUES (1, 'entries');
`)
	foreign.Close()
	if err != nil {
		t.Fatalf("create foreign schema: %v", err)
	}

	_, err = service.RestoreBackup(foreignPath, dbPath, true)
	if err == nil || !strings.Contains(err.Error(), "not a mealplan database") || !strings.Contains(err.Error(), "plan_items") {
		t.Fatalf("expected foreign database to be rejected, got %v", err)
	}
	if countPlans(t, dbPath) != 1 {
		t.Fatalf("live database changed after rejected restore")
	}
}

func TestRestoreRejectsChecksumMismatch(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "mealplan.db")
	sqldb := newPlanDBAt(t, dbPath)
	defer sqldb.Close()

	info, err := service.CreateBackup(sqldb, dbPath, filepath.Join(dir, "snap.db"))
	if err != nil {
		t.Fatalf("create backup: %v", err)
	}
	bad := strings.Repeat("0", 64) + "  snap.db\n"
	if err := os.WriteFile(info.Path+".sha256", []byte(bad), 0o644); err != nil {
		t.Fatalf("rewrite checksum: %v", err)
	}
	if _, err := service.RestoreBackup(info.Path, filepath.Join(dir, "other.db"), false); err == nil || !strings.Contains(err.Error(), "checksum") {
		t.Fatalf("expected checksum error, got %v", err)
	}
}

func TestListBackupsReportsUnreadableFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "junk.db"), []byte("not sqlite at all, just text padding the header"), 0o644); err != nil {
		t.Fatalf("write junk: %v", err)
	}
	list, err := service.ListBackups(dir)
	if err != nil {
		t.Fatalf("list backups: %v", err)
	}
	if len(list) != 1 || list[0].Problem == "" || list[0].SizeBytes == 0 {
		t.Fatalf("expected junk file listed with a problem, got %+v", list)
	}
}

func TestListBackupsMissingDir(t *testing.T) {
	t.Parallel()
	list, err := service.ListBackups(filepath.Join(t.TempDir(), "nope"))
	if err != nil || len(list) != 0 {
		t.Fatalf("expected empty list, got %v %v", list, err)
	}
}

func TestDefaultBackupPath(t *testing.T) {
	t.Parallel()
	at := time.Date(2026, 3, 2, 9, 5, 7, 0, time.UTC)
	got := service.DefaultBackupPath("/data/mealplan.db", at)
	if got != filepath.Join("/data", "backups", "mealplan-20260302-090507.db") {
		t.Fatalf("unexpected path %s", got)
	}
}
