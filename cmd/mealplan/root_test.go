package mealplan

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/saadjs/mealplan-cli/internal/service"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func mustRunCLI(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCLI(t, args...)
	if err != nil {
		t.Fatalf("mealplan %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestRootHelp(t *testing.T) {
	out := mustRunCLI(t, "--help")
	if !strings.Contains(out, "plan") || !strings.Contains(out, "profile") {
		t.Fatalf("expected help to list commands, got %s", out)
	}
}

func TestVersionCommand(t *testing.T) {
	out := mustRunCLI(t, "version")
	if !strings.HasPrefix(out, "mealplan ") || !strings.Contains(out, "go: ") {
		t.Fatalf("unexpected version output %q", out)
	}
}

func TestInitCommandIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mealplan.db")
	first := mustRunCLI(t, "--db", path, "init")
	if !strings.Contains(first, "Catalog: ") || strings.Contains(first, "Catalog: 0 added") {
		t.Fatalf("expected seeded catalog, got %s", first)
	}
	second := mustRunCLI(t, "--db", path, "init")
	if !strings.Contains(second, "Catalog: 0 added") {
		t.Fatalf("expected no new ingredients on re-init, got %s", second)
	}
}

func TestPlanWorkflow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mealplan.db")
	mustRunCLI(t, "--db", path, "init")
	mustRunCLI(t, "--db", path, "profile", "set",
		"--age", "30", "--sex", "male", "--weight", "80", "--height", "180",
		"--activity", "moderate", "--meals", "4", "--allergen", "fish,crustaceans", "--date", "2026-01-01")

	targets := mustRunCLI(t, "--db", path, "targets", "--date", "2026-03-05")
	if !strings.Contains(targets, "BMR: 1780 kcal") || !strings.Contains(targets, "Target: 2759 kcal") {
		t.Fatalf("unexpected targets output:\n%s", targets)
	}

	out := mustRunCLI(t, "--db", path, "plan", "generate", "--week", "2026-03-05", "--profile-date", "2026-03-05", "--seed", "12", "--format", "json")
	var generated service.PlanExport
	if err := json.Unmarshal([]byte(out), &generated); err != nil {
		t.Fatalf("decode generated plan: %v\n%s", err, out)
	}
	if generated.WeekStart != "2026-03-02" || generated.Seed != 12 || len(generated.Days) != 7 {
		t.Fatalf("unexpected generated plan header: %+v", generated)
	}
	excluded := map[string]bool{"salmon-fillet": true, "tuna-canned": true, "white-fish": true, "shrimp": true}
	for _, d := range generated.Days {
		if len(d.Meals) != 4 {
			t.Fatalf("expected 4 meals on %s, got %d", d.Day, len(d.Meals))
		}
		for _, m := range d.Meals {
			for _, it := range m.Items {
				if excluded[it.IngredientID] {
					t.Fatalf("allergen ingredient %s in plan", it.IngredientID)
				}
			}
		}
	}

	text := mustRunCLI(t, "--db", path, "plan", "show", generated.ID[:8])
	if !strings.Contains(text, "Plan "+generated.ID) || !strings.Contains(text, "Monday 2026-03-02") {
		t.Fatalf("unexpected plan text:\n%s", text)
	}

	regen := mustRunCLI(t, "--db", path, "plan", "regenerate-meal", generated.ID, "--day", "tue", "--meal", "2", "--seed", "5")
	if !strings.HasPrefix(regen, "Regenerated Tuesday lunch") {
		t.Fatalf("unexpected regenerate output:\n%s", regen)
	}

	yamlOut := mustRunCLI(t, "--db", path, "plan", "export", "latest", "--format", "yaml")
	var exported service.PlanExport
	if err := yaml.Unmarshal([]byte(yamlOut), &exported); err != nil {
		t.Fatalf("decode yaml export: %v", err)
	}
	if exported.ID != generated.ID {
		t.Fatalf("expected latest plan %s, got %s", generated.ID, exported.ID)
	}

	list := mustRunCLI(t, "--db", path, "plan", "list")
	if !strings.Contains(list, generated.ID) {
		t.Fatalf("plan list missing %s:\n%s", generated.ID, list)
	}

	doctor := mustRunCLI(t, "--db", path, "doctor")
	if !strings.Contains(doctor, "Meals with stale totals: 0") {
		t.Fatalf("unexpected doctor output:\n%s", doctor)
	}

	mustRunCLI(t, "--db", path, "plan", "delete", generated.ID)
	if _, err := runCLI(t, "--db", path, "plan", "show", generated.ID); err == nil {
		t.Fatalf("expected error showing deleted plan")
	}
}

func TestPlanGenerateWithoutProfileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mealplan.db")
	mustRunCLI(t, "--db", path, "init")
	_, err := runCLI(t, "--db", path, "plan", "generate", "--seed", "1")
	if err == nil || !strings.Contains(err.Error(), "no profile") {
		t.Fatalf("expected missing profile error, got %v", err)
	}
}

func TestConfigCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mealplan.db")
	mustRunCLI(t, "--db", path, "config", "set", "rng_seed", "31")
	out := mustRunCLI(t, "--db", path, "config", "get", "rng_seed")
	if strings.TrimSpace(out) != "31" {
		t.Fatalf("unexpected config value %q", out)
	}
	if _, err := runCLI(t, "--db", path, "config", "set", "nope", "1"); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestIngredientCommands(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mealplan.db")
	mustRunCLI(t, "--db", path, "init", "--no-seed")
	mustRunCLI(t, "--db", path, "ingredient", "add", "--name", "Kale", "--category", "vegetable", "--kcal", "49", "--protein", "4.3", "--vegan")
	out := mustRunCLI(t, "--db", path, "ingredient", "list", "--category", "vegetable")
	if !strings.Contains(out, "kale\tKale\tvegetable\t49") {
		t.Fatalf("unexpected ingredient list:\n%s", out)
	}
	exportPath := filepath.Join(dir, "catalog.yaml")
	mustRunCLI(t, "--db", path, "ingredient", "export", "--out", exportPath)

	other := filepath.Join(dir, "other.db")
	mustRunCLI(t, "--db", other, "init", "--no-seed")
	imported := mustRunCLI(t, "--db", other, "ingredient", "import", exportPath)
	if !strings.Contains(imported, "Imported: 1 added") {
		t.Fatalf("unexpected import output: %s", imported)
	}
	mustRunCLI(t, "--db", other, "ingredient", "archive", "kale")
	show := mustRunCLI(t, "--db", other, "ingredient", "show", "kale")
	if !strings.Contains(show, "Archived: ") {
		t.Fatalf("expected archived ingredient, got:\n%s", show)
	}
}

func TestBackupCommands(t *testing.T) {
	t.Cleanup(func() { backupOut, backupDir, restoreForce = "", "", false })
	dir := t.TempDir()
	path := filepath.Join(dir, "mealplan.db")
	mustRunCLI(t, "--db", path, "init")
	mustRunCLI(t, "--db", path, "profile", "set",
		"--age", "30", "--sex", "female", "--weight", "62", "--height", "168", "--activity", "light", "--date", "2026-01-01")
	mustRunCLI(t, "--db", path, "plan", "generate", "--week", "2026-03-02", "--profile-date", "2026-03-02", "--seed", "5")

	snap := filepath.Join(dir, "snaps", "week10.db")
	out := mustRunCLI(t, "--db", path, "backup", "create", "--out", snap)
	if !strings.Contains(out, "Plans: 1  Profiles: 1") || !strings.Contains(out, "SHA-256: ") {
		t.Fatalf("unexpected create output:\n%s", out)
	}
	backupOut = ""
	inspect := mustRunCLI(t, "backup", "inspect", snap)
	if !strings.Contains(inspect, "File: "+snap) {
		t.Fatalf("unexpected inspect output:\n%s", inspect)
	}
	list := mustRunCLI(t, "--db", path, "backup", "list", "--dir", filepath.Dir(snap))
	if !strings.Contains(list, snap) || !strings.HasSuffix(strings.TrimSpace(list), "ok") {
		t.Fatalf("unexpected list output:\n%s", list)
	}
	backupDir = ""

	if _, err := runCLI(t, "--db", path, "backup", "restore", snap); err == nil {
		t.Fatalf("expected restore over an existing database to require --force")
	}
	mustRunCLI(t, "--db", path, "plan", "delete", "latest")
	mustRunCLI(t, "--db", path, "backup", "restore", snap, "--force")
	restoreForce = false
	if shown := mustRunCLI(t, "--db", path, "plan", "list"); !strings.Contains(shown, "2026-03-02") {
		t.Fatalf("expected restored plan in list:\n%s", shown)
	}

	foreign := filepath.Join(dir, "empty.db")
	if err := os.WriteFile(foreign, nil, 0o644); err != nil {
		t.Fatalf("write empty file: %v", err)
	}
	if _, err := runCLI(t, "--db", path, "backup", "restore", foreign, "--force"); err == nil || !strings.Contains(err.Error(), "not a mealplan database") {
		t.Fatalf("expected non-plan database to be rejected, got %v", err)
	}
	restoreForce = false
}

func TestInvalidLogLevel(t *testing.T) {
	t.Cleanup(func() { logLevel = "warn" })
	_, err := runCLI(t, "--log-level", "loud", "version")
	if err == nil || !strings.Contains(err.Error(), "invalid log level") {
		t.Fatalf("expected invalid log level error, got %v", err)
	}
}
