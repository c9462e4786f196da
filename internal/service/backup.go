package service

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/saadjs/mealplan-cli/internal/db"
)

const (
	backupSuffix   = ".db"
	checksumSuffix = ".sha256"
)

// backupTables must all exist for a file to count as a plan database.
var backupTables = []string{"schema_migrations", "ingredients", "profiles", "plans", "plan_meals", "plan_items"}

// BackupInfo describes a snapshot file and what it holds. Problem is set by
// ListBackups for files that fail inspection.
type BackupInfo struct {
	Path          string    `json:"path"`
	Checksum      string    `json:"checksum,omitempty"`
	ModifiedAt    time.Time `json:"modified_at"`
	SizeBytes     int64     `json:"size_bytes"`
	SchemaVersion int       `json:"schema_version"`
	Plans         int       `json:"plans"`
	Profiles      int       `json:"profiles"`
	Ingredients   int       `json:"ingredients"`
	Problem       string    `json:"problem,omitempty"`
}

// DefaultBackupPath names a timestamped snapshot in a backups directory next
// to the database.
func DefaultBackupPath(dbPath string, now time.Time) string {
	return filepath.Join(filepath.Dir(dbPath), "backups", "mealplan-"+now.UTC().Format("20060102-150405")+backupSuffix)
}

// CreateBackup writes a consistent snapshot of the open database with
// VACUUM INTO, then records a sha256sum-style checksum next to it.
func CreateBackup(sqldb *sql.DB, dbPath, outPath string) (BackupInfo, error) {
	if strings.TrimSpace(outPath) == "" {
		if strings.TrimSpace(dbPath) == "" {
			return BackupInfo{}, fmt.Errorf("backup path is required")
		}
		outPath = DefaultBackupPath(dbPath, time.Now())
	}
	if _, err := os.Stat(outPath); err == nil {
		return BackupInfo{}, fmt.Errorf("backup %s already exists", outPath)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return BackupInfo{}, fmt.Errorf("create backup directory: %w", err)
	}
	if _, err := sqldb.Exec(`VACUUM INTO ?`, outPath); err != nil {
		return BackupInfo{}, fmt.Errorf("snapshot database: %w", err)
	}
	info, err := InspectBackup(outPath)
	if err != nil {
		_ = os.Remove(outPath)
		return BackupInfo{}, err
	}
	sum, err := fileSHA256(outPath)
	if err != nil {
		return BackupInfo{}, err
	}
	line := fmt.Sprintf("%s  %s\n", sum, filepath.Base(outPath))
	if err := os.WriteFile(outPath+checksumSuffix, []byte(line), 0o644); err != nil {
		return BackupInfo{}, fmt.Errorf("write checksum: %w", err)
	}
	info.Checksum = sum
	return info, nil
}

// InspectBackup opens a snapshot and reports its schema version and row
// counts. Files missing the plan tables, or written by a newer schema, are
// rejected.
func InspectBackup(path string) (BackupInfo, error) {
	st, err := os.Stat(path)
	if err != nil {
		return BackupInfo{}, fmt.Errorf("stat backup: %w", err)
	}
	if st.IsDir() {
		return BackupInfo{}, fmt.Errorf("backup %s is a directory", path)
	}
	sqldb, err := db.Open(path)
	if err != nil {
		return BackupInfo{}, fmt.Errorf("open backup %s: %w", path, err)
	}
	defer sqldb.Close()

	if err := requireBackupTables(sqldb, path); err != nil {
		return BackupInfo{}, err
	}
	info := BackupInfo{Path: path, ModifiedAt: st.ModTime(), SizeBytes: st.Size()}
	if err := sqldb.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&info.SchemaVersion); err != nil {
		return BackupInfo{}, fmt.Errorf("read backup schema version: %w", err)
	}
	if info.SchemaVersion > db.LatestVersion() {
		return BackupInfo{}, fmt.Errorf("backup %s has schema version %d, newer than supported %d", path, info.SchemaVersion, db.LatestVersion())
	}
	err = sqldb.QueryRow(`
SELECT
  (SELECT COUNT(1) FROM plans),
  (SELECT COUNT(1) FROM profiles),
  (SELECT COUNT(1) FROM ingredients WHERE archived_at IS NULL)
`).Scan(&info.Plans, &info.Profiles, &info.Ingredients)
	if err != nil {
		return BackupInfo{}, fmt.Errorf("count backup rows: %w", err)
	}
	return info, nil
}

func requireBackupTables(sqldb *sql.DB, path string) error {
	missing := make([]string, 0)
	for _, table := range backupTables {
		var n int
		if err := sqldb.QueryRow(`SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n); err != nil {
			return fmt.Errorf("inspect backup %s: %w", path, err)
		}
		if n == 0 {
			missing = append(missing, table)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s is not a mealplan database (missing %s)", path, strings.Join(missing, ", "))
	}
	return nil
}

// RestoreBackup checks the snapshot's checksum and schema, then rebuilds it
// next to dbPath and renames it into place. An existing database needs force.
func RestoreBackup(backupPath, dbPath string, force bool) (BackupInfo, error) {
	if strings.TrimSpace(backupPath) == "" || strings.TrimSpace(dbPath) == "" {
		return BackupInfo{}, fmt.Errorf("backup path and db path are required")
	}
	if _, err := os.Stat(dbPath); err == nil && !force {
		return BackupInfo{}, fmt.Errorf("database %s already exists; use --force to overwrite", dbPath)
	}
	if err := verifyChecksum(backupPath); err != nil {
		return BackupInfo{}, err
	}
	info, err := InspectBackup(backupPath)
	if err != nil {
		return BackupInfo{}, err
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return BackupInfo{}, fmt.Errorf("create db directory: %w", err)
	}
	staging := dbPath + ".restoring"
	if err := os.Remove(staging); err != nil && !errors.Is(err, os.ErrNotExist) {
		return BackupInfo{}, fmt.Errorf("clear staging file: %w", err)
	}
	src, err := db.Open(backupPath)
	if err != nil {
		return BackupInfo{}, fmt.Errorf("open backup %s: %w", backupPath, err)
	}
	_, err = src.Exec(`VACUUM INTO ?`, staging)
	src.Close()
	if err != nil {
		_ = os.Remove(staging)
		return BackupInfo{}, fmt.Errorf("stage restore: %w", err)
	}
	// A leftover journal would be replayed against the restored file.
	for _, suffix := range []string{"-journal", "-wal", "-shm"} {
		if err := os.Remove(dbPath + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			_ = os.Remove(staging)
			return BackupInfo{}, fmt.Errorf("remove %s%s: %w", dbPath, suffix, err)
		}
	}
	if err := os.Rename(staging, dbPath); err != nil {
		_ = os.Remove(staging)
		return BackupInfo{}, fmt.Errorf("replace database: %w", err)
	}
	return info, nil
}

// ListBackups inspects every snapshot in dir, most recently modified first.
// Unreadable files are listed with Problem set.
func ListBackups(dir string) ([]BackupInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []BackupInfo{}, nil
		}
		return nil, fmt.Errorf("read backup dir: %w", err)
	}
	out := make([]BackupInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != backupSuffix {
			continue
		}
		path := filepath.Join(dir, e.Name())
		info, err := InspectBackup(path)
		if err != nil {
			info = BackupInfo{Path: path, Problem: err.Error()}
			if fi, statErr := e.Info(); statErr == nil {
				info.ModifiedAt, info.SizeBytes = fi.ModTime(), fi.Size()
			}
		}
		if sum, ok, err := readChecksum(path); err == nil && ok {
			info.Checksum = sum
		}
		out = append(out, info)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ModifiedAt.Equal(out[j].ModifiedAt) {
			return out[i].ModifiedAt.After(out[j].ModifiedAt)
		}
		return out[i].Path > out[j].Path
	})
	return out, nil
}

// verifyChecksum compares against the sidecar file when one exists.
func verifyChecksum(path string) error {
	want, ok, err := readChecksum(path)
	if err != nil || !ok {
		return err
	}
	got, err := fileSHA256(path)
	if err != nil {
		return err
	}
	if want != got {
		return fmt.Errorf("backup checksum mismatch for %s", path)
	}
	return nil
}

// readChecksum parses "<hex>  <name>" as written by CreateBackup and
// sha256sum.
func readChecksum(path string) (string, bool, error) {
	b, err := os.ReadFile(path + checksumSuffix)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read checksum: %w", err)
	}
	fields := strings.Fields(string(b))
	if len(fields) == 0 {
		return "", false, fmt.Errorf("checksum file for %s is empty", path)
	}
	return strings.ToLower(fields[0]), true, nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("checksum %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
