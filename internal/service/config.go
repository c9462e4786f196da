package service

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

const (
	ConfigDefaultMealsPerDay = "default_meals_per_day"
	ConfigRNGSeed            = "rng_seed"
	ConfigOFFBaseURL         = "off_base_url"
)

var knownConfigKeys = map[string]func(string) error{
	ConfigDefaultMealsPerDay: func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n < 2 || n > 6 {
			return fmt.Errorf("%s must be an integer between 2 and 6", ConfigDefaultMealsPerDay)
		}
		return nil
	},
	ConfigRNGSeed: func(v string) error {
		if v == "" {
			return nil
		}
		if _, err := strconv.ParseInt(v, 10, 64); err != nil {
			return fmt.Errorf("%s must be an integer or empty", ConfigRNGSeed)
		}
		return nil
	},
	ConfigOFFBaseURL: func(v string) error {
		if v != "" && !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
			return fmt.Errorf("%s must be an http(s) URL", ConfigOFFBaseURL)
		}
		return nil
	},
}

func SetConfig(db *sql.DB, key, value string) error {
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		return fmt.Errorf("config key is required")
	}
	value = strings.TrimSpace(value)
	validate, ok := knownConfigKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key %q", key)
	}
	if err := validate(value); err != nil {
		return err
	}
	_, err := db.Exec(`
INSERT INTO app_config(key, value, updated_at)
VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
`, key, value)
	if err != nil {
		return fmt.Errorf("set config %q: %w", key, err)
	}
	return nil
}

func GetConfig(db *sql.DB, key string) (string, bool, error) {
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		return "", false, fmt.Errorf("config key is required")
	}
	var value string
	err := db.QueryRow(`SELECT value FROM app_config WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get config %q: %w", key, err)
	}
	return value, true, nil
}

func ListConfig(db *sql.DB) (map[string]string, error) {
	rows, err := db.Query(`SELECT key, value FROM app_config ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("list config: %w", err)
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan config: %w", err)
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate config: %w", err)
	}
	return out, nil
}

// configInt64 returns the stored integer for key, or ok=false when unset or
// empty.
func configInt64(db *sql.DB, key string) (int64, bool, error) {
	raw, found, err := GetConfig(db, key)
	if err != nil || !found || strings.TrimSpace(raw) == "" {
		return 0, false, err
	}
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("config %s: invalid integer %q", key, raw)
	}
	return v, true, nil
}
