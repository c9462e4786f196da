package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvAppEnv     = "MEALPLAN_ENV"
	EnvDBPath     = "MEALPLAN_DB"
	EnvLogMode    = "MEALPLAN_LOG_MODE"
	EnvLogLevel   = "MEALPLAN_LOG_LEVEL"
	EnvSeed       = "MEALPLAN_SEED"
	EnvOFFBaseURL = "MEALPLAN_OFF_BASE_URL"

	EnvUSDAAPIKey  = "MEALPLAN_USDA_API_KEY"
	EnvUSDABaseURL = "MEALPLAN_USDA_BASE_URL"
)

// LoadDotEnv reads .env files outside production. Missing files are fine;
// variables already set in the environment win.
func LoadDotEnv(files ...string) error {
	if strings.EqualFold(strings.TrimSpace(os.Getenv(EnvAppEnv)), "production") {
		return nil
	}
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func String(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}

// Int64 returns def when name is unset; malformed values are an error.
func Int64(name string, def int64) (int64, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def, nil
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, v)
	}
	return i, nil
}
