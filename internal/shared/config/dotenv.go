package config

import (
	"os"

	"github.com/joho/godotenv"

	"probate-backend/internal/shared/telemetry"
)

// loadEnvFiles applies KEY=VALUE pairs from whichever of paths exist.
// Variables already set in the process environment keep their values.
func loadEnvFiles(paths ...string) []string {
	var found []string
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			found = append(found, p)
		}
	}
	if len(found) == 0 {
		return nil
	}
	if err := godotenv.Load(found...); err != nil {
		telemetry.Warn("config.env_files.ignored", map[string]any{"files": found, "err": err})
		return nil
	}
	return found
}
