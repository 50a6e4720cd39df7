package config

import (
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/docsync/internal/logfields"
)

var envFileNames = []string{".env", ".env.local"}

// loadEnvFile loads the first readable .env or .env.local, looking next to the
// configuration file before the working directory. Variables already set in
// the process environment win.
func loadEnvFile(configDir string) error {
	dirs := []string{configDir}
	if filepath.Clean(configDir) != "." {
		dirs = append(dirs, ".")
	}
	for _, dir := range dirs {
		for _, name := range envFileNames {
			path := filepath.Join(dir, name)
			if err := godotenv.Load(path); err == nil {
				slog.Debug("Loaded environment variables", logfields.Path(path))
				return nil
			}
		}
	}
	return errors.New("no .env file found")
}
