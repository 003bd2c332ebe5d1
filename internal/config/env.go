package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/exportmap/internal/logfields"
)

// envFiles are tried in order, relative to the config directory.
var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads KEY=VALUE files from dir. godotenv.Load never
// overrides variables already present in the process environment.
func loadEnvFiles(dir string) {
	for _, name := range envFiles {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			slog.Warn("Failed to load env file", logfields.File(p), logfields.Error(err))
			continue
		}
		slog.Debug("Loaded environment variables", logfields.File(p))
	}
}
