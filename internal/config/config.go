// Package config loads camt-recon settings from config files, RECON_* environment
// variables and an optional .env file.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
)

var (
	envOnce   sync.Once
	envLoaded string
	envErr    error
)

// envCandidates are tried in order; the first existing file wins.
var envCandidates = []string{".env", filepath.Join("..", ".env")}

// LoadEnv loads the first .env file found in the working directory or its parent.
// Variables already present in the environment are never overwritten. It returns
// the file that was loaded, or "" when there is none. Only the first call does work.
func LoadEnv() (string, error) {
	envOnce.Do(func() {
		for _, candidate := range envCandidates {
			if _, err := os.Stat(candidate); errors.Is(err, fs.ErrNotExist) {
				continue
			}
			envLoaded, envErr = candidate, godotenv.Load(candidate)
			return
		}
	})
	return envLoaded, envErr
}

// GetEnv retrieves an environment variable with a fallback value if not set
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
