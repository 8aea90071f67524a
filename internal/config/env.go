package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/Angad-2002/Darwix-AI/internal/domain"
)

const (
	EnvFile           = "DARWIX_ENV"
	EnvAPIBaseURL     = "DARWIX_API_BASE_URL"
	EnvLanguage       = "DARWIX_LANGUAGE"
	EnvRequestTimeout = "DARWIX_REQUEST_TIMEOUT"
)

// LoadEnv loads DARWIX_ENV and ./.env into the process environment, in that order.
// Missing files are skipped and variables already set are never overwritten.
// It returns the files that were loaded.
func LoadEnv() ([]string, error) {
	var candidates []string
	if p := strings.TrimSpace(os.Getenv(EnvFile)); p != "" {
		candidates = append(candidates, p)
	}
	candidates = append(candidates, ".env")

	var loaded []string
	for _, p := range candidates {
		if fi, err := os.Stat(p); err != nil || fi.IsDir() {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return loaded, fmt.Errorf("load env file %s: %w", p, err)
		}
		loaded = append(loaded, p)
	}
	return loaded, nil
}

// ApplyEnvOverrides returns settings with DARWIX_* values from lookup applied.
func ApplyEnvOverrides(settings domain.Settings, lookup func(string) (string, bool)) (domain.Settings, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	if v, ok := lookup(EnvAPIBaseURL); ok && strings.TrimSpace(v) != "" {
		settings.APIBaseURL = v
	}
	if v, ok := lookup(EnvLanguage); ok && strings.TrimSpace(v) != "" {
		lang := strings.ToLower(strings.TrimSpace(v))
		if !domain.IsSupportedLanguage(lang) {
			return settings, fmt.Errorf("%s: unsupported language %q", EnvLanguage, v)
		}
		settings.Language = lang
	}
	if v, ok := lookup(EnvRequestTimeout); ok && strings.TrimSpace(v) != "" {
		secs, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || secs <= 0 {
			return settings, fmt.Errorf("%s: expected positive seconds, got %q", EnvRequestTimeout, v)
		}
		settings.RequestTimeoutSeconds = secs
	}

	return Normalize(settings), nil
}
