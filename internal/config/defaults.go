package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Angad-2002/Darwix-AI/internal/domain"
)

const (
	// DefaultAPIBaseURL is the local development server.
	DefaultAPIBaseURL = "http://localhost:8000/api"
	// DefaultRequestTimeoutSeconds bounds a single transcription round trip.
	DefaultRequestTimeoutSeconds = 300
	appDirName                   = ".darwix-ai"
)

// AppDir returns the per-user data directory.
func AppDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, appDirName)
}

// SettingsPath returns the default settings file location.
func SettingsPath() string {
	return filepath.Join(AppDir(), "settings.json")
}

// DefaultSettings returns baseline local configuration for first launch.
func DefaultSettings() domain.Settings {
	return domain.Settings{
		APIBaseURL:            DefaultAPIBaseURL,
		Language:              domain.LanguageAuto,
		DarkMode:              false,
		HistoryPath:           filepath.Join(AppDir(), "history.db"),
		RequestTimeoutSeconds: DefaultRequestTimeoutSeconds,
	}
}

// Normalize trims user inputs and fills empty fields with defaults.
func Normalize(settings domain.Settings) domain.Settings {
	defaults := DefaultSettings()

	settings.APIBaseURL = strings.TrimRight(strings.TrimSpace(settings.APIBaseURL), "/")
	if settings.APIBaseURL == "" {
		settings.APIBaseURL = defaults.APIBaseURL
	}
	settings.Language = strings.ToLower(strings.TrimSpace(settings.Language))
	if settings.Language == "" {
		settings.Language = defaults.Language
	}
	settings.HistoryPath = strings.TrimSpace(settings.HistoryPath)
	if settings.HistoryPath == "" {
		settings.HistoryPath = defaults.HistoryPath
	}
	if settings.RequestTimeoutSeconds <= 0 {
		settings.RequestTimeoutSeconds = defaults.RequestTimeoutSeconds
	}
	return settings
}

// RequestTimeout converts the configured timeout to a duration.
func RequestTimeout(settings domain.Settings) time.Duration {
	return time.Duration(settings.RequestTimeoutSeconds) * time.Second
}
