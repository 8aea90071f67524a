package bootstrap

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/Angad-2002/Darwix-AI/internal/config"
	"github.com/Angad-2002/Darwix-AI/internal/domain"
)

// FixDiagnostic applies the remediation for one failed diagnostic item.
func (a *App) FixDiagnostic(itemID string) (domain.DiagnosticReport, error) {
	if a.Store == nil {
		return domain.DiagnosticReport{}, fmt.Errorf("settings store is not configured")
	}

	id := strings.TrimSpace(itemID)
	if id == "" {
		return domain.DiagnosticReport{}, fmt.Errorf("diagnostic item id is required")
	}

	settings := config.Normalize(a.currentSettings())
	previousHistory := settings.HistoryPath

	settingsChanged := false
	var fixErr error

	switch id {
	case "api_base_url":
		settings, settingsChanged, fixErr = fixAPIBaseURL(settings)
	case "language":
		settings, settingsChanged = fixLanguage(settings)
	case "history_dir":
		settings, settingsChanged, fixErr = fixHistoryDir(settings)
	default:
		return domain.DiagnosticReport{}, fmt.Errorf("unsupported diagnostic item id: %s", id)
	}

	if settingsChanged {
		if saveErr := a.Store.Save(settings); saveErr != nil {
			report := a.refreshDiagnosticsFromSettings(settings)
			return report, fmt.Errorf("save settings after fix: %w", saveErr)
		}
		if a.clients != nil {
			a.clients.Reset(settings)
		}
	}
	if id == "history_dir" && fixErr == nil && (settings.HistoryPath != previousHistory || a.historyStore() == nil) {
		a.openHistory(settings.HistoryPath)
	}

	report := a.refreshDiagnosticsFromSettings(settings)
	if fixErr != nil {
		return report, fixErr
	}
	return report, nil
}

func (a *App) refreshDiagnosticsFromSettings(settings domain.Settings) domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Settings = settings
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(settings)
	}
	return a.Diagnostics
}

// fixAPIBaseURL restores the default URL when the configured one is malformed.
// A well-formed but unreachable URL cannot be fixed locally.
func fixAPIBaseURL(settings domain.Settings) (domain.Settings, bool, error) {
	u, err := url.Parse(settings.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		settings.APIBaseURL = config.DefaultAPIBaseURL
		return settings, true, nil
	}
	return settings, false, fmt.Errorf("API at %s is not reachable: start the backend or run stubapi", settings.APIBaseURL)
}

// fixLanguage falls back to automatic detection for unknown codes.
func fixLanguage(settings domain.Settings) (domain.Settings, bool) {
	if domain.IsSupportedLanguage(settings.Language) {
		return settings, false
	}
	settings.Language = domain.LanguageAuto
	return settings, true
}

// fixHistoryDir creates the history directory, resetting an empty path to the default.
func fixHistoryDir(settings domain.Settings) (domain.Settings, bool, error) {
	historyPath := strings.TrimSpace(settings.HistoryPath)
	changed := false
	if historyPath == "" {
		historyPath = config.DefaultSettings().HistoryPath
		settings.HistoryPath = historyPath
		changed = true
	}

	dir := filepath.Dir(historyPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return settings, changed, fmt.Errorf("create history directory %s: %w", dir, err)
	}

	return settings, changed, nil
}
