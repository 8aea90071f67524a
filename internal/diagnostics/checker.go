package diagnostics

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Angad-2002/Darwix-AI/internal/domain"
)

const probeTimeout = 3 * time.Second

// Checker validates the API endpoint, language setting and history location.
type Checker struct {
	do         func(*http.Request) (*http.Response, error)
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
	timeout    time.Duration
}

// NewChecker builds a checker using real network and OS dependencies.
func NewChecker() *Checker {
	client := &http.Client{Timeout: probeTimeout}
	return &Checker{
		do:         client.Do,
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
		timeout:    probeTimeout,
	}
}

// Run executes all startup checks and returns a combined report.
func (c *Checker) Run(settings domain.Settings) domain.DiagnosticReport {
	return domain.NewDiagnosticReport([]domain.DiagnosticItem{
		c.checkAPI(settings.APIBaseURL),
		checkLanguage(settings.Language),
		c.checkHistoryDir(settings.HistoryPath),
	})
}

// checkAPI verifies the base URL is well-formed and answers HTTP requests.
// Any HTTP response counts as reachable; the endpoints only accept POST.
func (c *Checker) checkAPI(baseURL string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:     "api_base_url",
		Name:   "Transcription API",
		Target: baseURL,
	}

	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Invalid API base URL: %q", baseURL)
		item.Hint = "Use an absolute http(s) URL such as http://localhost:8000/api."
		return item
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(u.String(), "/")+"/", nil)
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot build request for %s", baseURL)
		return item
	}

	resp, err := c.do(req)
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("API is not reachable: %s", baseURL)
		item.Hint = "Start the backend (or `stubapi` for local development) and check the URL in settings."
		return item
	}
	resp.Body.Close()

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("API answered with HTTP %d", resp.StatusCode)
	return item
}

// checkLanguage validates the default language hint.
func checkLanguage(language string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:     "language",
		Name:   "Default language",
		Target: language,
	}

	if !domain.IsSupportedLanguage(language) {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Unsupported language: %q", language)
		item.Hint = "Pick auto or one of: " + strings.Join(domain.SupportedLanguages[1:], ", ") + "."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Language hint: %s", language)
	return item
}

// checkHistoryDir validates the history database directory exists and is writable.
func (c *Checker) checkHistoryDir(historyPath string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:     "history_dir",
		Name:   "History directory",
		Target: historyPath,
	}

	if strings.TrimSpace(historyPath) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "History path is empty."
		item.Hint = "Set a file path where transcription history can be stored."
		return item
	}

	dir := filepath.Dir(historyPath)
	if err := c.mkdirAll(dir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create history directory: %s", dir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpFile, err := c.createTemp(dir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("History directory is not writable: %s", dir)
		item.Hint = "Choose a writable directory for the history database."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", dir)
	return item
}

// NewCheckerForTests creates checker with injectable dependencies.
func NewCheckerForTests(
	do func(*http.Request) (*http.Response, error),
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		do:         do,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
		timeout:    probeTimeout,
	}
}
