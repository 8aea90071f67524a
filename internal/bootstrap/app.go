package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/logger"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"github.com/Angad-2002/Darwix-AI/internal/applog"
	"github.com/Angad-2002/Darwix-AI/internal/config"
	"github.com/Angad-2002/Darwix-AI/internal/diagnostics"
	"github.com/Angad-2002/Darwix-AI/internal/domain"
	"github.com/Angad-2002/Darwix-AI/internal/export"
	"github.com/Angad-2002/Darwix-AI/internal/history"
	"github.com/Angad-2002/Darwix-AI/internal/media"
	"github.com/Angad-2002/Darwix-AI/internal/titles"
	"github.com/Angad-2002/Darwix-AI/internal/validate"
	"github.com/Angad-2002/Darwix-AI/internal/workflow"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

const (
	eventWorkflow       = "workflow:event"
	eventHistoryUpdated = "history:updated"
)

// ErrHistoryUnavailable is returned when the history database could not be opened.
var ErrHistoryUnavailable = errors.New("transcription history is unavailable")

// ErrNothingToExport is returned when no successful transcription is shown.
var ErrNothingToExport = errors.New("no transcription to export")

var audioDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "Audio files (mp3, wav, m4a, ogg)",
		Pattern:     validate.DialogPattern(),
	},
}

// historyStore is the subset of the history repository used by the UI.
type historyStore interface {
	Record(ctx context.Context, req domain.TranscriptionRequest, result domain.TranscriptionResult) (history.Entry, error)
	List(ctx context.Context) ([]history.Entry, error)
	Get(ctx context.Context, id int64) (history.Record, error)
}

// App wires configuration, controllers, history and UI runtime callbacks.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Workflow    *workflow.Controller
	Titles      *titles.Controller
	History     historyStore
	Diagnostics domain.DiagnosticReport
	Log         logger.Logger
	assets      fs.FS
	checker     *diagnostics.Checker
	clients     *switchableClient
	db          *sql.DB

	mu         sync.Mutex
	runtimeCtx context.Context
}

// New builds the application with persisted settings and startup diagnostics.
func New() (*App, error) {
	return NewWithAssets(nil)
}

// NewWithAssets builds the application and optionally configures embedded frontend assets.
func NewWithAssets(assets fs.FS) (*App, error) {
	log := applog.Default()

	if loaded, err := config.LoadEnv(); err != nil {
		applog.Warningf(log, "%v", err)
	} else if len(loaded) > 0 {
		applog.Infof(log, "loaded environment from %s", strings.Join(loaded, ", "))
	}

	store := config.NewJSONStore(config.SettingsPath())
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	settings, err = config.ApplyEnvOverrides(settings, nil)
	if err != nil {
		return nil, fmt.Errorf("apply environment: %w", err)
	}

	clients := newSwitchableClient(settings)
	app := newApp(settings, store, clients, clients, log)
	app.assets = assets
	app.clients = clients
	app.checker = diagnostics.NewChecker()
	app.Diagnostics = app.checker.Run(settings)
	app.openHistory(settings.HistoryPath)

	return app, nil
}

// newApp assembles controllers around the given transports.
func newApp(settings domain.Settings, store config.Store, uploader workflow.Uploader, suggester titles.Suggester, log logger.Logger) *App {
	a := &App{
		Settings: settings,
		Store:    store,
		Log:      applog.OrNop(log),
	}
	a.Workflow = workflow.NewController(uploader, workflow.Options{
		Logger:    a.Log,
		MaxEvents: 1000,
		OnEvent:   a.emitWorkflowEvent,
		OnSuccess: a.recordHistory,
	})
	a.Titles = titles.NewController(suggester, a.Log)
	return a
}

// openHistory opens the history database; failures leave history disabled.
func (a *App) openHistory(path string) {
	db, err := history.Open(path)
	if err != nil {
		applog.Warningf(a.Log, "history disabled: %v", err)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db != nil {
		_ = a.db.Close()
	}
	a.db = db
	a.History = history.NewSQLiteRepo(db)
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	assetOptions := &assetserver.Options{}
	if a.assets != nil {
		assetOptions.Assets = a.assets
	} else {
		assetOptions.Handler = http.FileServer(http.Dir("./frontend"))
	}

	return wails.Run(&options.App{
		Title:            "Darwix AI",
		Width:            1180,
		Height:           780,
		AssetServer:      assetOptions,
		BackgroundColour: backgroundFor(a.currentSettings().DarkMode),
		DragAndDrop: &options.DragAndDrop{
			EnableFileDrop: true,
		},
		Logger:     a.Log,
		OnStartup:  a.Startup,
		OnShutdown: a.Shutdown,
		Bind:       []interface{}{a},
	})
}

// Startup stores Wails runtime context and registers drop and theme handling.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	a.runtimeCtx = ctx
	dark := a.Settings.DarkMode
	a.mu.Unlock()

	wailsruntime.OnFileDrop(ctx, a.handleFileDrop)
	applyTheme(ctx, dark)
}

// Shutdown aborts any upload and releases the history database.
func (a *App) Shutdown(ctx context.Context) {
	if err := a.Workflow.Cancel(); err == nil {
		a.Workflow.Wait()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = nil
	if a.db != nil {
		_ = a.db.Close()
		a.db = nil
		a.History = nil
	}
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Diagnostics
}

// RefreshDiagnostics reruns startup checks against current settings.
func (a *App) RefreshDiagnostics() domain.DiagnosticReport {
	return a.refreshDiagnosticsFromSettings(a.currentSettings())
}

// GetSettings returns the active settings.
func (a *App) GetSettings() domain.Settings {
	return a.currentSettings()
}

// SupportedLanguages lists language hints for the selector.
func (a *App) SupportedLanguages() []string {
	return append([]string(nil), domain.SupportedLanguages...)
}

// SaveSettings normalizes and persists settings, then refreshes clients and diagnostics.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	normalized := config.Normalize(settings)
	if !domain.IsSupportedLanguage(normalized.Language) {
		return domain.Settings{}, fmt.Errorf("%w: %q", workflow.ErrUnsupportedLanguage, normalized.Language)
	}
	if err := a.Store.Save(normalized); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	previous := a.currentSettings()
	if a.clients != nil {
		a.clients.Reset(normalized)
	}
	if previous.HistoryPath != normalized.HistoryPath {
		a.openHistory(normalized.HistoryPath)
	}
	a.refreshDiagnosticsFromSettings(normalized)

	if ctx := a.runtimeContextOrNil(); ctx != nil && previous.DarkMode != normalized.DarkMode {
		applyTheme(ctx, normalized.DarkMode)
	}
	return normalized, nil
}

// SetDarkMode toggles and persists the theme.
func (a *App) SetDarkMode(dark bool) (domain.Settings, error) {
	settings := a.currentSettings()
	settings.DarkMode = dark
	return a.SaveSettings(settings)
}

// PickAudioFile opens a native file dialog and selects the chosen file.
// Dismissing the dialog leaves the workflow unchanged.
func (a *App) PickAudioFile() (workflow.Snapshot, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return a.Workflow.Snapshot(), err
	}

	path, err := wailsruntime.OpenFileDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   "Select audio file",
		Filters: audioDialogFilter,
	})
	if err != nil {
		return a.Workflow.Snapshot(), err
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return a.Workflow.Snapshot(), nil
	}

	return a.SelectFile(path)
}

// SelectFile describes path and hands it to the workflow.
// Validation failures are reported through the returned snapshot, not the error.
func (a *App) SelectFile(path string) (workflow.Snapshot, error) {
	candidate, err := media.CandidateFromPath(path)
	if err != nil {
		return a.Workflow.Snapshot(), err
	}

	err = a.Workflow.SelectFile(candidate)
	var validation *domain.ValidationError
	if err != nil && !errors.As(err, &validation) {
		return a.Workflow.Snapshot(), err
	}
	return a.Workflow.Snapshot(), nil
}

// handleFileDrop selects the first dropped file; batches are not supported.
func (a *App) handleFileDrop(_, _ int, paths []string) {
	if len(paths) == 0 {
		return
	}
	if len(paths) > 1 {
		applog.Infof(a.Log, "dropped %d files, using %s", len(paths), paths[0])
	}
	if _, err := a.SelectFile(paths[0]); err != nil {
		applog.Warningf(a.Log, "drop %s: %v", paths[0], err)
	}
}

// StartTranscription submits the selected file; an empty language uses the saved default.
func (a *App) StartTranscription(language string) (workflow.Snapshot, error) {
	language = strings.TrimSpace(language)
	if language == "" {
		language = a.currentSettings().Language
	}

	if _, err := a.Workflow.Submit(context.Background(), language); err != nil {
		return a.Workflow.Snapshot(), err
	}
	return a.Workflow.Snapshot(), nil
}

// CancelTranscription aborts the in-flight upload, if any.
func (a *App) CancelTranscription() error {
	return a.Workflow.Cancel()
}

// WorkflowState returns the current workflow snapshot.
func (a *App) WorkflowState() workflow.Snapshot {
	return a.Workflow.Snapshot()
}

// WorkflowEvents returns all events with sequence greater than sinceSeq.
func (a *App) WorkflowEvents(sinceSeq int64) []workflow.Event {
	return a.Workflow.Events(sinceSeq)
}

// ExportTranscription asks for a destination and writes the result in format ("text" or "json").
// It returns the written path, or "" when the dialog was dismissed.
func (a *App) ExportTranscription(format string) (string, error) {
	content, name, err := a.renderCurrent(export.Format(format))
	if err != nil {
		return "", err
	}

	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.SaveFileDialog(ctx, wailsruntime.SaveDialogOptions{
		Title:           "Export transcription",
		DefaultFilename: name,
	})
	if err != nil {
		return "", err
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	applog.Infof(a.Log, "exported %s", path)
	return path, nil
}

// CopyTranscription places the rendered result on the clipboard.
func (a *App) CopyTranscription(format string) error {
	content, _, err := a.renderCurrent(export.Format(format))
	if err != nil {
		return err
	}

	ctx, err := a.runtimeContext()
	if err != nil {
		return err
	}
	return wailsruntime.ClipboardSetText(ctx, content)
}

// renderCurrent renders the shown result.
func (a *App) renderCurrent(format export.Format) (string, string, error) {
	succeeded, ok := a.Workflow.State().(workflow.Succeeded)
	if !ok {
		return "", "", ErrNothingToExport
	}
	return export.Render(succeeded.Result, format)
}

// GenerateTitles requests suggestions and returns the resulting view state.
// Only a refused concurrent request is returned as an error.
func (a *App) GenerateTitles(content string) (titles.State, error) {
	if _, err := a.Titles.Generate(context.Background(), content); errors.Is(err, titles.ErrGenerationInProgress) {
		return a.Titles.State(), err
	}
	return a.Titles.State(), nil
}

// TitleState returns the title generator view state.
func (a *App) TitleState() titles.State {
	return a.Titles.State()
}

// ListHistory returns past transcriptions, newest first.
func (a *App) ListHistory() ([]history.Entry, error) {
	store := a.historyStore()
	if store == nil {
		return nil, ErrHistoryUnavailable
	}
	return store.List(context.Background())
}

// GetHistory returns one past transcription with its segments.
func (a *App) GetHistory(id int64) (history.Record, error) {
	store := a.historyStore()
	if store == nil {
		return history.Record{}, ErrHistoryUnavailable
	}
	return store.Get(context.Background(), id)
}

// recordHistory persists a successful transcription and notifies the UI.
func (a *App) recordHistory(req domain.TranscriptionRequest, result domain.TranscriptionResult) {
	store := a.historyStore()
	if store == nil {
		return
	}

	entry, err := store.Record(context.Background(), req, result)
	if err != nil {
		applog.Warningf(a.Log, "save history for %s: %v", req.File.Name, err)
		return
	}
	if ctx := a.runtimeContextOrNil(); ctx != nil {
		wailsruntime.EventsEmit(ctx, eventHistoryUpdated, entry)
	}
}

// emitWorkflowEvent pushes workflow events to the frontend.
func (a *App) emitWorkflowEvent(ev workflow.Event) {
	if ctx := a.runtimeContextOrNil(); ctx != nil {
		wailsruntime.EventsEmit(ctx, eventWorkflow, ev)
	}
}

func (a *App) historyStore() historyStore {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.History
}

func (a *App) currentSettings() domain.Settings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Settings
}

// runtimeContext returns current Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	ctx := a.runtimeContextOrNil()
	if ctx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return ctx, nil
}

func (a *App) runtimeContextOrNil() context.Context {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.runtimeCtx
}

// applyTheme switches the native window chrome.
func applyTheme(ctx context.Context, dark bool) {
	if dark {
		wailsruntime.WindowSetDarkTheme(ctx)
		return
	}
	wailsruntime.WindowSetLightTheme(ctx)
}

// backgroundFor returns the window background shown before the frontend paints.
func backgroundFor(dark bool) *options.RGBA {
	if dark {
		return &options.RGBA{R: 18, G: 18, B: 18, A: 255}
	}
	return &options.RGBA{R: 255, G: 255, B: 255, A: 255}
}
