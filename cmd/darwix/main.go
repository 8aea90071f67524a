package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/Angad-2002/Darwix-AI/internal/api"
	"github.com/Angad-2002/Darwix-AI/internal/config"
	"github.com/Angad-2002/Darwix-AI/internal/domain"
	"github.com/Angad-2002/Darwix-AI/internal/export"
	"github.com/Angad-2002/Darwix-AI/internal/history"
	"github.com/Angad-2002/Darwix-AI/internal/media"
	"github.com/Angad-2002/Darwix-AI/internal/titles"
	"github.com/Angad-2002/Darwix-AI/internal/workflow"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorRed    = "\033[31m"
)

func info(msg string, a ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[info] "+colorReset+msg+"\n", a...)
}

func warn(msg string, a ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[warn] "+colorReset+msg+"\n", a...)
}

func ok(msg string, a ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[ok] "+colorReset+msg+"\n", a...)
}

func fail(msg string, a ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[error] "+colorReset+msg+"\n", a...)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: darwix <transcribe|titles|history> [flags]")
	fmt.Fprintln(os.Stderr, "  transcribe -i audio.mp3 [-language auto] [-format text|json] [-o out]")
	fmt.Fprintln(os.Stderr, "  titles -content \"...\" | -file notes.txt")
	fmt.Fprintln(os.Stderr, "  history")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	if loaded, err := config.LoadEnv(); err != nil {
		warn("%v", err)
	} else if len(loaded) > 0 {
		info("Loaded environment from %s", strings.Join(loaded, ", "))
	}

	settings, err := config.NewJSONStore(config.SettingsPath()).Load()
	if err != nil {
		fail("load settings: %v", err)
		os.Exit(1)
	}
	settings, err = config.ApplyEnvOverrides(settings, nil)
	if err != nil {
		fail("%v", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	client := api.NewClient(settings.APIBaseURL, config.RequestTimeout(settings))

	var code int
	switch os.Args[1] {
	case "transcribe":
		code = runTranscribe(ctx, client, settings, os.Args[2:])
	case "titles":
		code = runTitles(ctx, client, os.Args[2:])
	case "history":
		code = runHistory(ctx, settings)
	case "-h", "--help", "help":
		usage()
	default:
		fail("unknown command: %s", os.Args[1])
		usage()
		code = 2
	}
	os.Exit(code)
}

func runTranscribe(ctx context.Context, client *api.Client, settings domain.Settings, args []string) int {
	fs := flag.NewFlagSet("transcribe", flag.ExitOnError)
	var (
		inPath   string
		outPath  string
		language string
		format   string
		noSave   bool
	)
	fs.StringVar(&inPath, "input", "", "Audio file path (-i)")
	fs.StringVar(&inPath, "i", "", "Audio file path")
	fs.StringVar(&outPath, "output", "", "Output file (-o); defaults to transcription.txt / transcription.json")
	fs.StringVar(&outPath, "o", "", "Output file")
	fs.StringVar(&language, "language", settings.Language, "Language hint: auto or a two-letter code")
	fs.StringVar(&format, "format", string(export.FormatText), "Export format: text|json")
	fs.BoolVar(&noSave, "no-history", false, "Do not record the result in history")
	_ = fs.Parse(args)

	if inPath == "" {
		fail("missing --input/-i audio path")
		return 2
	}

	candidate, err := media.CandidateFromPath(inPath)
	if err != nil {
		fail("%v", err)
		return 1
	}

	var repo *history.SQLiteRepo
	if !noSave {
		db, err := history.Open(settings.HistoryPath)
		if err != nil {
			warn("history disabled: %v", err)
		} else {
			defer db.Close()
			r := history.NewSQLiteRepo(db)
			repo = &r
		}
	}

	progress := newPercentTracker()
	controller := workflow.NewController(client, workflow.Options{
		OnEvent: func(ev workflow.Event) {
			if ev.Type != workflow.EventTypeProgress {
				return
			}
			if percent, changed := progress.advance(ev.Progress); changed {
				info("Upload %3d%%", percent)
			}
		},
		OnSuccess: func(req domain.TranscriptionRequest, result domain.TranscriptionResult) {
			if repo == nil {
				return
			}
			if _, err := repo.Record(ctx, req, result); err != nil {
				warn("save history: %v", err)
			}
		},
	})

	if err := controller.SelectFile(candidate); err != nil {
		fail("%v", err)
		return 1
	}

	info("Uploading %s to %s...", candidate.Name, client.BaseURL())
	if _, err := controller.Submit(ctx, language); err != nil {
		fail("%v", err)
		return 2
	}

	done := make(chan struct{})
	go func() {
		controller.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		_ = controller.Cancel()
		<-done
	}

	switch state := controller.State().(type) {
	case workflow.Succeeded:
		ok("Transcription done: %d segments", len(state.Result.Segments))
		content, name, err := export.Render(state.Result, export.Format(format))
		if err != nil {
			fail("%v", err)
			return 2
		}
		if outPath == "" {
			outPath = name
		}
		if outPath == "-" {
			fmt.Println(content)
			return 0
		}
		if err := os.WriteFile(outPath, []byte(content), 0o644); err != nil {
			fail("write %s: %v", outPath, err)
			return 1
		}
		abs, _ := filepath.Abs(outPath)
		ok("Wrote %s", abs)
		return 0
	case workflow.Failed:
		fail("%s", state.Message)
		return 1
	case workflow.Cancelled:
		warn("Upload cancelled")
		return 130
	default:
		fail("unexpected state: %s", state.Phase())
		return 1
	}
}

// percentTracker reports upload progress only when the whole percentage changes.
type percentTracker struct {
	last int
}

func newPercentTracker() *percentTracker {
	return &percentTracker{last: -1}
}

// advance returns the whole percentage and whether it differs from the last one reported.
func (p *percentTracker) advance(progress float64) (int, bool) {
	percent := int(progress)
	if percent == p.last {
		return percent, false
	}
	p.last = percent
	return percent, true
}

func runTitles(ctx context.Context, client *api.Client, args []string) int {
	fs := flag.NewFlagSet("titles", flag.ExitOnError)
	var (
		content string
		file    string
	)
	fs.StringVar(&content, "content", "", "Content to generate titles for")
	fs.StringVar(&file, "file", "", "Read content from file")
	_ = fs.Parse(args)

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			fail("read %s: %v", file, err)
			return 1
		}
		content = string(data)
	}

	controller := titles.NewController(client, nil)
	suggestions, err := controller.Generate(ctx, content)
	if err != nil {
		fail("%s", titles.Message(err))
		if errors.Is(err, domain.ErrEmptyContent) {
			return 2
		}
		return 1
	}

	for i, s := range suggestions {
		fmt.Printf("%d. %s\n", i+1, s)
	}
	return 0
}

func runHistory(ctx context.Context, settings domain.Settings) int {
	db, err := history.Open(settings.HistoryPath)
	if err != nil {
		fail("%v", err)
		return 1
	}
	defer db.Close()

	entries, err := history.NewSQLiteRepo(db).List(ctx)
	if err != nil {
		fail("%v", err)
		return 1
	}
	if len(entries) == 0 {
		info("No transcriptions yet")
		return 0
	}
	for _, e := range entries {
		fmt.Printf("%4d  %s  %-30s  %6.1fs  %d segments\n", e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Name, e.DurationSeconds, e.SegmentCount)
	}
	return 0
}
