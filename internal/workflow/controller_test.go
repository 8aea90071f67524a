package workflow

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Angad-2002/Darwix-AI/internal/api"
	"github.com/Angad-2002/Darwix-AI/internal/domain"
	"github.com/Angad-2002/Darwix-AI/internal/media"
)

// fakeUploader allows injecting custom transcribe behavior per test.
type fakeUploader struct {
	mu    sync.Mutex
	calls int
	run   func(ctx context.Context, req domain.TranscriptionRequest, onProgress api.ProgressFunc) (domain.TranscriptionResult, error)
}

// Transcribe delegates to the injected function.
func (f *fakeUploader) Transcribe(ctx context.Context, req domain.TranscriptionRequest, onProgress api.ProgressFunc) (domain.TranscriptionResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.run == nil {
		return domain.TranscriptionResult{}, nil
	}
	return f.run(ctx, req, onProgress)
}

// callCount returns how many uploads were started.
func (f *fakeUploader) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// eventLog collects observer callbacks.
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

// add records one event.
func (l *eventLog) add(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

// progress returns the progress values in arrival order.
func (l *eventLog) progress() []float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []float64
	for _, ev := range l.events {
		if ev.Type == EventTypeProgress {
			out = append(out, ev.Progress)
		}
	}
	return out
}

// phases returns the phase of each event in arrival order.
func (l *eventLog) phases() []Phase {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Phase, 0, len(l.events))
	for _, ev := range l.events {
		out = append(out, ev.Phase)
	}
	return out
}

// threeSegmentResult is a canned successful transcription.
func threeSegmentResult() domain.TranscriptionResult {
	lang := "en"
	return domain.TranscriptionResult{
		DurationSeconds:  9,
		DetectedLanguage: &lang,
		Segments: []domain.Segment{
			{StartSeconds: 0, EndSeconds: 3, Text: "one"},
			{StartSeconds: 3, EndSeconds: 6, Text: "two"},
			{StartSeconds: 6, EndSeconds: 9, Text: "three"},
		},
	}
}

// candidate describes a file without reading it.
func candidate(name string, size int64) domain.UploadCandidate {
	return domain.UploadCandidate{Name: name, SizeBytes: size}
}

// TestControllerHappyPath selects, uploads with progress and succeeds.
func TestControllerHappyPath(t *testing.T) {
	uploader := &fakeUploader{run: func(ctx context.Context, req domain.TranscriptionRequest, onProgress api.ProgressFunc) (domain.TranscriptionResult, error) {
		for _, p := range []float64{0, 25, 60, 100} {
			onProgress(p)
		}
		return threeSegmentResult(), nil
	}}
	var log eventLog
	var saved []domain.TranscriptionRequest
	c := NewController(uploader, Options{
		OnEvent: log.add,
		OnSuccess: func(req domain.TranscriptionRequest, result domain.TranscriptionResult) {
			saved = append(saved, req)
		},
		NewID: func() string { return "req-1" },
	})

	if err := c.SelectFile(candidate("song.mp3", 2*1024*1024)); err != nil {
		t.Fatalf("SelectFile() error = %v", err)
	}
	if c.State().Phase() != PhaseFileSelected {
		t.Fatalf("phase = %s, want file_selected", c.State().Phase())
	}

	id, err := c.Submit(context.Background(), "en")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if id != "req-1" {
		t.Fatalf("request id = %q", id)
	}
	c.Wait()

	succeeded, ok := c.State().(Succeeded)
	if !ok {
		t.Fatalf("state = %#v, want Succeeded", c.State())
	}
	if len(succeeded.Result.Segments) != 3 {
		t.Fatalf("segments = %d, want 3", len(succeeded.Result.Segments))
	}

	got := log.progress()
	want := []float64{25, 60, 100}
	if len(got) != len(want) {
		t.Fatalf("progress = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("progress = %v, want %v", got, want)
		}
	}

	sawAwaiting := false
	for _, phase := range log.phases() {
		if phase == PhaseAwaitingResult {
			sawAwaiting = true
		}
	}
	if !sawAwaiting {
		t.Fatalf("expected awaiting_result phase, got %v", log.phases())
	}

	if len(saved) != 1 || saved[0].File.Name != "song.mp3" || saved[0].LanguageHint != "en" {
		t.Fatalf("OnSuccess requests = %+v", saved)
	}
}

// TestControllerRejectsInvalidSelections checks validator failures surface without network calls.
func TestControllerRejectsInvalidSelections(t *testing.T) {
	tests := []struct {
		name string
		in   domain.UploadCandidate
		want error
	}{
		{name: "unsupported", in: candidate("clip.mov", 1024*1024), want: domain.ErrUnsupportedFormat},
		{name: "too large", in: candidate("talk.wav", 15*1024*1024), want: domain.ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uploader := &fakeUploader{}
			c := NewController(uploader, Options{})

			err := c.SelectFile(tt.in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("SelectFile() error = %v, want %v", err, tt.want)
			}
			failed, ok := c.State().(Failed)
			if !ok || failed.Message != tt.want.Error() {
				t.Fatalf("state = %#v, want Failed(%q)", c.State(), tt.want.Error())
			}

			if _, err := c.Submit(context.Background(), "auto"); !errors.Is(err, ErrNoFileSelected) {
				t.Fatalf("Submit() error = %v, want %v", err, ErrNoFileSelected)
			}
			if uploader.callCount() != 0 {
				t.Fatalf("uploader calls = %d, want 0", uploader.callCount())
			}
		})
	}
}

// TestControllerIgnoresNonIncreasingProgress checks the monotonic progress invariant.
func TestControllerIgnoresNonIncreasingProgress(t *testing.T) {
	uploader := &fakeUploader{run: func(ctx context.Context, req domain.TranscriptionRequest, onProgress api.ProgressFunc) (domain.TranscriptionResult, error) {
		for _, p := range []float64{10, 50, 30, 50, 40, 60, 55} {
			onProgress(p)
		}
		return threeSegmentResult(), nil
	}}
	var log eventLog
	c := NewController(uploader, Options{OnEvent: log.add})

	if err := c.SelectFile(candidate("memo.m4a", 100)); err != nil {
		t.Fatalf("SelectFile() error = %v", err)
	}
	if _, err := c.Submit(context.Background(), "auto"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	c.Wait()

	got := log.progress()
	want := []float64{10, 50, 60}
	if len(got) != len(want) {
		t.Fatalf("progress = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("progress = %v, want %v", got, want)
		}
	}
	if c.State().Phase() != PhaseSucceeded {
		t.Fatalf("phase = %s, want succeeded", c.State().Phase())
	}
}

// TestControllerSingleFlight checks that a second submission or selection is refused.
func TestControllerSingleFlight(t *testing.T) {
	release := make(chan struct{})
	uploader := &fakeUploader{run: func(ctx context.Context, req domain.TranscriptionRequest, onProgress api.ProgressFunc) (domain.TranscriptionResult, error) {
		onProgress(40)
		<-release
		return threeSegmentResult(), nil
	}}
	c := NewController(uploader, Options{})

	if err := c.SelectFile(candidate("song.mp3", 100)); err != nil {
		t.Fatalf("SelectFile() error = %v", err)
	}
	if _, err := c.Submit(context.Background(), "auto"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if _, err := c.Submit(context.Background(), "auto"); !errors.Is(err, ErrUploadInProgress) {
		t.Fatalf("second Submit() error = %v, want %v", err, ErrUploadInProgress)
	}
	if err := c.SelectFile(candidate("other.wav", 100)); !errors.Is(err, ErrUploadInProgress) {
		t.Fatalf("SelectFile() during upload error = %v, want %v", err, ErrUploadInProgress)
	}
	if snap := c.Snapshot(); snap.FileName != "song.mp3" || snap.RequestID == "" {
		t.Fatalf("snapshot = %+v", snap)
	}

	close(release)
	c.Wait()
	if uploader.callCount() != 1 {
		t.Fatalf("uploader calls = %d, want 1", uploader.callCount())
	}
}

// TestControllerCancelDiscardsStaleEvents checks that late events of an aborted request are dropped.
func TestControllerCancelDiscardsStaleEvents(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	uploader := &fakeUploader{run: func(ctx context.Context, req domain.TranscriptionRequest, onProgress api.ProgressFunc) (domain.TranscriptionResult, error) {
		close(started)
		<-release
		onProgress(80)
		return threeSegmentResult(), nil
	}}
	var log eventLog
	c := NewController(uploader, Options{OnEvent: log.add})

	if err := c.SelectFile(candidate("song.mp3", 100)); err != nil {
		t.Fatalf("SelectFile() error = %v", err)
	}
	if _, err := c.Submit(context.Background(), "auto"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	<-started

	if err := c.Cancel(); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	close(release)
	c.Wait()

	if c.State().Phase() != PhaseCancelled {
		t.Fatalf("phase = %s, want cancelled", c.State().Phase())
	}
	if got := log.progress(); len(got) != 0 {
		t.Fatalf("stale progress applied: %v", got)
	}
	if err := c.Cancel(); !errors.Is(err, ErrNoActiveUpload) {
		t.Fatalf("second Cancel() error = %v, want %v", err, ErrNoActiveUpload)
	}
}

// staleLogger signals when the controller drops an outdated outcome.
type staleLogger struct {
	once      sync.Once
	discarded chan struct{}
}

func (l *staleLogger) Debug(msg string) {
	if strings.Contains(msg, "stale") {
		l.once.Do(func() { close(l.discarded) })
	}
}

func (l *staleLogger) Print(string)   {}
func (l *staleLogger) Trace(string)   {}
func (l *staleLogger) Info(string)    {}
func (l *staleLogger) Warning(string) {}
func (l *staleLogger) Error(string)   {}
func (l *staleLogger) Fatal(string)   {}

// TestControllerCancelledRequestCannotTouchNewerRequest checks request identity while a newer upload is active.
func TestControllerCancelledRequestCannotTouchNewerRequest(t *testing.T) {
	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})
	secondProgressed := make(chan struct{})
	releaseSecond := make(chan struct{})
	uploader := &fakeUploader{run: func(ctx context.Context, req domain.TranscriptionRequest, onProgress api.ProgressFunc) (domain.TranscriptionResult, error) {
		if req.File.Name == "a.mp3" {
			close(firstStarted)
			<-releaseFirst
			onProgress(90)
			return domain.TranscriptionResult{Segments: []domain.Segment{{StartSeconds: 0, EndSeconds: 1, Text: "late"}}}, nil
		}
		onProgress(10)
		close(secondProgressed)
		<-releaseSecond
		return threeSegmentResult(), nil
	}}
	log := &staleLogger{discarded: make(chan struct{})}
	c := NewController(uploader, Options{Logger: log})

	if err := c.SelectFile(candidate("a.mp3", 100)); err != nil {
		t.Fatalf("SelectFile(a) error = %v", err)
	}
	firstID, err := c.Submit(context.Background(), "auto")
	if err != nil {
		t.Fatalf("Submit(a) error = %v", err)
	}
	<-firstStarted
	if err := c.Cancel(); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}

	if err := c.SelectFile(candidate("b.mp3", 200)); err != nil {
		t.Fatalf("SelectFile(b) error = %v", err)
	}
	secondID, err := c.Submit(context.Background(), "en")
	if err != nil {
		t.Fatalf("Submit(b) error = %v", err)
	}
	if secondID == firstID {
		t.Fatalf("request IDs must differ, both %q", secondID)
	}
	<-secondProgressed

	close(releaseFirst)
	select {
	case <-log.discarded:
	case <-time.After(2 * time.Second):
		t.Fatal("outcome of the cancelled request was not discarded")
	}

	snap := c.Snapshot()
	if snap.Phase != PhaseUploading || snap.Progress != 10 || snap.FileName != "b.mp3" || snap.RequestID != secondID {
		t.Fatalf("snapshot after stale events = %+v", snap)
	}

	close(releaseSecond)
	c.Wait()

	succeeded, ok := c.State().(Succeeded)
	if !ok {
		t.Fatalf("state = %T, want Succeeded", c.State())
	}
	if len(succeeded.Result.Segments) != 3 {
		t.Fatalf("segments = %d, want 3 from the newer request", len(succeeded.Result.Segments))
	}
	for _, ev := range c.Events(0) {
		if ev.RequestID == firstID && ev.Type != EventTypeState {
			t.Fatalf("event from cancelled request recorded: %+v", ev)
		}
	}
}

// TestControllerObserverReceivesEventsInOrder checks observer delivery follows sequence numbers across goroutines.
func TestControllerObserverReceivesEventsInOrder(t *testing.T) {
	inObserver := make(chan struct{})
	releaseObserver := make(chan struct{})
	uploader := &fakeUploader{run: func(ctx context.Context, req domain.TranscriptionRequest, onProgress api.ProgressFunc) (domain.TranscriptionResult, error) {
		onProgress(40)
		<-ctx.Done()
		return domain.TranscriptionResult{}, ctx.Err()
	}}

	var mu sync.Mutex
	var seqs []int64
	var phases []Phase
	observer := func(ev Event) {
		if ev.Type == EventTypeProgress {
			close(inObserver)
			<-releaseObserver
		}
		mu.Lock()
		seqs = append(seqs, ev.Seq)
		phases = append(phases, ev.Phase)
		mu.Unlock()
	}
	c := NewController(uploader, Options{OnEvent: observer})

	if err := c.SelectFile(candidate("song.mp3", 100)); err != nil {
		t.Fatalf("SelectFile() error = %v", err)
	}
	if _, err := c.Submit(context.Background(), "auto"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	<-inObserver

	if err := c.Cancel(); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	close(releaseObserver)
	c.Wait()

	mu.Lock()
	defer mu.Unlock()
	want := []Phase{PhaseFileSelected, PhaseUploading, PhaseUploading, PhaseCancelled}
	if len(phases) != len(want) {
		t.Fatalf("phases = %v, want %v", phases, want)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Fatalf("phases = %v, want %v", phases, want)
		}
		if i > 0 && seqs[i] <= seqs[i-1] {
			t.Fatalf("observer seqs out of order: %v", seqs)
		}
	}
}

// TestControllerCancelStopsTransport checks that the request context is cancelled.
func TestControllerCancelStopsTransport(t *testing.T) {
	started := make(chan struct{})
	uploader := &fakeUploader{run: func(ctx context.Context, req domain.TranscriptionRequest, onProgress api.ProgressFunc) (domain.TranscriptionResult, error) {
		close(started)
		<-ctx.Done()
		return domain.TranscriptionResult{}, ctx.Err()
	}}
	c := NewController(uploader, Options{})

	if err := c.SelectFile(candidate("song.mp3", 100)); err != nil {
		t.Fatalf("SelectFile() error = %v", err)
	}
	if _, err := c.Submit(context.Background(), "auto"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	<-started
	if err := c.Cancel(); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}

	done := make(chan struct{})
	go func() {
		c.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("upload goroutine did not stop after cancel")
	}
	if c.State().Phase() != PhaseCancelled {
		t.Fatalf("phase = %s, want cancelled", c.State().Phase())
	}
}

// TestControllerServerErrorFallsBackToGenericMessage runs against an HTTP 500 with an empty body.
func TestControllerServerErrorFallsBackToGenericMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	c := NewController(api.NewClient(srv.URL, time.Second), Options{})
	if err := c.SelectFile(media.CandidateFromBytes("song.mp3", []byte("audio"))); err != nil {
		t.Fatalf("SelectFile() error = %v", err)
	}
	if _, err := c.Submit(context.Background(), "auto"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	c.Wait()

	failed, ok := c.State().(Failed)
	if !ok {
		t.Fatalf("state = %#v, want Failed", c.State())
	}
	if failed.Message != api.MsgTranscribeFailed {
		t.Fatalf("message = %q, want %q", failed.Message, api.MsgTranscribeFailed)
	}
	if snap := c.Snapshot(); snap.Result != nil {
		t.Fatalf("partial result retained: %+v", snap.Result)
	}
}

// TestControllerUnknownTotalSucceedsFromUploading checks indeterminate uploads.
func TestControllerUnknownTotalSucceedsFromUploading(t *testing.T) {
	c := NewController(&fakeUploader{run: func(ctx context.Context, req domain.TranscriptionRequest, onProgress api.ProgressFunc) (domain.TranscriptionResult, error) {
		return threeSegmentResult(), nil
	}}, Options{})

	if err := c.SelectFile(candidate("song.ogg", 100)); err != nil {
		t.Fatalf("SelectFile() error = %v", err)
	}
	if _, err := c.Submit(context.Background(), ""); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	c.Wait()
	if c.State().Phase() != PhaseSucceeded {
		t.Fatalf("phase = %s, want succeeded", c.State().Phase())
	}
}

// TestControllerReselectionClearsResult checks that a new selection drops prior results.
func TestControllerReselectionClearsResult(t *testing.T) {
	c := NewController(&fakeUploader{run: func(ctx context.Context, req domain.TranscriptionRequest, onProgress api.ProgressFunc) (domain.TranscriptionResult, error) {
		return threeSegmentResult(), nil
	}}, Options{})

	if err := c.SelectFile(candidate("song.mp3", 100)); err != nil {
		t.Fatalf("SelectFile() error = %v", err)
	}
	if _, err := c.Submit(context.Background(), "auto"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	c.Wait()

	if _, err := c.Submit(context.Background(), "auto"); !errors.Is(err, ErrNoFileSelected) {
		t.Fatalf("resubmit error = %v, want %v", err, ErrNoFileSelected)
	}

	if err := c.SelectFile(candidate("song.mp3", 100)); err != nil {
		t.Fatalf("reselect error = %v", err)
	}
	snap := c.Snapshot()
	if snap.Phase != PhaseFileSelected || snap.Result != nil || snap.Error != "" {
		t.Fatalf("snapshot after reselect = %+v", snap)
	}

	if err := c.SelectFile(candidate("bad.flac", 100)); err == nil {
		t.Fatal("expected unsupported format")
	}
	if snap := c.Snapshot(); snap.Phase != PhaseFailed || snap.FileName != "" {
		t.Fatalf("snapshot after invalid reselect = %+v", snap)
	}
}

// TestControllerRejectsUnsupportedLanguage checks that state is untouched.
func TestControllerRejectsUnsupportedLanguage(t *testing.T) {
	uploader := &fakeUploader{}
	c := NewController(uploader, Options{})
	if err := c.SelectFile(candidate("song.mp3", 100)); err != nil {
		t.Fatalf("SelectFile() error = %v", err)
	}

	if _, err := c.Submit(context.Background(), "xx"); !errors.Is(err, ErrUnsupportedLanguage) {
		t.Fatalf("Submit() error = %v, want %v", err, ErrUnsupportedLanguage)
	}
	if c.State().Phase() != PhaseFileSelected || uploader.callCount() != 0 {
		t.Fatalf("phase = %s, calls = %d", c.State().Phase(), uploader.callCount())
	}
}

// TestControllerCancelWhenIdle checks cancel without an upload.
func TestControllerCancelWhenIdle(t *testing.T) {
	c := NewController(&fakeUploader{}, Options{})
	if err := c.Cancel(); !errors.Is(err, ErrNoActiveUpload) {
		t.Fatalf("Cancel() error = %v, want %v", err, ErrNoActiveUpload)
	}
	if len(c.Events(0)) != 0 {
		t.Fatalf("unexpected events: %+v", c.Events(0))
	}
}
