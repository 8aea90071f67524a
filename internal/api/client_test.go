package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Angad-2002/Darwix-AI/internal/domain"
	"github.com/Angad-2002/Darwix-AI/internal/media"
)

const threeSegments = `{
	"duration": 12.5,
	"detected_language": "en",
	"segments": [
		{"start": 0, "end": 3.2, "text": "Hello", "confidence": 0.9},
		{"start": 3.2, "end": 7.9, "text": "world"},
		{"start": 7.9, "end": 12.5, "text": "again", "confidence": 1}
	]
}`

// newRequest builds a transcription request over in-memory audio.
func newRequest(name, language string, size int) domain.TranscriptionRequest {
	return domain.TranscriptionRequest{
		File:         media.CandidateFromBytes(name, bytes.Repeat([]byte("a"), size)),
		LanguageHint: language,
	}
}

// progressRecorder collects progress callbacks from the upload goroutine.
type progressRecorder struct {
	mu     sync.Mutex
	values []float64
}

// record stores one value.
func (p *progressRecorder) record(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values = append(p.values, v)
}

// snapshot returns recorded values.
func (p *progressRecorder) snapshot() []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]float64(nil), p.values...)
}

// TestTranscribeSendsMultipartAndParsesResult checks the happy path.
func TestTranscribeSendsMultipartAndParsesResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/transcribe/" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if got := r.FormValue(FieldLanguage); got != "en" {
			t.Errorf("language = %q, want en", got)
		}
		file, header, err := r.FormFile(FieldFile)
		if err != nil {
			t.Errorf("form file: %v", err)
		} else {
			data, _ := io.ReadAll(file)
			if header.Filename != "song.mp3" || len(data) != 4096 {
				t.Errorf("file = %s (%d bytes)", header.Filename, len(data))
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, threeSegments)
	}))
	defer srv.Close()

	var rec progressRecorder
	client := NewClient(srv.URL+"/api/", time.Second)
	result, err := client.Transcribe(context.Background(), newRequest("song.mp3", "en", 4096), rec.record)
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}

	if len(result.Segments) != 3 {
		t.Fatalf("segments = %d, want 3", len(result.Segments))
	}
	if result.DurationSeconds != 12.5 || result.DetectedLanguage == nil || *result.DetectedLanguage != "en" {
		t.Fatalf("unexpected result header: %+v", result)
	}
	if result.Segments[1].Confidence != nil {
		t.Fatalf("segment 1 confidence = %v, want nil", *result.Segments[1].Confidence)
	}

	values := rec.snapshot()
	if len(values) == 0 {
		t.Fatal("expected progress events")
	}
	for i := 1; i < len(values); i++ {
		if values[i] < values[i-1] {
			t.Fatalf("progress decreased: %v", values)
		}
	}
	if values[len(values)-1] != 100 {
		t.Fatalf("last progress = %v, want 100", values[len(values)-1])
	}
}

// TestTranscribeDefaultsLanguageToAuto checks empty hint handling.
func TestTranscribeDefaultsLanguageToAuto(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.FormValue(FieldLanguage); got != domain.LanguageAuto {
			t.Errorf("language = %q, want auto", got)
		}
		_, _ = io.WriteString(w, `{"duration": 0, "detected_language": null, "segments": []}`)
	}))
	defer srv.Close()

	result, err := NewClient(srv.URL, 0).Transcribe(context.Background(), newRequest("a.wav", "", 10), nil)
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if result.DetectedLanguage != nil || len(result.Segments) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

// TestTranscribeNonSuccessStatus checks fallback and service-supplied messages.
func TestTranscribeNonSuccessStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "empty object", status: http.StatusInternalServerError, body: `{}`, wantMsg: MsgTranscribeFailed},
		{name: "not json", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, wantMsg: MsgTranscribeFailed},
		{name: "service error", status: http.StatusBadRequest, body: `{"error": "No audio file provided"}`, wantMsg: "No audio file provided"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, time.Second).Transcribe(context.Background(), newRequest("a.mp3", "auto", 10), nil)
			var te *TransportError
			if !errors.As(err, &te) {
				t.Fatalf("error = %v, want TransportError", err)
			}
			if !errors.Is(err, ErrNonSuccessStatus) || te.StatusCode != tt.status {
				t.Fatalf("error = %s, want non-success %d", te.Detail(), tt.status)
			}
			if te.Message != tt.wantMsg {
				t.Fatalf("message = %q, want %q", te.Message, tt.wantMsg)
			}
		})
	}
}

// TestTranscribeMalformedResponses checks parse and invariant failures.
func TestTranscribeMalformedResponses(t *testing.T) {
	bodies := map[string]string{
		"not json":           `not-json`,
		"missing segments":   `{"duration": 3}`,
		"negative start":     `{"duration": 3, "segments": [{"start": -1, "end": 2, "text": "x"}]}`,
		"end before start":   `{"duration": 3, "segments": [{"start": 2, "end": 1, "text": "x"}]}`,
		"confidence too big": `{"duration": 3, "segments": [{"start": 0, "end": 1, "text": "x", "confidence": 1.5}]}`,
		"bad duration":       `{"duration": true, "segments": []}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, body)
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, time.Second).Transcribe(context.Background(), newRequest("a.mp3", "auto", 10), nil)
			if !errors.Is(err, ErrMalformedResponse) {
				t.Fatalf("error = %v, want malformed response", err)
			}
		})
	}
}

// TestTranscribeFormattedDurationFallsBackToSeconds checks legacy duration strings.
func TestTranscribeFormattedDurationFallsBackToSeconds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"duration": "01:05.250", "duration_seconds": 65.25, "segments": [{"start": 0, "end": 65.25, "text": "hi", "speaker": "Speaker 0"}]}`)
	}))
	defer srv.Close()

	result, err := NewClient(srv.URL, time.Second).Transcribe(context.Background(), newRequest("a.mp3", "auto", 10), nil)
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if result.DurationSeconds != 65.25 {
		t.Fatalf("duration = %v, want 65.25", result.DurationSeconds)
	}
	if result.Segments[0].Speaker != "Speaker 0" {
		t.Fatalf("speaker = %q", result.Segments[0].Speaker)
	}
}

// TestTranscribeApplicationError checks error strings inside 2xx bodies, including ones sent with segments.
func TestTranscribeApplicationError(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "error only", body: `{"error": "Failed to transcribe audio"}`},
		{name: "error with segments", body: `{"error": "Failed to transcribe audio", "duration": 1, "segments": [{"start": 0, "end": 1, "text": "partial"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			result, err := NewClient(srv.URL, time.Second).Transcribe(context.Background(), newRequest("a.mp3", "auto", 10), nil)
			var appErr *ApplicationError
			if !errors.As(err, &appErr) || appErr.Message != "Failed to transcribe audio" {
				t.Fatalf("error = %v, want application error", err)
			}
			if len(result.Segments) != 0 {
				t.Fatalf("segments = %+v, want none alongside an error", result.Segments)
			}
		})
	}
}

// TestTranscribeNetworkFailure checks unreachable servers.
func TestTranscribeNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second).Transcribe(context.Background(), newRequest("a.mp3", "auto", 10), nil)
	if !errors.Is(err, ErrNetworkFailure) {
		t.Fatalf("error = %v, want network failure", err)
	}
	if err.Error() != MsgNetworkError {
		t.Fatalf("message = %q", err.Error())
	}
}

// TestTranscribeTimeout checks the per-request deadline.
func TestTranscribeTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewClient(srv.URL, 50*time.Millisecond).Transcribe(context.Background(), newRequest("a.mp3", "auto", 10), nil)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("error = %v, want timeout", err)
	}
}

// TestTranscribeCancellation checks that caller cancellation is distinct.
func TestTranscribeCancellation(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := NewClient(srv.URL, 5*time.Second).Transcribe(ctx, newRequest("a.mp3", "auto", 10), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	var te *TransportError
	if errors.As(err, &te) {
		t.Fatalf("cancellation should not be a transport error: %v", te.Detail())
	}
}

// TestProgressReaderUnknownTotalIsSilent checks indeterminate uploads.
func TestProgressReaderUnknownTotalIsSilent(t *testing.T) {
	calls := 0
	r := newProgressReader(strings.NewReader("hello world"), 0, func(float64) { calls++ })
	if _, err := io.ReadAll(r); err != nil {
		t.Fatalf("read: %v", err)
	}
	if calls != 0 {
		t.Fatalf("calls = %d, want 0", calls)
	}
}

// TestPercentSaturates checks the min(100, ...) clamp.
func TestPercentSaturates(t *testing.T) {
	if got := Percent(150, 100); got != 100 {
		t.Fatalf("Percent(150, 100) = %v", got)
	}
	if got := Percent(25, 100); got != 25 {
		t.Fatalf("Percent(25, 100) = %v", got)
	}
}

// TestSuggestTitles covers success, application errors and transport fallbacks.
func TestSuggestTitles(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		want     []string
		wantApp  string
		wantTerr string
	}{
		{name: "success", status: 200, body: `{"suggestions": ["Bee Basics", "The Buzz on Bees"]}`, want: []string{"Bee Basics", "The Buzz on Bees"}},
		{name: "application error", status: 200, body: `{"suggestions": [], "error": "model unavailable"}`, wantApp: "model unavailable"},
		{name: "structured failure", status: 500, body: `{"error": "No content provided"}`, wantTerr: "No content provided"},
		{name: "bare failure", status: 500, body: `{}`, wantTerr: MsgTitlesFailed},
		{name: "garbage body", status: 200, body: `oops`, wantTerr: MsgTitlesFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var req suggestTitlesRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content != "My article about bees" {
					t.Errorf("request body = %+v, err = %v", req, err)
				}
				if r.URL.Path != "/suggest-titles/" {
					t.Errorf("path = %s", r.URL.Path)
				}
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			got, err := NewClient(srv.URL, time.Second).SuggestTitles(context.Background(), "My article about bees")
			switch {
			case tt.wantApp != "":
				var appErr *ApplicationError
				if !errors.As(err, &appErr) || appErr.Message != tt.wantApp {
					t.Fatalf("error = %v, want application error %q", err, tt.wantApp)
				}
			case tt.wantTerr != "":
				var te *TransportError
				if !errors.As(err, &te) || te.Message != tt.wantTerr {
					t.Fatalf("error = %v, want transport error %q", err, tt.wantTerr)
				}
			default:
				if err != nil {
					t.Fatalf("SuggestTitles() error = %v", err)
				}
				if strings.Join(got, "|") != strings.Join(tt.want, "|") {
					t.Fatalf("suggestions = %v, want %v", got, tt.want)
				}
			}
		})
	}
}
