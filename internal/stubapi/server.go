// Package stubapi serves a local stand-in for the transcription and title API.
package stubapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/Angad-2002/Darwix-AI/internal/domain"
	"github.com/Angad-2002/Darwix-AI/internal/validate"
)

// Config controls the stub behavior.
type Config struct {
	Port int
	// Delay simulates server-side processing time for transcriptions.
	Delay time.Duration
	// FormattedDuration emits duration as "MM:SS.mmm" plus duration_seconds.
	FormattedDuration bool
	// AccessLog enables gin's request logger.
	AccessLog bool
}

// ErrorResponse is the error envelope understood by the client.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuggestTitlesPayload is the suggest-titles request body.
type SuggestTitlesPayload struct {
	Content *string `json:"content"`
}

type segmentResponse struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Speaker    string  `json:"speaker"`
	Time       string  `json:"time"`
}

// NewRouter builds the gin engine with both API routes mounted under /api.
func NewRouter(cfg Config) *gin.Engine {
	router := gin.New()

	if cfg.AccessLog {
		router.Use(gin.Logger())
	}
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	h := &handlers{cfg: cfg}
	api := router.Group("/api")
	api.POST("/transcribe/", h.transcribe)
	api.POST("/suggest-titles/", h.suggestTitles)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "darwix-stubapi",
		})
	})

	return router
}

// corsMiddleware lets a browser-hosted frontend call the stub directly.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

type handlers struct {
	cfg Config
}

// transcribe accepts a multipart upload and returns deterministic segments.
func (h *handlers) transcribe(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No audio file provided"})
		return
	}

	language := strings.TrimSpace(c.PostForm("language"))
	if language == "" {
		language = domain.LanguageAuto
	}
	if !domain.IsSupportedLanguage(language) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("Unsupported language: %s", language)})
		return
	}

	if _, err := validate.Validate(domain.UploadCandidate{Name: header.Filename, SizeBytes: header.Size}); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if h.cfg.Delay > 0 {
		select {
		case <-time.After(h.cfg.Delay):
		case <-c.Request.Context().Done():
			return
		}
	}

	detected := language
	if detected == domain.LanguageAuto {
		detected = "en"
	}

	segments := fakeSegments(header.Filename, header.Size)
	duration := segments[len(segments)-1].End

	body := gin.H{
		"detected_language": detected,
		"segments":          segments,
	}
	if h.cfg.FormattedDuration {
		body["duration"] = formatTimestamp(duration)
		body["duration_seconds"] = duration
	} else {
		body["duration"] = duration
	}
	c.JSON(http.StatusOK, body)
}

// suggestTitles returns three titles derived from the content's first sentence.
func (h *handlers) suggestTitles(c *gin.Context) {
	var payload SuggestTitlesPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("Invalid JSON: %v", err)})
		return
	}
	if payload.Content == nil || *payload.Content == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No content provided"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": GenerateTitles(*payload.Content)})
}

// fakeSegments splits a pseudo duration derived from the upload size into three speaker turns.
func fakeSegments(name string, size int64) []segmentResponse {
	// roughly 16 KB per second of compressed audio, at least three seconds
	total := decimal.NewFromInt(size).Div(decimal.NewFromInt(16_000)).Round(2)
	if total.LessThan(decimal.NewFromInt(3)) {
		total = decimal.NewFromInt(3)
	}
	step := total.Div(decimal.NewFromInt(3)).Round(2)

	segments := make([]segmentResponse, 3)
	start := decimal.Zero
	for i := range segments {
		end := start.Add(step)
		if i == len(segments)-1 {
			end = total
		}
		s, e := start.InexactFloat64(), end.InexactFloat64()
		segments[i] = segmentResponse{
			Start:      s,
			End:        e,
			Text:       fmt.Sprintf("Stub transcription of %s, part %d.", name, i+1),
			Confidence: 0.9,
			Speaker:    fmt.Sprintf("Speaker %d", i%2),
			Time:       formatTimestamp(s) + " → " + formatTimestamp(e),
		}
		start = end
	}
	return segments
}

// formatTimestamp renders seconds as MM:SS.mmm.
func formatTimestamp(seconds float64) string {
	minutes := int(seconds) / 60
	rest := seconds - float64(minutes*60)
	return fmt.Sprintf("%02d:%06.3f", minutes, rest)
}
