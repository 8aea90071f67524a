package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/Angad-2002/Darwix-AI/internal/domain"
)

// Multipart field names expected by the transcribe endpoint.
const (
	FieldFile     = "file"
	FieldLanguage = "language"
)

// Transcribe uploads the request as multipart form data and parses the result.
// onProgress is called from the uploading goroutine while the body is sent.
// A cancelled ctx yields context.Canceled rather than a TransportError.
func (c *Client) Transcribe(ctx context.Context, req domain.TranscriptionRequest, onProgress ProgressFunc) (domain.TranscriptionResult, error) {
	body, contentType, err := encodeTranscriptionRequest(req)
	if err != nil {
		return domain.TranscriptionResult{}, err
	}

	reqCtx, cancel := c.withTimeout(ctx)
	defer cancel()

	total := int64(body.Len())
	httpReq, err := http.NewRequestWithContext(
		reqCtx,
		http.MethodPost,
		c.baseURL+transcribePath,
		newProgressReader(body, total, onProgress),
	)
	if err != nil {
		return domain.TranscriptionResult{}, fmt.Errorf("build transcribe request: %w", err)
	}
	httpReq.ContentLength = total
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return domain.TranscriptionResult{}, classifyDoError(ctx, err, MsgNetworkError)
	}

	data, err := readBody(resp)
	if err != nil {
		return domain.TranscriptionResult{}, classifyDoError(ctx, err, MsgNetworkError)
	}
	if !isSuccess(resp.StatusCode) {
		return domain.TranscriptionResult{}, nonSuccessError(resp, data, MsgTranscribeFailed)
	}

	return decodeTranscriptionResult(data)
}

// encodeTranscriptionRequest buffers the multipart body; files are capped at 10 MiB.
func encodeTranscriptionRequest(req domain.TranscriptionRequest) (*bytes.Buffer, string, error) {
	if req.File.Source == nil {
		return nil, "", fmt.Errorf("encode transcribe request: no file source for %q", req.File.Name)
	}
	src, err := req.File.Source.Open()
	if err != nil {
		return nil, "", fmt.Errorf("encode transcribe request: open %q: %w", req.File.Name, err)
	}
	defer src.Close()

	language := req.LanguageHint
	if language == "" {
		language = domain.LanguageAuto
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(FieldFile, req.File.Name)
	if err != nil {
		return nil, "", fmt.Errorf("encode transcribe request: create file part: %w", err)
	}
	if _, err := io.Copy(fw, src); err != nil {
		return nil, "", fmt.Errorf("encode transcribe request: copy file: %w", err)
	}
	if err := mw.WriteField(FieldLanguage, language); err != nil {
		return nil, "", fmt.Errorf("encode transcribe request: write language: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("encode transcribe request: close writer: %w", err)
	}

	return &body, mw.FormDataContentType(), nil
}

// transcribeResponse is the wire schema of a transcription result.
type transcribeResponse struct {
	Duration         json.RawMessage `json:"duration"`
	DurationSeconds  *float64        `json:"duration_seconds"`
	DetectedLanguage *string         `json:"detected_language"`
	Segments         *[]wireSegment  `json:"segments"`
	Error            string          `json:"error"`
}

type wireSegment struct {
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence"`
	Speaker    string   `json:"speaker"`
}

// decodeTranscriptionResult parses and checks a 2xx body.
func decodeTranscriptionResult(data []byte) (domain.TranscriptionResult, error) {
	var wire transcribeResponse
	if err := json.Unmarshal(data, &wire); err != nil {
		return domain.TranscriptionResult{}, malformed(err)
	}
	// A service error wins over any partial segments sent alongside it.
	if wire.Error != "" {
		return domain.TranscriptionResult{}, &ApplicationError{Message: wire.Error}
	}
	if wire.Segments == nil {
		return domain.TranscriptionResult{}, malformed(fmt.Errorf("missing segments"))
	}

	duration, err := parseDuration(wire.Duration, wire.DurationSeconds)
	if err != nil {
		return domain.TranscriptionResult{}, malformed(err)
	}

	result := domain.TranscriptionResult{
		DurationSeconds:  duration,
		DetectedLanguage: wire.DetectedLanguage,
		Segments:         make([]domain.Segment, 0, len(*wire.Segments)),
	}
	for i, s := range *wire.Segments {
		if s.Start < 0 || s.End < s.Start {
			return domain.TranscriptionResult{}, malformed(fmt.Errorf("segment %d has invalid range [%v, %v]", i, s.Start, s.End))
		}
		if s.Confidence != nil && (*s.Confidence < 0 || *s.Confidence > 1) {
			return domain.TranscriptionResult{}, malformed(fmt.Errorf("segment %d confidence %v out of range", i, *s.Confidence))
		}
		result.Segments = append(result.Segments, domain.Segment{
			StartSeconds: s.Start,
			EndSeconds:   s.End,
			Text:         s.Text,
			Confidence:   s.Confidence,
			Speaker:      s.Speaker,
		})
	}

	return result, nil
}

// parseDuration accepts a numeric duration, or falls back to duration_seconds
// when the service reports a formatted "MM:SS.mmm" string.
func parseDuration(raw json.RawMessage, seconds *float64) (float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		if seconds != nil {
			return *seconds, nil
		}
		return 0, nil
	}

	var numeric float64
	if err := json.Unmarshal(raw, &numeric); err == nil {
		return numeric, nil
	}

	var formatted string
	if err := json.Unmarshal(raw, &formatted); err == nil && seconds != nil {
		return *seconds, nil
	}
	return 0, fmt.Errorf("unsupported duration value %s", string(raw))
}

// malformed wraps a parse failure.
func malformed(err error) error {
	return &TransportError{Kind: KindMalformedResponse, Message: MsgMalformedResponse, Err: err}
}
