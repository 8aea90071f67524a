package domain

import "io"

// LanguageAuto lets the service detect the spoken language.
const LanguageAuto = "auto"

// SupportedLanguages lists the language hints offered by the selector.
var SupportedLanguages = []string{
	LanguageAuto, "en", "es", "fr", "de", "it", "pt", "nl", "pl", "ru", "ja", "ko", "zh",
}

// IsSupportedLanguage reports whether code is "auto" or a supported two-letter code.
func IsSupportedLanguage(code string) bool {
	for _, lang := range SupportedLanguages {
		if lang == code {
			return true
		}
	}
	return false
}

// Settings contains user-selectable runtime configuration.
type Settings struct {
	APIBaseURL            string `json:"apiBaseUrl"`
	Language              string `json:"language"`
	DarkMode              bool   `json:"darkMode"`
	HistoryPath           string `json:"historyPath"`
	RequestTimeoutSeconds int    `json:"requestTimeoutSeconds"`
}

// FileSource is the host capability that yields the bytes of a selected file.
type FileSource interface {
	Open() (io.ReadCloser, error)
}

// UploadCandidate is a file the user picked or dropped, before submission.
type UploadCandidate struct {
	Name            string     `json:"name"`
	SizeBytes       int64      `json:"sizeBytes"`
	MimeOrExtension string     `json:"mimeOrExtension"`
	Source          FileSource `json:"-"`
}

// TranscriptionRequest is one immutable submission.
type TranscriptionRequest struct {
	File         UploadCandidate
	LanguageHint string
}

// Segment is one timestamped slice of a transcription.
type Segment struct {
	StartSeconds float64  `json:"start"`
	EndSeconds   float64  `json:"end"`
	Text         string   `json:"text"`
	Confidence   *float64 `json:"confidence"`
	Speaker      string   `json:"speaker,omitempty"`
}

// TranscriptionResult is the parsed response of a successful transcription.
type TranscriptionResult struct {
	DurationSeconds  float64   `json:"duration"`
	DetectedLanguage *string   `json:"detected_language"`
	Segments         []Segment `json:"segments"`
}

// TitleSuggestion is one generated title, in service relevance order.
type TitleSuggestion = string
