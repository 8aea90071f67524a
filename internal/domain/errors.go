package domain

// ValidationKind classifies local validation failures.
type ValidationKind string

const (
	ValidationFileTooLarge      ValidationKind = "file_too_large"
	ValidationUnsupportedFormat ValidationKind = "unsupported_format"
	ValidationEmptyContent      ValidationKind = "empty_content"
)

// ValidationError is detected before any network call and is always recoverable.
type ValidationError struct {
	Kind    ValidationKind `json:"kind"`
	Message string         `json:"message"`
}

// Error returns the user-facing message.
func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Is matches another ValidationError of the same kind.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

var (
	ErrFileTooLarge = &ValidationError{
		Kind:    ValidationFileTooLarge,
		Message: "File size exceeds 10MB limit",
	}
	ErrUnsupportedFormat = &ValidationError{
		Kind:    ValidationUnsupportedFormat,
		Message: "Invalid file type. Supported types: mp3, wav, m4a, ogg",
	}
	ErrEmptyContent = &ValidationError{
		Kind:    ValidationEmptyContent,
		Message: "Please enter some content to generate titles",
	}
)
