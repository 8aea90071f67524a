package api

import "fmt"

// ErrorKind classifies transport failures.
type ErrorKind string

const (
	KindNetworkFailure    ErrorKind = "network_failure"
	KindNonSuccessStatus  ErrorKind = "non_success_status"
	KindMalformedResponse ErrorKind = "malformed_response"
	KindTimeout           ErrorKind = "timeout"
)

// Fallback messages used when the service supplies no error text.
const (
	MsgTranscribeFailed  = "Failed to transcribe audio"
	MsgNetworkError      = "Network error occurred"
	MsgTimeout           = "Request timed out"
	MsgMalformedResponse = "Received an invalid response from the server"
	MsgTitlesFailed      = "Failed to generate titles. Please try again."
)

// TransportError is a recoverable request failure with a user-facing message.
type TransportError struct {
	Kind       ErrorKind `json:"kind"`
	StatusCode int       `json:"statusCode,omitempty"`
	Message    string    `json:"message"`
	Err        error     `json:"-"`
}

// Error returns the user-facing message.
func (e *TransportError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Detail formats the error with kind and status for logs.
func (e *TransportError) Detail() string {
	if e == nil {
		return ""
	}
	detail := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.StatusCode != 0 {
		detail += fmt.Sprintf(" (status=%d)", e.StatusCode)
	}
	if e.Err != nil {
		detail += fmt.Sprintf(": %v", e.Err)
	}
	return detail
}

// Unwrap exposes underlying error for errors.Is / errors.As.
func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another TransportError of the same kind.
func (e *TransportError) Is(target error) bool {
	t, ok := target.(*TransportError)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinels for errors.Is checks by kind.
var (
	ErrNetworkFailure    = &TransportError{Kind: KindNetworkFailure}
	ErrNonSuccessStatus  = &TransportError{Kind: KindNonSuccessStatus}
	ErrMalformedResponse = &TransportError{Kind: KindMalformedResponse}
	ErrTimeout           = &TransportError{Kind: KindTimeout}
)

// ApplicationError is an error string returned inside a successful response.
type ApplicationError struct {
	Message string `json:"message"`
}

// Error returns the service message as-is.
func (e *ApplicationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}
