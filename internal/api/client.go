// Package api talks to the remote transcription and title-suggestion service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	transcribePath    = "/transcribe/"
	suggestTitlesPath = "/suggest-titles/"
)

// Client issues requests against one API base URL.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

// NewClient builds a client; timeout <= 0 disables the per-request deadline.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return NewClientWithHTTP(baseURL, timeout, &http.Client{})
}

// NewClientWithHTTP builds a client around a caller-supplied http.Client.
func NewClientWithHTTP(baseURL string, timeout time.Duration, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    hc,
		timeout: timeout,
	}
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// withTimeout derives the per-request context.
func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// classifyDoError maps a failed round trip to cancellation, timeout or network failure.
func classifyDoError(parent context.Context, err error, fallback string) error {
	if parent.Err() != nil && errors.Is(parent.Err(), context.Canceled) {
		return context.Canceled
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &TransportError{Kind: KindTimeout, Message: MsgTimeout, Err: err}
	}
	return &TransportError{Kind: KindNetworkFailure, Message: fallback, Err: err}
}

// errorBody is the optional error envelope on failed responses.
type errorBody struct {
	Error string `json:"error"`
}

// nonSuccessError surfaces the service's error text or the fallback.
func nonSuccessError(resp *http.Response, body []byte, fallback string) error {
	msg := fallback
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && strings.TrimSpace(eb.Error) != "" {
		msg = eb.Error
	}
	return &TransportError{
		Kind:       KindNonSuccessStatus,
		StatusCode: resp.StatusCode,
		Message:    msg,
	}
}

// readBody reads the full response body.
func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// isSuccess reports whether status is in [200, 300).
func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
