// Package titles runs title suggestion requests for free-form content.
package titles

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/logger"

	"github.com/Angad-2002/Darwix-AI/internal/api"
	"github.com/Angad-2002/Darwix-AI/internal/applog"
	"github.com/Angad-2002/Darwix-AI/internal/domain"
)

// ErrGenerationInProgress is returned when a request is already outstanding.
var ErrGenerationInProgress = errors.New("title generation already in progress")

// Suggester is the service call behind Generate.
type Suggester interface {
	SuggestTitles(ctx context.Context, content string) ([]domain.TitleSuggestion, error)
}

// State is the view shown next to the content editor.
type State struct {
	Loading     bool                     `json:"loading"`
	Suggestions []domain.TitleSuggestion `json:"suggestions"`
	Error       string                   `json:"error,omitempty"`
}

// Controller allows one outstanding request and keeps the last good suggestions.
type Controller struct {
	suggester Suggester
	log       logger.Logger

	mu    sync.Mutex
	state State
}

// NewController creates an idle controller.
func NewController(suggester Suggester, log logger.Logger) *Controller {
	return &Controller{suggester: suggester, log: applog.OrNop(log)}
}

// State returns a copy of the current view state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.state
	out.Suggestions = append([]domain.TitleSuggestion(nil), c.state.Suggestions...)
	return out
}

// Generate requests titles for content. Blank content is rejected before any network call.
func (c *Controller) Generate(ctx context.Context, content string) ([]domain.TitleSuggestion, error) {
	c.mu.Lock()
	if c.state.Loading {
		c.mu.Unlock()
		return nil, ErrGenerationInProgress
	}
	if strings.TrimSpace(content) == "" {
		c.state.Error = domain.ErrEmptyContent.Message
		c.mu.Unlock()
		return nil, domain.ErrEmptyContent
	}
	c.state.Loading = true
	c.state.Error = ""
	c.mu.Unlock()

	suggestions, err := c.suggester.SuggestTitles(ctx, content)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Loading = false
	if err != nil {
		c.state.Error = Message(err)
		applog.Warningf(c.log, "suggest titles: %v", err)
		return nil, err
	}
	c.state.Suggestions = suggestions
	applog.Debugf(c.log, "suggest titles: %d suggestions", len(suggestions))
	return append([]domain.TitleSuggestion(nil), suggestions...), nil
}

// Message returns the text to display for a Generate error.
func Message(err error) string {
	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		return validation.Message
	}
	var appErr *api.ApplicationError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	var te *api.TransportError
	if errors.As(err, &te) && te.Message != "" {
		return te.Message
	}
	return api.MsgTitlesFailed
}
