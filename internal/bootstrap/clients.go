package bootstrap

import (
	"context"
	"sync"

	"github.com/Angad-2002/Darwix-AI/internal/api"
	"github.com/Angad-2002/Darwix-AI/internal/config"
	"github.com/Angad-2002/Darwix-AI/internal/domain"
)

// switchableClient routes calls to an API client rebuilt whenever settings change.
// A request already in flight keeps the client it started with.
type switchableClient struct {
	mu     sync.Mutex
	client *api.Client
}

func newSwitchableClient(settings domain.Settings) *switchableClient {
	s := &switchableClient{}
	s.Reset(settings)
	return s
}

// Reset replaces the client with one built from settings.
func (s *switchableClient) Reset(settings domain.Settings) {
	client := api.NewClient(settings.APIBaseURL, config.RequestTimeout(settings))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = client
}

func (s *switchableClient) current() *api.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

// Transcribe uploads through the current client.
func (s *switchableClient) Transcribe(ctx context.Context, req domain.TranscriptionRequest, onProgress api.ProgressFunc) (domain.TranscriptionResult, error) {
	return s.current().Transcribe(ctx, req, onProgress)
}

// SuggestTitles requests titles through the current client.
func (s *switchableClient) SuggestTitles(ctx context.Context, content string) ([]domain.TitleSuggestion, error) {
	return s.current().SuggestTitles(ctx, content)
}
