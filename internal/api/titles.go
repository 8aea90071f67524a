package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Angad-2002/Darwix-AI/internal/domain"
)

type suggestTitlesRequest struct {
	Content string `json:"content"`
}

type suggestTitlesResponse struct {
	Suggestions []string `json:"suggestions"`
	Error       string   `json:"error"`
}

// SuggestTitles posts content and returns suggestions in service order.
// A 2xx body carrying an error string yields an ApplicationError.
func (c *Client) SuggestTitles(ctx context.Context, content string) ([]domain.TitleSuggestion, error) {
	payload, err := json.Marshal(suggestTitlesRequest{Content: content})
	if err != nil {
		return nil, fmt.Errorf("encode suggest titles request: %w", err)
	}

	reqCtx, cancel := c.withTimeout(ctx)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+suggestTitlesPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build suggest titles request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, classifyDoError(ctx, err, MsgTitlesFailed)
	}

	data, err := readBody(resp)
	if err != nil {
		return nil, classifyDoError(ctx, err, MsgTitlesFailed)
	}
	if !isSuccess(resp.StatusCode) {
		return nil, nonSuccessError(resp, data, MsgTitlesFailed)
	}

	var out suggestTitlesResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &TransportError{Kind: KindMalformedResponse, Message: MsgTitlesFailed, Err: err}
	}
	if strings.TrimSpace(out.Error) != "" {
		return nil, &ApplicationError{Message: out.Error}
	}
	if out.Suggestions == nil {
		return []domain.TitleSuggestion{}, nil
	}
	return out.Suggestions, nil
}
