package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/auditflow/internal/auth"
)

// HTTPClient submits audits to the remote endpoint over HTTP, attaching a
// bearer credential from the token source. A rejected credential is
// invalidated and the request retried once with a fresh token.
type HTTPClient struct {
	submitURL  string
	tokens     auth.TokenSource
	httpClient *http.Client
}

func NewHTTPClient(submitURL string, tokens auth.TokenSource) *HTTPClient {
	return &HTTPClient{
		submitURL:  submitURL,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

type submitResponse struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

func (c *HTTPClient) SubmitAudit(ctx context.Context, payload *SubmitPayload) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	result, err := c.post(ctx, body)
	if err == nil {
		return result, nil
	}

	if errors.Is(err, ErrUnauthorized) {
		if inv, ok := c.tokens.(auth.Invalidator); ok {
			inv.Invalidate()
			return c.post(ctx, body)
		}
	}
	return nil, err
}

func (c *HTTPClient) post(ctx context.Context, body []byte) (json.RawMessage, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.submitURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport-level failures (refused, reset, timeout) are all
		// retryable from the engine's point of view.
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, resp.Status)
	default:
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("submit failed: %s; body: %s", resp.Status, string(b))
	}

	var sr submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("submit response: %w", err)
	}
	if !sr.Success {
		return nil, fmt.Errorf("submit rejected: %s", sr.Error)
	}
	return sr.Result, nil
}
