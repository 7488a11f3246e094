// Package auth provides bearer-credential sources for the remote
// collaborators. The engine only ever asks for "a currently valid access
// token"; refreshing happens transparently behind this interface.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/auditflow/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// TokenSource yields a valid bearer token, refreshing it when needed.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Invalidator is implemented by sources that can discard a token the
// server has rejected, forcing a refresh on the next Token call.
type Invalidator interface {
	Invalidate()
}

// StaticTokenSource returns a fixed token. Used in tests and for
// pre-provisioned service credentials.
type StaticTokenSource struct {
	token string
}

func NewStaticTokenSource(token string) *StaticTokenSource {
	return &StaticTokenSource{token: token}
}

func (s *StaticTokenSource) Token(ctx context.Context) (string, error) {
	if s.token == "" {
		return "", common.ErrInvalidToken
	}
	return s.token, nil
}

// expiryLeeway is how close to expiry a token may get before it is
// refreshed proactively instead of being sent and bounced.
const expiryLeeway = 30 * time.Second

// RefreshingTokenSource keeps an access/refresh token pair and exchanges
// the refresh token against an HTTP endpoint whenever the access token is
// missing, invalidated or about to expire.
type RefreshingTokenSource struct {
	refreshURL string
	httpClient *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string

	now func() time.Time
}

func NewRefreshingTokenSource(refreshURL, accessToken, refreshToken string) *RefreshingTokenSource {
	return &RefreshingTokenSource{
		refreshURL:   refreshURL,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		accessToken:  accessToken,
		refreshToken: refreshToken,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *RefreshingTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accessToken != "" && !s.nearExpiry(s.accessToken) {
		return s.accessToken, nil
	}
	if err := s.refresh(ctx); err != nil {
		return "", err
	}
	return s.accessToken, nil
}

// Invalidate drops the current access token so the next Token call
// performs a refresh.
func (s *RefreshingTokenSource) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
}

// nearExpiry inspects the token's exp claim without verifying the
// signature; validity is the server's concern, we only decide whether a
// proactive refresh is worthwhile.
func (s *RefreshingTokenSource) nearExpiry(tokenString string) bool {
	claims := &jwt.RegisteredClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(tokenString, claims)
	if err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return s.now().Add(expiryLeeway).After(exp.Time)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (s *RefreshingTokenSource) refresh(ctx context.Context) error {
	if s.refreshToken == "" {
		return common.ErrTokenExpired
	}

	body, err := json.Marshal(refreshRequest{RefreshToken: s.refreshToken})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.refreshURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("token refresh failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return common.ErrorUnauthorized
	default:
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("token refresh failed: %s; body: %s", resp.Status, string(b))
	}

	var rr refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return fmt.Errorf("token refresh response: %w", err)
	}
	if rr.AccessToken == "" {
		return common.ErrInvalidToken
	}

	s.accessToken = rr.AccessToken
	if rr.RefreshToken != "" {
		s.refreshToken = rr.RefreshToken
	}
	return nil
}
