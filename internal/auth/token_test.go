package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/auditflow/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "auditor",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestStaticTokenSource(t *testing.T) {
	s := NewStaticTokenSource("abc")
	token, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	_, err = NewStaticTokenSource("").Token(context.Background())
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestRefreshingTokenSource_ReturnsValidTokenWithoutRefresh(t *testing.T) {
	access := signedToken(t, time.Now().Add(time.Hour))
	s := NewRefreshingTokenSource("http://unused", access, "refresh-1")

	token, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, access, token)
}

func TestRefreshingTokenSource_RefreshesExpiringToken(t *testing.T) {
	fresh := signedToken(t, time.Now().Add(time.Hour))

	var gotRefreshToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotRefreshToken = req.RefreshToken
		json.NewEncoder(w).Encode(refreshResponse{AccessToken: fresh, RefreshToken: "refresh-2"})
	}))
	defer srv.Close()

	expiring := signedToken(t, time.Now().Add(10*time.Second))
	s := NewRefreshingTokenSource(srv.URL, expiring, "refresh-1")

	token, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fresh, token)
	assert.Equal(t, "refresh-1", gotRefreshToken)
	// The rotated refresh token is kept for the next exchange.
	assert.Equal(t, "refresh-2", s.refreshToken)
}

func TestRefreshingTokenSource_InvalidateForcesRefresh(t *testing.T) {
	fresh := signedToken(t, time.Now().Add(time.Hour))

	refreshes := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refreshes++
		json.NewEncoder(w).Encode(refreshResponse{AccessToken: fresh})
	}))
	defer srv.Close()

	s := NewRefreshingTokenSource(srv.URL, signedToken(t, time.Now().Add(time.Hour)), "refresh-1")

	_, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, refreshes)

	s.Invalidate()

	token, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fresh, token)
	assert.Equal(t, 1, refreshes)
}

func TestRefreshingTokenSource_RefreshRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := NewRefreshingTokenSource(srv.URL, "", "refresh-1")
	_, err := s.Token(context.Background())
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestRefreshingTokenSource_NoRefreshToken(t *testing.T) {
	s := NewRefreshingTokenSource("http://unused", "", "")
	_, err := s.Token(context.Background())
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}
