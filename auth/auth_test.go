package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(ttl time.Duration) *TokenService {
	return NewTokenService("test-secret", ttl, "factures-api")
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	s := newTestService(time.Hour)
	token, err := s.Issue(42)
	require.NoError(t, err)

	uid, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), uid)
}

func TestVerifyRejects(t *testing.T) {
	s := newTestService(time.Hour)
	good, err := s.Issue(7)
	require.NoError(t, err)

	otherSecret, _ := NewTokenService("other-secret", time.Hour, "factures-api").Issue(7)
	otherIssuer, _ := NewTokenService("test-secret", time.Hour, "someone-else").Issue(7)
	noneAlg, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "7", Issuer: "factures-api"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	badSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "alice", Issuer: "factures-api"}).
		SignedString([]byte("test-secret"))

	tests := map[string]string{
		"empty":        "",
		"garbage":      "not.a.jwt",
		"tampered":     good + "x",
		"wrong secret": otherSecret,
		"wrong issuer": otherIssuer,
		"alg none":     noneAlg,
		"non numeric":  badSubject,
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := s.Verify(tok)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnauthorized))
		})
	}
}

func TestVerifyExpiry(t *testing.T) {
	s := newTestService(time.Minute)
	base := time.Now()
	s.now = func() time.Time { return base }
	token, err := s.Issue(3)
	require.NoError(t, err)

	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestZeroTTLNeverExpires(t *testing.T) {
	s := newTestService(0)
	base := time.Now()
	s.now = func() time.Time { return base }
	token, err := s.Issue(3)
	require.NoError(t, err)

	s.now = func() time.Time { return base.Add(365 * 24 * time.Hour) }
	uid, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(3), uid)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Bearer   abc  ", "abc", true},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		got, ok := BearerToken(r)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.want, got, tt.header)
	}
}

func TestRequireBearer(t *testing.T) {
	s := newTestService(time.Hour)
	var seen uint
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	onlyUser5 := func(_ context.Context, uid uint) bool { return uid == 5 }
	h := RequireBearer(s, onlyUser5)(next)

	t.Run("missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/factures", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"message":"Token manquant"}`, w.Body.String())
	})

	t.Run("invalid token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/factures", nil)
		r.Header.Set("Authorization", "Bearer nope")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		tok, _ := s.Issue(6)
		r := httptest.NewRequest(http.MethodGet, "/factures", nil)
		r.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid", func(t *testing.T) {
		tok, _ := s.Issue(5)
		r := httptest.NewRequest(http.MethodGet, "/factures", nil)
		r.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, uint(5), seen)
	})
}

func TestUserIDFromContext(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)

	_, ok = UserIDFromContext(WithUserID(context.Background(), 0))
	assert.False(t, ok)

	id, ok := UserIDFromContext(WithUserID(context.Background(), 9))
	assert.True(t, ok)
	assert.Equal(t, uint(9), id)
}
