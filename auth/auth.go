// Package auth issues and verifies bearer tokens and carries the
// authenticated user id through request contexts.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/factures-api/httpx"
	"github.com/golang-jwt/jwt/v5"
)

type ctxKey string

const userIDCtxKey = ctxKey("userID")

// ErrUnauthorized is returned by Verify for any token that must be rejected.
var ErrUnauthorized = errors.New("unauthorized")

// UserVerifier is an optional callback to validate that a token's user still exists.
// If nil, no extra verification is performed.
type UserVerifier func(ctx context.Context, uid uint) bool

// TokenService issues and verifies HS256 JWTs bound to a user id.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewTokenService creates a token service. A zero ttl issues tokens without expiry.
func NewTokenService(secret string, ttl time.Duration, issuer string) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: issuer,
		now:    time.Now,
	}
}

// Issue returns a signed token whose subject is userID.
func (s *TokenService) Issue(userID uint) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:  strconv.FormatUint(uint64(userID), 10),
		Issuer:   s.issuer,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if s.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, algorithm, issuer and expiry of tokenString and
// returns the user id it carries.
func (s *TokenService) Verify(tokenString string) (uint, error) {
	if tokenString == "" {
		return 0, fmt.Errorf("%w: missing token", ErrUnauthorized)
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: bad subject", ErrUnauthorized)
	}
	return uint(id), nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// WithUserID stores user id in context.
func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, userIDCtxKey, userID)
}

// UserIDFromContext extracts user id.
func UserIDFromContext(ctx context.Context) (uint, bool) {
	v := ctx.Value(userIDCtxKey)
	if v == nil {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

// RequireBearer rejects requests without a valid bearer token with 401 JSON
// and attaches the user id to the context otherwise.
func RequireBearer(tokens *TokenService, verifier UserVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := BearerToken(r)
			if !ok {
				httpx.Localized(w, r, http.StatusUnauthorized, "missing_token")
				return
			}
			uid, err := tokens.Verify(raw)
			if err != nil {
				httpx.Localized(w, r, http.StatusUnauthorized, "invalid_token")
				return
			}
			// Token refers to a non-existing user: treat as unauthorized.
			if verifier != nil && !verifier(r.Context(), uid) {
				httpx.Localized(w, r, http.StatusUnauthorized, "invalid_token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), uid)))
		})
	}
}
