package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mythictransfers/supportdesk/internal/logger"
	"go.uber.org/zap"
)

type contextKey string

// ReviewerKey is the context key holding the authenticated reviewer's email.
const ReviewerKey contextKey = "reviewer"

// AnonymousReviewer is recorded as the actor when authentication is disabled.
const AnonymousReviewer = "anonymous"

var (
	ErrMissingToken = errors.New("token is empty")
	ErrInvalidToken = errors.New("token is invalid")
)

// Authenticator issues and checks HS256 reviewer tokens.
// With an empty secret it is disabled and lets every request through.
type Authenticator struct {
	secret []byte
	log    *zap.Logger
}

func NewAuthenticator(secret string, log *zap.Logger) *Authenticator {
	return &Authenticator{secret: []byte(secret), log: logger.Named(log, "auth")}
}

// Enabled reports whether tokens are required.
func (a *Authenticator) Enabled() bool {
	return a != nil && len(a.secret) > 0
}

// GenerateToken signs a token for reviewer email that expires after ttl.
func (a *Authenticator) GenerateToken(email string, ttl time.Duration) (string, error) {
	if !a.Enabled() {
		return "", errors.New("jwt secret is not configured")
	}
	if strings.TrimSpace(email) == "" {
		return "", errors.New("reviewer email is required")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   email,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ValidateToken checks the signature and expiry and returns the reviewer email.
func (a *Authenticator) ValidateToken(tokenStr string) (string, error) {
	if strings.TrimSpace(tokenStr) == "" {
		return "", ErrMissingToken
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	email, _ := claims["email"].(string)
	if email == "" {
		return "", fmt.Errorf("%w: missing email claim", ErrInvalidToken)
	}
	return email, nil
}

// RequireAuth rejects requests without a valid bearer token with 401 and
// stores the reviewer's email in the request context.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next.ServeHTTP(w, r.WithContext(WithReviewer(r.Context(), AnonymousReviewer)))
			return
		}

		token, ok := BearerToken(r.Header.Get("Authorization"))
		if !ok {
			a.log.Debug("Missing or malformed Authorization header", zap.String("path", r.URL.Path))
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		reviewer, err := a.ValidateToken(token)
		if err != nil {
			a.log.Info("Token validation failed", zap.String("path", r.URL.Path), zap.Error(err))
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithReviewer(r.Context(), reviewer)))
	})
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
// The scheme is case-insensitive (RFC 7235).
func BearerToken(header string) (string, bool) {
	fields := strings.Fields(header)
	if len(fields) < 2 || !strings.EqualFold(fields[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(strings.Join(fields[1:], " "))
	return token, token != ""
}

// WithReviewer returns ctx carrying reviewer.
func WithReviewer(ctx context.Context, reviewer string) context.Context {
	return context.WithValue(ctx, ReviewerKey, reviewer)
}

// ReviewerFromContext returns the reviewer stored by RequireAuth.
func ReviewerFromContext(ctx context.Context) (string, bool) {
	reviewer, ok := ctx.Value(ReviewerKey).(string)
	return reviewer, ok
}

// RequireBasicAuth protects the inbound webhook. An empty username disables the check.
func RequireBasicAuth(username, password string, next http.Handler) http.Handler {
	if username == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(user), []byte(username)) != 1 ||
			subtle.ConstantTimeCompare([]byte(pass), []byte(password)) != 1 {
			w.Header().Set("WWW-Authenticate", `Basic realm="webhook"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
