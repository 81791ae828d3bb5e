// Package middleware hosts authentication, auditing, logging, and rate
// limiting middleware for the dashboard API.
package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/JayMung/FactureX-sub003/internal/domain"
)

// contextKey avoids collisions when storing values in request contexts.
type contextKey string

const (
	ctxUserIDKey contextKey = "user_id"
	ctxEmailKey  contextKey = "email"
	ctxAPIKeyKey contextKey = "api_key"
)

// APIKeyValidator resolves a raw API key to its record.
type APIKeyValidator interface {
	ValidateKey(ctx context.Context, rawKey string) (*domain.APIKey, error)
}

// AuthMiddleware accepts either a bearer JWT (the dashboard session) or an
// X-API-Key header (programmatic access) and injects the caller identity
// into the request context.
type AuthMiddleware struct {
	jwtSecret string
	apiKeys   APIKeyValidator
}

func NewAuthMiddleware(secret string, apiKeys APIKeyValidator) *AuthMiddleware {
	return &AuthMiddleware{jwtSecret: secret, apiKeys: apiKeys}
}

// Authenticate enforces one of the two credential types.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rawKey := strings.TrimSpace(r.Header.Get("X-API-Key")); rawKey != "" {
			if m.apiKeys == nil {
				jsonError(w, http.StatusUnauthorized, "API key auth not configured")
				return
			}
			key, err := m.apiKeys.ValidateKey(r.Context(), rawKey)
			if err != nil {
				jsonError(w, http.StatusUnauthorized, "Invalid API key")
				return
			}
			ctx := context.WithValue(r.Context(), ctxAPIKeyKey, key.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		authHeader := r.Header.Get("Authorization")
		if strings.TrimSpace(authHeader) == "" {
			jsonError(w, http.StatusUnauthorized, "Authorization header required")
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			jsonError(w, http.StatusUnauthorized, "Invalid authorization format")
			return
		}
		tokenString := parts[1]

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(m.jwtSecret), nil
		})

		if err != nil || !token.Valid {
			jsonError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			jsonError(w, http.StatusUnauthorized, "Invalid token claims")
			return
		}

		if exp, ok := claims["exp"].(float64); ok {
			if time.Now().Unix() > int64(exp) {
				jsonError(w, http.StatusUnauthorized, "Token expired")
				return
			}
		}

		userIDStr, ok := claims["user_id"].(string)
		if !ok {
			jsonError(w, http.StatusUnauthorized, "Invalid user ID in token")
			return
		}

		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			jsonError(w, http.StatusUnauthorized, "Invalid user ID format")
			return
		}

		ctx := context.WithValue(r.Context(), ctxUserIDKey, userID)
		if email, ok := claims["email"].(string); ok {
			ctx = context.WithValue(ctx, ctxEmailKey, email)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserIDFromContext returns the authenticated user's UUID from context.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ctxUserIDKey).(uuid.UUID)
	return id, ok
}

// APIKeyIDFromContext returns the authenticated API key's UUID from context.
func APIKeyIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ctxAPIKeyKey).(uuid.UUID)
	return id, ok
}
