package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JayMung/FactureX-sub003/internal/domain"
	"github.com/JayMung/FactureX-sub003/pkg/errors"
)

const testSecret = "test-secret"

type fakeKeyValidator struct {
	key *domain.APIKey
}

func (f *fakeKeyValidator) ValidateKey(ctx context.Context, rawKey string) (*domain.APIKey, error) {
	if f.key != nil && rawKey == "fx_live_good" {
		return f.key, nil
	}
	return nil, errors.ErrInvalidAPIKey
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func okHandler(captured **http.Request) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			*captured = r
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate_MissingCredentials(t *testing.T) {
	mw := NewAuthMiddleware(testSecret, &fakeKeyValidator{})

	req := httptest.NewRequest("GET", "/api/v1/mouvements", nil)
	w := httptest.NewRecorder()
	mw.Authenticate(okHandler(nil)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticate_ValidJWT(t *testing.T) {
	mw := NewAuthMiddleware(testSecret, &fakeKeyValidator{})
	userID := uuid.New()

	token := signToken(t, jwt.MapClaims{
		"user_id": userID.String(),
		"email":   "admin@example.com",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	var captured *http.Request
	req := httptest.NewRequest("GET", "/api/v1/mouvements", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	mw.Authenticate(okHandler(&captured)).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	gotID, ok := UserIDFromContext(captured.Context())
	require.True(t, ok)
	assert.Equal(t, userID, gotID)
}

func TestAuthenticate_ExpiredJWT(t *testing.T) {
	mw := NewAuthMiddleware(testSecret, &fakeKeyValidator{})

	token := signToken(t, jwt.MapClaims{
		"user_id": uuid.New().String(),
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})

	req := httptest.NewRequest("GET", "/api/v1/mouvements", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	mw.Authenticate(okHandler(nil)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticate_WrongSigningSecret(t *testing.T) {
	mw := NewAuthMiddleware(testSecret, &fakeKeyValidator{})

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": uuid.New().String(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("other-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/v1/mouvements", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w := httptest.NewRecorder()
	mw.Authenticate(okHandler(nil)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticate_APIKey(t *testing.T) {
	keyID := uuid.New()
	mw := NewAuthMiddleware(testSecret, &fakeKeyValidator{key: &domain.APIKey{ID: keyID, IsActive: true}})

	var captured *http.Request
	req := httptest.NewRequest("GET", "/api/v1/mouvements", nil)
	req.Header.Set("X-API-Key", "fx_live_good")
	w := httptest.NewRecorder()
	mw.Authenticate(okHandler(&captured)).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	gotID, ok := APIKeyIDFromContext(captured.Context())
	require.True(t, ok)
	assert.Equal(t, keyID, gotID)
}

func TestAuthenticate_RejectedAPIKey(t *testing.T) {
	mw := NewAuthMiddleware(testSecret, &fakeKeyValidator{})

	req := httptest.NewRequest("GET", "/api/v1/mouvements", nil)
	req.Header.Set("X-API-Key", "fx_live_bad")
	w := httptest.NewRecorder()
	mw.Authenticate(okHandler(nil)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
