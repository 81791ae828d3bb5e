package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/JayMung/FactureX-sub003/internal/domain"
	"github.com/JayMung/FactureX-sub003/pkg/logger"
)

// AuditRepository defines the interface for persisting audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}

// AuditMiddleware records each API request in the audit trail.
type AuditMiddleware struct {
	repo   AuditRepository
	logger logger.Logger
}

func NewAuditMiddleware(repo AuditRepository, log logger.Logger) *AuditMiddleware {
	return &AuditMiddleware{repo: repo, logger: log}
}

// Audit persists the request record asynchronously, off the response path.
func (m *AuditMiddleware) Audit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped, ok := w.(*responseWriter)
		if !ok {
			wrapped = &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		}

		next.ServeHTTP(wrapped, r)

		if r.URL.Path == "/health" || r.URL.Path == "/ready" {
			return
		}

		ip := r.RemoteAddr
		ua := r.UserAgent()
		action := r.Method + " " + r.URL.Path
		status := wrapped.statusCode

		var userID *uuid.UUID
		if id, ok := UserIDFromContext(r.Context()); ok {
			userID = &id
		}
		var requestID *string
		if rid, ok := RequestIDFromContext(r.Context()); ok {
			requestID = &rid
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			entry := &domain.AuditLog{
				ID:         uuid.New(),
				UserID:     userID,
				Action:     action,
				IPAddress:  &ip,
				UserAgent:  &ua,
				RequestID:  requestID,
				StatusCode: &status,
				CreatedAt:  time.Now(),
			}

			if err := m.repo.Create(ctx, entry); err != nil {
				m.logger.Error("Failed to create audit log", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}()
	})
}
