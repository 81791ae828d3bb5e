package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/JayMung/FactureX-sub003/internal/domain"
	"github.com/JayMung/FactureX-sub003/pkg/errors"
)

// AuditRepository persists the request audit trail.
type AuditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	query := `
		INSERT INTO audit_logs (
			id, user_id, action, ip_address, user_agent, request_id, status_code, created_at
		) VALUES (
			:id, :user_id, :action, :ip_address, :user_agent, :request_id, :status_code, :created_at
		)
	`

	_, err := r.db.NamedExecContext(ctx, query, log)
	if err != nil {
		return errors.Wrap(err, "failed to create audit log")
	}
	return nil
}

func (r *AuditRepository) FindAll(ctx context.Context, limit, offset int) ([]domain.AuditLog, error) {
	var logs []domain.AuditLog
	query := `
		SELECT id, user_id, action, ip_address, user_agent, request_id, status_code, created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	if err := r.db.SelectContext(ctx, &logs, query, limit, offset); err != nil {
		return nil, errors.Wrap(err, "failed to list audit logs")
	}
	return logs, nil
}

func (r *AuditRepository) CountAll(ctx context.Context) (int, error) {
	var total int
	query := `SELECT COUNT(*) FROM audit_logs`

	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return 0, errors.Wrap(err, "failed to count audit logs")
	}
	return total, nil
}
