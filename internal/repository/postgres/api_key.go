package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/JayMung/FactureX-sub003/internal/domain"
	"github.com/JayMung/FactureX-sub003/pkg/errors"
)

// APIKeyRepository persists hashed API keys.
type APIKeyRepository struct {
	db *sqlx.DB
}

func NewAPIKeyRepository(db *sqlx.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

func (r *APIKeyRepository) Create(ctx context.Context, key *domain.APIKey) error {
	query := `
		INSERT INTO api_keys (
			id, nom, key_prefix, key_hash, is_active, expires_at, created_at
		) VALUES (
			:id, :nom, :key_prefix, :key_hash, :is_active, :expires_at, :created_at
		)
	`

	_, err := r.db.NamedExecContext(ctx, query, key)
	if err != nil {
		return errors.Wrap(err, "failed to create api key")
	}
	return nil
}

func (r *APIKeyRepository) List(ctx context.Context) ([]domain.APIKey, error) {
	var keys []domain.APIKey
	query := `SELECT * FROM api_keys ORDER BY created_at DESC`

	if err := r.db.SelectContext(ctx, &keys, query); err != nil {
		return nil, errors.Wrap(err, "failed to list api keys")
	}
	return keys, nil
}

func (r *APIKeyRepository) GetByKeyHash(ctx context.Context, hash string) (*domain.APIKey, error) {
	var key domain.APIKey
	query := `SELECT * FROM api_keys WHERE key_hash = $1 AND is_active = true`

	err := r.db.GetContext(ctx, &key, query, hash)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get api key")
	}

	if key.ExpiresAt != nil && key.ExpiresAt.Before(time.Now()) {
		return nil, nil
	}
	return &key, nil
}

func (r *APIKeyRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE api_keys SET is_active = false, revoked_at = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return errors.Wrap(err, "failed to revoke api key")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to revoke api key")
	}
	if rows == 0 {
		return errors.ErrAPIKeyNotFound
	}
	return nil
}

func (r *APIKeyRepository) UpdateLastUsed(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE api_keys SET last_used_at = $1 WHERE id = $2`

	_, err := r.db.ExecContext(ctx, query, time.Now(), id)
	return err
}
