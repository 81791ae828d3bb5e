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

// CompteRepository persists financial accounts.
type CompteRepository struct {
	db *sqlx.DB
}

func NewCompteRepository(db *sqlx.DB) *CompteRepository {
	return &CompteRepository{db: db}
}

func (r *CompteRepository) Create(ctx context.Context, compte *domain.CompteFinancier) error {
	query := `
		INSERT INTO comptes_financiers (
			id, nom, type_compte, devise, solde_actuel, is_active, created_at, updated_at
		) VALUES (
			:id, :nom, :type_compte, :devise, :solde_actuel, :is_active, :created_at, :updated_at
		)
	`

	_, err := r.db.NamedExecContext(ctx, query, compte)
	if err != nil {
		return errors.Wrap(err, "failed to create compte")
	}
	return nil
}

func (r *CompteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CompteFinancier, error) {
	var compte domain.CompteFinancier
	query := `SELECT * FROM comptes_financiers WHERE id = $1`

	err := r.db.GetContext(ctx, &compte, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.ErrCompteNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get compte")
	}
	return &compte, nil
}

func (r *CompteRepository) List(ctx context.Context) ([]domain.CompteFinancier, error) {
	var comptes []domain.CompteFinancier
	query := `SELECT * FROM comptes_financiers ORDER BY created_at DESC`

	if err := r.db.SelectContext(ctx, &comptes, query); err != nil {
		return nil, errors.Wrap(err, "failed to list comptes")
	}
	return comptes, nil
}

func (r *CompteRepository) ListActive(ctx context.Context) ([]domain.CompteFinancier, error) {
	var comptes []domain.CompteFinancier
	query := `SELECT * FROM comptes_financiers WHERE is_active = true ORDER BY created_at DESC`

	if err := r.db.SelectContext(ctx, &comptes, query); err != nil {
		return nil, errors.Wrap(err, "failed to list active comptes")
	}
	return comptes, nil
}

// Update rewrites the editable fields. The stored balance is maintained by
// the posting logic and is deliberately not updatable here.
func (r *CompteRepository) Update(ctx context.Context, compte *domain.CompteFinancier) error {
	query := `
		UPDATE comptes_financiers
		SET nom = :nom, type_compte = :type_compte, devise = :devise,
			is_active = :is_active, updated_at = :updated_at
		WHERE id = :id
	`

	compte.UpdatedAt = time.Now()
	result, err := r.db.NamedExecContext(ctx, query, compte)
	if err != nil {
		return errors.Wrap(err, "failed to update compte")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to update compte")
	}
	if rows == 0 {
		return errors.ErrCompteNotFound
	}
	return nil
}

// Deactivate soft-deletes an account. History referencing it stays intact.
func (r *CompteRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE comptes_financiers SET is_active = false, updated_at = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return errors.Wrap(err, "failed to deactivate compte")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to deactivate compte")
	}
	if rows == 0 {
		return errors.ErrCompteNotFound
	}
	return nil
}
