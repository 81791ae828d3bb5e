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

// SettingRepository persists the (categorie, cle) key-value store.
type SettingRepository struct {
	db *sqlx.DB
}

func NewSettingRepository(db *sqlx.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

func (r *SettingRepository) ListByCategorie(ctx context.Context, categorie string) ([]domain.Setting, error) {
	var settings []domain.Setting
	query := `SELECT * FROM settings WHERE categorie = $1 ORDER BY cle ASC`

	if err := r.db.SelectContext(ctx, &settings, query, categorie); err != nil {
		return nil, errors.Wrap(err, "failed to list settings")
	}
	return settings, nil
}

func (r *SettingRepository) Get(ctx context.Context, categorie, cle string) (*domain.Setting, error) {
	var setting domain.Setting
	query := `SELECT * FROM settings WHERE categorie = $1 AND cle = $2`

	err := r.db.GetContext(ctx, &setting, query, categorie, cle)
	if err == sql.ErrNoRows {
		return nil, errors.ErrSettingNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get setting")
	}
	return &setting, nil
}

// Upsert writes a value, inserting the row on first use of a key.
func (r *SettingRepository) Upsert(ctx context.Context, categorie, cle, valeur string) error {
	query := `
		INSERT INTO settings (id, categorie, cle, valeur, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (categorie, cle)
		DO UPDATE SET valeur = EXCLUDED.valeur, updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query, uuid.New(), categorie, cle, valeur, time.Now())
	if err != nil {
		return errors.Wrap(err, "failed to upsert setting")
	}
	return nil
}
