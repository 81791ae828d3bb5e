package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/JayMung/FactureX-sub003/internal/domain"
	"github.com/JayMung/FactureX-sub003/pkg/errors"
)

// TauxChangeRepository stores applied rate snapshots for the history view.
type TauxChangeRepository struct {
	db *sqlx.DB
}

func NewTauxChangeRepository(db *sqlx.DB) *TauxChangeRepository {
	return &TauxChangeRepository{db: db}
}

func (r *TauxChangeRepository) Record(ctx context.Context, snapshot *domain.TauxChangeSnapshot) error {
	if snapshot.ID == uuid.Nil {
		snapshot.ID = uuid.New()
	}
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO taux_change_history (id, usd_to_cny, usd_to_cdf, source, created_at)
		VALUES (:id, :usd_to_cny, :usd_to_cdf, :source, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, snapshot)
	if err != nil {
		return errors.Wrap(err, "failed to record taux change snapshot")
	}
	return nil
}

func (r *TauxChangeRepository) ListRecent(ctx context.Context, limit int) ([]domain.TauxChangeSnapshot, error) {
	var snapshots []domain.TauxChangeSnapshot
	query := `SELECT * FROM taux_change_history ORDER BY created_at DESC LIMIT $1`

	if err := r.db.SelectContext(ctx, &snapshots, query, limit); err != nil {
		return nil, errors.Wrap(err, "failed to list taux change history")
	}
	return snapshots, nil
}
