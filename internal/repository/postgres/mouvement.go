// Package postgres implements the sqlx-backed repositories.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/JayMung/FactureX-sub003/internal/domain"
	"github.com/JayMung/FactureX-sub003/pkg/errors"
)

// MouvementRepository reads account movements. Movements are written upstream
// by the transaction-posting logic; this repository is read-only.
type MouvementRepository struct {
	db *sqlx.DB
}

func NewMouvementRepository(db *sqlx.DB) *MouvementRepository {
	return &MouvementRepository{db: db}
}

const mouvementColumns = `
	m.id, m.compte_id, m.type_mouvement, m.montant, m.solde_avant, m.solde_apres,
	m.transaction_id, m.description, m.date_mouvement, m.created_at,
	COALESCE(c.nom, '') AS compte_nom,
	COALESCE(c.devise, '') AS compte_devise,
	COALESCE(t.type_transaction, '') AS transaction_type,
	COALESCE(t.frais, 0) AS transaction_frais
`

const mouvementJoins = `
	FROM mouvements_comptes m
	LEFT JOIN comptes_financiers c ON c.id = m.compte_id
	LEFT JOIN transactions t ON t.id = m.transaction_id
`

// buildFilterClause renders the optional filters as an AND-conjunction.
func buildFilterClause(filters domain.MouvementFilters) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filters.CompteID != nil {
		args = append(args, *filters.CompteID)
		conditions = append(conditions, fmt.Sprintf("m.compte_id = $%d", len(args)))
	}
	if filters.TypeMouvement != "" {
		args = append(args, filters.TypeMouvement)
		conditions = append(conditions, fmt.Sprintf("m.type_mouvement = $%d", len(args)))
	}
	if filters.DateFrom != nil {
		args = append(args, *filters.DateFrom)
		conditions = append(conditions, fmt.Sprintf("m.date_mouvement >= $%d", len(args)))
	}
	if filters.DateTo != nil {
		args = append(args, *filters.DateTo)
		conditions = append(conditions, fmt.Sprintf("m.date_mouvement <= $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// List returns one display page, newest first.
func (r *MouvementRepository) List(ctx context.Context, filters domain.MouvementFilters, limit, offset int) ([]domain.Mouvement, error) {
	where, args := buildFilterClause(filters)

	args = append(args, limit)
	limitPos := len(args)
	args = append(args, offset)
	offsetPos := len(args)

	query := fmt.Sprintf(`SELECT %s %s %s
		ORDER BY m.date_mouvement DESC, m.created_at DESC
		LIMIT $%d OFFSET $%d`,
		mouvementColumns, mouvementJoins, where, limitPos, offsetPos)

	var mouvements []domain.Mouvement
	if err := r.db.SelectContext(ctx, &mouvements, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to list mouvements")
	}

	deriveKinds(mouvements)
	return mouvements, nil
}

// Count returns the exact total for the same filters.
func (r *MouvementRepository) Count(ctx context.Context, filters domain.MouvementFilters) (int, error) {
	where, args := buildFilterClause(filters)
	query := "SELECT COUNT(*) FROM mouvements_comptes m" + where

	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, errors.Wrap(err, "failed to count mouvements")
	}
	return total, nil
}

// ListAllAscending returns the complete unfiltered history in reconciliation
// order. created_at breaks date_mouvement ties, which fixes the application
// order of same-instant movements.
func (r *MouvementRepository) ListAllAscending(ctx context.Context) ([]domain.Mouvement, error) {
	query := fmt.Sprintf(`SELECT %s %s
		ORDER BY m.date_mouvement ASC, m.created_at ASC`,
		mouvementColumns, mouvementJoins)

	var mouvements []domain.Mouvement
	if err := r.db.SelectContext(ctx, &mouvements, query); err != nil {
		return nil, errors.Wrap(err, "failed to list mouvement history")
	}

	deriveKinds(mouvements)
	return mouvements, nil
}

// ListByCompte returns an account's most recent movements.
func (r *MouvementRepository) ListByCompte(ctx context.Context, compteID uuid.UUID, limit int) ([]domain.Mouvement, error) {
	query := fmt.Sprintf(`SELECT %s %s
		WHERE m.compte_id = $1
		ORDER BY m.date_mouvement DESC, m.created_at DESC
		LIMIT $2`,
		mouvementColumns, mouvementJoins)

	var mouvements []domain.Mouvement
	if err := r.db.SelectContext(ctx, &mouvements, query, compteID, limit); err != nil {
		return nil, errors.Wrap(err, "failed to list compte mouvements")
	}

	deriveKinds(mouvements)
	return mouvements, nil
}

// ListForStats returns all matching movements without pagination; only the
// columns the aggregators read.
func (r *MouvementRepository) ListForStats(ctx context.Context, filters domain.MouvementFilters) ([]domain.Mouvement, error) {
	where, args := buildFilterClause(filters)
	query := `SELECT m.id, m.compte_id, m.type_mouvement, m.montant, m.solde_apres,
		m.date_mouvement, m.created_at
		FROM mouvements_comptes m` + where

	var mouvements []domain.Mouvement
	if err := r.db.SelectContext(ctx, &mouvements, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to list mouvements for stats")
	}
	return mouvements, nil
}

// deriveKinds classifies each movement once, at scan time.
func deriveKinds(mouvements []domain.Mouvement) {
	for i := range mouvements {
		mouvements[i].Kind = domain.KindOf(mouvements[i].TransactionType)
	}
}
