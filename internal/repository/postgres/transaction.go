package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/JayMung/FactureX-sub003/internal/domain"
	"github.com/JayMung/FactureX-sub003/pkg/errors"
)

// TransactionRepository reads the business transactions movements link to.
type TransactionRepository struct {
	db *sqlx.DB
}

func NewTransactionRepository(db *sqlx.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	var tx domain.Transaction
	query := `SELECT * FROM transactions WHERE id = $1`

	err := r.db.GetContext(ctx, &tx, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.ErrTransactionNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	return &tx, nil
}

func buildTransactionFilterClause(filters domain.TransactionFilters) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filters.TypeTransaction != "" {
		args = append(args, filters.TypeTransaction)
		conditions = append(conditions, fmt.Sprintf("type_transaction = $%d", len(args)))
	}
	if filters.DateFrom != nil {
		args = append(args, *filters.DateFrom)
		conditions = append(conditions, fmt.Sprintf("date_transaction >= $%d", len(args)))
	}
	if filters.DateTo != nil {
		args = append(args, *filters.DateTo)
		conditions = append(conditions, fmt.Sprintf("date_transaction <= $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func (r *TransactionRepository) List(ctx context.Context, filters domain.TransactionFilters, limit, offset int) ([]domain.Transaction, error) {
	where, args := buildTransactionFilterClause(filters)

	args = append(args, limit)
	limitPos := len(args)
	args = append(args, offset)
	offsetPos := len(args)

	query := fmt.Sprintf(`SELECT * FROM transactions%s
		ORDER BY date_transaction DESC, created_at DESC
		LIMIT $%d OFFSET $%d`, where, limitPos, offsetPos)

	var transactions []domain.Transaction
	if err := r.db.SelectContext(ctx, &transactions, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to list transactions")
	}
	return transactions, nil
}

func (r *TransactionRepository) Count(ctx context.Context, filters domain.TransactionFilters) (int, error) {
	where, args := buildTransactionFilterClause(filters)
	query := "SELECT COUNT(*) FROM transactions" + where

	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, errors.Wrap(err, "failed to count transactions")
	}
	return total, nil
}
