package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/JayMung/FactureX-sub003/internal/domain"
	"github.com/JayMung/FactureX-sub003/internal/ledger"
	"github.com/JayMung/FactureX-sub003/internal/repository/postgres"
	"github.com/JayMung/FactureX-sub003/pkg/errors"
	"github.com/JayMung/FactureX-sub003/pkg/logger"
)

// TransactionHandler provides read access to originating transactions.
// Posting lives upstream; this service only consumes the records.
type TransactionHandler struct {
	transactions *postgres.TransactionRepository
	logger       logger.Logger
}

func NewTransactionHandler(transactions *postgres.TransactionRepository, log logger.Logger) *TransactionHandler {
	return &TransactionHandler{transactions: transactions, logger: log}
}

func parseTransactionFilters(r *http.Request) domain.TransactionFilters {
	q := r.URL.Query()
	filters := domain.TransactionFilters{
		TypeTransaction: q.Get("type_transaction"),
	}
	if raw := q.Get("date_from"); raw != "" {
		if t, err := parseDate(raw); err == nil {
			filters.DateFrom = &t
		}
	}
	if raw := q.Get("date_to"); raw != "" {
		if t, err := parseDate(raw); err == nil {
			filters.DateTo = &t
		}
	}
	return filters
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := 1
	if raw := q.Get("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			page = parsed
		}
	}
	pageSize := ledger.DefaultPageSize
	if raw := q.Get("page_size"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= ledger.MaxPageSize {
			pageSize = parsed
		}
	}

	filters := parseTransactionFilters(r)
	offset := (page - 1) * pageSize

	items, err := h.transactions.List(r.Context(), filters, pageSize, offset)
	if err != nil {
		h.logger.Error("failed to list transactions", map[string]interface{}{"error": err.Error()})
		respondError(w, http.StatusInternalServerError, "Erreur lors du chargement des transactions")
		return
	}

	count, err := h.transactions.Count(r.Context(), filters)
	if err != nil {
		h.logger.Error("failed to count transactions", map[string]interface{}{"error": err.Error()})
		respondError(w, http.StatusInternalServerError, "Erreur lors du chargement des transactions")
		return
	}

	totalPages := (count + pageSize - 1) / pageSize
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"data":        items,
		"count":       count,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": totalPages,
	})
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	tx, err := h.transactions.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, errors.ErrTransactionNotFound) {
			respondError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		h.logger.Error("failed to get transaction", map[string]interface{}{"error": err.Error()})
		respondError(w, http.StatusInternalServerError, "Erreur lors du chargement de la transaction")
		return
	}

	respondJSON(w, http.StatusOK, tx)
}
