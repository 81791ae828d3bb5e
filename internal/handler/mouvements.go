package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/JayMung/FactureX-sub003/internal/domain"
	"github.com/JayMung/FactureX-sub003/internal/ledger"
	"github.com/JayMung/FactureX-sub003/pkg/logger"
)

// MouvementHandler serves the movement ledger pages and their statistics.
type MouvementHandler struct {
	service *ledger.Service
	logger  logger.Logger
}

func NewMouvementHandler(service *ledger.Service, log logger.Logger) *MouvementHandler {
	return &MouvementHandler{service: service, logger: log}
}

// parseMouvementFilters reads the optional query filters. An unparseable
// compte_id or date is a client error, reported by the caller.
func parseMouvementFilters(r *http.Request) (domain.MouvementFilters, string) {
	var filters domain.MouvementFilters
	q := r.URL.Query()

	if raw := strings.TrimSpace(q.Get("compte_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filters, "invalid compte_id"
		}
		filters.CompteID = &id
	}

	if raw := strings.TrimSpace(q.Get("type_mouvement")); raw != "" {
		switch domain.TypeMouvement(raw) {
		case domain.MouvementCredit, domain.MouvementDebit:
			filters.TypeMouvement = domain.TypeMouvement(raw)
		default:
			return filters, "type_mouvement must be credit or debit"
		}
	}

	if raw := strings.TrimSpace(q.Get("date_from")); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return filters, "invalid date_from"
		}
		filters.DateFrom = &t
	}

	if raw := strings.TrimSpace(q.Get("date_to")); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return filters, "invalid date_to"
		}
		filters.DateTo = &t
	}

	return filters, ""
}

// List returns one page of movements, newest first. Without a compte_id
// filter each item carries its reconciled cross-account USD balance.
func (h *MouvementHandler) List(w http.ResponseWriter, r *http.Request) {
	filters, errMsg := parseMouvementFilters(r)
	if errMsg != "" {
		respondError(w, http.StatusBadRequest, errMsg)
		return
	}

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			page = parsed
		}
	}
	pageSize := ledger.DefaultPageSize
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			pageSize = parsed
		}
	}

	result, err := h.service.ListMouvements(r.Context(), page, pageSize, filters)
	if err != nil {
		h.logger.Error("failed to list mouvements", map[string]interface{}{"error": err.Error()})
		respondError(w, http.StatusInternalServerError, "Erreur lors du chargement des mouvements")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Stats totals the filtered movement flow without pagination.
func (h *MouvementHandler) Stats(w http.ResponseWriter, r *http.Request) {
	filters, errMsg := parseMouvementFilters(r)
	if errMsg != "" {
		respondError(w, http.StatusBadRequest, errMsg)
		return
	}

	stats, err := h.service.MouvementStats(r.Context(), filters)
	if err != nil {
		h.logger.Error("failed to compute mouvement stats", map[string]interface{}{"error": err.Error()})
		respondError(w, http.StatusInternalServerError, "Erreur lors du chargement des statistiques")
		return
	}

	respondJSON(w, http.StatusOK, stats)
}
