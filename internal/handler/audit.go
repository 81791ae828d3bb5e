package handler

import (
	"net/http"
	"strconv"

	"github.com/JayMung/FactureX-sub003/internal/repository/postgres"
	"github.com/JayMung/FactureX-sub003/pkg/logger"
)

// AuditHandler exposes the request audit trail, newest first.
type AuditHandler struct {
	audits *postgres.AuditRepository
	logger logger.Logger
}

func NewAuditHandler(audits *postgres.AuditRepository, log logger.Logger) *AuditHandler {
	return &AuditHandler{audits: audits, logger: log}
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := 1
	if raw := q.Get("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			page = parsed
		}
	}
	pageSize := 50
	if raw := q.Get("page_size"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 200 {
			pageSize = parsed
		}
	}

	logs, err := h.audits.FindAll(r.Context(), pageSize, (page-1)*pageSize)
	if err != nil {
		h.logger.Error("failed to list audit logs", map[string]interface{}{"error": err.Error()})
		respondError(w, http.StatusInternalServerError, "Erreur lors du chargement du journal d'audit")
		return
	}

	count, err := h.audits.CountAll(r.Context())
	if err != nil {
		h.logger.Error("failed to count audit logs", map[string]interface{}{"error": err.Error()})
		respondError(w, http.StatusInternalServerError, "Erreur lors du chargement du journal d'audit")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"data":        logs,
		"count":       count,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": (count + pageSize - 1) / pageSize,
	})
}
