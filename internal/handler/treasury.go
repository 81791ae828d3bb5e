package handler

import (
	"net/http"

	"github.com/JayMung/FactureX-sub003/internal/ledger"
	"github.com/JayMung/FactureX-sub003/pkg/logger"
)

// TreasuryHandler exposes the consolidated USD view of all accounts.
type TreasuryHandler struct {
	ledger *ledger.Service
	logger logger.Logger
}

func NewTreasuryHandler(ledgerSvc *ledger.Service, log logger.Logger) *TreasuryHandler {
	return &TreasuryHandler{ledger: ledgerSvc, logger: log}
}

// GlobalBalance returns the USD-normalized net position plus swap-deduplicated
// volume and fee totals.
func (h *TreasuryHandler) GlobalBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.ledger.GlobalBalance(r.Context())
	if err != nil {
		h.logger.Error("failed to compute global balance", map[string]interface{}{"error": err.Error()})
		respondError(w, http.StatusInternalServerError, "Erreur lors du calcul du solde global")
		return
	}

	respondJSON(w, http.StatusOK, balance)
}
