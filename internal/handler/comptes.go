package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/JayMung/FactureX-sub003/internal/domain"
	"github.com/JayMung/FactureX-sub003/internal/ledger"
	"github.com/JayMung/FactureX-sub003/internal/repository/postgres"
	"github.com/JayMung/FactureX-sub003/pkg/errors"
	"github.com/JayMung/FactureX-sub003/pkg/logger"
	"github.com/JayMung/FactureX-sub003/pkg/validator"
)

// CompteHandler manages financial accounts and their read views.
type CompteHandler struct {
	comptes   *postgres.CompteRepository
	ledger    *ledger.Service
	validator *validator.Validator
	logger    logger.Logger
}

func NewCompteHandler(comptes *postgres.CompteRepository, ledgerSvc *ledger.Service, val *validator.Validator, log logger.Logger) *CompteHandler {
	return &CompteHandler{
		comptes:   comptes,
		ledger:    ledgerSvc,
		validator: val,
		logger:    log,
	}
}

// CreateCompteRequest is the account creation payload.
type CreateCompteRequest struct {
	Nom          string          `json:"nom" validate:"required,min=2,max=100"`
	TypeCompte   string          `json:"type_compte" validate:"required,type_compte"`
	Devise       string          `json:"devise" validate:"required,devise"`
	SoldeInitial decimal.Decimal `json:"solde_initial" validate:"gte=0"`
}

// UpdateCompteRequest is the account edit payload. Balance is not editable;
// it belongs to the posting logic.
type UpdateCompteRequest struct {
	Nom        string `json:"nom" validate:"required,min=2,max=100"`
	TypeCompte string `json:"type_compte" validate:"required,type_compte"`
	Devise     string `json:"devise" validate:"required,devise"`
	IsActive   *bool  `json:"is_active"`
}

func (h *CompteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCompteRequest

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if err == io.EOF {
			respondError(w, http.StatusBadRequest, "Request body is required")
			return
		}
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if valErrs := h.validator.ValidateStructured(&req); valErrs != nil {
		respondValidationErrors(w, valErrs)
		return
	}

	now := time.Now()
	compte := &domain.CompteFinancier{
		ID:          uuid.New(),
		Nom:         validator.Sanitize(req.Nom),
		TypeCompte:  domain.TypeCompte(req.TypeCompte),
		Devise:      domain.Devise(req.Devise),
		SoldeActuel: req.SoldeInitial,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.comptes.Create(r.Context(), compte); err != nil {
		h.logger.Error("failed to create compte", map[string]interface{}{"error": err.Error()})
		respondError(w, http.StatusInternalServerError, "Erreur lors de la création du compte")
		return
	}

	respondJSON(w, http.StatusCreated, compte)
}

func (h *CompteHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		comptes []domain.CompteFinancier
		err     error
	)
	if r.URL.Query().Get("actifs") == "true" {
		comptes, err = h.comptes.ListActive(r.Context())
	} else {
		comptes, err = h.comptes.List(r.Context())
	}
	if err != nil {
		h.logger.Error("failed to list comptes", map[string]interface{}{"error": err.Error()})
		respondError(w, http.StatusInternalServerError, "Erreur lors du chargement des comptes")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"data": comptes})
}

func (h *CompteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid compte id")
		return
	}

	compte, err := h.comptes.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, errors.ErrCompteNotFound) {
			respondError(w, http.StatusNotFound, "Compte not found")
			return
		}
		h.logger.Error("failed to get compte", map[string]interface{}{"error": err.Error()})
		respondError(w, http.StatusInternalServerError, "Erreur lors du chargement du compte")
		return
	}

	respondJSON(w, http.StatusOK, compte)
}

func (h *CompteHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid compte id")
		return
	}

	var req UpdateCompteRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if valErrs := h.validator.ValidateStructured(&req); valErrs != nil {
		respondValidationErrors(w, valErrs)
		return
	}

	compte, err := h.comptes.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, errors.ErrCompteNotFound) {
			respondError(w, http.StatusNotFound, "Compte not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Erreur lors du chargement du compte")
		return
	}

	compte.Nom = validator.Sanitize(req.Nom)
	compte.TypeCompte = domain.TypeCompte(req.TypeCompte)
	compte.Devise = domain.Devise(req.Devise)
	if req.IsActive != nil {
		compte.IsActive = *req.IsActive
	}

	if err := h.comptes.Update(r.Context(), compte); err != nil {
		h.logger.Error("failed to update compte", map[string]interface{}{"error": err.Error()})
		respondError(w, http.StatusInternalServerError, "Erreur lors de la mise à jour du compte")
		return
	}

	respondJSON(w, http.StatusOK, compte)
}

// Deactivate soft-deletes the account so its movement history stays intact.
func (h *CompteHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid compte id")
		return
	}

	if err := h.comptes.Deactivate(r.Context(), id); err != nil {
		if errors.Is(err, errors.ErrCompteNotFound) {
			respondError(w, http.StatusNotFound, "Compte not found")
			return
		}
		h.logger.Error("failed to deactivate compte", map[string]interface{}{"error": err.Error()})
		respondError(w, http.StatusInternalServerError, "Erreur lors de la désactivation du compte")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

// Stats returns the account's movement totals; figures degrade to zero when a
// fetch fails, matching the dashboard widget behavior.
func (h *CompteHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid compte id")
		return
	}

	respondJSON(w, http.StatusOK, h.ledger.CompteStats(r.Context(), id))
}

// Mouvements returns the account's most recent movements.
func (h *CompteHandler) Mouvements(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid compte id")
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= ledger.MaxPageSize {
			limit = parsed
		}
	}

	mouvements, err := h.ledger.CompteMouvements(r.Context(), id, limit)
	if err != nil {
		h.logger.Error("failed to list compte mouvements", map[string]interface{}{"error": err.Error()})
		respondError(w, http.StatusInternalServerError, "Erreur lors du chargement des mouvements")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"data": mouvements})
}
