package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/JayMung/FactureX-sub003/internal/auth"
	"github.com/JayMung/FactureX-sub003/pkg/errors"
	"github.com/JayMung/FactureX-sub003/pkg/logger"
	"github.com/JayMung/FactureX-sub003/pkg/validator"
)

// APIKeyHandler manages programmatic access credentials.
type APIKeyHandler struct {
	service   *auth.APIKeyService
	validator *validator.Validator
	logger    logger.Logger
}

func NewAPIKeyHandler(service *auth.APIKeyService, val *validator.Validator, log logger.Logger) *APIKeyHandler {
	return &APIKeyHandler{service: service, validator: val, logger: log}
}

// CreateAPIKeyRequest names a new key and optionally bounds its lifetime.
type CreateAPIKeyRequest struct {
	Nom       string     `json:"nom" validate:"required,min=2,max=100"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// Create issues a key. The raw secret appears in this response only; the
// store keeps a hash.
func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAPIKeyRequest

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
	if req.ExpiresAt != nil && req.ExpiresAt.Before(time.Now()) {
		respondError(w, http.StatusBadRequest, "expires_at must be in the future")
		return
	}

	key, rawKey, err := h.service.CreateKey(r.Context(), validator.Sanitize(req.Nom), req.ExpiresAt)
	if err != nil {
		h.logger.Error("failed to create api key", map[string]interface{}{"error": err.Error()})
		respondError(w, http.StatusInternalServerError, "Erreur lors de la création de la clé API")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"key":     key,
		"api_key": rawKey,
	})
}

func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	keys, err := h.service.ListKeys(r.Context())
	if err != nil {
		h.logger.Error("failed to list api keys", map[string]interface{}{"error": err.Error()})
		respondError(w, http.StatusInternalServerError, "Erreur lors du chargement des clés API")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"data": keys})
}

func (h *APIKeyHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid api key id")
		return
	}

	if err := h.service.RevokeKey(r.Context(), id); err != nil {
		if errors.Is(err, errors.ErrAPIKeyNotFound) {
			respondError(w, http.StatusNotFound, "API key not found")
			return
		}
		h.logger.Error("failed to revoke api key", map[string]interface{}{"error": err.Error()})
		respondError(w, http.StatusInternalServerError, "Erreur lors de la révocation de la clé API")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}
