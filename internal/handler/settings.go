package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/JayMung/FactureX-sub003/internal/domain"
	"github.com/JayMung/FactureX-sub003/internal/rates"
	"github.com/JayMung/FactureX-sub003/internal/repository/postgres"
	"github.com/JayMung/FactureX-sub003/pkg/logger"
	"github.com/JayMung/FactureX-sub003/pkg/validator"
)

// SettingHandler manages the key-value configuration rows. Writes under the
// exchange-rate category also record a history snapshot of the resulting pair.
type SettingHandler struct {
	settings  *postgres.SettingRepository
	history   *postgres.TauxChangeRepository
	provider  *rates.Provider
	validator *validator.Validator
	logger    logger.Logger
}

func NewSettingHandler(settings *postgres.SettingRepository, history *postgres.TauxChangeRepository, provider *rates.Provider, val *validator.Validator, log logger.Logger) *SettingHandler {
	return &SettingHandler{
		settings:  settings,
		history:   history,
		provider:  provider,
		validator: val,
		logger:    log,
	}
}

// UpsertSettingRequest writes one (categorie, cle) pair.
type UpsertSettingRequest struct {
	Categorie string `json:"categorie" validate:"required,min=2,max=50"`
	Cle       string `json:"cle" validate:"required,min=1,max=50"`
	Valeur    string `json:"valeur" validate:"required,max=500"`
}

// List returns all settings in a category.
func (h *SettingHandler) List(w http.ResponseWriter, r *http.Request) {
	categorie := r.URL.Query().Get("categorie")
	if categorie == "" {
		respondError(w, http.StatusBadRequest, "categorie query parameter is required")
		return
	}

	settings, err := h.settings.ListByCategorie(r.Context(), categorie)
	if err != nil {
		h.logger.Error("failed to list settings", map[string]interface{}{"error": err.Error(), "categorie": categorie})
		respondError(w, http.StatusInternalServerError, "Erreur lors du chargement des paramètres")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"data": settings})
}

// Upsert writes one setting. Rate edits take effect on the next provider
// refresh; the snapshot below records what the pair resolved to, malformed
// values included, since resolution falls back to defaults.
func (h *SettingHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req UpsertSettingRequest

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

	categorie := validator.Sanitize(req.Categorie)
	cle := validator.Sanitize(req.Cle)

	if err := h.settings.Upsert(r.Context(), categorie, cle, req.Valeur); err != nil {
		h.logger.Error("failed to upsert setting", map[string]interface{}{"error": err.Error(), "categorie": categorie, "cle": cle})
		respondError(w, http.StatusInternalServerError, "Erreur lors de l'enregistrement du paramètre")
		return
	}

	if categorie == rates.CategorieTauxChange {
		h.recordRateSnapshot(r.Context())
	}

	setting, err := h.settings.Get(r.Context(), categorie, cle)
	if err != nil {
		respondJSON(w, http.StatusOK, map[string]string{"status": "saved"})
		return
	}
	respondJSON(w, http.StatusOK, setting)
}

// recordRateSnapshot persists the rate pair now in effect. Best effort: a
// snapshot failure never fails the setting write.
func (h *SettingHandler) recordRateSnapshot(ctx context.Context) {
	set, err := h.provider.FetchFresh(ctx)
	if err != nil {
		h.logger.Warn("rate snapshot skipped", map[string]interface{}{"error": err.Error()})
		return
	}

	snapshot := &domain.TauxChangeSnapshot{
		UsdToCny:  set.UsdToCny,
		UsdToCdf:  set.UsdToCdf,
		Source:    "settings_update",
		CreatedAt: time.Now(),
	}
	if err := h.history.Record(ctx, snapshot); err != nil {
		h.logger.Warn("rate snapshot not recorded", map[string]interface{}{"error": err.Error()})
	}
}
