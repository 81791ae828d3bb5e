package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/JayMung/FactureX-sub003/internal/rates"
	"github.com/JayMung/FactureX-sub003/internal/repository/postgres"
	"github.com/JayMung/FactureX-sub003/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin checks handled by the CORS middleware
	},
}

// RateHandler exposes the active exchange rates and their history.
type RateHandler struct {
	provider       *rates.Provider
	history        *postgres.TauxChangeRepository
	streamInterval time.Duration
	logger         logger.Logger
}

func NewRateHandler(provider *rates.Provider, history *postgres.TauxChangeRepository, streamInterval time.Duration, log logger.Logger) *RateHandler {
	if streamInterval <= 0 {
		streamInterval = 30 * time.Second
	}
	return &RateHandler{
		provider:       provider,
		history:        history,
		streamInterval: streamInterval,
		logger:         log,
	}
}

// Current returns the rate pair in effect. When the settings store is
// unreachable the defaults are served with a degraded flag rather than an
// error, so conversion-dependent views stay up.
func (h *RateHandler) Current(w http.ResponseWriter, r *http.Request) {
	set, err := h.provider.Fetch(r.Context())
	if err != nil {
		h.logger.Warn("serving default rates", map[string]interface{}{"error": err.Error()})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"usdToCny": set.UsdToCny,
		"usdToCdf": set.UsdToCdf,
		"degraded": err != nil,
	})
}

// History returns the most recent rate snapshots, newest first.
func (h *RateHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := 30
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	snapshots, err := h.history.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list rate history", map[string]interface{}{"error": err.Error()})
		respondError(w, http.StatusInternalServerError, "Erreur lors du chargement de l'historique des taux")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"data": snapshots})
}

// Stream pushes the active rate pair over a websocket at a fixed interval.
func (h *RateHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}
	defer conn.Close()

	h.logger.Info("rate stream client connected", map[string]interface{}{"remote": r.RemoteAddr})

	if err := h.sendRates(r, conn); err != nil {
		return
	}

	ticker := time.NewTicker(h.streamInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := h.sendRates(r, conn); err != nil {
				h.logger.Info("rate stream client gone", map[string]interface{}{"error": err.Error()})
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

func (h *RateHandler) sendRates(r *http.Request, conn *websocket.Conn) error {
	set, err := h.provider.Fetch(r.Context())
	if err != nil {
		h.logger.Warn("streaming default rates", map[string]interface{}{"error": err.Error()})
	}

	return conn.WriteJSON(map[string]interface{}{
		"type":      "rates_update",
		"timestamp": time.Now(),
		"usdToCny":  set.UsdToCny,
		"usdToCdf":  set.UsdToCdf,
	})
}
