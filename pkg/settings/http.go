package settings

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prontrack/platform/pkg/common/logger"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/settings/destinations", h.handleGetDestinations).Methods(http.MethodGet)
	r.HandleFunc("/settings/destinations", h.handlePutDestinations).Methods(http.MethodPut)
	r.HandleFunc("/settings/config", h.handleGetConfig).Methods(http.MethodGet)
	r.HandleFunc("/settings/config", h.handlePutConfig).Methods(http.MethodPut)
}

func (h *Handler) handleGetDestinations(w http.ResponseWriter, r *http.Request) {
	destinations, err := h.service.Destinations(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("failed to load destinations")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"destinations": destinations})
}

func (h *Handler) handlePutDestinations(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Destinations []string `json:"destinations"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	saved, err := h.service.SaveDestinations(r.Context(), payload.Destinations)
	if errors.Is(err, ErrNoDestinations) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		logger.Log.WithError(err).Error("failed to save destinations")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"destinations": saved})
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.service.Config(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("failed to load config")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *Handler) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var cfg SystemConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.service.SaveConfig(r.Context(), cfg); err != nil {
		logger.Log.WithError(err).Error("failed to save config")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Log.WithError(err).Error("failed to encode response")
	}
}
