package agenda

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prontrack/platform/pkg/common/logger"
)

type Handler struct {
	service *Service
	maxBody int64
}

func NewHandler(service *Service, maxBody int64) *Handler {
	return &Handler{service: service, maxBody: maxBody}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/agenda/extract", h.handleExtract).Methods(http.MethodPost)
	r.HandleFunc("/agenda/process", h.handleProcess).Methods(http.MethodPost)
	r.HandleFunc("/agenda/history", h.handleHistory).Methods(http.MethodGet)
	r.HandleFunc("/agenda/history/{id}", h.handleHistoryDetail).Methods(http.MethodGet)
	r.HandleFunc("/agenda/history/{id}", h.handleDeleteHistory).Methods(http.MethodDelete)
}

type extractRequest struct {
	Grid Grid `json:"grid"`
}

func (h *Handler) handleExtract(w http.ResponseWriter, r *http.Request) {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}

	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Structural failure: the grid itself could not be produced. The
		// operator has to re-export the file.
		http.Error(w, "invalid grid payload", http.StatusBadRequest)
		return
	}

	result, err := h.service.Extract(req.Grid)
	if errors.Is(err, ErrNoPatientRows) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":     err.Error(),
			"row_count": result.RowCount,
			"guidance":  Guidance,
		})
		return
	}
	if err != nil {
		logger.Log.WithError(err).Error("agenda extraction failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleProcess(w http.ResponseWriter, r *http.Request) {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}

	var req ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.User == "" {
		http.Error(w, "user is required", http.StatusBadRequest)
		return
	}

	result, err := h.service.Process(r.Context(), req)
	if errors.Is(err, ErrNoEntriesSelected) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if errors.Is(err, ErrLocationConflict) {
		writeJSON(w, http.StatusConflict, result)
		return
	}
	if err != nil {
		logger.Log.WithError(err).Error("agenda processing failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	digests, err := h.service.History(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("failed to list agenda history")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": digests})
}

func (h *Handler) handleHistoryDetail(w http.ResponseWriter, r *http.Request) {
	digest, err := h.service.HistoryDetail(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, ErrDigestNotFound) {
		http.Error(w, "digest not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Log.WithError(err).Error("failed to fetch agenda digest")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, digest)
}

func (h *Handler) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteHistory(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, ErrDigestNotFound) {
		http.Error(w, "digest not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Log.WithError(err).Error("failed to delete agenda digest")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Log.WithError(err).Error("failed to encode response")
	}
}
