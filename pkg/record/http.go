package record

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prontrack/platform/pkg/common/logger"
	"github.com/prontrack/platform/pkg/settings"
)

type Handler struct {
	service  *Service
	settings *settings.Service
}

func NewHandler(service *Service, settingsService *settings.Service) *Handler {
	return &Handler{service: service, settings: settingsService}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/records", h.handleCreate).Methods(http.MethodPost)
	r.HandleFunc("/records", h.handleList).Methods(http.MethodGet)
	r.HandleFunc("/records/{number}", h.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/records/{number}", h.handleUpdate).Methods(http.MethodPut)
	r.HandleFunc("/records/{number}", h.handleDelete).Methods(http.MethodDelete)
	r.HandleFunc("/records/{number}/move", h.handleMove).Methods(http.MethodPost)
	r.HandleFunc("/records/{number}/correct", h.handleCorrect).Methods(http.MethodPost)
	r.HandleFunc("/records/{number}/revert", h.handleRevert).Methods(http.MethodPost)
	r.HandleFunc("/records/{number}/movements", h.handleRecordMovements).Methods(http.MethodGet)
	r.HandleFunc("/movements", h.handleMovements).Methods(http.MethodGet)
}

type createRecordRequest struct {
	Number      string `json:"record_number"`
	PatientName string `json:"patient_name"`
	Age         *int   `json:"age,omitempty"`
	Sex         string `json:"sex,omitempty"`
	BirthDate   string `json:"birth_date,omitempty"`
	Status      string `json:"status,omitempty"`
	Location    string `json:"location"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// Required-field flags only bind the manual entry path; schedule-driven
	// creation fills these with the unknown sentinels instead.
	cfg, err := h.settings.Config(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("failed to load config")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if cfg.RequiredFields.Age && req.Age == nil {
		http.Error(w, "age is required", http.StatusBadRequest)
		return
	}
	if cfg.RequiredFields.Sex && req.Sex == "" {
		http.Error(w, "sex is required", http.StatusBadRequest)
		return
	}
	if cfg.RequiredFields.BirthDate && req.BirthDate == "" {
		http.Error(w, "birth date is required", http.StatusBadRequest)
		return
	}

	rec := Record{
		Number:          req.Number,
		PatientName:     req.PatientName,
		Sex:             req.Sex,
		BirthDate:       req.BirthDate,
		Status:          req.Status,
		CurrentLocation: req.Location,
	}
	if req.Age != nil {
		rec.Age = *req.Age
	}

	created, err := h.service.Create(r.Context(), rec)
	if err != nil {
		h.writeError(w, err, "failed to create record")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("failed to list records")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": records})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Get(r.Context(), mux.Vars(r)["number"])
	if err != nil {
		h.writeError(w, err, "failed to get record")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var rec Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	updated, err := h.service.Update(r.Context(), mux.Vars(r)["number"], rec)
	if err != nil {
		h.writeError(w, err, "failed to update record")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), mux.Vars(r)["number"]); err != nil {
		h.writeError(w, err, "failed to delete record")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type moveRequest struct {
	Destination string `json:"destination"`
	User        string `json:"user"`
	Note        string `json:"note,omitempty"`
}

func (h *Handler) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Destination == "" || req.User == "" {
		http.Error(w, "destination and user are required", http.StatusBadRequest)
		return
	}

	number := mux.Vars(r)["number"]
	current, err := h.service.Get(r.Context(), number)
	if err != nil {
		h.writeError(w, err, "failed to get record")
		return
	}
	if current.CurrentLocation == req.Destination {
		http.Error(w, "record is already at this location", http.StatusConflict)
		return
	}

	rec, err := h.service.Move(r.Context(), number, req.Destination, req.User, req.Note)
	if err != nil {
		h.writeError(w, err, "failed to move record")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type correctRequest struct {
	Location string `json:"location"`
	Status   string `json:"status,omitempty"`
	User     string `json:"user"`
}

func (h *Handler) handleCorrect(w http.ResponseWriter, r *http.Request) {
	var req correctRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Location == "" || req.User == "" {
		http.Error(w, "location and user are required", http.StatusBadRequest)
		return
	}

	rec, err := h.service.Correct(r.Context(), mux.Vars(r)["number"], req.Location, req.Status, req.User)
	if err != nil {
		h.writeError(w, err, "failed to correct record location")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleRevert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User string `json:"user"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.User == "" {
		http.Error(w, "user is required", http.StatusBadRequest)
		return
	}

	rec, err := h.service.Revert(r.Context(), mux.Vars(r)["number"], req.User)
	if err != nil {
		h.writeError(w, err, "failed to revert record location")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleRecordMovements(w http.ResponseWriter, r *http.Request) {
	h.listMovements(w, r, mux.Vars(r)["number"])
}

func (h *Handler) handleMovements(w http.ResponseWriter, r *http.Request) {
	h.listMovements(w, r, "")
}

func (h *Handler) listMovements(w http.ResponseWriter, r *http.Request, recordNumber string) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	movements, err := h.service.Movements(r.Context(), recordNumber, limit)
	if err != nil {
		logger.Log.WithError(err).Error("failed to list movements")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": movements})
}

func (h *Handler) writeError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "record not found", http.StatusNotFound)
	case errors.Is(err, ErrDuplicateNumber):
		http.Error(w, "record number already exists", http.StatusConflict)
	case errors.Is(err, ErrNoPriorLocation):
		http.Error(w, "record has no previous location", http.StatusUnprocessableEntity)
	case IsValidationError(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		logger.Log.WithError(err).Error(logMsg)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Log.WithError(err).Error("failed to encode response")
	}
}
