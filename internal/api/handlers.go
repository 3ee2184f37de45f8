package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/aleister1102/keywatch/internal/common"
	"github.com/aleister1102/keywatch/internal/config"
	"github.com/aleister1102/keywatch/internal/models"
	"github.com/aleister1102/keywatch/internal/monitor"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// maxBodyBytes bounds request bodies; observer payloads carry whole pages.
const maxBodyBytes = 8 << 20

// MonitorService is what the API drives.
type MonitorService interface {
	Status(ctx context.Context) (models.Status, error)
	SetMonitoringEnabled(ctx context.Context, enabled bool) error
	Settings() config.MonitorConfig
	UpdateSettings(mc config.MonitorConfig) error
	Results(ctx context.Context, limit int) ([]models.MatchRecord, error)
	ClearBadge(ctx context.Context) error
	CheckNow(ctx context.Context) (monitor.CycleStats, error)
	HandleObservation(ctx context.Context, obs models.Observation) (string, error)
	OpenNotification(ctx context.Context, id string) (string, error)
	DismissNotification(ctx context.Context, id string) error
}

// ToggleRequest switches monitoring on or off.
type ToggleRequest struct {
	Enabled *bool `json:"enabled"`
}

// ObserveResponse tells the observer what happened to its payload.
type ObserveResponse struct {
	Result string `json:"result"`
}

// Handler serves the local control API.
type Handler struct {
	svc    MonitorService
	logger zerolog.Logger
}

// NewHandler creates a Handler.
func NewHandler(svc MonitorService, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger.With().Str("component", "APIHandler").Logger()}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/status", h.Status)
	r.Put("/monitoring", h.SetMonitoring)
	r.Get("/settings", h.GetSettings)
	r.Put("/settings", h.PutSettings)
	r.Get("/results", h.Results)
	r.Delete("/badge", h.ClearBadge)
	r.Post("/check", h.Check)
	r.Post("/observe", h.Observe)
	r.Get("/notifications/{id}/open", h.OpenNotification)
	r.Delete("/notifications/{id}", h.DismissNotification)
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.Status(r.Context())
	if err != nil {
		h.fail(w, err, "failed to get status")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) SetMonitoring(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Enabled == nil {
		writeError(w, http.StatusBadRequest, "enabled is required")
		return
	}
	if err := h.svc.SetMonitoringEnabled(r.Context(), *req.Enabled); err != nil {
		h.fail(w, err, "failed to toggle monitoring")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": *req.Enabled})
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Settings())
}

func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	var mc config.MonitorConfig
	if err := decodeJSON(w, r, &mc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.UpdateSettings(mc); err != nil {
		if errors.Is(err, common.ErrInvalidConfiguration) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.fail(w, err, "failed to save settings")
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Settings())
}

func (h *Handler) Results(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	records, err := h.svc.Results(r.Context(), limit)
	if err != nil {
		h.fail(w, err, "failed to load results")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) ClearBadge(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ClearBadge(r.Context()); err != nil {
		h.fail(w, err, "failed to clear badge")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.CheckNow(r.Context())
	if err != nil {
		if errors.Is(err, common.ErrTickInFlight) {
			writeError(w, http.StatusConflict, "a check is already running")
			return
		}
		h.fail(w, err, "check failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) Observe(w http.ResponseWriter, r *http.Request) {
	var obs models.Observation
	if err := decodeJSON(w, r, &obs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.svc.HandleObservation(r.Context(), obs)
	if err != nil {
		h.fail(w, err, "failed to accept observation")
		return
	}
	writeJSON(w, http.StatusAccepted, ObserveResponse{Result: result})
}

func (h *Handler) OpenNotification(w http.ResponseWriter, r *http.Request) {
	url, err := h.svc.OpenNotification(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err, "notification not found")
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

func (h *Handler) DismissNotification(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DismissNotification(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, err, "failed to dismiss notification")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// fail logs server-side failures and writes a status derived from err.
// Client errors carry err's message, server errors the generic message.
func (h *Handler) fail(w http.ResponseWriter, err error, message string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Msg(message)
		writeError(w, status, message)
		return
	}
	if status == http.StatusNotFound {
		writeError(w, status, message)
		return
	}
	writeError(w, status, err.Error())
}
