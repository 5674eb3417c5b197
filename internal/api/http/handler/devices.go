package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dtroode/blogauth-server/internal/api/http/cookie"
	"github.com/dtroode/blogauth-server/internal/logger"
	"github.com/dtroode/blogauth-server/internal/model"
)

// DeviceService defines device session management for the refresh token owner.
type DeviceService interface {
	ListDevices(ctx context.Context, refreshToken string) ([]model.DeviceSession, error)
	TerminateOtherDevices(ctx context.Context, refreshToken string) error
	TerminateDevice(ctx context.Context, refreshToken, deviceID string) error
}

// Devices handles the /security/devices endpoints.
type Devices struct {
	service DeviceService
	logger  *logger.Logger
}

// NewDevices creates a new Devices handler.
func NewDevices(service DeviceService, logger *logger.Logger) *Devices {
	return &Devices{service: service, logger: logger}
}

// List returns the live sessions of the caller.
func (h *Devices) List(w http.ResponseWriter, r *http.Request) {
	refreshToken := cookie.RefreshToken(r)
	if refreshToken == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	sessions, err := h.service.ListDevices(r.Context(), refreshToken)
	if err != nil {
		handleError(w, err, h.logger)
		return
	}

	resp := make([]deviceResponse, 0, len(sessions))
	for _, s := range sessions {
		resp = append(resp, deviceResponse{
			IP:             s.IP,
			Title:          s.Title,
			LastActiveDate: s.LastActiveAt.UTC(),
			DeviceID:       s.DeviceID,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// TerminateOthers revokes every session of the caller except the current one.
func (h *Devices) TerminateOthers(w http.ResponseWriter, r *http.Request) {
	refreshToken := cookie.RefreshToken(r)
	if refreshToken == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	if err := h.service.TerminateOtherDevices(r.Context(), refreshToken); err != nil {
		handleError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Terminate revokes one session of the caller by device id.
func (h *Devices) Terminate(w http.ResponseWriter, r *http.Request) {
	refreshToken := cookie.RefreshToken(r)
	if refreshToken == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	deviceID := chi.URLParam(r, "deviceId")
	if err := h.service.TerminateDevice(r.Context(), refreshToken, deviceID); err != nil {
		handleError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
