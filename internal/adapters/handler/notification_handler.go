package handler

import (
	"net/http"

	"github.com/IANDYI/eldercare-service/internal/core/ports"
	"go.uber.org/zap"
)

// NotificationHandler handles notification inbox and location requests
type NotificationHandler struct {
	notificationService ports.NotificationService
	locationService     ports.LocationService
	logger              *zap.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService ports.NotificationService, locationService ports.LocationService, logger *zap.Logger) *NotificationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationHandler{
		notificationService: notificationService,
		locationService:     locationService,
		logger:              logger,
	}
}

// ListNotifications handles GET /notifications
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	notifications, err := h.notificationService.ListNotifications(r.Context(), caller)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}

// MarkRead handles POST /notifications/{notification_id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "notification_id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.notificationService.MarkNotificationRead(r.Context(), caller, id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Notification marked as read"})
}

// UpdateLocation handles POST /location, elders only
func (h *NotificationHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var req ports.UpdateLocationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if _, err := h.locationService.UpdateLocation(r.Context(), caller, req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Location updated successfully"})
}

// GetLocation handles GET /location/{elder_id}
func (h *NotificationHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	elderID, err := pathID(r, "elder_id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	loc, err := h.locationService.GetLatestLocation(r.Context(), caller, elderID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"latitude":    loc.Latitude,
		"longitude":   loc.Longitude,
		"accuracy":    loc.Accuracy,
		"recorded_at": loc.RecordedAt,
	})
}
