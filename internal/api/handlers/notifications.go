package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/arlo/crewdeck/internal/api/dto"
	"github.com/arlo/crewdeck/internal/api/middleware"
	"github.com/arlo/crewdeck/internal/database/models"
	"github.com/arlo/crewdeck/internal/notifications"
)

type NotificationHandler struct {
	notificationService *notifications.Service
}

func NewNotificationHandler(notificationService *notifications.Service) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List returns the caller's notifications, newest first. An empty inbox is a
// 404, which clients rely on to distinguish "never notified" from "all read".
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	list, err := h.notificationService.ListForUser(r.Context(), userID)
	if err != nil {
		writeNotificationError(w, err)
		return
	}

	resp := make([]dto.NotificationResponse, len(list))
	for i, n := range list {
		resp[i] = toNotificationResponse(&n)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *NotificationHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	notificationID, ok := parseUUIDParam(w, r, "notificationID")
	if !ok {
		return
	}

	n, err := h.notificationService.Get(r.Context(), userID, notificationID)
	if err != nil {
		writeNotificationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toNotificationResponse(n))
}

type setUnreadRequest struct {
	Unread bool `json:"unread"`
}

func (h *NotificationHandler) SetUnread(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	notificationID, ok := parseUUIDParam(w, r, "notificationID")
	if !ok {
		return
	}

	var req setUnreadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	n, err := h.notificationService.SetUnread(r.Context(), userID, notificationID, req.Unread)
	if err != nil {
		writeNotificationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toNotificationResponse(n))
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	notificationID, ok := parseUUIDParam(w, r, "notificationID")
	if !ok {
		return
	}

	if err := h.notificationService.Delete(r.Context(), userID, notificationID); err != nil {
		writeNotificationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Notification deleted"})
}

func writeNotificationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, notifications.ErrNotFound):
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Notification not found"})
	default:
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
	}
}

func toNotificationResponse(n *models.Notification) dto.NotificationResponse {
	var context map[string]string
	if len(n.Context) > 0 {
		context = map[string]string(n.Context)
	}
	return dto.NotificationResponse{
		ID:        n.ID.String(),
		Type:      string(n.Type),
		Title:     n.Title,
		Body:      n.Body,
		Button:    n.Button,
		Context:   context,
		Unread:    n.Unread,
		CreatedAt: n.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
