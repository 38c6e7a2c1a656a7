package handler

import (
	"net/http"

	"github.com/forgo/shiftboard/api/internal/model"
	"github.com/forgo/shiftboard/api/internal/service"
)

// NotificationHandler serves the caller's in-app notifications
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List handles GET /api/notifications?unread_only&limit
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	unreadOnly, err := queryBool(r, "unread_only")
	if err != nil {
		writeQueryError(w, "unread_only", err)
		return
	}
	limit, err := queryInt(r, "limit", model.DefaultNotificationLimit)
	if err != nil {
		writeQueryError(w, "limit", err)
		return
	}

	notifications, err := h.notifications.List(r.Context(), userID, unreadOnly, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteCollection(w, http.StatusOK, notifications, nil, map[string]string{
		"stream": "/api/notifications/stream",
	})
}

// UnreadCount handles GET /api/notifications/unread-count
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	count, err := h.notifications.UnreadCount(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, map[string]int{"unread": count}, nil)
}

// MarkRead handles POST /api/notifications/{notificationId}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "notificationId", "notification")
	if !ok {
		return
	}

	if err := h.notifications.MarkRead(r.Context(), id, userID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteNoContent(w)
}

// MarkAllRead handles POST /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	n, err := h.notifications.MarkAllRead(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, map[string]int{"marked": n}, nil)
}
