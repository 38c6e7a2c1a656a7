package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/forgo/shiftboard/api/internal/model"
	"github.com/forgo/shiftboard/api/internal/service"
	"github.com/google/uuid"
)

// EventsHandler handles SSE event streaming
type EventsHandler struct {
	notifications *service.NotificationService
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(notifications *service.NotificationService) *EventsHandler {
	return &EventsHandler{
		notifications: notifications,
	}
}

// Stream handles GET /api/notifications/stream
// Streams the caller's new notifications and unread counts as SSE
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	hub := h.notifications.Hub()
	if hub == nil {
		WriteError(w, model.NewInternalError("live notifications are disabled"))
		return
	}

	// Check if the client supports SSE
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, model.NewInternalError("streaming not supported"))
		return
	}

	// The server write timeout would otherwise cut long-lived streams
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		slog.Debug("stream write deadline not cleared", slog.Any("error", err))
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	subscriberID := uuid.New().String()
	sub := hub.Subscribe(userID, subscriberID)
	defer hub.Unsubscribe(userID, subscriberID)

	fmt.Fprintf(w, "event: connected\ndata: {\"subscriber_id\":\"%s\"}\n\n", subscriberID)

	// Let a reconnecting client resync its badge straight away
	if count, err := h.notifications.UnreadCount(r.Context(), userID); err == nil {
		event := service.Event{Type: service.EventUnreadCount, Data: map[string]int{"unread": count}}
		fmt.Fprint(w, event.Format())
	}
	flusher.Flush()

	for {
		select {
		case event, ok := <-sub.Events:
			if !ok {
				return
			}
			if _, err := fmt.Fprint(w, event.Format()); err != nil {
				return
			}
			flusher.Flush()

		case <-sub.Done:
			return

		case <-r.Context().Done():
			// Client disconnected
			return
		}
	}
}
