package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/forgo/shiftboard/api/internal/database"
	"github.com/forgo/shiftboard/api/internal/model"
)

// NotificationRepository defines the interface for notification storage
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*model.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
}

// Notifier delivers in-app notifications. Delivery failures are logged, not
// returned, so a notification never fails the action that caused it.
type Notifier interface {
	Notify(ctx context.Context, n *model.Notification)
}

// NotificationService stores notifications and pushes them to live clients
type NotificationService struct {
	repo NotificationRepository
	hub  *EventHub
}

// NewNotificationService creates a new notification service. hub may be nil.
func NewNotificationService(repo NotificationRepository, hub *EventHub) *NotificationService {
	return &NotificationService{repo: repo, hub: hub}
}

// Notify stores n and pushes it to the user's connected clients
func (s *NotificationService) Notify(ctx context.Context, n *model.Notification) {
	if err := s.repo.Create(ctx, n); err != nil {
		slog.Error("failed to store notification",
			slog.String("user_id", n.UserID),
			slog.String("type", string(n.Type)),
			slog.String("error", err.Error()),
		)
		return
	}
	if s.hub != nil {
		s.hub.SendToUser(n.UserID, &Event{Type: EventNotification, Data: n})
	}
}

// List returns a user's newest notifications
func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*model.Notification, error) {
	if limit <= 0 {
		limit = model.DefaultNotificationLimit
	}
	if limit > model.MaxNotificationLimit {
		limit = model.MaxNotificationLimit
	}
	return s.repo.ListByUser(ctx, userID, unreadOnly, limit)
}

// UnreadCount returns how many unread notifications a user has
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

// MarkRead marks one of the user's notifications read
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	s.pushUnreadCount(ctx, userID)
	return nil
}

// MarkAllRead marks every notification of the user read
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.pushUnreadCount(ctx, userID)
	return n, nil
}

// Hub returns the live event hub, or nil
func (s *NotificationService) Hub() *EventHub {
	return s.hub
}

func (s *NotificationService) pushUnreadCount(ctx context.Context, userID string) {
	if s.hub == nil || s.hub.SubscriberCount(userID) == 0 {
		return
	}
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return
	}
	s.hub.SendToUser(userID, &Event{Type: EventUnreadCount, Data: map[string]int{"unread": count}})
}

// Notification builders shared by the signup, shift and user services

func shiftNotification(userID string, t model.NotificationType, title, message, shiftID string) *model.Notification {
	n := &model.Notification{
		UserID:  userID,
		Type:    t,
		Title:   title,
		Message: message,
	}
	if shiftID != "" {
		n.ShiftID = &shiftID
		url := "/shifts/" + shiftID
		n.ActionURL = &url
	}
	return n
}

// nopNotifier drops notifications
type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, *model.Notification) {}
