package repository

import (
	"context"

	"github.com/forgo/shiftboard/api/internal/database"
	"github.com/forgo/shiftboard/api/internal/model"
)

// NotificationRepository handles in-app notifications
type NotificationRepository struct {
	db database.Database
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db database.Database) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create stores a notification
func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	query := `
		CREATE notification CONTENT {
			user_id: type::record($user_id),
			type: $type,
			title: $title,
			message: $message,
			shift_id: IF $shift_id != NONE THEN type::record($shift_id) ELSE NONE END,
			action_url: IF $action_url != NONE THEN $action_url ELSE NONE END,
			read: false,
			created_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"user_id":    n.UserID,
		"type":       n.Type,
		"title":      n.Title,
		"message":    n.Message,
		"shift_id":   ptrToNone(n.ShiftID),
		"action_url": ptrToNone(n.ActionURL),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return err
	}
	created, err := firstCreated[model.Notification](result)
	if err != nil {
		return err
	}
	n.ID = created.ID
	n.CreatedOn = created.CreatedOn
	return nil
}

// ListByUser returns a user's newest notifications
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*model.Notification, error) {
	query := `SELECT * FROM notification WHERE user_id = type::record($user_id)`
	if unreadOnly {
		query += ` AND read = false`
	}
	query += ` ORDER BY created_on DESC LIMIT $limit`
	vars := map[string]interface{}{
		"user_id": userID,
		"limit":   limit,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return decodeAll[model.Notification](statementRows(result, 0))
}

// CountUnread returns how many unread notifications a user has
func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	query := `SELECT count() AS count FROM notification WHERE user_id = type::record($user_id) AND read = false GROUP ALL`
	vars := map[string]interface{}{"user_id": userID}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return 0, err
	}
	return extractCount(result), nil
}

// MarkRead marks one of the user's notifications read. It returns
// database.ErrNotFound when the notification does not belong to the user.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	query := `
		UPDATE type::record($id) SET read = true, read_on = time::now()
		WHERE user_id = type::record($user_id)
		RETURN AFTER
	`
	vars := map[string]interface{}{
		"id":      id,
		"user_id": userID,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return err
	}
	if len(statementRows(result, 0)) == 0 {
		return database.ErrNotFound
	}
	return nil
}

// MarkAllRead marks every unread notification of a user read and returns the
// number changed
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	query := `
		UPDATE notification SET read = true, read_on = time::now()
		WHERE user_id = type::record($user_id) AND read = false
		RETURN AFTER
	`
	vars := map[string]interface{}{"user_id": userID}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return 0, err
	}
	return len(statementRows(result, 0)), nil
}
