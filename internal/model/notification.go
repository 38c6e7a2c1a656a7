package model

import "time"

// NotificationType identifies what a notification is about
type NotificationType string

const (
	NotificationSignupConfirmed       NotificationType = "SIGNUP_CONFIRMED"
	NotificationSignupPending         NotificationType = "SIGNUP_PENDING"
	NotificationSignupWaitlisted      NotificationType = "SIGNUP_WAITLISTED"
	NotificationSignupRejected        NotificationType = "SIGNUP_REJECTED"
	NotificationSignupCanceled        NotificationType = "SIGNUP_CANCELED"
	NotificationShiftCanceled         NotificationType = "SHIFT_CANCELED"
	NotificationWaitlistSpotAvailable NotificationType = "WAITLIST_SPOT_AVAILABLE"
	NotificationFlexiblePlaced        NotificationType = "FLEXIBLE_PLACED"
	NotificationRegularSignupCreated  NotificationType = "REGULAR_SIGNUP_CREATED"
	NotificationConsentApproved       NotificationType = "CONSENT_APPROVED"
)

// Notification is an in-app message for a user
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	ShiftID   *string          `json:"shift_id,omitempty"`
	ActionURL *string          `json:"action_url,omitempty"`
	Read      bool             `json:"read"`
	CreatedOn time.Time        `json:"created_on"`
	ReadOn    *time.Time       `json:"read_on,omitempty"`
}

// Notification listing limits
const (
	DefaultNotificationLimit = 50
	MaxNotificationLimit     = 200
)
