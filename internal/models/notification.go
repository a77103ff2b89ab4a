package models

import "time"

// NotificationType classifies a notification for client rendering.
type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

// Notification is a persisted message for a user. Rows are immutable once
// created except for the is_read flag.
type Notification struct {
	ID          string           `db:"id" json:"id"`
	UserID      string           `db:"user_id" json:"user_id"`
	Title       string           `db:"title" json:"title"`
	Message     string           `db:"message" json:"message"`
	Type        NotificationType `db:"type" json:"type"`
	IsRead      bool             `db:"is_read" json:"is_read"`
	RelatedType *string          `db:"related_type" json:"related_type,omitempty"`
	RelatedID   *string          `db:"related_id" json:"related_id,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
}

// NotificationFilter captures criteria for listing notifications.
type NotificationFilter struct {
	UserID     string
	UnreadOnly bool
	Page       int
	PageSize   int
}
