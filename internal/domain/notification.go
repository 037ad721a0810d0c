package domain

import (
	"context"
	"time"
)

type NotificationID string

// Notification is a short message shown to a user in the app shell.
type Notification struct {
	ID        NotificationID
	UserID    UserID
	Title     string
	Message   string
	Read      bool
	CreatedAt time.Time
}

// NotificationStore defines the minimum operations to persist notifications.
type NotificationStore interface {
	AppendNotification(ctx context.Context, n *Notification) error
	ListNotificationsByUser(ctx context.Context, userID UserID, limit int) ([]*Notification, error)
}
