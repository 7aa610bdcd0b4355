package model

import "time"

// Notification is a server-generated message about activity on an order
// or task. The client only ever flips IsSeen; it never deletes them.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id" db:"id"`

	// UserID is the recipient.
	UserID string `json:"user_id" db:"user_id"`

	// Title and Content are free text. Content usually embeds the related
	// order id after the "Mã đơn :" label.
	Title   string `json:"title" db:"title"`
	Content string `json:"content" db:"content"`

	// IsSeen indicates whether the user has marked it as read.
	IsSeen bool `json:"is_seen" db:"is_seen"`

	// CreatedAt is when the server generated the notification.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
