package entity

import (
	"time"
)

type NotificationType string

const (
	NotificationOfferTaken    NotificationType = "OFFER_TAKEN"
	NotificationOfferReserved NotificationType = "OFFER_RESERVED"
	NotificationSystem        NotificationType = "SYSTEM"
)

// Notification is a fire-and-forget record emitted by offer transitions and
// read back only by the inbox endpoints.
type Notification struct {
	ID        string           `bson:"_id,omitempty"`
	UserID    string           `bson:"user_id"`
	Title     string           `bson:"title"`
	Message   string           `bson:"message"`
	Type      NotificationType `bson:"type"`
	ActionURL string           `bson:"action_url,omitempty"`
	Read      bool             `bson:"read"`
	CreatedAt time.Time        `bson:"created_at"`
}
