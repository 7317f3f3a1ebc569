package repository

import (
	"context"

	"github.com/AlphaIsYour/creanomic-sub002/internal/domain/entity"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error
	ListByUser(ctx context.Context, userID string, limit int64) ([]*entity.Notification, error)
	// MarkRead flips the read flag for a notification owned by userID.
	MarkRead(ctx context.Context, notificationID, userID string) error
}
