package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlphaIsYour/creanomic-sub002/internal/domain/entity"
	"github.com/AlphaIsYour/creanomic-sub002/internal/platform/logger"
	"github.com/AlphaIsYour/creanomic-sub002/internal/repository"
)

const defaultNotificationLimit = 50

type NotificationService interface {
	ListNotifications(ctx context.Context, userID string, limit int64) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, notificationID, userID string) error
}

type notificationService struct {
	notifications repository.NotificationRepository
	log           logger.Logger
}

func NewNotificationService(notifications repository.NotificationRepository, log logger.Logger) NotificationService {
	return &notificationService{
		notifications: notifications,
		log:           log,
	}
}

func (s *notificationService) ListNotifications(ctx context.Context, userID string, limit int64) ([]*entity.Notification, error) {
	if limit <= 0 || limit > defaultNotificationLimit {
		limit = defaultNotificationLimit
	}

	notifications, err := s.notifications.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications for user %s: %w", userID, err)
	}
	return notifications, nil
}

func (s *notificationService) MarkRead(ctx context.Context, notificationID, userID string) error {
	err := s.notifications.MarkRead(ctx, notificationID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to mark notification %s as read: %w", notificationID, err)
	}
	return nil
}
