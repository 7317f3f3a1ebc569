package service

import (
	"context"
	"testing"

	"github.com/AlphaIsYour/creanomic-sub002/internal/domain/entity"
	"github.com/AlphaIsYour/creanomic-sub002/internal/platform/logger"
	"github.com/AlphaIsYour/creanomic-sub002/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestNotificationService_ListNotifications_ClampsLimit(t *testing.T) {
	mockNotifications := new(MockNotificationRepository)

	results := []*entity.Notification{
		{ID: "n1", UserID: "user1", Type: entity.NotificationOfferTaken},
	}
	mockNotifications.On("ListByUser", mock.Anything, "user1", int64(50)).Return(results, nil).Twice()
	mockNotifications.On("ListByUser", mock.Anything, "user1", int64(10)).Return(results, nil).Once()

	svc := NewNotificationService(mockNotifications, logger.NewNop())

	_, err := svc.ListNotifications(context.Background(), "user1", 0)
	assert.NoError(t, err)
	_, err = svc.ListNotifications(context.Background(), "user1", 500)
	assert.NoError(t, err)
	_, err = svc.ListNotifications(context.Background(), "user1", 10)
	assert.NoError(t, err)

	mockNotifications.AssertExpectations(t)
}

func TestNotificationService_MarkRead_NotFound(t *testing.T) {
	mockNotifications := new(MockNotificationRepository)
	mockNotifications.On("MarkRead", mock.Anything, "missing", "user1").Return(repository.ErrNotFound).Once()

	svc := NewNotificationService(mockNotifications, logger.NewNop())
	err := svc.MarkRead(context.Background(), "missing", "user1")

	assert.ErrorIs(t, err, ErrNotFound)
}
