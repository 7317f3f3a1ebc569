package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/AlphaIsYour/creanomic-sub002/internal/app/config"
	"github.com/AlphaIsYour/creanomic-sub002/internal/domain/entity"
	"github.com/AlphaIsYour/creanomic-sub002/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type notificationRepository struct {
	collection *mongo.Collection
}

func NewNotificationRepository(client *mongo.Client, cfg config.MongoDBConfig) repository.NotificationRepository {
	return &notificationRepository{
		collection: client.Database(cfg.Database).Collection(notificationsCollectionName),
	}
}

func (r *notificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	if notification.ID == "" {
		notification.ID = primitive.NewObjectID().Hex()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}

	if _, err := r.collection.InsertOne(ctx, notification); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string, limit int64) ([]*entity.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications for user %s: %w", userID, err)
	}

	notifications := []*entity.Notification{}
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, notificationID, userID string) error {
	filter := bson.M{
		"_id":     notificationID,
		"user_id": userID,
	}
	update := bson.M{"$set": bson.M{"read": true}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to mark notification %s as read: %w", notificationID, err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
