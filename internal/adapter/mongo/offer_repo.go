package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/AlphaIsYour/creanomic-sub002/internal/app/config"
	"github.com/AlphaIsYour/creanomic-sub002/internal/domain/entity"
	"github.com/AlphaIsYour/creanomic-sub002/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type offerRepository struct {
	collection *mongo.Collection
}

func NewOfferRepository(client *mongo.Client, cfg config.MongoDBConfig) repository.OfferRepository {
	return &offerRepository{
		collection: client.Database(cfg.Database).Collection(offersCollectionName),
	}
}

func (r *offerRepository) Create(ctx context.Context, params repository.CreateOfferParams) (*entity.WasteOffer, error) {
	now := time.Now().UTC()
	images := params.Images
	if images == nil {
		images = []string{}
	}
	offer := &entity.WasteOffer{
		ID:             primitive.NewObjectID().Hex(),
		Title:          params.Title,
		Description:    params.Description,
		MaterialType:   params.MaterialType,
		Weight:         params.Weight,
		Condition:      params.Condition,
		OfferType:      params.OfferType,
		SuggestedPrice: params.SuggestedPrice,
		Images:         images,
		Status:         entity.StatusAvailable,
		Address:        params.Address,
		Latitude:       params.Latitude,
		Longitude:      params.Longitude,
		UserID:         params.UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
		Version:        1,
	}

	if _, err := r.collection.InsertOne(ctx, offer); err != nil {
		return nil, fmt.Errorf("failed to create waste offer: %w", err)
	}
	return offer, nil
}

func (r *offerRepository) GetByID(ctx context.Context, offerID string) (*entity.WasteOffer, error) {
	var offer entity.WasteOffer
	err := r.collection.FindOne(ctx, bson.M{"_id": offerID}).Decode(&offer)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get waste offer by ID %s: %w", offerID, err)
	}
	return &offer, nil
}

func (r *offerRepository) UpdateStatus(ctx context.Context, params repository.UpdateOfferStatusParams) error {
	filter := bson.M{
		"_id":     params.OfferID,
		"version": params.Version,
	}

	set := bson.M{
		"status":     params.Status,
		"updated_at": time.Now().UTC(),
	}
	if params.ReservedAt != nil {
		set["reserved_at"] = *params.ReservedAt
	}
	if params.TakenAt != nil {
		set["taken_at"] = *params.TakenAt
	}
	if params.CompletedAt != nil {
		set["completed_at"] = *params.CompletedAt
	}
	if params.PengepulID != nil {
		set["pengepul_id"] = *params.PengepulID
	}

	update := bson.M{
		"$set": set,
		"$inc": bson.M{"version": 1},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update offer status for ID %s: %w", params.OfferID, err)
	}

	if result.MatchedCount == 0 {
		var existing entity.WasteOffer
		errFind := r.collection.FindOne(ctx, bson.M{"_id": params.OfferID}).Decode(&existing)
		if errors.Is(errFind, mongo.ErrNoDocuments) {
			return repository.ErrNotFound
		}
		if errFind == nil && existing.Version != params.Version {
			return repository.ErrOptimisticLock
		}
		return repository.ErrUpdateFailed
	}

	return nil
}

func (r *offerRepository) CountByUserAndStatus(ctx context.Context, userID string, statuses ...entity.OfferStatus) (int64, error) {
	filter := bson.M{"user_id": userID}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count offers for user %s: %w", userID, err)
	}
	return count, nil
}

func (r *offerRepository) Search(ctx context.Context, query string) ([]*entity.WasteOffer, error) {
	pattern := regexp.QuoteMeta(strings.TrimSpace(query))
	regex := bson.M{"$regex": pattern, "$options": "i"}
	normalized := strings.ToUpper(strings.TrimSpace(query))

	filter := bson.M{
		"status": entity.StatusAvailable,
		"$or": []bson.M{
			{"title": regex},
			{"description": regex},
			{"address": regex},
			{"condition": regex},
			{"material_type": normalized},
			{"offer_type": normalized},
		},
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search waste offers: %w", err)
	}

	offers := []*entity.WasteOffer{}
	if err := cursor.All(ctx, &offers); err != nil {
		return nil, fmt.Errorf("failed to decode waste offers: %w", err)
	}
	return offers, nil
}

func (r *offerRepository) ListByUser(ctx context.Context, userID string) ([]*entity.WasteOffer, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers for user %s: %w", userID, err)
	}

	offers := []*entity.WasteOffer{}
	if err := cursor.All(ctx, &offers); err != nil {
		return nil, fmt.Errorf("failed to decode waste offers: %w", err)
	}
	return offers, nil
}

func (r *offerRepository) AppendImage(ctx context.Context, offerID, url string, max int) error {
	filter := bson.M{
		"_id":             offerID,
		fmt.Sprintf("images.%d", max-1): bson.M{"$exists": false},
	}
	update := bson.M{
		"$push": bson.M{"images": url},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to append image to offer %s: %w", offerID, err)
	}
	if result.MatchedCount == 0 {
		count, errCount := r.collection.CountDocuments(ctx, bson.M{"_id": offerID}, options.Count().SetLimit(1))
		if errCount != nil {
			return fmt.Errorf("failed to check offer %s after image append: %w", offerID, errCount)
		}
		if count == 0 {
			return repository.ErrNotFound
		}
		return repository.ErrImageLimit
	}
	return nil
}
