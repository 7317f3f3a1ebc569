package mongo

import (
	"context"
	"errors"
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

type userRepository struct {
	client *mongo.Client
	users  *mongo.Collection
	tokens *mongo.Collection
}

func NewUserRepository(client *mongo.Client, cfg config.MongoDBConfig) repository.UserRepository {
	database := client.Database(cfg.Database)
	return &userRepository{
		client: client,
		users:  database.Collection(usersCollectionName),
		tokens: database.Collection(tokensCollectionName),
	}
}

// CreateFromVerification inserts the user and deletes the consumed token in
// one multi-document transaction, so a failed insert never consumes the token
// and a consumed token always corresponds to exactly one created user.
func (r *userRepository) CreateFromVerification(ctx context.Context, params repository.CreateUserParams, tokenID string) (*entity.User, error) {
	now := time.Now().UTC()
	user := &entity.User{
		ID:            primitive.NewObjectID().Hex(),
		Name:          params.Name,
		Email:         params.Email,
		Password:      params.PasswordHash,
		Role:          params.Role,
		IsVerified:    true,
		EmailVerified: &now,
		ActiveOffers:  0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	session, err := r.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("failed to start mongo session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if _, err := r.users.InsertOne(sessCtx, user); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, repository.ErrAlreadyExists
			}
			return nil, fmt.Errorf("failed to insert user: %w", err)
		}

		res, err := r.tokens.DeleteOne(sessCtx, bson.M{"_id": tokenID})
		if err != nil {
			return nil, fmt.Errorf("failed to delete verification token: %w", err)
		}
		if res.DeletedCount == 0 {
			// Token vanished between validation and consumption, most likely a
			// concurrent registration for the same email. Abort so no user is
			// created without consuming a token.
			return nil, repository.ErrNotFound
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (r *userRepository) GetByID(ctx context.Context, userID string) (*entity.User, error) {
	var user entity.User
	err := r.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID %s: %w", userID, err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	err := r.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	count, err := r.users.CountDocuments(ctx, bson.M{"email": email}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to count users by email: %w", err)
	}
	return count > 0, nil
}

// ReserveOfferSlot is a single-document conditional increment, so the quota
// cannot be exceeded by concurrent creates racing a separate count query.
func (r *userRepository) ReserveOfferSlot(ctx context.Context, userID string, max int) error {
	filter := bson.M{
		"_id":           userID,
		"active_offers": bson.M{"$lt": max},
	}
	update := bson.M{
		"$inc": bson.M{"active_offers": 1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	res, err := r.users.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to reserve offer slot for user %s: %w", userID, err)
	}
	if res.MatchedCount == 0 {
		count, errCount := r.users.CountDocuments(ctx, bson.M{"_id": userID}, options.Count().SetLimit(1))
		if errCount != nil {
			return fmt.Errorf("failed to check user %s after slot reservation: %w", userID, errCount)
		}
		if count == 0 {
			return repository.ErrNotFound
		}
		return repository.ErrQuotaExhausted
	}
	return nil
}

func (r *userRepository) ReleaseOfferSlot(ctx context.Context, userID string) error {
	filter := bson.M{
		"_id":           userID,
		"active_offers": bson.M{"$gt": 0},
	}
	update := bson.M{
		"$inc": bson.M{"active_offers": -1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	// MatchedCount of zero means the counter is already at zero; the release
	// is clamped rather than treated as an error.
	if _, err := r.users.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to release offer slot for user %s: %w", userID, err)
	}
	return nil
}
