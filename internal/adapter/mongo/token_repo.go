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
)

type tokenRepository struct {
	collection *mongo.Collection
}

func NewTokenRepository(client *mongo.Client, cfg config.MongoDBConfig) repository.TokenRepository {
	return &tokenRepository{
		collection: client.Database(cfg.Database).Collection(tokensCollectionName),
	}
}

func (r *tokenRepository) Create(ctx context.Context, token *entity.VerificationToken) error {
	if token.ID == "" {
		token.ID = primitive.NewObjectID().Hex()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}

	if _, err := r.collection.InsertOne(ctx, token); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Another in-flight request issued the same code for this
			// identifier; the compound unique index catches the collision.
			return repository.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create verification token: %w", err)
	}
	return nil
}

func (r *tokenRepository) FindByIdentifierAndToken(ctx context.Context, identifier, code string, tokenType entity.TokenType) (*entity.VerificationToken, error) {
	filter := bson.M{
		"identifier": identifier,
		"token":      code,
		"type":       tokenType,
	}

	var token entity.VerificationToken
	err := r.collection.FindOne(ctx, filter).Decode(&token)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find verification token: %w", err)
	}
	return &token, nil
}

func (r *tokenRepository) DeleteByID(ctx context.Context, tokenID string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": tokenID})
	if err != nil {
		return fmt.Errorf("failed to delete verification token %s: %w", tokenID, err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *tokenRepository) DeleteByIdentifier(ctx context.Context, identifier string, tokenType entity.TokenType) error {
	filter := bson.M{
		"identifier": identifier,
		"type":       tokenType,
	}
	if _, err := r.collection.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("failed to delete verification tokens for %s: %w", identifier, err)
	}
	return nil
}
