package repository

import (
	"context"

	"github.com/AlphaIsYour/creanomic-sub002/internal/domain/entity"
)

type TokenRepository interface {
	Create(ctx context.Context, token *entity.VerificationToken) error
	// FindByIdentifierAndToken looks a token up by its compound natural key.
	// A wrong code and a missing code are indistinguishable: both return
	// ErrNotFound.
	FindByIdentifierAndToken(ctx context.Context, identifier, code string, tokenType entity.TokenType) (*entity.VerificationToken, error)
	DeleteByID(ctx context.Context, tokenID string) error
	// DeleteByIdentifier removes every token for the identifier/type pair,
	// superseding any live code.
	DeleteByIdentifier(ctx context.Context, identifier string, tokenType entity.TokenType) error
}
