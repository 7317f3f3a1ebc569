package repository

import (
	"context"

	"github.com/AlphaIsYour/creanomic-sub002/internal/domain/entity"
)

type CreateUserParams struct {
	Name         string
	Email        string
	PasswordHash string
	Role         entity.UserRole
}

type UserRepository interface {
	// CreateFromVerification inserts the new user and deletes the consumed
	// verification token as a single atomic unit. Returns ErrAlreadyExists
	// when the email is taken and ErrNotFound when the token is already gone.
	CreateFromVerification(ctx context.Context, params CreateUserParams, tokenID string) (*entity.User, error)
	GetByID(ctx context.Context, userID string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// ReserveOfferSlot atomically increments the user's active offer counter
	// while it is below max. Returns ErrQuotaExhausted when no slot is free.
	ReserveOfferSlot(ctx context.Context, userID string, max int) error
	// ReleaseOfferSlot decrements the counter, never below zero.
	ReleaseOfferSlot(ctx context.Context, userID string) error
}
