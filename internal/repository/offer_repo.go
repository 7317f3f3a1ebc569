package repository

import (
	"context"
	"time"

	"github.com/AlphaIsYour/creanomic-sub002/internal/domain/entity"
)

type CreateOfferParams struct {
	UserID         string
	Title          string
	Description    string
	MaterialType   entity.MaterialType
	Weight         *float64
	Condition      string
	OfferType      entity.OfferType
	SuggestedPrice *float64
	Images         []string
	Address        string
	Latitude       float64
	Longitude      float64
}

// UpdateOfferStatusParams carries a version-guarded status update. Timestamp
// pointers are only set for statuses entered for the first time; nil leaves
// the stored value untouched.
type UpdateOfferStatusParams struct {
	OfferID     string
	Status      entity.OfferStatus
	Version     int
	ReservedAt  *time.Time
	TakenAt     *time.Time
	CompletedAt *time.Time
	PengepulID  *string
}

type OfferRepository interface {
	Create(ctx context.Context, params CreateOfferParams) (*entity.WasteOffer, error)
	GetByID(ctx context.Context, offerID string) (*entity.WasteOffer, error)
	// UpdateStatus applies the update only when the stored version matches;
	// returns ErrOptimisticLock on a version mismatch and ErrNotFound when
	// the offer does not exist.
	UpdateStatus(ctx context.Context, params UpdateOfferStatusParams) error
	CountByUserAndStatus(ctx context.Context, userID string, statuses ...entity.OfferStatus) (int64, error)
	// Search matches AVAILABLE offers case-insensitively against title,
	// description, address and condition, or exactly against the material and
	// offer type enums. Results are ordered by creation time, newest first.
	Search(ctx context.Context, query string) ([]*entity.WasteOffer, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.WasteOffer, error)
	// AppendImage adds a photo URL while the offer has fewer than max images.
	// Returns ErrImageLimit when the cap is reached.
	AppendImage(ctx context.Context, offerID, url string, max int) error
}
