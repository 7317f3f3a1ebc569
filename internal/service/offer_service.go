package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	natsadapter "github.com/AlphaIsYour/creanomic-sub002/internal/adapter/nats"
	"github.com/AlphaIsYour/creanomic-sub002/internal/domain/entity"
	"github.com/AlphaIsYour/creanomic-sub002/internal/platform/logger"
	"github.com/AlphaIsYour/creanomic-sub002/internal/platform/metrics"
	"github.com/AlphaIsYour/creanomic-sub002/internal/repository"
)

// OfferCache is the read-through cache the redis adapter implements. A nil
// cache disables caching.
type OfferCache interface {
	GetOffer(ctx context.Context, id string) (*entity.WasteOffer, error)
	SetOffer(ctx context.Context, offer *entity.WasteOffer) error
	DeleteOffer(ctx context.Context, id string) error
	GetStats(ctx context.Context, userID string) (*entity.OfferStats, error)
	SetStats(ctx context.Context, userID string, stats *entity.OfferStats) error
	DeleteStats(ctx context.Context, userID string) error
}

// PhotoStorage stores uploaded photos and returns a public URL.
type PhotoStorage interface {
	Upload(ctx context.Context, fileName string, data []byte) (string, error)
}

type CreateOfferInput struct {
	Title          string
	Description    string
	MaterialType   string
	Weight         *float64
	Condition      string
	OfferType      string
	SuggestedPrice *float64
	Images         []string
	Address        string
	Latitude       float64
	Longitude      float64
}

type OfferService interface {
	CreateOffer(ctx context.Context, userID string, input CreateOfferInput) (*entity.WasteOffer, error)
	GetOffer(ctx context.Context, offerID string) (*entity.OfferDetail, error)
	GetOfferStats(ctx context.Context, userID string) (*entity.OfferStats, error)
	// TransitionStatus moves the offer through its lifecycle. Only the owner
	// or an admin may request a transition; re-entering the current status is
	// a silent no-op.
	TransitionStatus(ctx context.Context, offerID, requestedBy, newStatus string) (*entity.OfferDetail, error)
	SearchOffers(ctx context.Context, query string) ([]*entity.WasteOffer, error)
	ListUserOffers(ctx context.Context, userID string) ([]*entity.WasteOffer, error)
	UploadPhoto(ctx context.Context, offerID, userID, fileName string, data []byte) (string, error)
}

type offerService struct {
	offers        repository.OfferRepository
	users         repository.UserRepository
	notifications repository.NotificationRepository
	cache         OfferCache
	storage       PhotoStorage
	publisher     EventPublisher
	metrics       *metrics.MetricsManager
	log           logger.Logger
}

func NewOfferService(
	offers repository.OfferRepository,
	users repository.UserRepository,
	notifications repository.NotificationRepository,
	cache OfferCache,
	storage PhotoStorage,
	publisher EventPublisher,
	m *metrics.MetricsManager,
	log logger.Logger,
) OfferService {
	return &offerService{
		offers:        offers,
		users:         users,
		notifications: notifications,
		cache:         cache,
		storage:       storage,
		publisher:     publisher,
		metrics:       m,
		log:           log,
	}
}

func (s *offerService) CreateOffer(ctx context.Context, userID string, input CreateOfferInput) (*entity.WasteOffer, error) {
	if err := validateOfferInput(input); err != nil {
		return nil, err
	}

	// Slot reservation is the quota check: a conditional increment that
	// cannot be raced past the cap by concurrent creates.
	err := s.users.ReserveOfferSlot(ctx, userID, entity.MaxActiveOffers)
	if err != nil {
		if errors.Is(err, repository.ErrQuotaExhausted) {
			return nil, ErrQuotaExceeded
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to reserve offer slot: %w", err)
	}

	offer, err := s.offers.Create(ctx, repository.CreateOfferParams{
		UserID:         userID,
		Title:          input.Title,
		Description:    input.Description,
		MaterialType:   entity.MaterialType(strings.ToUpper(input.MaterialType)),
		Weight:         input.Weight,
		Condition:      input.Condition,
		OfferType:      entity.OfferType(strings.ToUpper(input.OfferType)),
		SuggestedPrice: input.SuggestedPrice,
		Images:         input.Images,
		Address:        input.Address,
		Latitude:       input.Latitude,
		Longitude:      input.Longitude,
	})
	if err != nil {
		if errRelease := s.users.ReleaseOfferSlot(ctx, userID); errRelease != nil {
			s.log.Errorf("OfferService.CreateOffer: failed to release slot for user %s after create failure: %v", userID, errRelease)
		}
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}

	s.invalidateStats(ctx, userID)
	if s.metrics != nil {
		s.metrics.OffersCreatedTotal.Inc()
	}
	if s.publisher != nil {
		if errPub := s.publisher.Publish(natsadapter.SubjectOfferCreated, offer); errPub != nil {
			s.log.Warnf("OfferService.CreateOffer: failed to publish event: %v", errPub)
		}
	}

	s.log.Infof("OfferService.CreateOffer: offer %s created by user %s", offer.ID, userID)
	return offer, nil
}

func (s *offerService) GetOffer(ctx context.Context, offerID string) (*entity.OfferDetail, error) {
	var offer *entity.WasteOffer
	if s.cache != nil {
		cached, err := s.cache.GetOffer(ctx, offerID)
		if err != nil {
			s.log.Warnf("OfferService.GetOffer: cache read failed for %s: %v", offerID, err)
		}
		offer = cached
	}

	if offer == nil {
		found, err := s.offers.GetByID(ctx, offerID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("failed to get offer %s: %w", offerID, err)
		}
		offer = found
		if s.cache != nil {
			if errSet := s.cache.SetOffer(ctx, offer); errSet != nil {
				s.log.Warnf("OfferService.GetOffer: cache write failed for %s: %v", offerID, errSet)
			}
		}
	}

	return s.buildDetail(ctx, offer), nil
}

func (s *offerService) GetOfferStats(ctx context.Context, userID string) (*entity.OfferStats, error) {
	if s.cache != nil {
		cached, err := s.cache.GetStats(ctx, userID)
		if err != nil {
			s.log.Warnf("OfferService.GetOfferStats: cache read failed for user %s: %v", userID, err)
		}
		if cached != nil {
			return cached, nil
		}
	}

	active, err := s.offers.CountByUserAndStatus(ctx, userID, entity.ActiveStatuses()...)
	if err != nil {
		return nil, fmt.Errorf("failed to count active offers: %w", err)
	}
	completed, err := s.offers.CountByUserAndStatus(ctx, userID, entity.StatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed offers: %w", err)
	}
	cancelled, err := s.offers.CountByUserAndStatus(ctx, userID, entity.StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to count cancelled offers: %w", err)
	}

	slots := int64(entity.MaxActiveOffers) - active
	if slots < 0 {
		slots = 0
	}

	stats := &entity.OfferStats{
		ActiveCount:    active,
		AvailableSlots: slots,
		CompletedCount: completed,
		CancelledCount: cancelled,
	}

	if s.cache != nil {
		if errSet := s.cache.SetStats(ctx, userID, stats); errSet != nil {
			s.log.Warnf("OfferService.GetOfferStats: cache write failed for user %s: %v", userID, errSet)
		}
	}
	return stats, nil
}

func (s *offerService) TransitionStatus(ctx context.Context, offerID, requestedBy, newStatus string) (*entity.OfferDetail, error) {
	status, ok := entity.ParseOfferStatus(newStatus)
	if !ok {
		return nil, ErrInvalidStatus
	}

	offer, err := s.offers.GetByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get offer %s: %w", offerID, err)
	}

	if offer.UserID != requestedBy {
		requester, errUser := s.users.GetByID(ctx, requestedBy)
		if errUser != nil || !requester.IsAdmin() {
			s.log.Warnf("OfferService.TransitionStatus: user %s forbidden to change offer %s owned by %s", requestedBy, offerID, offer.UserID)
			return nil, ErrForbidden
		}
	}

	if offer.Status == status {
		// Same-status transition is a no-op: stamps and notifications
		// stay untouched.
		return s.buildDetail(ctx, offer), nil
	}
	if !offer.CanTransitionTo(status) {
		return nil, ErrInvalidStatus
	}

	now := time.Now().UTC()
	params := repository.UpdateOfferStatusParams{
		OfferID: offerID,
		Status:  status,
		Version: offer.Version,
	}
	// Timestamps are stamped only on first entry into their status.
	switch status {
	case entity.StatusReserved:
		if offer.ReservedAt == nil {
			params.ReservedAt = &now
		}
	case entity.StatusTaken:
		if offer.TakenAt == nil {
			params.TakenAt = &now
		}
	case entity.StatusCompleted:
		if offer.CompletedAt == nil {
			params.CompletedAt = &now
		}
	}

	if err := s.offers.UpdateStatus(ctx, params); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		if errors.Is(err, repository.ErrOptimisticLock) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to update offer status: %w", err)
	}

	if offer.Status.Active() && status.Terminal() {
		if errRelease := s.users.ReleaseOfferSlot(ctx, offer.UserID); errRelease != nil {
			s.log.Errorf("OfferService.TransitionStatus: failed to release slot for user %s: %v", offer.UserID, errRelease)
		}
	}

	firstCompletion := status == entity.StatusCompleted && offer.CompletedAt == nil
	if firstCompletion {
		notification := &entity.Notification{
			UserID:    offer.UserID,
			Title:     "Penawaran selesai",
			Message:   fmt.Sprintf("Penawaran '%s' telah diselesaikan.", offer.Title),
			Type:      entity.NotificationOfferTaken,
			ActionURL: "/offers/" + offer.ID,
		}
		if errNotif := s.notifications.Create(ctx, notification); errNotif != nil {
			s.log.Errorf("OfferService.TransitionStatus: failed to create notification for offer %s: %v", offer.ID, errNotif)
		} else if s.metrics != nil {
			s.metrics.NotificationsSentTotal.Inc()
		}
		if s.publisher != nil {
			if errPub := s.publisher.Publish(natsadapter.SubjectOfferCompleted, map[string]string{
				"offer_id": offer.ID,
				"user_id":  offer.UserID,
			}); errPub != nil {
				s.log.Warnf("OfferService.TransitionStatus: failed to publish completion event: %v", errPub)
			}
		}
	}

	if s.publisher != nil {
		if errPub := s.publisher.Publish(natsadapter.SubjectOfferStatusChanged, map[string]string{
			"offer_id":   offer.ID,
			"old_status": string(offer.Status),
			"new_status": string(status),
		}); errPub != nil {
			s.log.Warnf("OfferService.TransitionStatus: failed to publish status event: %v", errPub)
		}
	}
	if s.metrics != nil {
		s.metrics.OfferTransitionsTotal.WithLabelValues(string(status)).Inc()
	}

	if s.cache != nil {
		if errDel := s.cache.DeleteOffer(ctx, offerID); errDel != nil {
			s.log.Warnf("OfferService.TransitionStatus: cache invalidation failed for %s: %v", offerID, errDel)
		}
	}
	s.invalidateStats(ctx, offer.UserID)

	updated, err := s.offers.GetByID(ctx, offerID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload offer %s: %w", offerID, err)
	}

	s.log.Infof("OfferService.TransitionStatus: offer %s moved %s -> %s by %s", offerID, offer.Status, status, requestedBy)
	return s.buildDetail(ctx, updated), nil
}

func (s *offerService) SearchOffers(ctx context.Context, query string) ([]*entity.WasteOffer, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	offers, err := s.offers.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search offers: %w", err)
	}
	return offers, nil
}

func (s *offerService) ListUserOffers(ctx context.Context, userID string) ([]*entity.WasteOffer, error) {
	offers, err := s.offers.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers for user %s: %w", userID, err)
	}
	return offers, nil
}

func (s *offerService) UploadPhoto(ctx context.Context, offerID, userID, fileName string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: photo data is empty", ErrValidation)
	}

	offer, err := s.offers.GetByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get offer %s: %w", offerID, err)
	}
	if offer.UserID != userID {
		return "", ErrForbidden
	}
	if len(offer.Images) >= entity.MaxImages {
		return "", ErrImageLimitReached
	}

	url, err := s.storage.Upload(ctx, fileName, data)
	if err != nil {
		return "", fmt.Errorf("failed to upload photo: %w", err)
	}

	if err := s.offers.AppendImage(ctx, offerID, url, entity.MaxImages); err != nil {
		if errors.Is(err, repository.ErrImageLimit) {
			return "", ErrImageLimitReached
		}
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to attach photo: %w", err)
	}

	if s.cache != nil {
		if errDel := s.cache.DeleteOffer(ctx, offerID); errDel != nil {
			s.log.Warnf("OfferService.UploadPhoto: cache invalidation failed for %s: %v", offerID, errDel)
		}
	}
	return url, nil
}

func (s *offerService) buildDetail(ctx context.Context, offer *entity.WasteOffer) *entity.OfferDetail {
	detail := &entity.OfferDetail{WasteOffer: *offer}

	if owner, err := s.users.GetByID(ctx, offer.UserID); err == nil {
		summary := owner.Summary()
		detail.Owner = &summary
	}
	if offer.PengepulID != nil {
		if pengepul, err := s.users.GetByID(ctx, *offer.PengepulID); err == nil {
			summary := pengepul.Summary()
			detail.Pengepul = &summary
		}
	}
	return detail
}

func (s *offerService) invalidateStats(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteStats(ctx, userID); err != nil {
		s.log.Warnf("OfferService: stats cache invalidation failed for user %s: %v", userID, err)
	}
}

func validateOfferInput(input CreateOfferInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(input.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrValidation)
	}
	if strings.TrimSpace(input.Address) == "" {
		return fmt.Errorf("%w: address is required", ErrValidation)
	}
	if !entity.MaterialType(strings.ToUpper(input.MaterialType)).Valid() {
		return fmt.Errorf("%w: unknown material type %q", ErrValidation, input.MaterialType)
	}
	if !entity.OfferType(strings.ToUpper(input.OfferType)).Valid() {
		return fmt.Errorf("%w: unknown offer type %q", ErrValidation, input.OfferType)
	}
	if len(input.Images) > entity.MaxImages {
		return fmt.Errorf("%w: at most %d images are allowed", ErrValidation, entity.MaxImages)
	}
	if input.Weight != nil && *input.Weight <= 0 {
		return fmt.Errorf("%w: weight must be positive", ErrValidation)
	}
	if input.SuggestedPrice != nil && *input.SuggestedPrice < 0 {
		return fmt.Errorf("%w: suggested price cannot be negative", ErrValidation)
	}
	if input.Latitude < -90 || input.Latitude > 90 || input.Longitude < -180 || input.Longitude > 180 {
		return fmt.Errorf("%w: coordinates out of range", ErrValidation)
	}
	return nil
}
