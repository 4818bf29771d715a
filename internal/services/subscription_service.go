package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/moodtracker/internal/models"
	apperrors "github.com/charlesng35/moodtracker/pkg/errors"
)

// SubscriptionInput carries a browser push subscription.
type SubscriptionInput struct {
	Endpoint string
	P256dh   string
	Auth     string
	Owner    string
}

// SubscriptionService is the durable store of push subscriptions keyed by endpoint.
type SubscriptionService struct {
	db *gorm.DB
}

// NewSubscriptionService constructs a SubscriptionService.
func NewSubscriptionService(db *gorm.DB) (*SubscriptionService, error) {
	if db == nil {
		return nil, errors.New("subscription service: db is required")
	}
	return &SubscriptionService{db: db}, nil
}

// Upsert inserts the subscription or overwrites the keys and owner of the one
// already stored for the endpoint. CreatedAt is never changed.
func (s *SubscriptionService) Upsert(ctx context.Context, input SubscriptionInput) (*models.PushSubscription, error) {
	ctx = ensureContext(ctx)

	endpoint := strings.TrimSpace(input.Endpoint)
	if endpoint == "" {
		return nil, apperrors.NewValidation("endpoint is required")
	}
	if len(endpoint) > models.MaxEndpointLength {
		return nil, apperrors.NewValidation(fmt.Sprintf("endpoint must be at most %d characters", models.MaxEndpointLength))
	}
	p256dh := strings.TrimSpace(input.P256dh)
	auth := strings.TrimSpace(input.Auth)
	if p256dh == "" || auth == "" {
		return nil, apperrors.NewValidation("subscription keys p256dh and auth are required")
	}

	sub := models.PushSubscription{
		Endpoint: endpoint,
		P256dh:   p256dh,
		Auth:     auth,
		Owner:    normaliseOwner(input.Owner),
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.Assignments(map[string]any{
				"p256dh":     sub.P256dh,
				"auth":       sub.Auth,
				"owner":      sub.Owner,
				"updated_at": time.Now().UTC(),
			}),
		}).
		Create(&sub).Error
	if err != nil {
		return nil, apperrors.NewStorage("failed to save subscription", fmt.Errorf("subscription service: upsert: %w", err))
	}

	var stored models.PushSubscription
	if err := s.db.WithContext(ctx).Where("endpoint = ?", endpoint).Take(&stored).Error; err != nil {
		return nil, apperrors.NewStorage("failed to load subscription", fmt.Errorf("subscription service: reload: %w", err))
	}
	return &stored, nil
}

// Remove deletes the subscription for endpoint. Unknown endpoints are a no-op.
func (s *SubscriptionService) Remove(ctx context.Context, endpoint string) error {
	ctx = ensureContext(ctx)

	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return apperrors.NewValidation("endpoint is required")
	}

	if err := s.db.WithContext(ctx).Where("endpoint = ?", endpoint).Delete(&models.PushSubscription{}).Error; err != nil {
		return apperrors.NewStorage("failed to remove subscription", fmt.Errorf("subscription service: remove: %w", err))
	}
	return nil
}

// ListAll returns every stored subscription in no particular order.
func (s *SubscriptionService) ListAll(ctx context.Context) ([]models.PushSubscription, error) {
	ctx = ensureContext(ctx)

	var subs []models.PushSubscription
	if err := s.db.WithContext(ctx).Find(&subs).Error; err != nil {
		return nil, apperrors.NewStorage("failed to list subscriptions", fmt.Errorf("subscription service: list: %w", err))
	}
	return subs, nil
}

// Count returns the number of stored subscriptions.
func (s *SubscriptionService) Count(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.PushSubscription{}).Count(&count).Error; err != nil {
		return 0, apperrors.NewStorage("failed to count subscriptions", fmt.Errorf("subscription service: count: %w", err))
	}
	return count, nil
}
