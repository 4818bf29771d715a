package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/moodtracker/internal/models"
	"github.com/charlesng35/moodtracker/internal/push"
	"github.com/charlesng35/moodtracker/internal/services"
	"github.com/charlesng35/moodtracker/pkg/errors"
	"github.com/charlesng35/moodtracker/pkg/response"
)

// SubscriptionStore persists browser push subscriptions.
type SubscriptionStore interface {
	Upsert(ctx context.Context, input services.SubscriptionInput) (*models.PushSubscription, error)
	Remove(ctx context.Context, endpoint string) error
}

// Notifier fans a payload out to every stored subscription.
type Notifier interface {
	DispatchAll(ctx context.Context, payload push.NotificationPayload) (push.Result, error)
}

// PushHandler exposes the web push subscription endpoints.
type PushHandler struct {
	store     SubscriptionStore
	notifier  Notifier
	composer  push.Composer
	publicKey string
}

// NewPushHandler constructs a push handler.
func NewPushHandler(store SubscriptionStore, notifier Notifier, composer push.Composer, publicKey string) (*PushHandler, error) {
	if store == nil {
		return nil, fmt.Errorf("push handler: subscription store is required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("push handler: notifier is required")
	}
	if publicKey == "" {
		return nil, fmt.Errorf("push handler: vapid public key is required")
	}
	return &PushHandler{
		store:     store,
		notifier:  notifier,
		composer:  composer,
		publicKey: publicKey,
	}, nil
}

type subscriptionKeys struct {
	P256dh string `json:"p256dh" validate:"required,notblank"`
	Auth   string `json:"auth" validate:"required,notblank"`
}

type subscribeRequest struct {
	Endpoint string           `json:"endpoint" validate:"required,notblank,max=512,https_url"`
	Keys     subscriptionKeys `json:"keys"`
	UserID   string           `json:"userId" validate:"max=64"`
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required,notblank"`
}

// PublicKey returns the VAPID application server key.
func (h *PushHandler) PublicKey(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"publicKey": h.publicKey})
}

// Subscribe stores or refreshes a push subscription.
func (h *PushHandler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if !bindAndValidate(c, &req) {
		return
	}

	_, err := h.store.Upsert(requestContext(c), services.SubscriptionInput{
		Endpoint: req.Endpoint,
		P256dh:   req.Keys.P256dh,
		Auth:     req.Keys.Auth,
		Owner:    req.UserID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusCreated, "Subscription saved")
}

// Unsubscribe removes a push subscription. Unknown endpoints succeed.
func (h *PushHandler) Unsubscribe(c *gin.Context) {
	var req unsubscribeRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.store.Remove(requestContext(c), req.Endpoint); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, "Unsubscribed")
}

// SendTest pushes a test notification to every subscription and reports the tally.
func (h *PushHandler) SendTest(c *gin.Context) {
	result, err := h.notifier.DispatchAll(requestContext(c), h.composer.TestPayload())
	if err != nil {
		response.Error(c, errors.Wrap(err, "failed to send test notification"))
		return
	}

	total := result.SuccessCount + result.FailureCount
	response.Success(c, http.StatusOK, gin.H{
		"message": fmt.Sprintf("Test notification sent to %d of %d subscriptions", result.SuccessCount, total),
		"details": result,
	})
}
