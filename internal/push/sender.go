package push

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/charlesng35/moodtracker/internal/models"
)

// Sender delivers one encoded payload to one subscription. Implementations
// return nil on success, an error wrapping ErrGone when the target no longer
// exists, and a TransientDeliveryError otherwise.
type Sender interface {
	Send(ctx context.Context, sub models.PushSubscription, payload []byte) error
}

// VAPIDConfig identifies this application to push services.
type VAPIDConfig struct {
	PublicKey  string
	PrivateKey string
	Subject    string
	TTL        time.Duration
	Urgency    string
	HTTPClient *http.Client
}

const (
	defaultTTL       = 24 * time.Hour
	maxErrorBodySize = 512
)

// WebPushSender delivers through the Web Push protocol with VAPID authentication.
type WebPushSender struct {
	options webpush.Options
}

// NewWebPushSender validates the VAPID configuration and builds a sender.
func NewWebPushSender(cfg VAPIDConfig) (*WebPushSender, error) {
	if strings.TrimSpace(cfg.PublicKey) == "" || strings.TrimSpace(cfg.PrivateKey) == "" {
		return nil, errors.New("push: vapid key pair is required")
	}
	subject := strings.TrimSpace(cfg.Subject)
	if subject == "" {
		return nil, errors.New("push: vapid subject is required")
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}

	urgency, err := parseUrgency(cfg.Urgency)
	if err != nil {
		return nil, err
	}

	opts := webpush.Options{
		Subscriber:      subject,
		VAPIDPublicKey:  cfg.PublicKey,
		VAPIDPrivateKey: cfg.PrivateKey,
		TTL:             int(ttl.Seconds()),
		Urgency:         urgency,
	}
	if cfg.HTTPClient != nil {
		opts.HTTPClient = cfg.HTTPClient
	}

	return &WebPushSender{options: opts}, nil
}

// Send encrypts payload for sub and posts it to the subscription endpoint.
func (s *WebPushSender) Send(ctx context.Context, sub models.PushSubscription, payload []byte) error {
	target := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}

	opts := s.options
	resp, err := webpush.SendNotificationWithContext(ctx, payload, target, &opts)
	if err != nil {
		return &TransientDeliveryError{Err: err}
	}
	defer resp.Body.Close()

	detail := ""
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		detail = strings.TrimSpace(string(body))
	}
	return classifyStatus(resp.StatusCode, detail)
}

// GenerateVAPIDKeys creates a new application server key pair.
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	privateKey, publicKey, err = webpush.GenerateVAPIDKeys()
	return publicKey, privateKey, err
}

func parseUrgency(value string) (webpush.Urgency, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "normal":
		return webpush.UrgencyNormal, nil
	case "very-low":
		return webpush.UrgencyVeryLow, nil
	case "low":
		return webpush.UrgencyLow, nil
	case "high":
		return webpush.UrgencyHigh, nil
	default:
		return "", errors.New("push: urgency must be one of very-low, low, normal, high")
	}
}
