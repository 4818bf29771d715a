package subscriber

import (
	"context"

	"github.com/charlesng35/moodtracker/pkg/client"
)

// Permission mirrors the notification permission a user agent reports.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// LocalSubscription is the push subscription held by the user agent.
type LocalSubscription struct {
	Endpoint string
	P256dh   string
	Auth     string
}

// Platform abstracts the user agent capabilities the manager drives.
type Platform interface {
	// Supported reports whether service workers and push are both available.
	Supported() bool
	RegisterServiceWorker(ctx context.Context, scriptURL string) error
	Permission() Permission
	RequestPermission(ctx context.Context) (Permission, error)
	// GetSubscription returns nil when the user agent holds no subscription.
	GetSubscription(ctx context.Context) (*LocalSubscription, error)
	Subscribe(ctx context.Context, applicationServerKey []byte) (*LocalSubscription, error)
	// Unsubscribe reports whether a subscription was cancelled.
	Unsubscribe(ctx context.Context) (bool, error)
}

// API is the slice of the server API the manager needs.
type API interface {
	VAPIDPublicKey(ctx context.Context) (string, error)
	Subscribe(ctx context.Context, req client.SubscribeRequest) error
	Unsubscribe(ctx context.Context, endpoint string) error
}

var _ API = (*client.Client)(nil)
