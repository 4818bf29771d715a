package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/charlesng35/moodtracker/internal/push"
)

const defaultPushTimeout = 30 * time.Second

// VAPIDConfig converts push settings into the sender configuration.
func (c PushConfig) VAPIDConfig() push.VAPIDConfig {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultPushTimeout
	}
	return push.VAPIDConfig{
		PublicKey:  strings.TrimSpace(c.VAPIDPublicKey),
		PrivateKey: strings.TrimSpace(c.VAPIDPrivateKey),
		Subject:    strings.TrimSpace(c.Subject),
		TTL:        c.TTL,
		Urgency:    strings.TrimSpace(c.Urgency),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Composer builds the notification composer for the configured assets. The
// click target is the public URL of the app.
func (c Config) Composer() push.Composer {
	return push.NewComposer(c.Push.Icon, c.Push.Badge, strings.TrimSpace(c.Server.PublicURL))
}
