package app

import (
	"fmt"
	"strings"

	"github.com/charlesng35/moodtracker/internal/push"
)

// ApplyRuntimeDefaults ensures a VAPID identity exists even when no configuration file is supplied.
// It returns a map describing which keys were generated so callers can log the event without exposing values.
// A half-configured pair is rejected rather than silently replaced.
func ApplyRuntimeDefaults(cfg *Config) (map[string]bool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	generated := make(map[string]bool)

	cfg.Push.VAPIDPublicKey = strings.TrimSpace(cfg.Push.VAPIDPublicKey)
	cfg.Push.VAPIDPrivateKey = strings.TrimSpace(cfg.Push.VAPIDPrivateKey)

	switch {
	case cfg.Push.VAPIDPublicKey == "" && cfg.Push.VAPIDPrivateKey == "":
		publicKey, privateKey, err := push.GenerateVAPIDKeys()
		if err != nil {
			return nil, fmt.Errorf("generate vapid keys: %w", err)
		}
		cfg.Push.VAPIDPublicKey = publicKey
		cfg.Push.VAPIDPrivateKey = privateKey
		generated["push.vapid_public_key"] = true
		generated["push.vapid_private_key"] = true
	case cfg.Push.VAPIDPublicKey == "" || cfg.Push.VAPIDPrivateKey == "":
		return nil, fmt.Errorf("push.vapid_public_key and push.vapid_private_key must be configured together")
	}

	return generated, nil
}
