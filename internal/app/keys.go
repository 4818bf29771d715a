package app

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const (
	vapidPublicKeyBytes  = 65
	vapidPrivateKeyBytes = 32
)

// DecodeKey decodes a URL-safe base64 key, accepting padded and unpadded input
// as well as the standard alphabet.
func DecodeKey(value string) ([]byte, error) {
	v := strings.TrimRight(strings.TrimSpace(value), "=")
	if v == "" {
		return nil, fmt.Errorf("key value is empty")
	}

	if decoded, err := base64.RawURLEncoding.DecodeString(v); err == nil {
		return decoded, nil
	}
	if decoded, err := base64.RawStdEncoding.DecodeString(v); err == nil {
		return decoded, nil
	}
	return nil, fmt.Errorf("key is not valid base64")
}

// ValidateVAPIDKeys checks that the configured pair has the shape of a P-256
// VAPID identity: an uncompressed 65 byte public point and a 32 byte scalar.
func ValidateVAPIDKeys(publicKey, privateKey string) error {
	pub, err := DecodeKey(publicKey)
	if err != nil {
		return fmt.Errorf("push.vapid_public_key: %w", err)
	}
	if len(pub) != vapidPublicKeyBytes || pub[0] != 0x04 {
		return fmt.Errorf("push.vapid_public_key must be an uncompressed P-256 point (got %d bytes)", len(pub))
	}

	priv, err := DecodeKey(privateKey)
	if err != nil {
		return fmt.Errorf("push.vapid_private_key: %w", err)
	}
	if len(priv) != vapidPrivateKeyBytes {
		return fmt.Errorf("push.vapid_private_key must be %d bytes (got %d)", vapidPrivateKeyBytes, len(priv))
	}
	return nil
}
