package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewRedisClientRequiresAddress(t *testing.T) {
	_, err := NewRedisClient(RedisConfig{Address: "   "})
	require.Error(t, err)
}

func TestNewRedisClientFailsWhenUnreachable(t *testing.T) {
	_, err := NewRedisClient(RedisConfig{Address: "127.0.0.1:1", Timeout: 200 * time.Millisecond})
	require.Error(t, err)
}
