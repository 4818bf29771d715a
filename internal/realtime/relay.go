package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/charlesng35/moodtracker/pkg/logger"
)

// RelayChannel is the pub/sub channel carrying realtime messages between instances.
const RelayChannel = "moodtracker:realtime"

const relayPublishTimeout = 2 * time.Second

// PubSub is the transport a Relay publishes to and consumes from.
type PubSub interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// Relay spreads broadcasts across server instances. Messages are published to
// the shared channel and every instance, the sender included, rebroadcasts them
// to its local hub. While this instance is not consuming the channel, or when
// publishing fails, the message is delivered to the local hub directly.
type Relay struct {
	hub       *Hub
	transport PubSub
	channel   string
	consuming atomic.Bool
	log       *zap.Logger
}

// NewRelay wires a local hub to a pub/sub transport.
func NewRelay(hub *Hub, transport PubSub) (*Relay, error) {
	if hub == nil {
		return nil, errors.New("realtime relay: hub is required")
	}
	if transport == nil {
		return nil, errors.New("realtime relay: transport is required")
	}
	return &Relay{
		hub:       hub,
		transport: transport,
		channel:   RelayChannel,
		log:       logger.WithModule("realtime.relay"),
	}, nil
}

// BroadcastStream publishes the message for all instances.
func (r *Relay) BroadcastStream(stream string, message Message) {
	message.Stream = normalizeStream(stream)
	if message.Stream == "" {
		return
	}

	payload, err := json.Marshal(message)
	if err != nil {
		r.log.Warn("encode relay message", zap.Error(err))
		r.hub.BroadcastStream(stream, message)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), relayPublishTimeout)
	defer cancel()

	if !r.consuming.Load() {
		r.hub.BroadcastStream(stream, message)
		if err := r.transport.Publish(ctx, r.channel, payload); err != nil {
			r.log.Debug("publish failed", zap.Error(err))
		}
		return
	}

	if err := r.transport.Publish(ctx, r.channel, payload); err != nil {
		r.log.Warn("publish failed, delivering locally", zap.Error(err))
		r.hub.BroadcastStream(stream, message)
	}
}

// Consuming reports whether Run is currently reading the shared channel.
func (r *Relay) Consuming() bool {
	return r.consuming.Load()
}

// Run consumes relayed messages until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	messages, err := r.transport.Subscribe(ctx, r.channel)
	if err != nil {
		return err
	}
	r.consuming.Store(true)
	defer r.consuming.Store(false)

	for {
		select {
		case <-ctx.Done():
			return nil
		case payload, ok := <-messages:
			if !ok {
				return nil
			}
			var message Message
			if err := json.Unmarshal(payload, &message); err != nil {
				r.log.Debug("discarding malformed relay message", zap.Error(err))
				continue
			}
			r.hub.BroadcastStream(message.Stream, message)
		}
	}
}
