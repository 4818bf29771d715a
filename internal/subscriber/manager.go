// Package subscriber drives the page side of push subscriptions: service
// worker registration, permission prompts, and keeping the server's
// subscription store in step with the user agent.
package subscriber

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/charlesng35/moodtracker/pkg/client"
	"github.com/charlesng35/moodtracker/pkg/logger"
)

// DefaultServiceWorkerURL is the script registered by Init.
const DefaultServiceWorkerURL = "/sw.js"

var (
	ErrUnsupported      = errors.New("subscriber: push notifications are not supported")
	ErrPermissionDenied = errors.New("subscriber: notification permission denied")
	ErrBusy             = errors.New("subscriber: another operation is in progress")
	ErrNotInitialized   = errors.New("subscriber: manager is not initialised")
)

// State is what the page renders: support, subscription and progress.
type State struct {
	Supported  bool
	Subscribed bool
	Busy       bool
	Endpoint   string
	Permission Permission
	Error      string
}

// Listener receives every published state.
type Listener func(State)

// Manager owns the subscription lifecycle for one page.
type Manager struct {
	platform  Platform
	api       API
	scriptURL string
	userID    string
	log       *zap.Logger

	mu        sync.Mutex
	state     State
	publicKey []byte
	ready     bool
	listeners []Listener
}

// Option customises a Manager.
type Option func(*Manager)

// WithServiceWorkerURL overrides the registered worker script.
func WithServiceWorkerURL(scriptURL string) Option {
	return func(m *Manager) {
		if strings.TrimSpace(scriptURL) != "" {
			m.scriptURL = scriptURL
		}
	}
}

// WithUserID tags subscriptions sent to the server with an owner.
func WithUserID(userID string) Option {
	return func(m *Manager) {
		m.userID = strings.TrimSpace(userID)
	}
}

// WithListener registers a state listener.
func WithListener(l Listener) Option {
	return func(m *Manager) {
		if l != nil {
			m.listeners = append(m.listeners, l)
		}
	}
}

// NewManager builds a manager over the given platform and API.
func NewManager(platform Platform, api API, opts ...Option) *Manager {
	m := &Manager{
		platform:  platform,
		api:       api,
		scriptURL: DefaultServiceWorkerURL,
		log:       logger.WithModule("subscriber"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns a snapshot of the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Init checks support, registers the service worker, loads the server key
// and reflects any existing subscription. An unsupported platform is not an
// error; the state simply reports Supported=false.
func (m *Manager) Init(ctx context.Context) error {
	if !m.platform.Supported() {
		m.publish(func(s *State) {
			*s = State{Supported: false}
		})
		return nil
	}

	if err := m.platform.RegisterServiceWorker(ctx, m.scriptURL); err != nil {
		m.fail(err)
		return fmt.Errorf("register service worker: %w", err)
	}

	encoded, err := m.api.VAPIDPublicKey(ctx)
	if err != nil {
		m.fail(err)
		return fmt.Errorf("fetch public key: %w", err)
	}
	key, err := DecodeApplicationServerKey(encoded)
	if err != nil {
		m.fail(err)
		return err
	}

	existing, err := m.platform.GetSubscription(ctx)
	if err != nil {
		m.fail(err)
		return fmt.Errorf("read subscription: %w", err)
	}

	m.mu.Lock()
	m.publicKey = key
	m.ready = true
	m.mu.Unlock()

	m.publish(func(s *State) {
		s.Supported = true
		s.Permission = m.platform.Permission()
		s.Subscribed = existing != nil
		s.Endpoint = ""
		if existing != nil {
			s.Endpoint = existing.Endpoint
		}
		s.Error = ""
	})
	return nil
}

// Subscribe asks for permission, creates a subscription with the server key
// and stores it on the server. On any failure the previous subscription
// state is kept and the busy flag is cleared.
func (m *Manager) Subscribe(ctx context.Context) error {
	key, err := m.begin()
	if err != nil {
		return err
	}

	sub, err := m.subscribe(ctx, key)
	if err != nil {
		m.fail(err)
		return err
	}

	m.publish(func(s *State) {
		s.Busy = false
		s.Subscribed = true
		s.Endpoint = sub.Endpoint
		s.Permission = PermissionGranted
		s.Error = ""
	})
	m.log.Info("push subscription created", zap.String("endpoint", sub.Endpoint))
	return nil
}

func (m *Manager) subscribe(ctx context.Context, key []byte) (*LocalSubscription, error) {
	permission, err := m.platform.RequestPermission(ctx)
	if err != nil {
		return nil, fmt.Errorf("request permission: %w", err)
	}
	if permission != PermissionGranted {
		m.publish(func(s *State) { s.Permission = permission })
		return nil, ErrPermissionDenied
	}

	prior, err := m.platform.GetSubscription(ctx)
	if err != nil {
		return nil, fmt.Errorf("read subscription: %w", err)
	}

	sub, err := m.platform.Subscribe(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}

	req := client.SubscribeRequest{
		Endpoint: sub.Endpoint,
		Keys:     client.Keys{P256dh: sub.P256dh, Auth: sub.Auth},
		UserID:   m.userID,
	}
	if err := m.api.Subscribe(ctx, req); err != nil {
		// A subscription the user agent already held is left alone. A fresh one
		// the server never learned about is dropped again.
		if prior != nil {
			return nil, fmt.Errorf("store subscription: %w", err)
		}
		if _, rbErr := m.platform.Unsubscribe(context.WithoutCancel(ctx)); rbErr != nil {
			m.log.Warn("failed to roll back local subscription", zap.Error(rbErr))
		}
		return nil, fmt.Errorf("store subscription: %w", err)
	}
	return sub, nil
}

// Unsubscribe cancels the local subscription and, only once that succeeded,
// removes it from the server.
func (m *Manager) Unsubscribe(ctx context.Context) error {
	if _, err := m.begin(); err != nil {
		return err
	}

	existing, err := m.platform.GetSubscription(ctx)
	if err != nil {
		err = fmt.Errorf("read subscription: %w", err)
		m.fail(err)
		return err
	}
	if existing == nil {
		m.publish(func(s *State) {
			s.Busy = false
			s.Subscribed = false
			s.Endpoint = ""
			s.Error = ""
		})
		return nil
	}

	ok, err := m.platform.Unsubscribe(ctx)
	if err != nil || !ok {
		if err == nil {
			err = errors.New("user agent kept the subscription")
		}
		err = fmt.Errorf("cancel subscription: %w", err)
		m.fail(err)
		return err
	}

	if err := m.api.Unsubscribe(ctx, existing.Endpoint); err != nil {
		// Locally the subscription is gone; the server prunes it on the next
		// delivery attempt.
		m.log.Warn("failed to remove subscription from server",
			zap.String("endpoint", existing.Endpoint),
			zap.Error(err),
		)
	}

	m.publish(func(s *State) {
		s.Busy = false
		s.Subscribed = false
		s.Endpoint = ""
		s.Error = ""
	})
	m.log.Info("push subscription removed", zap.String("endpoint", existing.Endpoint))
	return nil
}

func (m *Manager) begin() ([]byte, error) {
	m.mu.Lock()
	if !m.state.Supported {
		m.mu.Unlock()
		return nil, ErrUnsupported
	}
	if !m.ready {
		m.mu.Unlock()
		return nil, ErrNotInitialized
	}
	if m.state.Busy {
		m.mu.Unlock()
		return nil, ErrBusy
	}
	key := m.publicKey
	m.mu.Unlock()

	m.publish(func(s *State) {
		s.Busy = true
		s.Error = ""
	})
	return key, nil
}

func (m *Manager) fail(err error) {
	m.log.Warn("push subscription operation failed", zap.Error(err))
	m.publish(func(s *State) {
		s.Busy = false
		s.Error = err.Error()
	})
}

func (m *Manager) publish(update func(*State)) {
	m.mu.Lock()
	update(&m.state)
	snapshot := m.state
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
}

// DecodeApplicationServerKey turns the URL-safe, unpadded key served by the
// API into the raw bytes the push manager expects.
func DecodeApplicationServerKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("subscriber: empty application server key")
	}
	if rem := len(s) % 4; rem != 0 {
		s += strings.Repeat("=", 4-rem)
	}
	s = strings.NewReplacer("-", "+", "_", "/").Replace(s)

	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("subscriber: decode application server key: %w", err)
	}
	return key, nil
}
