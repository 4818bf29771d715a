// Package serviceworker models the mood tracker's browser service worker as a
// state machine over injected platform ports. The shipped web/dist/sw.js
// implements the same behaviour for browsers.
package serviceworker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/charlesng35/moodtracker/pkg/logger"
)

// State is a lifecycle state of the worker.
type State string

const (
	StateParsed     State = "parsed"
	StateInstalling State = "installing"
	StateInstalled  State = "installed"
	StateActivating State = "activating"
	StateActivated  State = "activated"
	StateRedundant  State = "redundant"
)

const (
	// CachePrefix prefixes every versioned cache name.
	CachePrefix = "mood-tracker-"
	// SyncTagMood triggers the background mood resync.
	SyncTagMood = "mood-sync"
	// MessageSkipWaiting asks a waiting worker to activate now.
	MessageSkipWaiting = "SKIP_WAITING"
	// MessageResponse is the type of every reply posted back to a page.
	MessageResponse = "SW_RESPONSE"

	actionClose = "close"
)

// FetchSource tells where a fetch response came from.
type FetchSource string

const (
	SourceCache       FetchSource = "cache"
	SourceNetwork     FetchSource = "network"
	SourceFallback    FetchSource = "fallback"
	SourcePassthrough FetchSource = "passthrough"
)

var (
	// ErrNoResponse is returned when neither cache nor network can answer.
	ErrNoResponse = errors.New("serviceworker: no response available")
	// ErrInvalidState is returned for lifecycle calls made out of order.
	ErrInvalidState = errors.New("serviceworker: invalid state transition")
)

// DefaultAssets is the static manifest cached on install.
var DefaultAssets = []string{
	"/",
	"/index.html",
	"/app.js",
	"/styles.css",
	"/manifest.json",
	"/icons/icon-192.png",
	"/icons/badge-72.png",
}

// Notification defaults used when a push carries no usable payload.
var (
	DefaultNotificationTitle = "Mood Tracker"
	DefaultNotificationBody  = "You have a new notification"
	DefaultNotificationIcon  = "/icons/icon-192.png"
	DefaultNotificationBadge = "/icons/badge-72.png"
	DefaultNotificationTag   = "mood-notification"
	DefaultVibration         = []int{100, 50, 100}
)

// Config identifies the deployment the worker serves.
type Config struct {
	Version string
	Origin  string
	Assets  []string
}

// FetchResult is the answer to an intercepted fetch.
type FetchResult struct {
	Response *Response
	Source   FetchSource
}

// Reply is posted back to pages that attach a reply port to a message.
type Reply struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Option customises a Worker.
type Option func(*Worker)

// WithSyncTask replaces the background resync run for the mood-sync tag.
func WithSyncTask(task func(ctx context.Context) error) Option {
	return func(w *Worker) {
		w.syncTask = task
	}
}

// WithClock overrides the notification timestamp source.
func WithClock(now func() time.Time) Option {
	return func(w *Worker) {
		w.now = now
	}
}

// Worker is one installed version of the service worker. Events are handled
// one at a time and each returns only after the work it registered through
// ExtendableEvent.WaitUntil completes. Handler failures are logged and never
// change the lifecycle state.
type Worker struct {
	cfg    Config
	origin *url.URL
	ports  Ports

	events sync.Mutex

	mu                 sync.RWMutex
	state              State
	skipWaitingPending bool
	controlling        bool

	syncTask func(ctx context.Context) error
	now      func() time.Time
	log      *zap.Logger
}

// New constructs a worker in the parsed state.
func New(cfg Config, ports Ports, opts ...Option) (*Worker, error) {
	if strings.TrimSpace(cfg.Version) == "" {
		return nil, errors.New("serviceworker: version is required")
	}
	origin, err := url.Parse(cfg.Origin)
	if err != nil || origin.Scheme == "" || origin.Host == "" {
		return nil, fmt.Errorf("serviceworker: origin %q must be an absolute URL", cfg.Origin)
	}
	if ports.Caches == nil || ports.Network == nil || ports.Clients == nil || ports.Notifier == nil {
		return nil, errors.New("serviceworker: all platform ports are required")
	}
	if cfg.Assets == nil {
		cfg.Assets = DefaultAssets
	}

	w := &Worker{
		cfg:    cfg,
		origin: &url.URL{Scheme: origin.Scheme, Host: origin.Host, Path: "/"},
		ports:  ports,
		state:  StateParsed,
		now:    time.Now,
		log:    logger.WithModule("serviceworker").With(zap.String("version", cfg.Version)),
	}
	w.syncTask = w.defaultSync
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// CacheName is the versioned cache bucket this worker owns.
func (w *Worker) CacheName() string {
	return CachePrefix + w.cfg.Version
}

// State reports the current lifecycle state.
func (w *Worker) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// Controlling reports whether the worker has claimed the open clients.
func (w *Worker) Controlling() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.controlling
}

// Install precaches the asset manifest. Cache failures are logged and the
// worker still installs. If the host abandons the install by cancelling ctx
// the worker becomes redundant. A pending skip-waiting request activates the
// worker straight away.
func (w *Worker) Install(ctx context.Context) error {
	w.events.Lock()
	defer w.events.Unlock()

	if err := w.transition(StateParsed, StateInstalling); err != nil {
		return err
	}

	w.dispatch(ctx, "install", func(ev *ExtendableEvent) {
		ev.WaitUntil(w.precache)
	})

	if err := ctx.Err(); err != nil {
		w.setState(StateRedundant)
		return err
	}
	w.setState(StateInstalled)

	w.mu.RLock()
	skip := w.skipWaitingPending
	w.mu.RUnlock()
	if skip {
		return w.activateLocked(ctx)
	}
	return nil
}

// SkipWaiting activates an installed worker immediately. Called earlier in
// the lifecycle it is remembered and honoured once installation finishes.
func (w *Worker) SkipWaiting(ctx context.Context) error {
	w.events.Lock()
	defer w.events.Unlock()
	return w.skipWaitingLocked(ctx)
}

// Activate purges caches from other versions and claims open clients.
func (w *Worker) Activate(ctx context.Context) error {
	w.events.Lock()
	defer w.events.Unlock()
	return w.activateLocked(ctx)
}

// Fetch answers a page request. Same-origin GETs are served cache first,
// filling the cache from successful network responses. Everything else goes to
// the network untouched.
func (w *Worker) Fetch(ctx context.Context, req Request) (FetchResult, error) {
	if req.Method != http.MethodGet || !w.sameOrigin(req.URL) || w.State() != StateActivated {
		resp, err := w.ports.Network.Fetch(ctx, req)
		return FetchResult{Response: resp, Source: SourcePassthrough}, err
	}

	w.events.Lock()
	defer w.events.Unlock()

	var result FetchResult
	err := w.dispatch(ctx, "fetch", func(ev *ExtendableEvent) {
		ev.WaitUntil(func(ctx context.Context) error {
			var err error
			result, err = w.respond(ctx, req)
			return err
		})
	})
	if err != nil {
		return FetchResult{}, ErrNoResponse
	}
	return result, nil
}

// Push renders the notification carried by a push message.
func (w *Worker) Push(ctx context.Context, data []byte) error {
	w.events.Lock()
	defer w.events.Unlock()

	title, opts := w.notificationFromPush(data)
	return w.dispatch(ctx, "push", func(ev *ExtendableEvent) {
		ev.WaitUntil(func(ctx context.Context) error {
			return w.ports.Notifier.Show(ctx, title, opts)
		})
	})
}

// NotificationClick closes n and, unless the close action was chosen, focuses
// a window already showing the target URL or opens a new one.
func (w *Worker) NotificationClick(ctx context.Context, n Notification, action string) error {
	w.events.Lock()
	defer w.events.Unlock()

	return w.dispatch(ctx, "notificationclick", func(ev *ExtendableEvent) {
		ev.WaitUntil(func(ctx context.Context) error {
			if err := w.ports.Notifier.Close(ctx, n); err != nil {
				w.log.Warn("close notification", zap.Error(err))
			}
			if action == actionClose {
				return nil
			}
			return w.openTarget(ctx, w.targetURL(n))
		})
	})
}

// Sync runs the background resync for the mood-sync tag. Other tags are ignored.
func (w *Worker) Sync(ctx context.Context, tag string) error {
	w.events.Lock()
	defer w.events.Unlock()

	return w.dispatch(ctx, "sync", func(ev *ExtendableEvent) {
		if tag != SyncTagMood {
			return
		}
		ev.WaitUntil(w.syncTask)
	})
}

// Message handles a control message from a page. SKIP_WAITING activates a
// waiting worker; a non-nil reply port receives an acknowledgement.
func (w *Worker) Message(ctx context.Context, data []byte, reply ReplyPort) error {
	w.events.Lock()
	defer w.events.Unlock()

	var control struct {
		Type string `json:"type"`
	}
	_ = json.Unmarshal(data, &control)

	return w.dispatch(ctx, "message", func(ev *ExtendableEvent) {
		if control.Type == MessageSkipWaiting {
			ev.WaitUntil(w.skipWaitingLocked)
		}
		if reply != nil {
			ev.WaitUntil(func(ctx context.Context) error {
				return reply.PostMessage(ctx, Reply{Type: MessageResponse, Message: "Message received"})
			})
		}
	})
}

// dispatch runs handler as a single event and waits for its extended work.
// Callers hold w.events.
func (w *Worker) dispatch(ctx context.Context, name string, handler func(ev *ExtendableEvent)) error {
	ev := newExtendableEvent(ctx)

	func() {
		defer func() {
			if rec := recover(); rec != nil {
				ev.fail(fmt.Errorf("panic: %v", rec))
			}
		}()
		handler(ev)
	}()

	err := ev.wait()
	if err != nil {
		w.log.Warn("event handler failed", zap.String("event", name), zap.Error(err))
	}
	return err
}

func (w *Worker) skipWaitingLocked(ctx context.Context) error {
	w.mu.Lock()
	state := w.state
	if state == StateParsed || state == StateInstalling {
		w.skipWaitingPending = true
	}
	w.mu.Unlock()

	if state == StateInstalled {
		return w.activateLocked(ctx)
	}
	return nil
}

func (w *Worker) activateLocked(ctx context.Context) error {
	if err := w.transition(StateInstalled, StateActivating); err != nil {
		return err
	}

	w.dispatch(ctx, "activate", func(ev *ExtendableEvent) {
		ev.WaitUntil(func(ctx context.Context) error {
			if err := w.purgeStaleCaches(ctx); err != nil {
				return err
			}
			if err := w.ports.Clients.Claim(ctx); err != nil {
				return fmt.Errorf("claim clients: %w", err)
			}
			w.mu.Lock()
			w.controlling = true
			w.mu.Unlock()
			return nil
		})
	})

	w.setState(StateActivated)
	return nil
}

func (w *Worker) precache(ctx context.Context) error {
	cache, err := w.ports.Caches.Open(ctx, w.CacheName())
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}

	// All or nothing, like Cache.addAll.
	fetched := make(map[string]*Response, len(w.cfg.Assets))
	for _, asset := range w.cfg.Assets {
		req, err := w.requestFor(asset)
		if err != nil {
			return err
		}
		resp, err := w.ports.Network.Fetch(ctx, req)
		if err != nil {
			return fmt.Errorf("precache %s: %w", asset, err)
		}
		if resp == nil || resp.Status < 200 || resp.Status > 299 {
			return fmt.Errorf("precache %s: unexpected response", asset)
		}
		fetched[cacheKey(req.URL)] = resp
	}

	for key, resp := range fetched {
		if err := cache.Put(ctx, key, resp); err != nil {
			return fmt.Errorf("store %s: %w", key, err)
		}
	}
	w.log.Debug("precached assets", zap.Int("count", len(fetched)))
	return nil
}

func (w *Worker) purgeStaleCaches(ctx context.Context) error {
	names, err := w.ports.Caches.Keys(ctx)
	if err != nil {
		return fmt.Errorf("list caches: %w", err)
	}

	current := w.CacheName()
	for _, name := range names {
		if name == current {
			continue
		}
		if _, err := w.ports.Caches.Delete(ctx, name); err != nil {
			return fmt.Errorf("delete cache %s: %w", name, err)
		}
		w.log.Debug("deleted stale cache", zap.String("cache", name))
	}
	return nil
}

func (w *Worker) respond(ctx context.Context, req Request) (FetchResult, error) {
	cache, err := w.ports.Caches.Open(ctx, w.CacheName())
	if err != nil {
		return FetchResult{}, fmt.Errorf("open cache: %w", err)
	}

	key := cacheKey(w.origin.ResolveReference(req.URL))
	if cached, ok, err := cache.Match(ctx, key); err == nil && ok {
		return FetchResult{Response: cached, Source: SourceCache}, nil
	}

	resp, netErr := w.ports.Network.Fetch(ctx, req)
	if netErr == nil && resp != nil {
		if resp.Status == http.StatusOK && resp.Type == ResponseBasic {
			if err := cache.Put(ctx, key, resp.Clone()); err != nil {
				w.log.Warn("cache put failed", zap.String("url", key), zap.Error(err))
			}
		}
		return FetchResult{Response: resp, Source: SourceNetwork}, nil
	}

	if req.Mode == ModeNavigate {
		if root, ok, err := cache.Match(ctx, cacheKey(w.origin)); err == nil && ok {
			return FetchResult{Response: root, Source: SourceFallback}, nil
		}
	}
	if netErr == nil {
		netErr = ErrNoResponse
	}
	return FetchResult{}, netErr
}

func (w *Worker) notificationFromPush(data []byte) (string, NotificationOptions) {
	title := DefaultNotificationTitle
	opts := NotificationOptions{
		Body:  DefaultNotificationBody,
		Icon:  DefaultNotificationIcon,
		Badge: DefaultNotificationBadge,
		Tag:   DefaultNotificationTag,
		Data:  map[string]any{"url": "/"},
	}

	if len(data) > 0 {
		applyPushPayload(data, &title, &opts)
	}

	opts.Actions = []Action{
		{Action: "view", Title: "View"},
		{Action: actionClose, Title: "Close"},
	}
	opts.Vibrate = append([]int(nil), DefaultVibration...)
	opts.Timestamp = w.now()
	return title, opts
}

// applyPushPayload merges a push payload over the defaults. JSON objects
// override field by field, a JSON string or non-JSON text becomes the body and
// any other JSON value leaves the defaults untouched.
func applyPushPayload(data []byte, title *string, opts *NotificationOptions) {
	if !json.Valid(data) {
		opts.Body = firstNonEmpty(string(data), opts.Body)
		return
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		opts.Body = firstNonEmpty(text, opts.Body)
		return
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return
	}

	*title = firstNonEmpty(stringField(fields, "title"), *title)
	opts.Body = firstNonEmpty(stringField(fields, "body"), opts.Body)
	opts.Icon = firstNonEmpty(stringField(fields, "icon"), opts.Icon)
	opts.Badge = firstNonEmpty(stringField(fields, "badge"), opts.Badge)
	opts.Tag = firstNonEmpty(stringField(fields, "tag"), opts.Tag)

	var extra map[string]any
	if raw, ok := fields["data"]; ok && json.Unmarshal(raw, &extra) == nil {
		for key, value := range extra {
			opts.Data[key] = value
		}
	}
}

// stringField returns fields[key] when it holds a JSON string.
func stringField(fields map[string]json.RawMessage, key string) string {
	var value string
	if raw, ok := fields[key]; ok && json.Unmarshal(raw, &value) == nil {
		return value
	}
	return ""
}

func (w *Worker) targetURL(n Notification) string {
	raw := "/"
	if value, ok := n.Options.Data["url"].(string); ok && strings.TrimSpace(value) != "" {
		raw = value
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return w.origin.String()
	}
	return w.origin.ResolveReference(ref).String()
}

func (w *Worker) openTarget(ctx context.Context, target string) error {
	windows, err := w.ports.Clients.MatchAll(ctx, true)
	if err != nil {
		return fmt.Errorf("match clients: %w", err)
	}
	for _, window := range windows {
		if window.URL == target {
			return w.ports.Clients.Focus(ctx, window.ID)
		}
	}
	return w.ports.Clients.OpenWindow(ctx, target)
}

func (w *Worker) defaultSync(context.Context) error {
	w.log.Info("background sync requested", zap.String("tag", SyncTagMood))
	return nil
}

func (w *Worker) transition(from, to State) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != from {
		return fmt.Errorf("%w: %s -> %s from %s", ErrInvalidState, from, to, w.state)
	}
	w.state = to
	return nil
}

func (w *Worker) setState(state State) {
	w.mu.Lock()
	w.state = state
	w.mu.Unlock()
}

func (w *Worker) requestFor(asset string) (Request, error) {
	ref, err := url.Parse(asset)
	if err != nil {
		return Request{}, fmt.Errorf("asset %q: %w", asset, err)
	}
	return Request{Method: http.MethodGet, URL: w.origin.ResolveReference(ref), Mode: ModeSameOrigin}, nil
}

func (w *Worker) sameOrigin(u *url.URL) bool {
	if u == nil {
		return false
	}
	if !u.IsAbs() {
		return true
	}
	return strings.EqualFold(u.Scheme, w.origin.Scheme) && strings.EqualFold(u.Host, w.origin.Host)
}

func cacheKey(u *url.URL) string {
	cpy := *u
	cpy.Fragment = ""
	cpy.RawFragment = ""
	return cpy.String()
}

func firstNonEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
