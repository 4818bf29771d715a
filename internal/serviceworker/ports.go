package serviceworker

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RequestMode mirrors the fetch request mode; only navigations get the offline fallback.
type RequestMode string

const (
	ModeNavigate   RequestMode = "navigate"
	ModeSameOrigin RequestMode = "same-origin"
	ModeCORS       RequestMode = "cors"
	ModeNoCORS     RequestMode = "no-cors"
)

// ResponseType mirrors the fetch response type. Only basic responses are cached.
type ResponseType string

const (
	ResponseBasic  ResponseType = "basic"
	ResponseCORS   ResponseType = "cors"
	ResponseOpaque ResponseType = "opaque"
	ResponseError  ResponseType = "error"
)

// Request is an intercepted fetch.
type Request struct {
	Method string
	URL    *url.URL
	Mode   RequestMode
}

// NewRequest parses rawURL into a Request.
func NewRequest(method, rawURL string, mode RequestMode) (Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Request{}, err
	}
	if method == "" {
		method = http.MethodGet
	}
	return Request{Method: strings.ToUpper(method), URL: u, Mode: mode}, nil
}

// Response is a fetched or cached resource.
type Response struct {
	Status int
	Type   ResponseType
	Header http.Header
	Body   []byte
}

// Clone returns a deep copy so cached and returned bodies never alias.
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	cpy := *r
	cpy.Header = r.Header.Clone()
	if r.Body != nil {
		cpy.Body = append([]byte(nil), r.Body...)
	}
	return &cpy
}

// Cache is one named bucket of responses keyed by absolute URL.
type Cache interface {
	Match(ctx context.Context, key string) (*Response, bool, error)
	Put(ctx context.Context, key string, resp *Response) error
}

// CacheStorage holds the named caches of an origin.
type CacheStorage interface {
	Open(ctx context.Context, name string) (Cache, error)
	Keys(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) (bool, error)
}

// Network performs real fetches.
type Network interface {
	Fetch(ctx context.Context, req Request) (*Response, error)
}

// WindowClient is an open application window.
type WindowClient struct {
	ID  string
	URL string
}

// Clients controls the application's open windows.
type Clients interface {
	MatchAll(ctx context.Context, includeUncontrolled bool) ([]WindowClient, error)
	Focus(ctx context.Context, id string) error
	OpenWindow(ctx context.Context, url string) error
	Claim(ctx context.Context) error
}

// Action is a notification button.
type Action struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// NotificationOptions are the rendering options of a notification.
type NotificationOptions struct {
	Body      string         `json:"body"`
	Icon      string         `json:"icon,omitempty"`
	Badge     string         `json:"badge,omitempty"`
	Tag       string         `json:"tag,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Actions   []Action       `json:"actions,omitempty"`
	Vibrate   []int          `json:"vibrate,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Notification is a rendered notification.
type Notification struct {
	Title   string
	Options NotificationOptions
}

// Notifier renders and dismisses notifications.
type Notifier interface {
	Show(ctx context.Context, title string, opts NotificationOptions) error
	Close(ctx context.Context, n Notification) error
}

// ReplyPort answers a message sender.
type ReplyPort interface {
	PostMessage(ctx context.Context, message any) error
}

// Ports bundles the platform capabilities a Worker drives.
type Ports struct {
	Caches   CacheStorage
	Network  Network
	Clients  Clients
	Notifier Notifier
}
