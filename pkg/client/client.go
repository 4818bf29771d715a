// Package client talks to the moodtracker HTTP API. It is shared by the
// terminal client and the subscription manager.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Keys carries the browser-issued key material of a push subscription.
type Keys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// SubscribeRequest is the payload accepted by /api/subscribe.
type SubscribeRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     Keys   `json:"keys"`
	UserID   string `json:"userId,omitempty"`
}

// Mood is a recorded mood as returned by the API.
type Mood struct {
	Mood      string    `json:"mood"`
	Emoji     string    `json:"emoji"`
	Timestamp time.Time `json:"timestamp"`
	TimeAgo   string    `json:"timeAgo"`
}

// MoodOption is one selectable mood with its default emoji.
type MoodOption struct {
	Mood  string `json:"mood"`
	Emoji string `json:"emoji"`
}

// DeliveryFailure names one endpoint a notification could not reach.
type DeliveryFailure struct {
	Endpoint string `json:"endpoint"`
	Error    string `json:"error"`
}

// DeliveryResult summarises a notification fan-out.
type DeliveryResult struct {
	SuccessCount int               `json:"successCount"`
	FailureCount int               `json:"failureCount"`
	Pruned       int               `json:"pruned"`
	Errors       []DeliveryFailure `json:"errors"`
}

// Client is the moodtracker API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// BaseURL returns the API root the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// VAPIDPublicKey returns the server's URL-safe base64 application server key.
func (c *Client) VAPIDPublicKey(ctx context.Context) (string, error) {
	var resp struct {
		PublicKey string `json:"publicKey"`
	}
	if err := c.get(ctx, "/api/vapid-public-key", &resp); err != nil {
		return "", fmt.Errorf("client.VAPIDPublicKey: %w", err)
	}
	return resp.PublicKey, nil
}

// Subscribe stores a push subscription on the server.
func (c *Client) Subscribe(ctx context.Context, req SubscribeRequest) error {
	if err := c.post(ctx, "/api/subscribe", req, nil); err != nil {
		return fmt.Errorf("client.Subscribe: %w", err)
	}
	return nil
}

// Unsubscribe removes the subscription with the given endpoint.
func (c *Client) Unsubscribe(ctx context.Context, endpoint string) error {
	body := map[string]string{"endpoint": endpoint}
	if err := c.post(ctx, "/api/unsubscribe", body, nil); err != nil {
		return fmt.Errorf("client.Unsubscribe: %w", err)
	}
	return nil
}

// SendTestNotification asks the server to push a test notification to every subscriber.
func (c *Client) SendTestNotification(ctx context.Context) (*DeliveryResult, error) {
	var resp struct {
		Details DeliveryResult `json:"details"`
	}
	if err := c.post(ctx, "/api/send-test-notification", nil, &resp); err != nil {
		return nil, fmt.Errorf("client.SendTestNotification: %w", err)
	}
	return &resp.Details, nil
}

// CurrentMood returns the latest mood, or nil when none has been recorded.
func (c *Client) CurrentMood(ctx context.Context) (*Mood, error) {
	var resp struct {
		Mood *Mood `json:"mood"`
	}
	if err := c.get(ctx, "/api/mood/current", &resp); err != nil {
		return nil, fmt.Errorf("client.CurrentMood: %w", err)
	}
	return resp.Mood, nil
}

// SetMood records a new mood.
func (c *Client) SetMood(ctx context.Context, mood, emoji string) (*Mood, error) {
	body := map[string]string{"mood": mood, "emoji": emoji}
	var resp struct {
		Mood Mood `json:"mood"`
	}
	if err := c.post(ctx, "/api/mood/set", body, &resp); err != nil {
		return nil, fmt.Errorf("client.SetMood: %w", err)
	}
	return &resp.Mood, nil
}

// History returns the most recent moods, newest first. A non-positive limit
// lets the server pick its default.
func (c *Client) History(ctx context.Context, limit int) ([]Mood, error) {
	path := "/api/mood/history"
	if limit > 0 {
		params := url.Values{}
		params.Set("limit", strconv.Itoa(limit))
		path += "?" + params.Encode()
	}
	var resp struct {
		History []Mood `json:"history"`
	}
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("client.History: %w", err)
	}
	return resp.History, nil
}

// Moods lists the selectable moods.
func (c *Client) Moods(ctx context.Context) ([]MoodOption, error) {
	var resp struct {
		Moods []MoodOption `json:"moods"`
	}
	if err := c.get(ctx, "/api/moods", &resp); err != nil {
		return nil, fmt.Errorf("client.Moods: %w", err)
	}
	return resp.Moods, nil
}

// WebSocketURL returns the realtime endpoint derived from the base URL.
func (c *Client) WebSocketURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("client.WebSocketURL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, body, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 400 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if readErr != nil {
			return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		var apiErr struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return &HTTPError{StatusCode: resp.StatusCode, Code: apiErr.Code, Message: apiErr.Error}
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}
