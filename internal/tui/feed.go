package tui

import (
	"context"
	"encoding/json"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"

	"github.com/charlesng35/moodtracker/pkg/client"
)

const (
	feedMinBackoff = time.Second
	feedMaxBackoff = 30 * time.Second
	moodStream     = "mood"
	moodUpdated    = "mood-updated"
)

// feedStatusMsg reports whether the live feed is connected.
type feedStatusMsg struct {
	connected bool
	err       error
}

// moodUpdatedMsg carries a mood pushed by the server.
type moodUpdatedMsg struct {
	mood client.Mood
}

type feedMessage struct {
	Stream string      `json:"stream"`
	Event  string      `json:"event"`
	Data   client.Mood `json:"data"`
}

// RunFeed keeps a websocket open to the mood stream until ctx is cancelled,
// reconnecting with exponential backoff. Updates are sent on out as tea
// messages; out is closed when RunFeed returns.
func RunFeed(ctx context.Context, wsURL string, out chan<- tea.Msg) {
	defer close(out)

	backoff := feedMinBackoff
	for {
		err := readFeed(ctx, wsURL+"?streams="+moodStream, out)
		if ctx.Err() != nil {
			return
		}
		if !send(ctx, out, feedStatusMsg{connected: false, err: err}) {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > feedMaxBackoff {
			backoff = feedMaxBackoff
		}
	}
}

func readFeed(ctx context.Context, url string, out chan<- tea.Msg) error {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if !send(ctx, out, feedStatusMsg{connected: true}) {
		return ctx.Err()
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var msg feedMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Stream != moodStream || msg.Event != moodUpdated {
			continue
		}
		if !send(ctx, out, moodUpdatedMsg{mood: msg.Data}) {
			return ctx.Err()
		}
	}
}

func send(ctx context.Context, out chan<- tea.Msg, msg tea.Msg) bool {
	select {
	case out <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}

// waitForFeed turns the next feed message into a tea.Msg.
func waitForFeed(events <-chan tea.Msg) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return feedStatusMsg{connected: false}
		}
		return msg
	}
}
