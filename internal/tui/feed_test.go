package tui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
)

func TestRunFeedDeliversMoodUpdates(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("streams") != "mood" {
			http.Error(w, "bad stream", http.StatusBadRequest)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"stream":"alerts","event":"other"}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"stream":"mood","event":"mood-updated","data":{"mood":"happy","emoji":"😊","timestamp":"2024-05-01T12:00:00Z"}}`))
		// Hold the connection until the client goes away.
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan tea.Msg)
	done := make(chan struct{})
	go func() {
		RunFeed(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), events)
		close(done)
	}()

	status := next(t, events)
	if s, ok := status.(feedStatusMsg); !ok || !s.connected {
		t.Fatalf("expected connected status, got %#v", status)
	}

	update, ok := next(t, events).(moodUpdatedMsg)
	if !ok {
		t.Fatal("expected moodUpdatedMsg")
	}
	if update.mood.Mood != "happy" || update.mood.Emoji != "😊" {
		t.Errorf("unexpected mood %+v", update.mood)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunFeed did not stop after cancel")
	}
	if _, ok := <-events; ok {
		t.Error("expected events channel to be closed")
	}
}

func TestRunFeedReportsDisconnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan tea.Msg)
	go RunFeed(ctx, "ws://127.0.0.1:1/ws", events)

	status, ok := next(t, events).(feedStatusMsg)
	if !ok {
		t.Fatal("expected feedStatusMsg")
	}
	if status.connected || status.err == nil {
		t.Errorf("expected disconnected status with error, got %+v", status)
	}
}

func TestWaitForFeedClosedChannel(t *testing.T) {
	if waitForFeed(nil) != nil {
		t.Error("expected nil command for nil channel")
	}
	events := make(chan tea.Msg)
	close(events)
	msg := waitForFeed(events)()
	if s, ok := msg.(feedStatusMsg); !ok || s.connected {
		t.Errorf("expected disconnected status, got %#v", msg)
	}
}

func next(t *testing.T, events <-chan tea.Msg) tea.Msg {
	t.Helper()
	select {
	case msg := <-events:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for feed message")
		return nil
	}
}
