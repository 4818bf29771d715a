package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func startHubServer(t *testing.T, hub *Hub, streams ...string) string {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve("viewer", streams, w, r)
	}))
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHubBroadcastReachesSubscribedViewer(t *testing.T) {
	hub := NewHub(StreamMood)
	url := startHubServer(t, hub, StreamMood)
	conn := dial(t, url)

	require.Eventually(t, func() bool { return hub.SubscriberCount(StreamMood) == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.BroadcastStream(StreamMood, Message{Event: EventMoodUpdated, Data: map[string]any{"mood": "happy"}})

	msg := readMessage(t, conn)
	require.Equal(t, StreamMood, msg.Stream)
	require.Equal(t, EventMoodUpdated, msg.Event)
	require.Equal(t, "happy", msg.Data.(map[string]any)["mood"])
}

func TestHubIgnoresUnknownStreams(t *testing.T) {
	hub := NewHub(StreamMood)
	url := startHubServer(t, hub, "secret")
	dial(t, url)

	require.Eventually(t, func() bool { return hub.ConnectionCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.Zero(t, hub.SubscriberCount("secret"))
}

func TestHubControlMessages(t *testing.T) {
	hub := NewHub(StreamMood)
	url := startHubServer(t, hub)
	conn := dial(t, url)

	require.Eventually(t, func() bool { return hub.ConnectionCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.Zero(t, hub.SubscriberCount(StreamMood))

	require.NoError(t, conn.WriteJSON(map[string]any{"action": "subscribe", "streams": []string{"MOOD"}}))
	require.Eventually(t, func() bool { return hub.SubscriberCount(StreamMood) == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(map[string]any{"action": "ping"}))
	require.Equal(t, EventPong, readMessage(t, conn).Event)

	require.NoError(t, conn.WriteJSON(map[string]any{"action": "unsubscribe", "streams": []string{StreamMood}}))
	require.Eventually(t, func() bool { return hub.SubscriberCount(StreamMood) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	hub := NewHub(StreamMood)
	url := startHubServer(t, hub, StreamMood)
	conn := dial(t, url)

	require.Eventually(t, func() bool { return hub.ConnectionCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
	require.Zero(t, hub.SubscriberCount(StreamMood))
}

func TestBroadcastWithoutViewersIsNoop(t *testing.T) {
	hub := NewHub()
	hub.BroadcastStream(StreamMood, Message{Event: EventMoodUpdated})
	hub.BroadcastStream("   ", Message{Event: EventMoodUpdated})
}

func TestHostWithoutPort(t *testing.T) {
	require.Equal(t, "example.com", hostWithoutPort("https://example.com:8443"))
	require.Equal(t, "localhost", hostWithoutPort("localhost:8080"))
	require.Equal(t, "", hostWithoutPort("  "))
	require.True(t, isLoopback("127.0.0.1"))
	require.True(t, isLoopback("LOCALHOST"))
	require.False(t, isLoopback("example.com"))
}
