package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/moodtracker/internal/realtime"
)

func TestRealtimeHandlerUnavailableWithoutHub(t *testing.T) {
	handler := NewRealtimeHandler(nil)

	rec, payload := performRequest(t, handler.Stream, http.MethodGet, "/ws", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, false, payload["success"])
}

func TestRealtimeHandlerRejectsUnknownStream(t *testing.T) {
	handler := NewRealtimeHandler(realtime.NewHub(realtime.DefaultStreams()...), realtime.DefaultStreams()...)

	rec, payload := performRequest(t, handler.Stream, http.MethodGet, "/ws?streams=mood,secrets", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "unknown stream: secrets", payload["error"])
}

func TestGatherStreams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/ws?stream=Mood&streams=mood,%20alerts,,", nil)

	require.Equal(t, []string{"mood", "alerts"}, gatherStreams(c))
}

func TestViewerID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	c.Request = httptest.NewRequest(http.MethodGet, "/ws?viewer="+strings.Repeat("v", 80), nil)
	require.Len(t, viewerID(c), maxViewerIDLength)

	c.Request = httptest.NewRequest(http.MethodGet, "/ws", nil)
	c.Request.RemoteAddr = "192.0.2.7:5000"
	require.Equal(t, "192.0.2.7", viewerID(c))
}

func TestRealtimeHandlerDeliversBroadcasts(t *testing.T) {
	gin.SetMode(gin.TestMode)

	hub := realtime.NewHub(realtime.DefaultStreams()...)
	handler := NewRealtimeHandler(hub, realtime.DefaultStreams()...)

	router := gin.New()
	router.GET("/ws", handler.Stream)
	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.Eventually(t, func() bool {
		return hub.SubscriberCount(realtime.StreamMood) == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.BroadcastStream(realtime.StreamMood, realtime.Message{
		Event: realtime.EventMoodUpdated,
		Data:  map[string]string{"mood": "calm"},
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Stream string            `json:"stream"`
		Event  string            `json:"event"`
		Data   map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	require.Equal(t, realtime.StreamMood, msg.Stream)
	require.Equal(t, realtime.EventMoodUpdated, msg.Event)
	require.Equal(t, "calm", msg.Data["mood"])
}
