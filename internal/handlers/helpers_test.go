package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/moodtracker/internal/push"
	"github.com/charlesng35/moodtracker/internal/realtime"
)

type fakeNotifier struct {
	mu       sync.Mutex
	payloads []push.NotificationPayload
	result   push.Result
	err      error
}

func (n *fakeNotifier) DispatchAll(_ context.Context, payload push.NotificationPayload) (push.Result, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.payloads = append(n.payloads, payload)
	return n.result, n.err
}

func (n *fakeNotifier) sent() []push.NotificationPayload {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]push.NotificationPayload(nil), n.payloads...)
}

type fakeBroadcaster struct {
	mu       sync.Mutex
	messages []realtime.Message
}

func (b *fakeBroadcaster) BroadcastStream(stream string, message realtime.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	message.Stream = stream
	b.messages = append(b.messages, message)
}

// performRequest runs a single handler against a JSON body and decodes the reply.
func performRequest(t *testing.T, handler gin.HandlerFunc, method, target string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		data, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	handler(c)

	var payload map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	}
	return rec, payload
}

