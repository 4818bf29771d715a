package handlers

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/moodtracker/internal/realtime"
	"github.com/charlesng35/moodtracker/pkg/errors"
	"github.com/charlesng35/moodtracker/pkg/response"
)

const maxViewerIDLength = 64

// StreamServer upgrades a request into a realtime viewer connection.
type StreamServer interface {
	Serve(viewerID string, streams []string, w http.ResponseWriter, r *http.Request)
}

// RealtimeHandler hands websocket viewers to the realtime hub.
type RealtimeHandler struct {
	hub     StreamServer
	allowed []string
}

// NewRealtimeHandler builds the handler. When streams is empty any stream
// name is accepted; otherwise only the listed ones are.
func NewRealtimeHandler(hub StreamServer, streams ...string) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, allowed: collectStreams(streams)}
}

// Stream subscribes the viewer to the streams named by the path, repeated
// ?stream= values and a comma separated ?streams= list. Without any the
// viewer joins the default streams.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	if h.hub == nil {
		response.Error(c, errors.ErrServiceUnavailable)
		return
	}

	streams := gatherStreams(c)
	if len(streams) == 0 {
		streams = realtime.DefaultStreams()
	}

	if len(h.allowed) > 0 {
		for _, stream := range streams {
			if !slices.Contains(h.allowed, stream) {
				response.Error(c, errors.ErrNotFound.WithMessage("unknown stream: "+stream))
				return
			}
		}
	}

	h.hub.Serve(viewerID(c), streams, c.Writer, c.Request)
}

func gatherStreams(c *gin.Context) []string {
	names := []string{c.Param("stream")}
	names = append(names, c.QueryArray("stream")...)
	if raw := c.Query("streams"); raw != "" {
		names = append(names, strings.Split(raw, ",")...)
	}
	return collectStreams(names)
}

// collectStreams normalises stream names, dropping blanks and duplicates
// while keeping first-seen order.
func collectStreams(names []string) []string {
	var out []string
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || slices.Contains(out, name) {
			continue
		}
		out = append(out, name)
	}
	return out
}

// viewerID identifies a realtime viewer in logs. Browsers may pass their own
// id; otherwise the client address is used.
func viewerID(c *gin.Context) string {
	id := strings.TrimSpace(c.Query("viewer"))
	if id == "" {
		return c.ClientIP()
	}
	if len(id) > maxViewerIDLength {
		id = id[:maxViewerIDLength]
	}
	return id
}
