package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/moodtracker/pkg/metrics"
)

// unmatchedRoute keeps the path label bounded for requests that hit no route.
const unmatchedRoute = "unmatched"

// Metrics records request latency. Websocket upgrades are excluded since the
// handler returns only when the viewer disconnects.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.APIInFlight.Inc()
		defer metrics.APIInFlight.Dec()

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		if status == http.StatusSwitchingProtocols {
			return
		}

		path := c.FullPath()
		if path == "" {
			path = unmatchedRoute
		}
		metrics.APILatency.WithLabelValues(c.Request.Method, path, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	}
}
