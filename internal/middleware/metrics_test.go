package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/moodtracker/pkg/metrics"
)

func TestMetricsSkipsWebsocketUpgrades(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics())
	r.GET("/metrics-test/plain", func(c *gin.Context) {
		require.Equal(t, float64(1), testutil.ToFloat64(metrics.APIInFlight))
		c.Status(http.StatusNoContent)
	})
	r.GET("/metrics-test/upgrade", func(c *gin.Context) {
		c.Status(http.StatusSwitchingProtocols)
		c.Writer.WriteHeaderNow()
	})

	before := testutil.CollectAndCount(metrics.APILatency)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics-test/plain", nil))
	require.Equal(t, before+1, testutil.CollectAndCount(metrics.APILatency))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics-test/upgrade", nil))
	require.Equal(t, before+1, testutil.CollectAndCount(metrics.APILatency))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics-test/missing", nil))
	require.Equal(t, before+2, testutil.CollectAndCount(metrics.APILatency), "unmatched routes share one series")

	require.Zero(t, testutil.ToFloat64(metrics.APIInFlight))
}
