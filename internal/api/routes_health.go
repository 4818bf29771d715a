package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/moodtracker/internal/app"
	"github.com/charlesng35/moodtracker/internal/monitoring"
)

type healthProbe func(*monitoring.HealthManager, context.Context) monitoring.HealthReport

// /health is the readiness summary without per-check detail, for uptime
// pingers; the two detailed routes feed container probes.
func registerHealthRoutes(r *gin.Engine, cfg *app.Config, mon *monitoring.Module) {
	routes := []struct {
		path     string
		probe    healthProbe
		detailed bool
	}{
		{"/health", (*monitoring.HealthManager).EvaluateReadiness, false},
		{"/health/live", (*monitoring.HealthManager).EvaluateLiveness, true},
		{"/health/ready", (*monitoring.HealthManager).EvaluateReadiness, true},
	}

	var manager *monitoring.HealthManager
	if cfg.Monitoring.Health.Enabled && mon != nil {
		manager = mon.Health()
	}

	for _, route := range routes {
		if manager == nil {
			r.GET(route.path, disabledHealthHandler)
			continue
		}
		r.GET(route.path, healthHandler(manager, route.probe, route.detailed))
	}
}

func healthHandler(manager *monitoring.HealthManager, probe healthProbe, detailed bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		report := probe(manager, c.Request.Context())

		body := gin.H{
			"success":    report.Success,
			"status":     report.Status,
			"checked_at": time.Now().UTC(),
		}
		if detailed {
			body["checks"] = report.Checks
		}

		status := http.StatusOK
		if !report.Success {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, body)
	}
}

func disabledHealthHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"success": false, "status": "disabled"})
}
