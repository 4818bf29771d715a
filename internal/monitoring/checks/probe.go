// Package checks holds the health probes registered by the server.
package checks

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/moodtracker/internal/monitoring"
)

const defaultProbeTimeout = 2 * time.Second

// Pinger represents the minimal interface required to probe a connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Database pings the gorm handle and reports how many pooled connections are open.
func Database(db *gorm.DB, timeout time.Duration) monitoring.Check {
	return monitoring.NewCheck("database", func(ctx context.Context) monitoring.ProbeResult {
		if db == nil {
			return withStatus(monitoring.StatusDown, "database not configured")
		}
		sqlDB, err := db.DB()
		if err != nil {
			return monitoring.ResultFromError("database", err, 0)
		}

		result := probe(ctx, "database", timeout, sqlDB.PingContext)
		if result.Status == monitoring.StatusUp {
			result.Details = fmt.Sprintf("%d open connections", sqlDB.Stats().OpenConnections)
		}
		return result
	})
}

// Redis probes the optional Redis cache. A disabled cache is reported as up;
// an enabled one that failed to connect at startup is degraded since the
// server falls back to in-process rate limiting and broadcast.
func Redis(client Pinger, enabled bool, timeout time.Duration) monitoring.Check {
	return monitoring.NewCheck("redis", func(ctx context.Context) monitoring.ProbeResult {
		switch {
		case !enabled:
			return withStatus(monitoring.StatusUp, "redis disabled")
		case client == nil:
			return withStatus(monitoring.StatusDegraded, "redis unavailable, using in-process fallbacks")
		}
		return probe(ctx, "redis", timeout, client.Ping)
	})
}

func probe(ctx context.Context, component string, timeout time.Duration, ping func(context.Context) error) monitoring.ProbeResult {
	start := time.Now()
	probeCtx, cancel := context.WithTimeout(ctx, chooseTimeout(timeout, defaultProbeTimeout))
	defer cancel()

	if err := ping(probeCtx); err != nil {
		return monitoring.ResultFromError(component, err, time.Since(start))
	}
	return monitoring.ProbeResult{Status: monitoring.StatusUp, Duration: time.Since(start)}
}

func withStatus(status monitoring.ProbeStatus, details string) monitoring.ProbeResult {
	return monitoring.ProbeResult{Status: status, Details: details}
}

func chooseTimeout(provided, fallback time.Duration) time.Duration {
	if provided <= 0 {
		return fallback
	}
	return provided
}
