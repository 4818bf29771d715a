package checks

import (
	"context"
	"fmt"

	"github.com/charlesng35/moodtracker/internal/monitoring"
)

// RealtimeObserver exposes the connection count of the realtime hub.
type RealtimeObserver interface {
	ConnectionCount() int
}

// Realtime reports whether the realtime hub is wired and how many viewers it serves.
func Realtime(observer RealtimeObserver) monitoring.Check {
	return monitoring.NewCheck("realtime", func(context.Context) monitoring.ProbeResult {
		if observer == nil {
			return withStatus(monitoring.StatusDegraded, "realtime hub unavailable")
		}
		return withStatus(monitoring.StatusUp, fmt.Sprintf("%d viewers connected", observer.ConnectionCount()))
	})
}
