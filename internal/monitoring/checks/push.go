package checks

import (
	"context"
	"fmt"
	"time"

	"github.com/charlesng35/moodtracker/internal/monitoring"
)

// SubscriptionCounter reports how many push subscriptions are stored.
type SubscriptionCounter interface {
	Count(ctx context.Context) (int64, error)
}

// Push verifies that a VAPID identity is loaded and the subscription store is
// readable. The subscription count is surfaced for operators.
func Push(store SubscriptionCounter, vapidConfigured bool, timeout time.Duration) monitoring.Check {
	return monitoring.NewCheck("push", func(ctx context.Context) monitoring.ProbeResult {
		switch {
		case !vapidConfigured:
			return withStatus(monitoring.StatusDown, "vapid keys not configured")
		case store == nil:
			return withStatus(monitoring.StatusDegraded, "subscription store unavailable")
		}

		var count int64
		result := probe(ctx, "push", timeout, func(ctx context.Context) (err error) {
			count, err = store.Count(ctx)
			return err
		})
		if result.Status == monitoring.StatusUp {
			result.Details = fmt.Sprintf("%d subscriptions", count)
		}
		return result
	})
}
