// Package timeago renders coarse "N units ago" labels for past timestamps.
package timeago

import (
	"fmt"
	"time"
)

// Format describes how long before now the timestamp t happened.
//
// Under a minute reads "Just now", then whole minutes, hours and days are
// used, truncating toward zero. The unit is singular only for exactly one.
// Timestamps after now also read "Just now".
func Format(t, now time.Time) string {
	elapsed := now.Sub(t)
	if elapsed < time.Minute {
		return "Just now"
	}

	minutes := int64(elapsed / time.Minute)
	if minutes < 60 {
		return plural(minutes, "minute")
	}

	hours := minutes / 60
	if hours < 24 {
		return plural(hours, "hour")
	}

	return plural(hours/24, "day")
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
