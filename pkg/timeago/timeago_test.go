package timeago

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		ago  time.Duration
		want string
	}{
		{"same instant", 0, "Just now"},
		{"59 seconds", 59 * time.Second, "Just now"},
		{"exactly a minute", time.Minute, "1 minute ago"},
		{"90 seconds", 90 * time.Second, "1 minute ago"},
		{"two minutes", 2 * time.Minute, "2 minutes ago"},
		{"59 minutes", 59*time.Minute + 59*time.Second, "59 minutes ago"},
		{"exactly an hour", time.Hour, "1 hour ago"},
		{"3661 seconds", 3661 * time.Second, "1 hour ago"},
		{"23 hours", 23*time.Hour + 59*time.Minute, "23 hours ago"},
		{"exactly a day", 24 * time.Hour, "1 day ago"},
		{"90000 seconds", 90000 * time.Second, "1 day ago"},
		{"three days", 72 * time.Hour, "3 days ago"},
		{"future", -5 * time.Minute, "Just now"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Format(now.Add(-tc.ago), now))
		})
	}
}
