package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/moodtracker/internal/database/testutil"
	"github.com/charlesng35/moodtracker/internal/models"
	apperrors "github.com/charlesng35/moodtracker/pkg/errors"
)

func newSubscriptionService(t *testing.T) *SubscriptionService {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewSubscriptionService(db)
	require.NoError(t, err)
	return svc
}

func TestSubscriptionUpsertInsertsAndOverwrites(t *testing.T) {
	svc := newSubscriptionService(t)
	ctx := context.Background()

	first, err := svc.Upsert(ctx, SubscriptionInput{Endpoint: "https://push.example.com/a", P256dh: "key-1", Auth: "auth-1"})
	require.NoError(t, err)
	require.Equal(t, models.DefaultOwner, first.Owner)

	second, err := svc.Upsert(ctx, SubscriptionInput{Endpoint: "https://push.example.com/a", P256dh: "key-2", Auth: "auth-2", Owner: "alex"})
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "key-2", second.P256dh)
	require.Equal(t, "auth-2", second.Auth)
	require.Equal(t, "alex", second.Owner)
	require.True(t, first.CreatedAt.Equal(second.CreatedAt))

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestSubscriptionUpsertNeverIncreasesCountForKnownEndpoint(t *testing.T) {
	svc := newSubscriptionService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Upsert(ctx, SubscriptionInput{Endpoint: "https://push.example.com/a", P256dh: "k", Auth: "a"})
		require.NoError(t, err)
	}
	_, err := svc.Upsert(ctx, SubscriptionInput{Endpoint: "https://push.example.com/b", P256dh: "k", Auth: "a"})
	require.NoError(t, err)

	subs, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 2)
}

func TestSubscriptionUpsertValidation(t *testing.T) {
	svc := newSubscriptionService(t)
	ctx := context.Background()

	cases := map[string]SubscriptionInput{
		"missing endpoint": {P256dh: "k", Auth: "a"},
		"blank endpoint":   {Endpoint: "   ", P256dh: "k", Auth: "a"},
		"missing p256dh":   {Endpoint: "https://push.example.com/a", Auth: "a"},
		"missing auth":     {Endpoint: "https://push.example.com/a", P256dh: "k"},
		"endpoint too long": {
			Endpoint: "https://push.example.com/" + strings.Repeat("x", models.MaxEndpointLength),
			P256dh:   "k",
			Auth:     "a",
		},
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Upsert(ctx, input)
			require.Error(t, err)
			require.True(t, apperrors.IsValidation(err))
		})
	}

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestSubscriptionRemove(t *testing.T) {
	svc := newSubscriptionService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, SubscriptionInput{Endpoint: "https://push.example.com/a", P256dh: "k", Auth: "a"})
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, "https://push.example.com/a"))
	require.NoError(t, svc.Remove(ctx, "https://push.example.com/unknown"))

	err = svc.Remove(ctx, " ")
	require.True(t, apperrors.IsValidation(err))

	subs, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Empty(t, subs)
}

func TestNewSubscriptionServiceRequiresDB(t *testing.T) {
	_, err := NewSubscriptionService(nil)
	require.Error(t, err)
}
