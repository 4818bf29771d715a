package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/moodtracker/internal/database/testutil"
	"github.com/charlesng35/moodtracker/internal/models"
	"github.com/charlesng35/moodtracker/internal/push"
)

func TestReportServiceRecordAndList(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewReportService(db)
	require.NoError(t, err)
	ctx := context.Background()

	err = svc.RecordDelivery(ctx, push.Report{
		Tag:   push.TagMoodUpdate,
		Title: "😊 Feeling happy",
		Total: 3,
		Result: push.Result{
			SuccessCount: 2,
			FailureCount: 1,
			Pruned:       1,
			Errors:       []push.Failure{{Endpoint: "https://push.example.com/b", Error: "gone"}},
		},
		Duration: 150 * time.Millisecond,
	})
	require.NoError(t, err)

	reports, err := svc.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, reports, 1)

	report := reports[0]
	require.Equal(t, push.TagMoodUpdate, report.Trigger)
	require.Equal(t, 2, report.SuccessCount)
	require.Equal(t, 1, report.PrunedCount)
	require.EqualValues(t, 150, report.DurationMs)

	var failures []push.Failure
	require.NoError(t, json.Unmarshal(report.Failures, &failures))
	require.Equal(t, "https://push.example.com/b", failures[0].Endpoint)
}

func TestReportServicePurgeOlderThan(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewReportService(db)
	require.NoError(t, err)
	ctx := context.Background()

	old := models.DeliveryReport{Trigger: push.TagTest, Failures: []byte("[]")}
	old.CreatedAt = time.Now().UTC().Add(-40 * 24 * time.Hour)
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, svc.RecordDelivery(ctx, push.Report{Tag: push.TagTest}))

	removed, err := svc.PurgeOlderThan(ctx, time.Now().UTC().Add(-30*24*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	reports, err := svc.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, reports, 1)
}
