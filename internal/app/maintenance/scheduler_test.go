package maintenance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	testutil "github.com/charlesng35/moodtracker/internal/database/testutil"
	"github.com/charlesng35/moodtracker/internal/models"
	"github.com/charlesng35/moodtracker/internal/push"
	"github.com/charlesng35/moodtracker/internal/services"
)

type recordingNotifier struct {
	mu       sync.Mutex
	payloads []push.NotificationPayload
	err      error
}

func (n *recordingNotifier) DispatchAll(_ context.Context, payload push.NotificationPayload) (push.Result, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.payloads = append(n.payloads, payload)
	return push.Result{SuccessCount: 1}, n.err
}

type failingPurger struct{}

func (failingPurger) PurgeOlderThan(context.Context, time.Time) (int64, error) {
	return 0, errors.New("purge failed")
}

func TestSchedulerRunOncePurgesOldReports(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	reports, err := services.NewReportService(db)
	require.NoError(t, err)

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	old := models.DeliveryReport{Trigger: push.TagMoodUpdate, Title: "old"}
	old.CreatedAt = now.Add(-10 * 24 * time.Hour)
	fresh := models.DeliveryReport{Trigger: push.TagMoodUpdate, Title: "fresh"}
	fresh.CreatedAt = now.Add(-time.Hour)
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Create(&fresh).Error)

	scheduler := NewScheduler(
		WithNow(func() time.Time { return now }),
		WithReportRetention(reports, 7),
	)
	require.NoError(t, scheduler.RunOnce(context.Background()))

	var remaining []models.DeliveryReport
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	require.Equal(t, "fresh", remaining[0].Title)
}

func TestSchedulerRunOnceSendsReminder(t *testing.T) {
	notifier := &recordingNotifier{}
	composer := push.NewComposer("/icon.png", "/badge.png", "/")

	scheduler := NewScheduler(WithReminder(notifier, composer, ReminderSettings{
		Schedule: "0 20 * * *",
		Title:    "Check in",
	}))
	require.NoError(t, scheduler.RunOnce(context.Background()))

	require.Len(t, notifier.payloads, 1)
	require.Equal(t, "Check in", notifier.payloads[0].Title)
	require.Equal(t, push.TagReminder, notifier.payloads[0].Tag)
}

func TestSchedulerRunOnceAggregatesErrors(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("store offline")}
	scheduler := NewScheduler(
		WithReminder(notifier, push.NewComposer("", "", "/"), ReminderSettings{Schedule: "@daily"}),
		WithReportRetention(failingPurger{}, 1),
	)

	err := scheduler.RunOnce(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "store offline")
	require.Contains(t, err.Error(), "purge failed")
}

func TestSchedulerStartWithoutJobs(t *testing.T) {
	scheduler := NewScheduler()
	require.NoError(t, scheduler.Start())
	<-scheduler.Stop().Done()
	require.NoError(t, scheduler.RunOnce(context.Background()))
}

func TestSchedulerStartRejectsBadSchedule(t *testing.T) {
	scheduler := NewScheduler(WithReminder(&recordingNotifier{}, push.NewComposer("", "", "/"), ReminderSettings{
		Schedule: "not a schedule",
	}))
	require.Error(t, scheduler.Start())
}

func TestSchedulerStartAndStop(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	reports, err := services.NewReportService(db)
	require.NoError(t, err)

	scheduler := NewScheduler(WithReportRetention(reports, 30), WithRetentionSchedule("@every 1h"))
	require.NoError(t, scheduler.Start())

	select {
	case <-scheduler.Stop().Done():
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
