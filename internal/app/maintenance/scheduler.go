package maintenance

import (
	"context"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/moodtracker/internal/push"
	"github.com/charlesng35/moodtracker/pkg/logger"
	"github.com/charlesng35/moodtracker/pkg/metrics"
)

const (
	defaultReportRetentionDays = 30
	defaultRetentionSpec       = "@daily"

	jobReminder  = "reminder"
	jobRetention = "report_retention"
)

// Notifier fans a payload out to every stored subscription.
type Notifier interface {
	DispatchAll(ctx context.Context, payload push.NotificationPayload) (push.Result, error)
}

// ReportPurger deletes delivery reports created before the cutoff.
type ReportPurger interface {
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ReminderSettings describes the recurring mood reminder push.
type ReminderSettings struct {
	Schedule string
	Title    string
	Body     string
}

// Scheduler runs recurring jobs: the optional mood reminder and delivery
// report retention.
type Scheduler struct {
	notifier  Notifier
	composer  push.Composer
	reminder  *ReminderSettings
	reports   ReportPurger
	retention int

	cron          *cron.Cron
	now           func() time.Time
	log           *zap.Logger
	retentionSpec string
	started       bool
}

// Option customises the Scheduler.
type Option func(*Scheduler)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.cron = c
		}
	}
}

// WithNow overrides the clock used for retention cutoffs.
func WithNow(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithReminder enables the reminder push on the given schedule.
func WithReminder(notifier Notifier, composer push.Composer, settings ReminderSettings) Option {
	return func(s *Scheduler) {
		if notifier == nil || strings.TrimSpace(settings.Schedule) == "" {
			return
		}
		s.notifier = notifier
		s.composer = composer
		s.reminder = &settings
	}
}

// WithReportRetention prunes delivery reports older than the given number of days.
func WithReportRetention(reports ReportPurger, days int) Option {
	return func(s *Scheduler) {
		if reports == nil {
			return
		}
		s.reports = reports
		if days > 0 {
			s.retention = days
		}
	}
}

// WithRetentionSchedule overrides the cron specification for report retention.
func WithRetentionSchedule(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.retentionSpec = spec
		}
	}
}

// NewScheduler constructs a Scheduler. Jobs without their dependency are skipped.
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		now:           time.Now,
		retention:     defaultReportRetentionDays,
		retentionSpec: defaultRetentionSpec,
		log:           logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.cron == nil {
		s.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return s
}

// Start registers the enabled jobs and launches the cron scheduler when at least one exists.
func (s *Scheduler) Start() error {
	jobs := 0

	if s.reminder != nil {
		if _, err := s.cron.AddFunc(s.reminder.Schedule, func() {
			_ = s.run(jobReminder, s.sendReminder)
		}); err != nil {
			return err
		}
		jobs++
	}

	if s.reports != nil {
		if _, err := s.cron.AddFunc(s.retentionSpec, func() {
			_ = s.run(jobRetention, s.purgeReports)
		}); err != nil {
			return err
		}
		jobs++
	}

	if jobs == 0 {
		return nil
	}

	s.cron.Start()
	s.started = true
	s.log.Info("scheduler started", zap.Int("jobs", jobs))
	return nil
}

// Stop halts the underlying scheduler, returning a context that is done once running jobs complete.
func (s *Scheduler) Stop() context.Context {
	if s.cron == nil || !s.started {
		return context.Background()
	}
	return s.cron.Stop()
}

// RunRetention enforces report retention immediately. Used during graceful
// shutdown and in tests.
func (s *Scheduler) RunRetention(ctx context.Context) error {
	if s.reports == nil {
		return nil
	}
	return s.purgeReports(ctx)
}

// RunOnce executes all configured jobs sequentially.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	if s.reminder != nil {
		errs = multierr.Append(errs, s.sendReminder(ctx))
	}
	if s.reports != nil {
		errs = multierr.Append(errs, s.purgeReports(ctx))
	}
	return errs
}

func (s *Scheduler) run(job string, fn func(context.Context) error) error {
	err := fn(context.Background())
	result := "success"
	if err != nil {
		result = "error"
		s.log.Warn("scheduled job failed", zap.String("job", job), zap.Error(err))
	}
	metrics.SchedulerRuns.WithLabelValues(job, result).Inc()
	return err
}

func (s *Scheduler) sendReminder(ctx context.Context) error {
	payload := s.composer.ReminderPayload(s.reminder.Title, s.reminder.Body)
	result, err := s.notifier.DispatchAll(ctx, payload)
	if err != nil {
		return err
	}
	s.log.Info("reminder sent",
		zap.Int("success", result.SuccessCount),
		zap.Int("failed", result.FailureCount),
	)
	return nil
}

func (s *Scheduler) purgeReports(ctx context.Context) error {
	if s.retention <= 0 {
		return nil
	}
	cutoff := s.now().Add(-time.Duration(s.retention) * 24 * time.Hour)
	removed, err := s.reports.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	if removed > 0 {
		s.log.Info("delivery reports purged", zap.Int64("removed", removed))
	}
	return nil
}
