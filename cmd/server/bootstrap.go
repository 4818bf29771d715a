package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/moodtracker/internal/api"
	"github.com/charlesng35/moodtracker/internal/app"
	"github.com/charlesng35/moodtracker/internal/app/maintenance"
	"github.com/charlesng35/moodtracker/internal/cache"
	"github.com/charlesng35/moodtracker/internal/database"
	"github.com/charlesng35/moodtracker/internal/middleware"
	"github.com/charlesng35/moodtracker/internal/monitoring"
	"github.com/charlesng35/moodtracker/internal/monitoring/checks"
	"github.com/charlesng35/moodtracker/internal/push"
	"github.com/charlesng35/moodtracker/internal/realtime"
	"github.com/charlesng35/moodtracker/internal/services"
	"github.com/charlesng35/moodtracker/pkg/logger"
	"github.com/charlesng35/moodtracker/web"
)

const healthProbeTimeout = 2 * time.Second

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB            *gorm.DB
	Redis         *cache.RedisClient
	Hub           *realtime.Hub
	Dispatcher    *push.Dispatcher
	Subscriptions *services.SubscriptionService
	Reports       *services.ReportService
	Moods         *services.MoodService
	Scheduler     *maintenance.Scheduler
	Monitoring    *monitoring.Module
	RateStore     middleware.RateStore
	Router        *gin.Engine

	stopRelay context.CancelFunc
	relayDone chan struct{}
}

// bootstrapRuntime initialises databases, caches, services, and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	// enable gin debug mod
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Cache.Redis.Enabled {
		if stack.Redis, err = cache.NewRedisClient(cfg.Cache.RedisClientConfig()); err != nil {
			log.Warn("redis unavailable; falling back to in-process rate limiting and broadcasts", zap.Error(err))
			stack.Redis = nil
		} else {
			log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
		}
	}

	stack.Hub = realtime.NewHub(realtime.DefaultStreams()...)
	var broadcaster realtime.Broadcaster = stack.Hub
	if stack.Redis != nil {
		relay, relayErr := realtime.NewRelay(stack.Hub, stack.Redis)
		if relayErr != nil {
			return nil, fmt.Errorf("initialise realtime relay: %w", relayErr)
		}
		stack.startRelay(ctx, relay, log)
		broadcaster = relay
	}

	stack.Subscriptions, err = services.NewSubscriptionService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise subscription service: %w", err)
	}

	stack.Reports, err = services.NewReportService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise report service: %w", err)
	}

	sender, err := push.NewWebPushSender(cfg.Push.VAPIDConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise web push sender: %w", err)
	}

	stack.Dispatcher, err = push.NewDispatcher(sender, stack.Subscriptions,
		push.WithConcurrency(cfg.Push.Concurrency),
		push.WithReportRecorder(stack.Reports),
	)
	if err != nil {
		return nil, fmt.Errorf("initialise push dispatcher: %w", err)
	}

	composer := cfg.Composer()
	stack.Moods, err = services.NewMoodService(stack.DB, broadcaster, stack.Dispatcher, composer)
	if err != nil {
		return nil, fmt.Errorf("initialise mood service: %w", err)
	}

	stack.Scheduler = newScheduler(cfg, stack.Dispatcher, composer, stack.Reports)
	if err := stack.Scheduler.Start(); err != nil {
		return nil, fmt.Errorf("start maintenance jobs: %w", err)
	}

	stack.Monitoring = newMonitoring(cfg, stack)

	if stack.Redis != nil {
		stack.RateStore = middleware.NewRedisRateStore(stack.Redis)
	}

	static, err := web.FS()
	if err != nil {
		return nil, fmt.Errorf("load web client: %w", err)
	}

	stack.Router, err = api.NewRouter(api.Dependencies{
		Config:        cfg,
		Subscriptions: stack.Subscriptions,
		Notifier:      stack.Dispatcher,
		Moods:         stack.Moods,
		Reports:       stack.Reports,
		Realtime:      stack.Hub,
		Monitoring:    stack.Monitoring,
		RateStore:     stack.RateStore,
		Static:        static,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

func newScheduler(cfg *app.Config, notifier maintenance.Notifier, composer push.Composer, reports maintenance.ReportPurger) *maintenance.Scheduler {
	opts := []maintenance.Option{
		maintenance.WithReportRetention(reports, cfg.Maintenance.ReportRetentionDays),
	}
	if reminders := cfg.Features.Reminders; reminders.Enabled {
		opts = append(opts, maintenance.WithReminder(notifier, composer, maintenance.ReminderSettings{
			Schedule: reminders.Schedule,
			Title:    reminders.Title,
			Body:     reminders.Body,
		}))
	}
	return maintenance.NewScheduler(opts...)
}

func newMonitoring(cfg *app.Config, stack *runtimeStack) *monitoring.Module {
	module := monitoring.NewModule()
	health := module.Health()

	var redis checks.Pinger
	if stack.Redis != nil {
		redis = stack.Redis
	}

	health.RegisterLiveness(checks.Realtime(stack.Hub))
	health.RegisterReadiness(checks.Database(stack.DB, healthProbeTimeout))
	health.RegisterReadiness(checks.Redis(redis, cfg.Cache.Redis.Enabled, healthProbeTimeout))
	health.RegisterReadiness(checks.Push(stack.Subscriptions, cfg.Push.VAPIDPublicKey != "" && cfg.Push.VAPIDPrivateKey != "", healthProbeTimeout))

	return module
}

func (s *runtimeStack) startRelay(ctx context.Context, relay *realtime.Relay, log *zap.Logger) {
	relayCtx, cancel := context.WithCancel(ctx)
	s.stopRelay = cancel
	s.relayDone = make(chan struct{})

	go func() {
		defer close(s.relayDone)
		if err := relay.Run(relayCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("realtime relay stopped", zap.Error(err))
		}
	}()
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Scheduler != nil {
		stopCtx := s.Scheduler.Stop()
		if stopCtx != nil {
			<-stopCtx.Done()
		}
		if err := s.Scheduler.RunRetention(ctx); err != nil {
			log.Warn("report retention on shutdown failed", zap.Error(err))
		}
	}

	// Let in-flight mood notifications finish before the store goes away.
	if s.Moods != nil {
		s.Moods.Wait()
	}

	if s.stopRelay != nil {
		s.stopRelay()
		<-s.relayDone
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Warn("redis shutdown", zap.Error(err))
		}
	}

	if s.DB != nil {
		if err := database.Close(s.DB); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.DatabaseClientConfig()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", dbCfg.Driver))

	return db, nil
}
