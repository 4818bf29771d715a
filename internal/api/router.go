package api

import (
	"fmt"
	"io/fs"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/moodtracker/internal/app"
	"github.com/charlesng35/moodtracker/internal/handlers"
	"github.com/charlesng35/moodtracker/internal/middleware"
	"github.com/charlesng35/moodtracker/internal/monitoring"
	"github.com/charlesng35/moodtracker/internal/realtime"
)

// Dependencies are the long-lived services the HTTP surface is built from.
// Realtime, Monitoring, RateStore and Static are optional.
type Dependencies struct {
	Config        *app.Config
	Subscriptions handlers.SubscriptionStore
	Notifier      handlers.Notifier
	Moods         handlers.MoodRecorder
	Reports       handlers.ReportLister
	Realtime      handlers.StreamServer
	Monitoring    *monitoring.Module
	RateStore     middleware.RateStore
	Static        fs.FS
}

// NewRouter builds the Gin engine, wires middleware and registers the push,
// mood, realtime, health and static routes.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	cfg := deps.Config
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	pushHandler, err := handlers.NewPushHandler(deps.Subscriptions, deps.Notifier, cfg.Composer(), cfg.Push.VAPIDPublicKey)
	if err != nil {
		return nil, err
	}
	moodHandler, err := handlers.NewMoodHandler(deps.Moods)
	if err != nil {
		return nil, err
	}
	reportHandler, err := handlers.NewReportHandler(deps.Reports)
	if err != nil {
		return nil, err
	}
	qrHandler, err := handlers.NewDeviceQRHandler(cfg.Server.PublicURL)
	if err != nil {
		return nil, err
	}

	realtimeHandler := handlers.NewRealtimeHandler(deps.Realtime, realtime.DefaultStreams()...)

	metricsEndpoint := ""
	if cfg.Monitoring.Prometheus.Enabled && deps.Monitoring != nil {
		metricsEndpoint = normaliseEndpoint(cfg.Monitoring.Prometheus.Endpoint)
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger("/health", "/health/live", "/health/ready", metricsEndpoint))
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders(strings.HasPrefix(strings.ToLower(cfg.Server.PublicURL), "https://")))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowedOrigins...))

	registerHealthRoutes(r, cfg, deps.Monitoring)

	api := r.Group("/api")
	api.Use(middleware.RateLimit(deps.RateStore, cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window))

	registerPushRoutes(api, pushHandler, reportHandler)
	registerMoodRoutes(api, moodHandler)
	api.GET("/device-qr", qrHandler.PNG)

	registerRealtimeRoutes(r, realtimeHandler)

	if metricsEndpoint != "" {
		r.GET(metricsEndpoint, gin.WrapH(deps.Monitoring.Handler()))
	}

	registerStaticRoutes(r, deps.Static)

	return r, nil
}

func normaliseEndpoint(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "/metrics"
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return endpoint
}
