package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MoodsRecorded counts mood writes by mood category.
	MoodsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodtracker_moods_recorded_total",
			Help: "Total number of moods recorded",
		},
		[]string{"mood"},
	)

	// PushDeliveries counts individual web-push deliveries by outcome (success|gone|transient).
	PushDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodtracker_push_deliveries_total",
			Help: "Web push deliveries by outcome",
		},
		[]string{"outcome"},
	)

	// PushDispatchDuration measures how long a whole fan-out takes.
	PushDispatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "moodtracker_push_dispatch_seconds",
			Help:    "Duration of a push fan-out across all subscriptions",
			Buckets: prometheus.DefBuckets,
		},
	)

	// PushSubscriptions tracks the number of stored subscriptions seen at the last dispatch.
	PushSubscriptions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "moodtracker_push_subscriptions",
			Help: "Stored push subscriptions at the last dispatch",
		},
	)

	// RealtimeConnections tracks open websocket viewers.
	RealtimeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "moodtracker_realtime_connections",
			Help: "Active realtime websocket connections",
		},
	)

	// RealtimeBroadcasts counts messages broadcast per stream.
	RealtimeBroadcasts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodtracker_realtime_broadcasts_total",
			Help: "Messages broadcast across realtime streams",
		},
		[]string{"stream"},
	)

	// SchedulerRuns counts scheduled job executions by job and result.
	SchedulerRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodtracker_scheduler_runs_total",
			Help: "Scheduled job executions",
		},
		[]string{"job", "result"},
	)

	// APIInFlight tracks requests currently being served, websockets included.
	APIInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "moodtracker_api_in_flight_requests",
			Help: "HTTP requests currently being served",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moodtracker_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
