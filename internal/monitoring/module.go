package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Module bundles the health manager with the Prometheus exposition handler.
// Application metrics are registered on the default registry by pkg/metrics.
type Module struct {
	gatherer prometheus.Gatherer
	health   *HealthManager
}

// Option customises a Module.
type Option func(*Module)

// WithGatherer serves metrics from the given gatherer instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(m *Module) {
		if g != nil {
			m.gatherer = g
		}
	}
}

// NewModule constructs a monitoring module.
func NewModule(opts ...Option) *Module {
	module := &Module{
		gatherer: prometheus.DefaultGatherer,
		health:   NewHealthManager(),
	}
	for _, opt := range opts {
		opt(module)
	}
	return module
}

// Handler returns an http.Handler serving Prometheus metrics.
func (m *Module) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Health exposes the health manager responsible for liveness and readiness probes.
func (m *Module) Health() *HealthManager {
	if m == nil {
		return nil
	}
	return m.health
}
