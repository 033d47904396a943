// Package metrics exposes the Prometheus metrics of the service.
package metrics

import (
	"strconv"

	"github.com/myrjola/loadcoach/internal/training"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests        *prometheus.CounterVec
	CounterRecommendations *prometheus.CounterVec
	CounterFatigueUpdates  *prometheus.CounterVec
	CounterFallbackReads   prometheus.Counter
	CounterRequestPanics   prometheus.Counter

	// gauges
	GaugeRequests prometheus.Gauge

	// histograms
	HistogramRequestDuration *prometheus.HistogramVec
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("loadcoach", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{ //nolint:exhaustruct // optional fields.
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "The total number of handled requests",
		}, []string{"method", "status"}),
		CounterRecommendations: factory.NewCounterVec(prometheus.CounterOpts{ //nolint:exhaustruct // optional fields.
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "weight_recommendations_total",
			Help:      "The total number of weight recommendations by source",
		}, []string{"source"}),
		CounterFatigueUpdates: factory.NewCounterVec(prometheus.CounterOpts{ //nolint:exhaustruct // optional fields.
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "fatigue_updates_total",
			Help:      "The total number of fatigue snapshot writes by outcome",
		}, []string{"outcome"}),
		CounterFallbackReads: factory.NewCounter(prometheus.CounterOpts{ //nolint:exhaustruct // optional fields.
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "fatigue_fallback_reads_total",
			Help:      "The total number of fatigue reads served from the fallback snapshot",
		}),
		CounterRequestPanics: factory.NewCounter(prometheus.CounterOpts{ //nolint:exhaustruct // optional fields.
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_panics_total",
			Help:      "The total number of recovered request panics",
		}),
		GaugeRequests: factory.NewGauge(prometheus.GaugeOpts{ //nolint:exhaustruct // optional fields.
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "current_requests",
			Help:      "Current number of requests being served",
		}),
		HistogramRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{ //nolint:exhaustruct // optional.
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "Duration of handled requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}
}

// ObserveRequest records a finished request.
func (m *Manager) ObserveRequest(method string, status int, seconds float64) {
	code := strconv.Itoa(status)
	m.CounterRequests.WithLabelValues(method, code).Inc()
	m.HistogramRequestDuration.WithLabelValues(method, code).Observe(seconds)
}

func (m *Manager) RecommendationServed(source training.Source) {
	m.CounterRecommendations.WithLabelValues(string(source)).Inc()
}

func (m *Manager) FatigueUpdated(outcome string) {
	m.CounterFatigueUpdates.WithLabelValues(outcome).Inc()
}

func (m *Manager) FallbackFatigueServed() {
	m.CounterFallbackReads.Inc()
}
