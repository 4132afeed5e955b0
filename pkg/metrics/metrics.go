package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Slot hold metrics
	HoldsAcquired  prometheus.Counter
	HoldContention prometheus.Counter
	HoldsReleased  *prometheus.CounterVec
	HoldsExpired   prometheus.Counter

	// Fan-out metrics
	EventsPublished *prometheus.CounterVec
	EventsDropped   prometheus.Counter
	SubscriberGauge prometheus.Gauge

	// Redis metrics
	RedisOperations *prometheus.CounterVec
	RedisLatency    *prometheus.HistogramVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New creates and registers all application metrics under a namespace.
func New(namespace string) *Metrics {
	return &Metrics{
		HoldsAcquired: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_holds_acquired_total",
			Help:      "Total number of slot holds successfully acquired",
		}),
		HoldContention: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_hold_contention_total",
			Help:      "Total number of acquire attempts rejected because the slot was held",
		}),
		HoldsReleased: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_holds_released_total",
			Help:      "Total number of hold releases by outcome",
		}, []string{"outcome"}),
		HoldsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_holds_expired_total",
			Help:      "Total number of holds that lapsed via TTL expiry",
		}),
		EventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_events_published_total",
			Help:      "Total number of slot events published by action",
		}, []string{"action"}),
		EventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_events_dropped_total",
			Help:      "Total number of slot events dropped for slow subscribers",
		}),
		SubscriberGauge: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "slot_event_subscribers",
			Help:      "Current number of connected live subscribers",
		}),
		RedisOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redis_operations_total",
			Help:      "Total number of Redis operations",
		}, []string{"operation", "status"}),
		RedisLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "redis_operation_duration_seconds",
			Help:      "Redis operation latency",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}
