package observe

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "rebind").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for callback duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus observer.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "rebind",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// metrics holds the Prometheus metric set.
type metrics struct {
	evaluationsTotal   *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	schedulesTotal     *prometheus.CounterVec
	callbackDuration   *prometheus.HistogramVec
	activeEffects      prometheus.Gauge
	panicsTotal        prometheus.Counter
}

// globalMetrics is the singleton metric set, created by the first
// PrometheusObserver. Later observers with different options share it;
// a second registration in the same registry would panic otherwise.
var (
	globalMetrics   *metrics
	globalMetricsMu sync.Mutex
)

func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		evaluationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "evaluations_total",
			Help:        "Total number of effect evaluations by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"effect", "outcome"}),

		notificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notifications_total",
			Help:        "Total number of binding change notifications received",
			ConstLabels: config.ConstLabels,
		}, []string{"effect"}),

		schedulesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "schedules_total",
			Help:        "Total number of evaluations handed to the limiter",
			ConstLabels: config.ConstLabels,
		}, []string{"effect"}),

		callbackDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "callback_duration_seconds",
			Help:        "Callback execution duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"effect"}),

		activeEffects: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_effects",
			Help:        "Number of live coordinated effects",
			ConstLabels: config.ConstLabels,
		}),

		panicsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "callback_panics_total",
			Help:        "Total number of callback panics observed",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// PrometheusObserver records coordinator events as Prometheus metrics.
//
// Metrics collected:
//   - rebind_evaluations_total: Counter of evaluations by effect and outcome
//   - rebind_notifications_total: Counter of binding notifications
//   - rebind_schedules_total: Counter of limiter schedules
//   - rebind_callback_duration_seconds: Histogram of callback duration
//   - rebind_active_effects: Gauge of live effects
//   - rebind_callback_panics_total: Counter of callback panics
//
// Expose them with promhttp:
//
//	http.Handle("/metrics", promhttp.Handler())
type PrometheusObserver struct {
	m *metrics
}

// NewPrometheusObserver creates a Prometheus observer.
func NewPrometheusObserver(opts ...MetricsOption) *PrometheusObserver {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	globalMetricsMu.Lock()
	if globalMetrics == nil {
		globalMetrics = initMetrics(config)
	}
	m := globalMetrics
	globalMetricsMu.Unlock()

	return &PrometheusObserver{m: m}
}

func (o *PrometheusObserver) OnEvent(event Event) {
	switch event.Type {
	case EventCreate:
		o.m.activeEffects.Inc()
	case EventDispose:
		o.m.activeEffects.Dec()
	case EventNotify, EventInputChange:
		o.m.notificationsTotal.WithLabelValues(event.Source).Inc()
	case EventSchedule:
		o.m.schedulesTotal.WithLabelValues(event.Source).Inc()
	case EventFire:
		o.m.evaluationsTotal.WithLabelValues(event.Source, "fired").Inc()
		if d, ok := event.Data["duration_seconds"].(float64); ok {
			o.m.callbackDuration.WithLabelValues(event.Source).Observe(d)
		}
	case EventSkip:
		o.m.evaluationsTotal.WithLabelValues(event.Source, "skipped").Inc()
	case EventPanic:
		o.m.panicsTotal.Inc()
	}
}
