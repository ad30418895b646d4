package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for Strata.
type Metrics struct {
	config MetricsConfig

	// Resolution metrics
	resolutions     *prometheus.CounterVec
	resolutionDepth prometheus.Histogram

	// Mutation metrics
	settingWrites *prometheus.CounterVec
	settingClears prometheus.Counter

	// Document metrics
	documentLoads    *prometheus.CounterVec
	documentDuration *prometheus.HistogramVec

	// Watch metrics
	watchReloads *prometheus.CounterVec

	// Error metrics
	errorsByClass *prometheus.CounterVec

	// Graph metrics
	activeLayers     prometheus.Gauge
	declaredSettings prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolutions_total",
				Help:      "Total number of setting resolutions by origin",
			},
			[]string{"origin"},
		),
		resolutionDepth: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "resolution_depth",
				Help:      "Parent-chain depth at which resolutions terminated",
				Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21, 34},
			},
		),

		settingWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "setting_writes_total",
				Help:      "Total number of setting writes by kind",
			},
			[]string{"kind"},
		),
		settingClears: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "setting_clears_total",
				Help:      "Total number of setting clears",
			},
		),

		documentLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "document_loads_total",
				Help:      "Total number of document loads",
			},
			[]string{"format", "status"},
		),
		documentDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "document_load_duration_seconds",
				Help:      "Duration of document parsing and graph building in seconds",
				Buckets:   buckets,
			},
			[]string{"format"},
		),

		watchReloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "watch_reloads_total",
				Help:      "Total number of watch-triggered reloads",
			},
			[]string{"status"},
		),

		errorsByClass: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_class_total",
				Help:      "Total number of errors by error class",
			},
			[]string{"class"},
		),

		activeLayers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_layers",
				Help:      "Current number of layers in the active graph",
			},
		),
		declaredSettings: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "declared_settings",
				Help:      "Current number of declared settings in the active schema",
			},
		),
	}

	registry.MustRegister(
		m.resolutions,
		m.resolutionDepth,
		m.settingWrites,
		m.settingClears,
		m.documentLoads,
		m.documentDuration,
		m.watchReloads,
		m.errorsByClass,
		m.activeLayers,
		m.declaredSettings,
	)

	return m, nil
}

// Resolution Metrics

// RecordResolution records a resolved setting with its origin
// (self, inherited, default) and the chain depth it terminated at.
func (m *Metrics) RecordResolution(origin string, depth int) {
	if m.resolutions == nil {
		return
	}
	m.resolutions.WithLabelValues(origin).Inc()
	m.resolutionDepth.Observe(float64(depth))
}

// Mutation Metrics

// RecordSettingWrite records a setting write by declaration kind.
func (m *Metrics) RecordSettingWrite(kind string) {
	if m.settingWrites == nil {
		return
	}
	m.settingWrites.WithLabelValues(kind).Inc()
}

// RecordSettingClear records a setting clear.
func (m *Metrics) RecordSettingClear() {
	if m.settingClears == nil {
		return
	}
	m.settingClears.Inc()
}

// Document Metrics

// RecordDocumentLoad records a document load with its source format,
// outcome, and duration.
func (m *Metrics) RecordDocumentLoad(format, status string, duration time.Duration) {
	if m.documentLoads == nil {
		return
	}
	m.documentLoads.WithLabelValues(format, status).Inc()
	m.documentDuration.WithLabelValues(format).Observe(duration.Seconds())
}

// Watch Metrics

// RecordWatchReload records a watch-triggered reload outcome.
func (m *Metrics) RecordWatchReload(status string) {
	if m.watchReloads == nil {
		return
	}
	m.watchReloads.WithLabelValues(status).Inc()
}

// Error Metrics

// RecordError records an error by class.
func (m *Metrics) RecordError(errorClass string) {
	if m.errorsByClass == nil {
		return
	}
	m.errorsByClass.WithLabelValues(errorClass).Inc()
}

// Graph Metrics

// SetGraphSize sets the current layer and setting counts for the active graph.
func (m *Metrics) SetGraphSize(layers, settings int) {
	if m.activeLayers == nil {
		return
	}
	m.activeLayers.Set(float64(layers))
	m.declaredSettings.Set(float64(settings))
}

// Timer provides a convenient way to time operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration is a helper to time an operation and record it.
func (t *Timer) ObserveDuration(observer prometheus.Observer) {
	observer.Observe(t.Duration().Seconds())
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer starts an HTTP server to expose metrics.
func (m *Metrics) StartMetricsServer() error {
	if !m.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("metrics server error: %v\n", err)
		}
	}()

	return nil
}
