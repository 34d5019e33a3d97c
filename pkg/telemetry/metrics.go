package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for xmute.
type Metrics struct {
	config MetricsConfig

	// Job metrics
	jobsStarted   *prometheus.CounterVec
	jobsCompleted *prometheus.CounterVec
	jobDuration   *prometheus.HistogramVec

	// Plan step metrics
	stepsExecuted *prometheus.CounterVec
	stepDuration  *prometheus.HistogramVec

	// Converter registry metrics
	convertersRegistered *prometheus.GaugeVec
	pluginHealth         *prometheus.GaugeVec

	// Converter call metrics
	converterCalls    *prometheus.CounterVec
	converterDuration *prometheus.HistogramVec
	converterErrors   *prometheus.CounterVec

	// Error metrics
	errorsByClass *prometheus.CounterVec
	errorsByCode  *prometheus.CounterVec

	// System metrics
	activeJobs   prometheus.Gauge
	queuedSteps  prometheus.Gauge

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

	// Create a new registry
	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		// Job metrics
		jobsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "jobs_started_total",
				Help:      "Total number of conversion jobs started",
			},
			[]string{"caller"},
		),
		jobsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "jobs_completed_total",
				Help:      "Total number of conversion jobs completed",
			},
			[]string{"status"},
		),
		jobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "job_duration_seconds",
				Help:      "Duration of job execution in seconds",
				Buckets:   buckets,
			},
			[]string{"status"},
		),

		// Plan step metrics
		stepsExecuted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "steps_executed_total",
				Help:      "Total number of plan steps executed",
			},
			[]string{"operation", "status"},
		),
		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "step_duration_seconds",
				Help:      "Duration of plan step execution in seconds",
				Buckets:   buckets,
			},
			[]string{"operation", "converter"},
		),

		// Converter registry metrics
		convertersRegistered: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "converters_registered",
				Help:      "Current number of converters registered",
			},
			[]string{"kind", "status"},
		),
		pluginHealth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "plugin_health",
				Help:      "Current health of loaded plugins (1=healthy, 0=unhealthy)",
			},
			[]string{"plugin_id", "kind"},
		),

		// Converter call metrics
		converterCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "converter_calls_total",
				Help:      "Total number of converter calls",
			},
			[]string{"converter", "operation"},
		),
		converterDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "converter_call_duration_seconds",
				Help:      "Duration of converter calls in seconds",
				Buckets:   buckets,
			},
			[]string{"converter", "operation"},
		),
		converterErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "converter_errors_total",
				Help:      "Total number of converter errors",
			},
			[]string{"converter", "operation"},
		),

		// Error metrics
		errorsByClass: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_class_total",
				Help:      "Total number of errors by error class",
			},
			[]string{"class"},
		),
		errorsByCode: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_code_total",
				Help:      "Total number of errors by error code",
			},
			[]string{"code"},
		),

		// System metrics
		activeJobs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_jobs",
				Help:      "Current number of active jobs",
			},
		),
		queuedSteps: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "queued_steps",
				Help:      "Current number of queued plan steps",
			},
		),
	}

	// Register all metrics
	registry.MustRegister(
		m.jobsStarted,
		m.jobsCompleted,
		m.jobDuration,
		m.stepsExecuted,
		m.stepDuration,
		m.convertersRegistered,
		m.pluginHealth,
		m.converterCalls,
		m.converterDuration,
		m.converterErrors,
		m.errorsByClass,
		m.errorsByCode,
		m.activeJobs,
		m.queuedSteps,
	)

	return m, nil
}

// Job Metrics

// RecordJobStarted increments the counter for started jobs.
func (m *Metrics) RecordJobStarted(caller string) {
	if m.jobsStarted == nil {
		return
	}
	m.jobsStarted.WithLabelValues(caller).Inc()
	m.activeJobs.Inc()
}

// RecordJobCompleted records a completed job with its status and duration.
func (m *Metrics) RecordJobCompleted(status string, duration time.Duration) {
	if m.jobsCompleted == nil {
		return
	}
	m.jobsCompleted.WithLabelValues(status).Inc()
	m.jobDuration.WithLabelValues(status).Observe(duration.Seconds())
	m.activeJobs.Dec()
}

// Plan Step Metrics

// RecordStepExecution records the execution of a plan step.
func (m *Metrics) RecordStepExecution(operation, status string, duration time.Duration, converterID string) {
	if m.stepsExecuted == nil {
		return
	}
	m.stepsExecuted.WithLabelValues(operation, status).Inc()
	m.stepDuration.WithLabelValues(operation, converterID).Observe(duration.Seconds())
}

// Converter Registry Metrics

// SetConvertersRegistered sets the current count of registered converters.
func (m *Metrics) SetConvertersRegistered(kind, status string, count float64) {
	if m.convertersRegistered == nil {
		return
	}
	m.convertersRegistered.WithLabelValues(kind, status).Set(count)
}

// SetPluginHealth sets the health of a specific loaded plugin.
func (m *Metrics) SetPluginHealth(pluginID, kind string, healthy bool) {
	if m.pluginHealth == nil {
		return
	}
	value := 0.0
	if healthy {
		value = 1.0
	}
	m.pluginHealth.WithLabelValues(pluginID, kind).Set(value)
}

// Converter Call Metrics

// RecordConverterCall records a converter call with its duration.
func (m *Metrics) RecordConverterCall(converterID, operation string, duration time.Duration) {
	if m.converterCalls == nil {
		return
	}
	m.converterCalls.WithLabelValues(converterID, operation).Inc()
	m.converterDuration.WithLabelValues(converterID, operation).Observe(duration.Seconds())
}

// RecordConverterError records a converter error.
func (m *Metrics) RecordConverterError(converterID, operation string) {
	if m.converterErrors == nil {
		return
	}
	m.converterErrors.WithLabelValues(converterID, operation).Inc()
}

// Error Metrics

// RecordError records an error by class and optionally by code.
func (m *Metrics) RecordError(errorClass, errorCode string) {
	if m.errorsByClass == nil {
		return
	}
	m.errorsByClass.WithLabelValues(errorClass).Inc()
	if errorCode != "" && m.errorsByCode != nil {
		m.errorsByCode.WithLabelValues(errorCode).Inc()
	}
}

// System Metrics

// SetActiveJobs sets the current number of active jobs.
func (m *Metrics) SetActiveJobs(count float64) {
	if m.activeJobs == nil {
		return
	}
	m.activeJobs.Set(count)
}

// SetQueuedSteps sets the current number of queued plan steps.
func (m *Metrics) SetQueuedSteps(count float64) {
	if m.queuedSteps == nil {
		return
	}
	m.queuedSteps.Set(count)
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
			// Log error but don't fail the application
			fmt.Printf("metrics server error: %v\n", err)
		}
	}()

	return nil
}
