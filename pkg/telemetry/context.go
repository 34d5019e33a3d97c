package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry provides a unified telemetry interface combining logging, tracing, metrics, and events.
type Telemetry struct {
	Logger    *Logger
	Tracer    *Tracer
	Metrics   *Metrics
	Events    *EventPublisher
	Config    *Config
}

// telemetryContextKey is the context key for telemetry instances.
type telemetryContextKey struct{}

// NewTelemetry creates a new telemetry instance from configuration.
func NewTelemetry(cfg *Config) (*Telemetry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Initialize logger
	logger, err := NewLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}

	// Initialize tracer
	tracer, err := NewTracer(cfg.Tracing, cfg.ServiceName, cfg.ServiceVersion, cfg.Environment)
	if err != nil {
		return nil, err
	}

	// Initialize metrics
	metrics, err := NewMetrics(cfg.Metrics)
	if err != nil {
		return nil, err
	}

	// Initialize event publisher
	events, err := NewEventPublisher(cfg.Events)
	if err != nil {
		return nil, err
	}

	return &Telemetry{
		Logger:  logger,
		Tracer:  tracer,
		Metrics: metrics,
		Events:  events,
		Config:  cfg,
	}, nil
}

// WithContext adds the telemetry instance to the context.
func (t *Telemetry) WithContext(ctx context.Context) context.Context {
	ctx = context.WithValue(ctx, telemetryContextKey{}, t)
	ctx = t.Logger.WithContext(ctx)
	return ctx
}

// FromTelemetryContext retrieves the telemetry instance from the context.
// If no telemetry is found, it returns nil.
func FromTelemetryContext(ctx context.Context) *Telemetry {
	if t, ok := ctx.Value(telemetryContextKey{}).(*Telemetry); ok {
		return t
	}
	return nil
}

// Shutdown gracefully shuts down all telemetry components.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	// Shutdown in reverse order of initialization
	if err := t.Events.Shutdown(ctx); err != nil {
		return err
	}

	if err := t.Tracer.Shutdown(ctx); err != nil {
		return err
	}

	// Metrics server is not explicitly shut down here as it may need to continue
	// serving metrics until the very end of the application lifecycle

	return nil
}

// Flush forces all pending telemetry data to be exported.
func (t *Telemetry) Flush(ctx context.Context) error {
	return t.Tracer.ForceFlush(ctx)
}

// StartMetricsServer starts the metrics HTTP server if metrics are enabled.
func (t *Telemetry) StartMetricsServer() error {
	return t.Metrics.StartMetricsServer()
}

// Context Helpers for common instrumentation patterns

// InstrumentedContext creates a context with telemetry, logger fields, and a trace span.
type InstrumentedContext struct {
	Ctx    context.Context
	Span   trace.Span
	Logger *Logger
	Timer  *Timer
}

// StartOperation begins an instrumented operation with logging, tracing, and timing.
func StartOperation(ctx context.Context, operation string, attrs ...attribute.KeyValue) *InstrumentedContext {
	tel := FromTelemetryContext(ctx)
	if tel == nil {
		return &InstrumentedContext{
			Ctx:    ctx,
			Logger: FromContext(ctx),
			Timer:  NewTimer(),
		}
	}

	// Start trace span
	spanCtx, span := tel.Tracer.StartSpan(ctx, operation, attrs...)

	// Create logger with operation field
	logger := tel.Logger.WithField("operation", operation)

	// Add trace context to logger if available
	if span.SpanContext().IsValid() {
		logger = logger.WithFields(map[string]interface{}{
			"trace_id": span.SpanContext().TraceID().String(),
			"span_id":  span.SpanContext().SpanID().String(),
		})
	}

	return &InstrumentedContext{
		Ctx:    spanCtx,
		Span:   span,
		Logger: logger,
		Timer:  NewTimer(),
	}
}

// End finishes the instrumented operation, recording success or failure.
func (ic *InstrumentedContext) End(err error) {
	if ic.Span != nil {
		if err != nil {
			RecordError(ic.Span, err)
		} else {
			RecordSuccess(ic.Span)
		}
		ic.Span.End()
	}
}

// WithJobContext creates a context enriched with job-specific telemetry.
func WithJobContext(ctx context.Context, jobID, caller string) context.Context {
	tel := FromTelemetryContext(ctx)
	if tel == nil {
		return ctx
	}

	// Start job span
	spanCtx, span := tel.Tracer.StartJobSpan(ctx, jobID)

	// Create job-specific logger
	logger := tel.Logger.WithJobID(jobID).WithField("caller", caller)
	spanCtx = logger.WithContext(spanCtx)

	// Record job started metric
	tel.Metrics.RecordJobStarted(caller)

	// Publish job started event
	_ = tel.Events.PublishJobStarted(jobID, caller)

	// Store the span and timer in context for later retrieval
	spanCtx = context.WithValue(spanCtx, jobSpanKey{}, span)
	spanCtx = context.WithValue(spanCtx, jobTimerKey{}, NewTimer())

	return spanCtx
}

// jobSpanKey is the context key for job spans.
type jobSpanKey struct{}

// jobTimerKey is the context key for job timers.
type jobTimerKey struct{}

// EndJobContext completes the job context, recording metrics and events.
func EndJobContext(ctx context.Context, jobID, status string, err error) {
	tel := FromTelemetryContext(ctx)
	if tel == nil {
		return
	}

	// Get the job span from context
	if span, ok := ctx.Value(jobSpanKey{}).(trace.Span); ok {
		if err != nil {
			RecordError(span, err)
		} else {
			RecordSuccess(span)
		}
		span.End()
	}

	// Get the timer from context
	var duration time.Duration
	if timer, ok := ctx.Value(jobTimerKey{}).(*Timer); ok {
		duration = timer.Duration()
	}

	// Record metrics
	tel.Metrics.RecordJobCompleted(status, duration)

	// Publish events
	if err != nil {
		_ = tel.Events.PublishJobFailed(jobID, err.Error())
	} else {
		_ = tel.Events.PublishJobCompleted(jobID, status, duration)
	}
}

// WithStepContext creates a context enriched with plan step-specific telemetry.
func WithStepContext(ctx context.Context, jobID, stepID, converterID, operation string) context.Context {
	tel := FromTelemetryContext(ctx)
	if tel == nil {
		return ctx
	}

	// Start step span
	spanCtx, span := tel.Tracer.StartStepSpan(ctx, stepID, converterID, operation)

	// Create step-specific logger
	logger := tel.Logger.
		WithJobID(jobID).
		WithStepID(stepID).
		WithConverterID(converterID).
		WithField("operation", operation)
	spanCtx = logger.WithContext(spanCtx)

	// Publish step started event
	_ = tel.Events.PublishStepStarted(jobID, stepID, converterID, operation)

	// Store the span and timer in context
	spanCtx = context.WithValue(spanCtx, stepSpanKey{}, span)
	spanCtx = context.WithValue(spanCtx, stepTimerKey{}, NewTimer())

	return spanCtx
}

// stepSpanKey is the context key for plan step spans.
type stepSpanKey struct{}

// stepTimerKey is the context key for plan step timers.
type stepTimerKey struct{}

// EndStepContext completes the plan step context, recording metrics and events.
func EndStepContext(ctx context.Context, jobID, stepID, converterID, operation, status string, err error) {
	tel := FromTelemetryContext(ctx)
	if tel == nil {
		return
	}

	// Get the span from context
	if span, ok := ctx.Value(stepSpanKey{}).(trace.Span); ok {
		if err != nil {
			RecordError(span, err)
		} else {
			RecordSuccess(span)
		}
		span.End()
	}

	// Get the timer from context
	var duration time.Duration
	if timer, ok := ctx.Value(stepTimerKey{}).(*Timer); ok {
		duration = timer.Duration()
	}

	tel.Metrics.RecordStepExecution(operation, status, duration, converterID)

	// Publish events
	if err != nil {
		_ = tel.Events.PublishStepFailed(jobID, stepID, converterID, err.Error())
	} else {
		_ = tel.Events.PublishStepCompleted(jobID, stepID, converterID, duration)
	}
}

// WithConverterContext creates a context enriched with converter-specific telemetry.
func WithConverterContext(ctx context.Context, converterName, converterVersion string) context.Context {
	tel := FromTelemetryContext(ctx)
	if tel == nil {
		return ctx
	}

	// Create converter-specific logger
	logger := tel.Logger.WithConverter(converterName, converterVersion)
	return logger.WithContext(ctx)
}

// RecordConverterOperation records a converter call with metrics and tracing.
func RecordConverterOperation(ctx context.Context, converterName, operation string, fn func() error) error {
	tel := FromTelemetryContext(ctx)

	// Start span
	var span trace.Span
	if tel != nil {
		ctx, span = tel.Tracer.StartConverterSpan(ctx, converterName, operation)
		defer span.End()
	}

	// Start timer
	timer := NewTimer()

	// Execute operation
	err := fn()

	// Record metrics
	if tel != nil {
		duration := timer.Duration()
		tel.Metrics.RecordConverterCall(converterName, operation, duration)
		if err != nil {
			tel.Metrics.RecordConverterError(converterName, operation)
			RecordError(span, err)
		} else {
			RecordSuccess(span)
		}
	}

	return err
}
