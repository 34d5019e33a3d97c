package telemetry_test

import (
	"context"
	"fmt"
	"time"

	"github.com/xmute-dev/xmute/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// Example_basicSetup demonstrates basic telemetry setup.
func Example_basicSetup() {
	// Create configuration
	cfg := telemetry.DefaultConfig()
	cfg.ServiceName = "xmute"
	cfg.ServiceVersion = "1.0.0"

	// Initialize telemetry
	tel, err := telemetry.NewTelemetry(cfg)
	if err != nil {
		panic(err)
	}
	defer tel.Shutdown(context.Background())

	// Start metrics server (non-blocking)
	if err := tel.StartMetricsServer(); err != nil {
		panic(err)
	}

	// Add telemetry to context
	ctx := tel.WithContext(context.Background())

	// Use telemetry
	logger := telemetry.FromContext(ctx)
	logger.Info("Application started")

	// Output can vary, so we don't specify output for this example
}

// Example_structuredLogging demonstrates structured logging features.
func Example_structuredLogging() {
	cfg := telemetry.DevelopmentConfig()
	cfg.Logging.Output = "stdout"

	tel, _ := telemetry.NewTelemetry(cfg)
	defer tel.Shutdown(context.Background())

	// Component-specific logger
	logger := tel.Logger.NewComponentLogger("executor")

	// Add context fields
	logger = logger.WithFields(map[string]interface{}{
		"job_id":  "job-123",
		"step_id": "step-2",
	})

	// Log at different levels
	logger.Debug("Starting plan step")
	logger.Info("Step completed successfully")
	logger.Warn("Converter reported a degraded result")

	// Log with error
	err := fmt.Errorf("plugin subprocess timeout")
	logger.WithError(err).Error("Failed to reach converter plugin")

	// Output varies, no output specified
}

// Example_distributedTracing demonstrates distributed tracing usage.
func Example_distributedTracing() {
	cfg := telemetry.DevelopmentConfig()
	cfg.Tracing.Exporter = "stdout"

	tel, _ := telemetry.NewTelemetry(cfg)
	defer tel.Shutdown(context.Background())

	ctx := tel.WithContext(context.Background())

	// Start a span
	ctx, span := tel.Tracer.Start(ctx, "execute_plan")
	defer span.End()

	// Add attributes
	span.SetAttributes(
		attribute.String("plan.id", "plan-789"),
		attribute.Int("plan.steps", 5),
	)

	// Add event
	span.AddEvent("validation.complete")

	// Nested span
	ctx, childSpan := tel.Tracer.Start(ctx, "run_step")
	defer childSpan.End()

	childSpan.SetAttributes(
		attribute.String("converter.id", "resize-lanczos"),
		attribute.String("operation", "convert"),
	)

	// Simulate work
	time.Sleep(10 * time.Millisecond)

	// Record success
	telemetry.RecordSuccess(childSpan)

	// Output varies, no output specified
}

// Example_metricsCollection demonstrates metrics collection.
func Example_metricsCollection() {
	cfg := telemetry.DefaultConfig()
	cfg.Metrics.Enabled = true

	tel, _ := telemetry.NewTelemetry(cfg)
	defer tel.Shutdown(context.Background())

	// Record job metrics
	tel.Metrics.RecordJobStarted("cli")

	// Simulate job execution
	start := time.Now()
	time.Sleep(50 * time.Millisecond)
	duration := time.Since(start)

	tel.Metrics.RecordJobCompleted("succeeded", duration)

	// Record plan step metrics
	tel.Metrics.RecordStepExecution(
		"convert",           // operation
		"succeeded",         // status
		25*time.Millisecond, // duration
		"resize-lanczos",    // converter
	)

	// Record converter call metrics
	tel.Metrics.RecordConverterCall("resize-lanczos", "convert", 15*time.Millisecond)

	// Record error metrics
	tel.Metrics.RecordError("transient", "TIMEOUT")

	// Set converter registry gauges
	tel.Metrics.SetConvertersRegistered("builtin", "enabled", 10)
	tel.Metrics.SetConvertersRegistered("wasm", "enabled", 5)
	tel.Metrics.SetPluginHealth("resize-lanczos.wasm", "wasm", true)

	fmt.Println("Metrics recorded successfully")
	// Output: Metrics recorded successfully
}

// Example_eventPublishing demonstrates event publishing and subscription.
func Example_eventPublishing() {
	cfg := telemetry.DefaultConfig()
	cfg.Events.Enabled = true
	cfg.Events.EnableAsync = false // Synchronous for example

	tel, _ := telemetry.NewTelemetry(cfg)
	defer tel.Shutdown(context.Background())

	// Subscribe to events
	tel.Events.Subscribe(func(event telemetry.Event) {
		fmt.Printf("Event: %s - %s\n", event.Type, event.Message)
	}, nil) // No filter, receive all events

	// Publish events
	tel.Events.PublishJobStarted("job-123", "cli")
	tel.Events.PublishStepStarted("job-123", "step-1", "resize-lanczos", "convert")
	tel.Events.PublishStepCompleted("job-123", "step-1", "resize-lanczos", 25*time.Millisecond)

	// Output varies due to async nature, no output specified
}

// Example_jobInstrumentation demonstrates instrumenting a complete job.
func Example_jobInstrumentation() {
	cfg := telemetry.DevelopmentConfig()
	tel, _ := telemetry.NewTelemetry(cfg)
	defer tel.Shutdown(context.Background())

	ctx := tel.WithContext(context.Background())

	// Start job context
	jobID := "job-123"
	caller := "cli"
	ctx = telemetry.WithJobContext(ctx, jobID, caller)

	// Execute job (simulated)
	executeJob(ctx, jobID)

	// End job context
	telemetry.EndJobContext(ctx, jobID, "succeeded", nil)

	fmt.Println("Job instrumentation complete")
	// Output: Job instrumentation complete
}

func executeJob(ctx context.Context, jobID string) {
	// Simulate plan step execution
	stepID := "step-1"
	converterID := "resize-lanczos"
	operation := "convert"

	ctx = telemetry.WithStepContext(ctx, jobID, stepID, converterID, operation)

	// Get logger from context
	logger := telemetry.FromContext(ctx)
	logger.Info("Executing plan step")

	// Simulate work
	time.Sleep(10 * time.Millisecond)

	// End step context
	telemetry.EndStepContext(ctx, jobID, stepID, converterID, operation, "succeeded", nil)
}

// Example_converterInstrumentation demonstrates instrumenting converter calls.
func Example_converterInstrumentation() {
	cfg := telemetry.DevelopmentConfig()
	tel, _ := telemetry.NewTelemetry(cfg)
	defer tel.Shutdown(context.Background())

	ctx := tel.WithContext(context.Background())

	// Add converter context
	ctx = telemetry.WithConverterContext(ctx, "resize-lanczos", "1.0.0")

	// Record converter operation
	err := telemetry.RecordConverterOperation(ctx, "resize-lanczos", "convert", func() error {
		// Simulate converter work
		time.Sleep(15 * time.Millisecond)
		return nil
	})

	if err == nil {
		fmt.Println("Converter operation completed successfully")
	}

	// Output: Converter operation completed successfully
}

// Example_instrumentedOperation demonstrates using the InstrumentedContext helper.
func Example_instrumentedOperation() {
	cfg := telemetry.DevelopmentConfig()
	tel, _ := telemetry.NewTelemetry(cfg)
	defer tel.Shutdown(context.Background())

	ctx := tel.WithContext(context.Background())

	// Start instrumented operation
	ic := telemetry.StartOperation(ctx, "validate_config",
		attribute.String("config.path", "/etc/xmute/config.cue"),
	)
	defer ic.End(nil)

	// Use the instrumented context
	ic.Logger.Info("Validating configuration")

	// Simulate validation
	time.Sleep(5 * time.Millisecond)

	ic.Logger.Debug("Configuration validation complete")

	fmt.Println("Operation instrumentation complete")
	// Output: Operation instrumentation complete
}

// Example_eventFiltering demonstrates event filtering.
func Example_eventFiltering() {
	cfg := telemetry.DefaultConfig()
	cfg.Events.Enabled = true
	cfg.Events.EnableAsync = false

	tel, _ := telemetry.NewTelemetry(cfg)
	defer tel.Shutdown(context.Background())

	// Subscribe with level filter (only warnings and errors)
	tel.Events.Subscribe(func(event telemetry.Event) {
		fmt.Printf("Important event: %s\n", event.Type)
	}, telemetry.FilterByLevel(telemetry.EventLevelWarning))

	// Subscribe with type filter (only policy violations)
	tel.Events.Subscribe(func(event telemetry.Event) {
		fmt.Printf("Policy event: %s\n", event.Message)
	}, telemetry.FilterByType("policy.violation"))

	// Publish various events
	tel.Events.PublishJobStarted("job-123", "cli")                          // Info - filtered by level filter
	tel.Events.PublishPolicyViolation("job-123", "geometry-range", "quality out of range") // Error - passes level filter
	tel.Events.PublishJobFailed("job-123", "policy violation")              // Error - passes level filter

	// Output varies, no output specified
}

// Example_productionConfiguration demonstrates production-ready configuration.
func Example_productionConfiguration() {
	cfg := telemetry.ProductionConfig()

	// Customize for your environment
	cfg.ServiceName = "xmute"
	cfg.ServiceVersion = "1.2.3"
	cfg.Environment = "production"

	// Configure OTLP exporter
	cfg.Tracing.Exporter = "otlp"
	cfg.Tracing.Endpoint = "otel-collector.monitoring.svc.cluster.local:4317"
	cfg.Tracing.SamplingRate = 0.1 // 10% sampling
	cfg.Tracing.Insecure = false   // Use TLS in production

	// Configure metrics
	cfg.Metrics.ListenAddress = ":9090"
	cfg.Metrics.Namespace = "xmute"

	// Configure events
	cfg.Events.BufferSize = 10000
	cfg.Events.FlushInterval = 5 * time.Second

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	fmt.Println("Production configuration validated")
	// Output: Production configuration validated
}

// Example_errorRecording demonstrates error recording with proper classification.
func Example_errorRecording() {
	cfg := telemetry.DevelopmentConfig()
	tel, _ := telemetry.NewTelemetry(cfg)
	defer tel.Shutdown(context.Background())

	ctx := tel.WithContext(context.Background())

	// Start a span
	ctx, span := tel.Tracer.Start(ctx, "risky_operation")
	defer span.End()

	// Simulate an error
	err := fmt.Errorf("connection timeout")

	if err != nil {
		// Record error on span
		telemetry.RecordError(span, err)

		// Record error metric with classification
		tel.Metrics.RecordError("transient", "TIMEOUT")

		// Log error
		logger := telemetry.FromContext(ctx)
		logger.WithError(err).Error("Operation failed")
	}

	fmt.Println("Error recording complete")
	// Output: Error recording complete
}

// Example_multipleComponents demonstrates telemetry in a multi-component system.
func Example_multipleComponents() {
	cfg := telemetry.DevelopmentConfig()
	tel, _ := telemetry.NewTelemetry(cfg)
	defer tel.Shutdown(context.Background())

	// Component-specific loggers
	executorLogger := tel.Logger.NewComponentLogger("executor")
	plannerLogger := tel.Logger.NewComponentLogger("planner")
	pluginLogger := tel.Logger.NewComponentLogger("plugin")

	executorLogger.Info("Executor initialized")
	plannerLogger.Info("Building execution plan")
	pluginLogger.Info("Loading converter plugins")

	fmt.Println("Multi-component logging complete")
	// Output: Multi-component logging complete
}
