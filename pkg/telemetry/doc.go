// Package telemetry provides comprehensive observability instrumentation for xmute.
//
// The telemetry package integrates structured logging (zerolog), distributed tracing
// (OpenTelemetry), metrics (Prometheus), and event publishing into a unified system
// for monitoring and debugging xmute's conversion jobs.
//
// # Architecture
//
// The telemetry system is built on four pillars:
//
//  1. Structured Logging - Context-aware logging with zerolog
//  2. Distributed Tracing - OpenTelemetry traces with multiple exporters
//  3. Metrics Collection - Prometheus metrics for operational insights
//  4. Event Publishing - Async event system for audit and notifications
//
// # Usage
//
// Initialize telemetry at application startup:
//
//	cfg := telemetry.DefaultConfig()
//	cfg.ServiceName = "xmute"
//	cfg.ServiceVersion = "1.0.0"
//
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(context.Background())
//
//	// Start metrics server
//	if err := tel.StartMetricsServer(); err != nil {
//	    log.Fatal(err)
//	}
//
// Add telemetry to context:
//
//	ctx = tel.WithContext(ctx)
//
// # Structured Logging
//
// The logger provides component-specific logging with automatic context propagation:
//
//	logger := tel.Logger.NewComponentLogger("executor")
//	logger = logger.WithJobID("job-123").WithStepID("step-2")
//	logger.Info("Starting plan step")
//	logger.WithError(err).Error("Step failed")
//
// Log levels: trace, debug, info, warn, error, fatal
//
// # Distributed Tracing
//
// Tracing provides visibility into request flow and performance:
//
//	ctx, span := tel.Tracer.Start(ctx, "operation.name")
//	defer span.End()
//
//	// Add attributes
//	span.SetAttributes(
//	    attribute.String("step.id", stepID),
//	    attribute.String("operation", "convert"),
//	)
//
//	// Record events
//	span.AddEvent("validation.complete")
//
//	// Record errors
//	if err != nil {
//	    telemetry.RecordError(span, err)
//	}
//
// Supported exporters: OTLP (production), Stdout (development), and none (no export)
//
// # Metrics
//
// Prometheus metrics track system behavior and performance:
//
//	// Record job execution
//	tel.Metrics.RecordJobStarted("cli")
//	tel.Metrics.RecordJobCompleted("succeeded", duration)
//
//	// Record plan step execution
//	tel.Metrics.RecordStepExecution("convert", "succeeded", duration, "resize-lanczos")
//
//	// Record converter calls
//	tel.Metrics.RecordConverterCall("resize-lanczos", "convert", duration)
//
//	// Record errors
//	tel.Metrics.RecordError("transient", "TIMEOUT")
//
// Metrics are exposed via HTTP at /metrics (default: :9090/metrics)
//
// # Event Publishing
//
// The event system provides async publishing with buffering and filtering:
//
//	// Publish events
//	tel.Events.PublishJobStarted(jobID, caller)
//	tel.Events.PublishStepCompleted(jobID, stepID, converterID, duration)
//	tel.Events.PublishPolicyViolation(jobID, policyName, reason)
//
//	// Subscribe to events
//	tel.Events.Subscribe(func(event telemetry.Event) {
//	    fmt.Printf("Event: %s - %s\n", event.Type, event.Message)
//	}, telemetry.FilterByLevel("warning"))
//
// Event filters: FilterByLevel, FilterByType, FilterByJobID, FilterByConverterID
//
// # Context Helpers
//
// High-level helpers simplify common instrumentation patterns:
//
//	// Instrument an operation
//	ic := telemetry.StartOperation(ctx, "plan.search",
//	    attribute.String("plan.id", planID))
//	defer ic.End(err)
//
//	ic.Logger.Info("Searching for a plan")
//
//	// Job context
//	ctx = telemetry.WithJobContext(ctx, jobID, caller)
//	defer telemetry.EndJobContext(ctx, jobID, status, err)
//
//	// Plan step context
//	ctx = telemetry.WithStepContext(ctx, jobID, stepID, converterID, operation)
//	defer telemetry.EndStepContext(ctx, jobID, stepID, converterID, operation, status, err)
//
//	// Converter call
//	err := telemetry.RecordConverterOperation(ctx, "resize-lanczos", "convert", func() error {
//	    return converter.Convert(ctx, input, props)
//	})
//
// # Configuration
//
// The package provides pre-configured setups for different environments:
//
//	// Development (verbose logging, stdout traces, full sampling)
//	cfg := telemetry.DevelopmentConfig()
//
//	// Production (JSON logs, OTLP traces, 10% sampling)
//	cfg := telemetry.ProductionConfig()
//
//	// Custom configuration
//	cfg := &telemetry.Config{
//	    ServiceName: "xmute",
//	    ServiceVersion: "1.0.0",
//	    Environment: "staging",
//	    Logging: telemetry.LoggingConfig{
//	        Level: "info",
//	        Format: "json",
//	    },
//	    Tracing: telemetry.TracingConfig{
//	        Enabled: true,
//	        Exporter: "otlp",
//	        Endpoint: "otel-collector:4317",
//	        SamplingRate: 0.1,
//	    },
//	    Metrics: telemetry.MetricsConfig{
//	        Enabled: true,
//	        ListenAddress: ":9090",
//	    },
//	}
//
// # Performance Considerations
//
// The telemetry system is designed for minimal overhead:
//
//  - Structured logging uses zerolog's zero-allocation approach
//  - Tracing uses sampling to reduce data volume in production
//  - Metrics use Prometheus's efficient storage format
//  - Events are buffered and batched to reduce I/O
//  - All operations are non-blocking when possible
//
// Typical overhead: <1% CPU, <10MB memory for moderate workloads
//
// # Graceful Shutdown
//
// Always shut down telemetry gracefully to flush pending data:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	defer cancel()
//
//	if err := tel.Shutdown(ctx); err != nil {
//	    log.Printf("Telemetry shutdown error: %v", err)
//	}
//
// This ensures:
//  - All buffered events are published
//  - All pending traces are exported
//  - Metrics are finalized
//
// # Integration with the xmute executor
//
// The helpers are named after xmute's units of work: jobs, plan steps,
// converter calls, loaded plug-ins, and policy violations. No other xmute
// package calls this one; the executors, the plug-in host, and the policy
// engine run without telemetry.
//
// # Exporters
//
// Tracing supports multiple exporters:
//
//  - "stdout": Print traces to stdout (development)
//  - "otlp": Export via OTLP/gRPC (production, works with collectors)
//  - "jaeger": accepted by Config.Validate, but NewTracer rejects it as an unsupported exporter
//  - "none": Generate traces but don't export (testing)
//
// Configure via TracingConfig.Exporter and TracingConfig.Endpoint
//
// # Common Metrics
//
// Key metrics exposed:
//
//  - xmute_jobs_started_total{caller}
//  - xmute_jobs_completed_total{status}
//  - xmute_job_duration_seconds{status}
//  - xmute_steps_executed_total{operation,status}
//  - xmute_step_duration_seconds{operation,converter}
//  - xmute_converter_calls_total{converter,operation}
//  - xmute_converter_call_duration_seconds{converter,operation}
//  - xmute_errors_by_class_total{class}
//  - xmute_plugin_health{plugin_id,kind}
//  - xmute_active_jobs
//
// # Best Practices
//
//  1. Always use context to propagate telemetry
//  2. Use component-specific loggers for clarity
//  3. Add meaningful attributes to spans
//  4. Record both success and failure metrics
//  5. Use appropriate log levels
//  6. Filter events to avoid overwhelming subscribers
//  7. Monitor telemetry overhead in production
//  8. Configure sampling for high-volume systems
//  9. Always call defer span.End() after starting a span
//  10. Shut down gracefully to avoid data loss
//
// # Security Considerations
//
//  - Never log sensitive data (credentials, keys, tokens)
//  - Use secure connections (TLS) for trace exporters in production
//  - Limit metrics endpoint access via network policies
//  - Consider event data before adding to audit logs
//
package telemetry
