package config

import "time"

// EngineConfig is the top-level configuration for a conversion engine
// instance: memory budget, default search knobs, where to discover
// plugins, and the ambient telemetry/policy settings.
type EngineConfig struct {
	// MemoryLimitBytes bounds the executor's concurrent in-flight byte
	// budget. Zero means unbounded.
	MemoryLimitBytes int64 `json:"memory_limit_bytes" validate:"gte=0"`

	// DefaultParallelism is how many jobs of a batch the executor runs
	// concurrently when a workflow doesn't specify its own.
	DefaultParallelism int `json:"default_parallelism" validate:"required,gte=1"`

	// DefaultObjective is the planner objective used when a request
	// doesn't specify one (cost, quality, or speed).
	DefaultObjective string `json:"default_objective" validate:"required,oneof=cost quality speed"`

	// PluginPath lists additional plugin search directories, in addition
	// to the built-in discovery order.
	PluginPath []string `json:"plugin_path,omitempty"`

	// Policy configures scope-boundary policy enforcement.
	Policy *PolicyPathsConfig `json:"policy,omitempty"`

	// Telemetry configures logging, tracing, and metrics.
	Telemetry *TelemetryConfig `json:"telemetry,omitempty"`
}

// PolicyPathsConfig configures where to load custom scope-boundary
// policies from.
type PolicyPathsConfig struct {
	// Enabled indicates whether policy enforcement is active.
	Enabled bool `json:"enabled"`

	// Paths lists custom policy file or directory paths.
	Paths []string `json:"paths,omitempty"`
}

// TelemetryConfig configures the ambient logging, tracing, and metrics
// stack.
type TelemetryConfig struct {
	// LogLevel is the minimum level logged (debug, info, warn, error).
	LogLevel string `json:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error"`

	// TracingEnabled turns on OpenTelemetry span emission.
	TracingEnabled bool `json:"tracing_enabled"`

	// TracingEndpoint is the OTLP collector endpoint. Empty means stdout.
	TracingEndpoint string `json:"tracing_endpoint,omitempty"`

	// MetricsAddr is the address the Prometheus handler listens on.
	MetricsAddr string `json:"metrics_addr,omitempty"`
}

// ParsedConfig is the result of parsing one or more CUE sources.
type ParsedConfig struct {
	// Engine is the decoded engine configuration.
	Engine EngineConfig `json:"engine"`

	// SourceFiles are the CUE files that contributed to this result.
	SourceFiles []string `json:"source_files"`

	// ParsedAt is when the configuration was parsed.
	ParsedAt time.Time `json:"parsed_at"`

	// Errors lists any validation errors encountered during parsing.
	Errors []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation failure with location
// information, when available.
type ValidationError struct {
	// File is the source file path.
	File string `json:"file,omitempty"`

	// Line is the line number (1-indexed).
	Line int `json:"line,omitempty"`

	// Column is the column number (1-indexed).
	Column int `json:"column,omitempty"`

	// Path is the CUE path to the error (e.g., "engine.default_objective").
	Path string `json:"path,omitempty"`

	// Message is the error message.
	Message string `json:"message"`

	// Severity is the error severity (error, warning, info).
	Severity string `json:"severity" validate:"required,oneof=error warning info"`
}

// ConfigSource represents a source of CUE configuration.
type ConfigSource struct {
	// Type is the source type (file, directory, inline).
	Type string `json:"type" validate:"required,oneof=file directory inline"`

	// Path is the file or directory path.
	Path string `json:"path,omitempty"`

	// Content is the inline CUE content.
	Content string `json:"content,omitempty"`
}

// StarlarkContext provides context for Starlark execution.
type StarlarkContext struct {
	// Input is the input data passed to Starlark.
	Input map[string]interface{} `json:"input,omitempty"`

	// Timeout is the execution timeout.
	Timeout time.Duration `json:"timeout"`

	// AllowedModules lists allowed Starlark modules.
	AllowedModules []string `json:"allowed_modules,omitempty"`
}

// StarlarkResult represents the result of Starlark execution.
type StarlarkResult struct {
	// Output is the output data from Starlark.
	Output map[string]interface{} `json:"output,omitempty"`

	// ExecutionTime is how long the script took to execute.
	ExecutionTime time.Duration `json:"execution_time"`

	// Error is any error that occurred.
	Error string `json:"error,omitempty"`
}
