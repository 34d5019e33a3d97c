// Package config provides CUE parsing of the conversion engine's own
// settings (EngineConfig) and a standalone Starlark evaluator.
//
// # Overview
//
// The config package loads an engine configuration from CUE files,
// directories, or inline content, validates it, and runs Starlark scripts
// on request. It never parses a workflow file.
//
// # Features
//
//   - CUE configuration parsing from files, directories, and inline content
//   - Validation through struct tags and a built-in CUE schema for the
//     engine configuration
//   - Starlark script execution, separate from CUE loading
//   - Type-safe configuration structures
//   - Error reporting with file locations and line numbers
//   - Configuration merging from multiple sources
//
// # Components
//
// CUEParser: Main parser for CUE configuration files. Load returns the
// decoded EngineConfig; Parse returns a ParsedConfig that also carries the
// source files and any validation errors.
//
// SchemaRegistry: Manages CUE schemas for validation. Registers one built-in
// schema, "engine", and supports custom schema registration.
//
// StarlarkEvaluator: Safe Starlark script execution with timeout enforcement and
// sandboxing. Provides built-in functions and type conversion between Go and Starlark.
//
// # Usage Example
//
//	// Create a new parser
//	parser := config.NewCUEParser()
//
//	// Load the engine configuration from CUE files
//	cfg, err := parser.Load(ctx, []string{"engine.cue"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Validate the decoded configuration
//	if err := parser.Validate(ctx, cfg); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Run a Starlark script; its top-level globals are returned
//	input := map[string]interface{}{"count": 5}
//	output, err := parser.EvaluateStarlark(ctx, script, input)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # CUE Configuration Structure
//
// The settings live under a top-level engine struct:
//
//	engine: {
//	    memory_limit_bytes:  1073741824
//	    default_parallelism: 4
//	    default_objective:   "quality"
//	    plugin_path: ["/opt/xmute/plugins"]
//	    telemetry: {
//	        log_level: "info"
//	    }
//	}
//
// # Starlark Integration
//
// Starlark scripts run through CUEParser.EvaluateStarlark, independently of
// any CUE source. A script's top-level globals become the returned map;
// dict values must have string keys:
//
//	widths = [w * 2 for w in range(count)]
//	by_name = {"w" + str(i): w for i, w in enumerate(widths)}
//
// # Schema Validation
//
// The built-in "engine" schema restates EngineConfig's validator tags in
// CUE (memory limit, parallelism, objective, plug-in path, policy, and
// telemetry fields). Custom schemas can be registered for other validation.
//
// # Error Handling
//
// Parsing and validation errors carry location information when CUE
// reports it:
//
//	ValidationError{
//	    File: "engine.cue",
//	    Line: 4,
//	    Column: 5,
//	    Path: "engine.default_objective",
//	    Message: "conflicting values",
//	    Severity: "error",
//	}
//
// # Security
//
// Starlark execution is sandboxed:
//   - No filesystem access
//   - No network access
//   - Timeout enforcement (default 30 seconds)
//   - Print statements suppressed
//   - Only safe built-in functions provided
//
// # Thread Safety
//
// All types in this package are safe for concurrent use.
package config
