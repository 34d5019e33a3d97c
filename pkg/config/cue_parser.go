package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"github.com/go-playground/validator/v10"
)

// CUEParser parses and validates engine configuration written in CUE.
type CUEParser struct {
	ctx              *cue.Context
	schemaRegistry   *SchemaRegistry
	starlarkEvaluator *StarlarkEvaluator
	validator        *validator.Validate
}

// NewCUEParser creates a new CUE parser.
func NewCUEParser() *CUEParser {
	return &CUEParser{
		ctx:              cuecontext.New(),
		schemaRegistry:   NewSchemaRegistry(),
		starlarkEvaluator: NewStarlarkEvaluator(30 * time.Second),
		validator:        validator.New(),
	}
}

// Load parses CUE configuration from the given sources and returns the
// decoded, validated engine configuration.
func (cp *CUEParser) Load(ctx context.Context, sources []string) (*EngineConfig, error) {
	parsed, err := cp.Parse(ctx, sources)
	if err != nil {
		return nil, err
	}
	if len(parsed.Errors) > 0 {
		return nil, fmt.Errorf("configuration has %d error(s): %v", len(parsed.Errors), parsed.Errors)
	}
	if err := cp.Validate(ctx, &parsed.Engine); err != nil {
		return nil, err
	}
	return &parsed.Engine, nil
}

// Validate validates a decoded EngineConfig against its struct tags.
func (cp *CUEParser) Validate(ctx context.Context, cfg *EngineConfig) error {
	if err := cp.validator.Struct(cfg); err != nil {
		return fmt.Errorf("engine config validation failed: %w", err)
	}
	return nil
}

// EvaluateStarlark executes a Starlark script for procedural configuration
// logic (the one escape hatch outside CUE's declarative model).
func (cp *CUEParser) EvaluateStarlark(ctx context.Context, script string, input map[string]interface{}) (map[string]interface{}, error) {
	result, err := cp.starlarkEvaluator.Evaluate(ctx, script, input)
	if err != nil {
		return nil, err
	}
	if result.Error != "" {
		return nil, fmt.Errorf("starlark error: %s", result.Error)
	}
	return result.Output, nil
}

// Parse parses CUE configuration from the given file or directory sources,
// unifying them into a single value before decoding.
func (cp *CUEParser) Parse(ctx context.Context, sources []string) (*ParsedConfig, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources provided")
	}

	var cueValue cue.Value
	var sourceFiles []string
	var parseErrors []ValidationError

	for _, source := range sources {
		info, err := os.Stat(source)
		if err != nil {
			return nil, fmt.Errorf("failed to stat source %s: %w", source, err)
		}

		if info.IsDir() {
			val, files, errs := cp.loadDirectory(source)
			if len(errs) > 0 {
				parseErrors = append(parseErrors, errs...)
			}
			if val.Exists() {
				if cueValue.Exists() {
					cueValue = cueValue.Unify(val)
				} else {
					cueValue = val
				}
			}
			sourceFiles = append(sourceFiles, files...)
		} else {
			val, errs := cp.loadFile(source)
			if len(errs) > 0 {
				parseErrors = append(parseErrors, errs...)
			}
			if val.Exists() {
				if cueValue.Exists() {
					cueValue = cueValue.Unify(val)
				} else {
					cueValue = val
				}
			}
			sourceFiles = append(sourceFiles, source)
		}
	}

	if len(parseErrors) > 0 {
		return &ParsedConfig{SourceFiles: sourceFiles, ParsedAt: time.Now(), Errors: parseErrors}, nil
	}

	if err := cueValue.Err(); err != nil {
		parseErrors = append(parseErrors, cp.convertCUEErrors(err)...)
		return &ParsedConfig{SourceFiles: sourceFiles, ParsedAt: time.Now(), Errors: parseErrors}, nil
	}

	return cp.extractConfig(cueValue, sourceFiles)
}

// loadDirectory loads a directory as a CUE package.
func (cp *CUEParser) loadDirectory(dir string) (cue.Value, []string, []ValidationError) {
	buildInstances := load.Instances([]string{dir}, nil)
	if len(buildInstances) == 0 {
		return cue.Value{}, nil, []ValidationError{{File: dir, Message: "no CUE files found", Severity: "error"}}
	}

	inst := buildInstances[0]
	if inst.Err != nil {
		return cue.Value{}, nil, cp.convertCUEErrors(inst.Err)
	}

	val := cp.ctx.BuildInstance(inst)
	if err := val.Err(); err != nil {
		return cue.Value{}, nil, cp.convertCUEErrors(err)
	}

	var files []string
	for _, file := range inst.Files {
		if file.Filename != "" {
			files = append(files, file.Filename)
		}
	}

	return val, files, nil
}

// loadFile loads a single CUE file.
func (cp *CUEParser) loadFile(path string) (cue.Value, []ValidationError) {
	content, err := os.ReadFile(path)
	if err != nil {
		return cue.Value{}, []ValidationError{{File: path, Message: fmt.Sprintf("failed to read file: %v", err), Severity: "error"}}
	}

	val := cp.ctx.CompileString(string(content), cue.Filename(path))
	if err := val.Err(); err != nil {
		return cue.Value{}, cp.convertCUEErrors(err)
	}

	return val, nil
}

// extractConfig extracts the "engine" struct from a unified CUE value.
func (cp *CUEParser) extractConfig(val cue.Value, sourceFiles []string) (*ParsedConfig, error) {
	parsed := &ParsedConfig{SourceFiles: sourceFiles, ParsedAt: time.Now()}

	engineVal := val.LookupPath(cue.ParsePath("engine"))
	if !engineVal.Exists() {
		parsed.Errors = append(parsed.Errors, ValidationError{
			Path:     "engine",
			Message:  "configuration must define an \"engine\" struct",
			Severity: "error",
		})
		return parsed, nil
	}

	var cfg EngineConfig
	if err := engineVal.Decode(&cfg); err != nil {
		parsed.Errors = append(parsed.Errors, ValidationError{
			Path:     "engine",
			Message:  fmt.Sprintf("failed to decode engine config: %v", err),
			Severity: "error",
		})
		return parsed, nil
	}

	parsed.Engine = cfg
	return parsed, nil
}

// convertCUEErrors converts CUE errors to a ValidationError slice.
func (cp *CUEParser) convertCUEErrors(err error) []ValidationError {
	var out []ValidationError

	for _, e := range errors.Errors(err) {
		pos := errors.Positions(e)
		var file string
		var line, column int

		if len(pos) > 0 {
			file = pos[0].Filename()
			line = pos[0].Line()
			column = pos[0].Column()
		}

		out = append(out, ValidationError{
			File:     file,
			Line:     line,
			Column:   column,
			Message:  errors.Details(e, nil),
			Severity: "error",
		})
	}

	return out
}

// ParseInline parses inline CUE content.
func (cp *CUEParser) ParseInline(ctx context.Context, content string) (*ParsedConfig, error) {
	val := cp.ctx.CompileString(content)
	if err := val.Err(); err != nil {
		return &ParsedConfig{SourceFiles: []string{"inline"}, ParsedAt: time.Now(), Errors: cp.convertCUEErrors(err)}, nil
	}

	return cp.extractConfig(val, []string{"inline"})
}

// ValidateWithSchema validates arbitrary data against a named registered schema.
func (cp *CUEParser) ValidateWithSchema(ctx context.Context, data interface{}, schemaName string) error {
	return cp.schemaRegistry.ValidateAgainstSchema(ctx, schemaName, data)
}

// GetSchemaRegistry returns the schema registry.
func (cp *CUEParser) GetSchemaRegistry() *SchemaRegistry {
	return cp.schemaRegistry
}

// ExtractValue extracts a specific path from a CUE configuration.
func (cp *CUEParser) ExtractValue(val cue.Value, path string) (interface{}, error) {
	v := val.LookupPath(cue.ParsePath(path))
	if !v.Exists() {
		return nil, fmt.Errorf("path %s not found", path)
	}

	var result interface{}
	if err := v.Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode value at %s: %w", path, err)
	}

	return result, nil
}

// MergeValues merges two CUE values.
func (cp *CUEParser) MergeValues(val1, val2 cue.Value) (cue.Value, error) {
	merged := val1.Unify(val2)
	if err := merged.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("failed to merge values: %w", err)
	}
	return merged, nil
}

// ExportJSON exports a CUE value to JSON.
func (cp *CUEParser) ExportJSON(val cue.Value) ([]byte, error) {
	var data interface{}
	if err := val.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode value: %w", err)
	}
	return json.MarshalIndent(data, "", "  ")
}

// LoadFromDirectory lists all .cue files under a directory.
func (cp *CUEParser) LoadFromDirectory(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, ".cue") {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	return files, nil
}
