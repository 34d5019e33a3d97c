package config

import (
	"context"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// SchemaRegistry manages CUE schemas used to validate configuration values
// beyond what struct tags can express.
type SchemaRegistry struct {
	ctx     *cue.Context
	schemas map[string]cue.Value
	mu      sync.RWMutex
}

// NewSchemaRegistry creates a new schema registry with the built-in schema
// registered.
func NewSchemaRegistry() *SchemaRegistry {
	ctx := cuecontext.New()
	sr := &SchemaRegistry{
		ctx:     ctx,
		schemas: make(map[string]cue.Value),
	}

	sr.registerBuiltInSchemas()

	return sr
}

// registerBuiltInSchemas registers all built-in schemas.
func (sr *SchemaRegistry) registerBuiltInSchemas() {
	sr.RegisterSchema("engine", builtinEngineSchema)
}

// RegisterSchema registers a CUE schema with the given name.
func (sr *SchemaRegistry) RegisterSchema(name, schema string) error {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	val := sr.ctx.CompileString(schema)
	if err := val.Err(); err != nil {
		return fmt.Errorf("failed to compile schema %s: %w", name, err)
	}

	sr.schemas[name] = val
	return nil
}

// GetSchema retrieves a schema by name.
func (sr *SchemaRegistry) GetSchema(name string) (cue.Value, bool) {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	val, ok := sr.schemas[name]
	return val, ok
}

// ValidateAgainstSchema validates data against a named schema.
func (sr *SchemaRegistry) ValidateAgainstSchema(ctx context.Context, schemaName string, data interface{}) error {
	schema, ok := sr.GetSchema(schemaName)
	if !ok {
		return fmt.Errorf("schema %s not found", schemaName)
	}

	dataVal := sr.ctx.Encode(data)
	if err := dataVal.Err(); err != nil {
		return fmt.Errorf("failed to encode data: %w", err)
	}

	unified := schema.Unify(dataVal)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return nil
}

// ListSchemas returns all registered schema names.
func (sr *SchemaRegistry) ListSchemas() []string {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	names := make([]string, 0, len(sr.schemas))
	for name := range sr.schemas {
		names = append(names, name)
	}
	return names
}

// builtinEngineSchema mirrors EngineConfig's validator tags in CUE, for
// configurations that want schema-level feedback before decoding.
const builtinEngineSchema = `
#EngineConfig: {
	memory_limit_bytes:   int & >=0
	default_parallelism:  int & >=1
	default_objective:    "cost" | "quality" | "speed"
	plugin_path?: [...string]

	policy?: {
		enabled: bool
		paths?: [...string]
	}

	telemetry?: {
		log_level?:       "debug" | "info" | "warn" | "error"
		tracing_enabled?: bool
		tracing_endpoint?: string
		metrics_addr?:    string
	}
}
`

// ValidateEngineConfig validates a decoded EngineConfig against the
// built-in CUE schema, in addition to the struct-tag validation CUEParser
// already runs.
func (sr *SchemaRegistry) ValidateEngineConfig(ctx context.Context, cfg EngineConfig) error {
	schema, ok := sr.GetSchema("engine")
	if !ok {
		return fmt.Errorf("schema engine not found")
	}
	dataVal := sr.ctx.Encode(cfg)
	if err := dataVal.Err(); err != nil {
		return fmt.Errorf("failed to encode data: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#EngineConfig"))
	if err := def.Unify(dataVal).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}
