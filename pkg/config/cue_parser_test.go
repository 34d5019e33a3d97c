package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestCUEParser_ParseInline(t *testing.T) {
	parser := NewCUEParser()
	ctx := context.Background()

	tests := []struct {
		name      string
		content   string
		wantErr   bool
		checkFunc func(*testing.T, *ParsedConfig)
	}{
		{
			name: "valid simple config",
			content: `
engine: {
	memory_limit_bytes:  1073741824
	default_parallelism: 4
	default_objective:   "quality"
}
`,
			wantErr: false,
			checkFunc: func(t *testing.T, pc *ParsedConfig) {
				if pc.Engine.DefaultParallelism != 4 {
					t.Errorf("expected default_parallelism 4, got %d", pc.Engine.DefaultParallelism)
				}
				if pc.Engine.DefaultObjective != "quality" {
					t.Errorf("expected default_objective 'quality', got %s", pc.Engine.DefaultObjective)
				}
			},
		},
		{
			name: "invalid CUE syntax",
			content: `
engine: {
	default_parallelism: 4
	invalid syntax here
}
`,
			wantErr: true,
		},
		{
			name:    "missing engine struct",
			content: `workspace_name: "orphan"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc, err := parser.ParseInline(ctx, tt.content)

			if tt.wantErr {
				if err == nil && len(pc.Errors) == 0 {
					t.Errorf("expected error, got none")
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				if len(pc.Errors) > 0 {
					t.Errorf("unexpected validation errors: %v", pc.Errors)
				}
				if tt.checkFunc != nil {
					tt.checkFunc(t, pc)
				}
			}
		})
	}
}

func TestCUEParser_ParseFile(t *testing.T) {
	parser := NewCUEParser()
	ctx := context.Background()

	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.cue")

	content := `
engine: {
	memory_limit_bytes:  536870912
	default_parallelism: 2
	default_objective:   "cost"
	plugin_path: ["/opt/xmute/plugins"]
}
`

	if err := os.WriteFile(testFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	pc, err := parser.Parse(ctx, []string{testFile})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pc.Errors) > 0 {
		t.Fatalf("unexpected validation errors: %v", pc.Errors)
	}

	if pc.Engine.DefaultObjective != "cost" {
		t.Errorf("expected default_objective 'cost', got %s", pc.Engine.DefaultObjective)
	}
	if len(pc.Engine.PluginPath) != 1 || pc.Engine.PluginPath[0] != "/opt/xmute/plugins" {
		t.Errorf("unexpected plugin_path: %v", pc.Engine.PluginPath)
	}
}

func TestCUEParser_Load(t *testing.T) {
	parser := NewCUEParser()
	ctx := context.Background()

	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "config.cue")

	content := `
engine: {
	memory_limit_bytes:  268435456
	default_parallelism: 8
	default_objective:   "speed"
	policy: {
		enabled: true
		paths: ["/etc/xmute/policies"]
	}
	telemetry: {
		log_level: "info"
		tracing_enabled: true
	}
}
`

	if err := os.WriteFile(testFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	cfg, err := parser.Load(ctx, []string{testFile})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected non-nil config")
	}
	if cfg.DefaultParallelism != 8 {
		t.Errorf("expected default_parallelism 8, got %d", cfg.DefaultParallelism)
	}
	if cfg.Policy == nil || !cfg.Policy.Enabled {
		t.Error("expected policy.enabled to be true")
	}
	if cfg.Telemetry == nil || cfg.Telemetry.LogLevel != "info" {
		t.Errorf("unexpected telemetry config: %+v", cfg.Telemetry)
	}
}

func TestCUEParser_Load_RejectsInvalidObjective(t *testing.T) {
	parser := NewCUEParser()
	ctx := context.Background()

	content := `
engine: {
	memory_limit_bytes:  0
	default_parallelism: 1
	default_objective:   "fastest-possible"
}
`

	_, err := parser.Load(ctx, []string{writeTempCUE(t, content)})
	if err == nil {
		t.Fatal("expected an error for an out-of-enum default_objective")
	}
}

func writeTempCUE(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.cue")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp CUE file: %v", err)
	}
	return path
}
