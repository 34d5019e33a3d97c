package plugin

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/xmute-dev/xmute/pkg/convert"
	"github.com/xmute-dev/xmute/pkg/graph"
)

// Manifest is a plug-in bundle's YAML descriptor: identity, the backend
// entrypoint (a WASM module path or a subprocess binary path), an optional
// checksum, the host capabilities the bundle requests, and the converters
// it exports. Grounded on the teacher's host.Manifest/ManifestLoader, which
// parses a provider manifest the same way (YAML, checksum-verified,
// resolved relative to the manifest's own directory).
type Manifest struct {
	Metadata struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"metadata"`
	ABIVersion   int               `yaml:"abi_version"`
	Entrypoint   string            `yaml:"entrypoint"`
	Checksum     string            `yaml:"checksum"`
	Capabilities []string          `yaml:"capabilities"`
	Converters   []ManifestConverter `yaml:"converters"`

	// dir is the directory the manifest file was loaded from, used to
	// resolve Entrypoint when it is a relative path.
	dir string
}

// ManifestConverter is one converter's wire declaration: a simplified port
// schema restricted to format-equality and list-cardinality constraints,
// the wire-representable subset of graph.PropertyPattern. Plug-ins needing
// richer patterns (ranges, prefixes) are out of scope for the manifest
// format and register built-in, in-process instead.
type ManifestConverter struct {
	ID           string                `yaml:"id"`
	Inputs       map[string]WirePort   `yaml:"inputs"`
	Outputs      map[string]WirePort   `yaml:"outputs"`
	Produces     map[string]string     `yaml:"produces"`
	Preserves    []string              `yaml:"preserves"`
	Removes      []string              `yaml:"removes"`
	Costs        map[string]float64    `yaml:"costs"`
	DeriveOption map[string]string     `yaml:"derive_option"`
	ThreadSafe   bool                  `yaml:"thread_safe"`
}

// WirePort is a manifest port: an optional required "format" value and a
// list flag.
type WirePort struct {
	Format string `yaml:"format"`
	List   bool   `yaml:"list"`
}

func (p WirePort) toPort() graph.Port {
	pattern := graph.PropertyPattern{}
	if p.Format != "" {
		pattern["format"] = graph.Exact(graph.String(p.Format))
	}
	return graph.Port{Pattern: pattern, List: p.List}
}

// LoadManifestFile parses the manifest at path and resolves Entrypoint
// relative to path's directory when it isn't absolute.
func LoadManifestFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("plugin: read manifest: %w", err)
	}
	m, err := LoadManifestBytes(data)
	if err != nil {
		return nil, err
	}
	m.dir = filepath.Dir(path)
	return m, nil
}

// LoadManifestBytes parses manifest YAML already in memory.
func LoadManifestBytes(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, convert.NewPluginABI("invalid manifest yaml", err)
	}
	if m.Metadata.Name == "" {
		return nil, convert.NewPluginABI("manifest missing metadata.name", nil)
	}
	if m.Entrypoint == "" {
		return nil, convert.NewPluginABI("manifest missing entrypoint", nil)
	}
	if m.ABIVersion == 0 {
		m.ABIVersion = ABIVersion
	}
	if m.ABIVersion < ABIMinVersion || m.ABIVersion > ABIVersion {
		return nil, convert.NewPluginABI(
			fmt.Sprintf("unsupported abi_version %d (supported range [%d, %d])", m.ABIVersion, ABIMinVersion, ABIVersion), nil)
	}
	if len(m.Converters) == 0 {
		return nil, convert.NewPluginABI("manifest declares no converters", nil)
	}
	return &m, nil
}

// EntrypointPath resolves Entrypoint to an absolute path, relative to the
// manifest's own directory when not already absolute.
func (m *Manifest) EntrypointPath() string {
	if filepath.IsAbs(m.Entrypoint) {
		return m.Entrypoint
	}
	return filepath.Join(m.dir, m.Entrypoint)
}

// VerifyChecksum checks data's SHA-256 digest against Checksum, a
// "sha256:<hex>" string. A manifest with an empty Checksum skips
// verification, matching the teacher's "verify checksum if provided".
func (m *Manifest) VerifyChecksum(data []byte) error {
	if m.Checksum == "" {
		return nil
	}
	want := strings.TrimPrefix(m.Checksum, "sha256:")
	sum := sha256.Sum256(data)
	got := hex.EncodeToString(sum[:])
	if !strings.EqualFold(want, got) {
		return convert.NewPluginABI(fmt.Sprintf("checksum mismatch: want %s, got %s", want, got), nil)
	}
	return nil
}

// Decls converts every ManifestConverter into a *convert.ConverterDecl.
func (m *Manifest) Decls() []*convert.ConverterDecl {
	out := make([]*convert.ConverterDecl, 0, len(m.Converters))
	for _, mc := range m.Converters {
		out = append(out, mc.toDecl())
	}
	return out
}

func (mc ManifestConverter) toDecl() *convert.ConverterDecl {
	inputs := make(map[string]graph.Port, len(mc.Inputs))
	for name, p := range mc.Inputs {
		inputs[name] = p.toPort()
	}
	outputs := make(map[string]graph.Port, len(mc.Outputs))
	for name, p := range mc.Outputs {
		outputs[name] = p.toPort()
	}
	produces := graph.Properties{}
	for k, v := range mc.Produces {
		produces[k] = graph.String(v)
	}
	costs := graph.Properties{}
	for k, v := range mc.Costs {
		costs[k] = graph.Float(v)
	}
	return &convert.ConverterDecl{
		ID:           mc.ID,
		Inputs:       inputs,
		Outputs:      outputs,
		Produces:     produces,
		Preserves:    mc.Preserves,
		Removes:      mc.Removes,
		Costs:        costs,
		DeriveOption: mc.DeriveOption,
		Capabilities: nil,
		ThreadSafe:   mc.ThreadSafe,
	}
}
