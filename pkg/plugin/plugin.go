// Package plugin loads converter plug-ins across a stable ABI boundary: a
// version check, an enumeration of ConverterDecls, and a convert(id,
// inputs, options) -> bytes-or-error entry point with explicit allocation
// ownership (the plug-in allocates outputs; the core releases them via a
// plug-in-supplied free function). Two backends implement the boundary —
// pkg/plugin/wasm (tetratelabs/wazero) and pkg/plugin/ipc (subprocess
// JSON-over-stdio) — behind the Loader interface defined here.
package plugin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xmute-dev/xmute/pkg/convert"
)

// ABIVersion is the version integer this host accepts from a plug-in.
// Plug-ins declaring a version outside [ABIMinVersion, ABIVersion] are
// rejected at load, per spec's PluginABI error kind.
const (
	ABIMinVersion = 1
	ABIVersion    = 1
)

// Loader loads one converter plug-in bundle (a manifest plus either a WASM
// module or a subprocess binary) and returns the Converters it exports,
// already wrapped to satisfy convert.Converter. Implementations live in
// pkg/plugin/wasm and pkg/plugin/ipc.
type Loader interface {
	// Load reads the bundle whose manifest file is at path and returns its
	// exported converters.
	Load(ctx context.Context, path string) ([]convert.Converter, error)

	// Close releases any resources (module instances, subprocesses) held by
	// converters this Loader has returned.
	Close(ctx context.Context) error
}

// Source is one entry in the discovery order: a bundle's manifest file
// paired with the Loader that understands its bundle kind.
type Source struct {
	Path   string
	Loader Loader
}

// Registry is a live collection of plug-in-sourced converters, keyed by
// converter id so that a later Source in discovery order overrides an
// earlier one's same-id registration, per spec §6 ("built-ins,
// $PLUGIN_PATH entries, per-user plug-in directory, project-local plug-in
// directory ... later overrides earlier").
type Registry struct {
	converters map[string]convert.Converter
	loaders    []Loader
}

// NewRegistry creates an empty plug-in registry.
func NewRegistry() *Registry {
	return &Registry{converters: make(map[string]convert.Converter)}
}

// LoadAll loads every source in order, overriding same-id converters as
// later sources are processed. A source that fails to load is reported but
// does not abort the remaining sources, mirroring the teacher's
// ScanDirectory behaviour of warning and continuing.
func (r *Registry) LoadAll(ctx context.Context, sources []Source) []error {
	var errs []error
	for _, src := range sources {
		converters, err := src.Loader.Load(ctx, src.Path)
		if err != nil {
			errs = append(errs, fmt.Errorf("plugin: load %s: %w", src.Path, err))
			continue
		}
		r.loaders = append(r.loaders, src.Loader)
		for _, c := range converters {
			r.converters[c.Decl().ID] = c
		}
	}
	return errs
}

// Put registers or overrides a single converter, used by the discovery
// watcher to hot-reload a changed manifest without a full LoadAll pass.
func (r *Registry) Put(c convert.Converter) {
	r.converters[c.Decl().ID] = c
}

// Converters returns every currently registered plug-in converter, sorted
// by id.
func (r *Registry) Converters() []convert.Converter {
	out := make([]convert.Converter, 0, len(r.converters))
	for _, c := range r.converters {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Decl().ID < out[j].Decl().ID })
	return out
}

// Close closes every Loader that contributed to this registry.
func (r *Registry) Close(ctx context.Context) error {
	var firstErr error
	for _, l := range r.loaders {
		if err := l.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DiscoverSources expands the fixed discovery order into a list of bundle
// paths a caller can pair with the appropriate Loader: built-ins (supplied
// by the caller, not discovered here), $PLUGIN_PATH entries (path-list
// separator delimited), a per-user plug-in directory, and a project-local
// plug-in directory. Each directory is scanned one level deep for
// subdirectories containing a manifest file named manifestName.
func DiscoverSources(pluginPathEnv, userDir, projectDir, manifestName string) []string {
	var dirs []string
	if pluginPathEnv != "" {
		dirs = append(dirs, filepath.SplitList(pluginPathEnv)...)
	}
	if userDir != "" {
		dirs = append(dirs, userDir)
	}
	if projectDir != "" {
		dirs = append(dirs, projectDir)
	}

	var bundles []string
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			manifestPath := filepath.Join(dir, e.Name(), manifestName)
			if _, err := os.Stat(manifestPath); err == nil {
				bundles = append(bundles, manifestPath)
			}
		}
	}
	return bundles
}

// backendForPath guesses which backend a manifest bundle targets from its
// declared entrypoint suffix, used by discover.go when wiring a hot-reload
// event back to the right Loader without re-parsing manifest semantics
// twice.
func backendForPath(entrypoint string) string {
	if strings.HasSuffix(entrypoint, ".wasm") {
		return "wasm"
	}
	return "ipc"
}
