package plugin

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/xmute-dev/xmute/pkg/convert"
)

const manifestFileName = "manifest.yaml"

// Watcher watches the per-user and project-local plug-in directories named
// in spec §6's discovery order and hot-reloads a bundle's converters into a
// Registry when its manifest file changes, grounded on the teacher's
// policy.Loader directory watch (an fsnotify.Watcher feeding a reload on
// Write/Create events, logged via zerolog).
type Watcher struct {
	registry *Registry
	wasm     Loader
	ipc      Loader
	watcher  *fsnotify.Watcher
	logger   zerolog.Logger
	done     chan struct{}
}

// NewWatcher creates a Watcher that dispatches hot-reloaded bundles to
// wasmLoader or ipcLoader depending on the manifest's declared entrypoint
// suffix.
func NewWatcher(registry *Registry, wasmLoader, ipcLoader Loader, logger zerolog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		registry: registry,
		wasm:     wasmLoader,
		ipc:      ipcLoader,
		watcher:  fw,
		logger:   logger.With().Str("component", "plugin-watcher").Logger(),
		done:     make(chan struct{}),
	}, nil
}

// WatchDirs adds dirs to the watch set. Each directory is expected to
// contain one subdirectory per plug-in bundle.
func (w *Watcher) WatchDirs(dirs ...string) error {
	for _, dir := range dirs {
		if err := w.watcher.Add(dir); err != nil {
			return err
		}
	}
	return nil
}

// Run processes filesystem events until ctx is cancelled or Stop is called.
// Intended to run in its own goroutine.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != manifestFileName {
				continue
			}
			if !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			w.reload(ctx, ev.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("plugin watcher error")
		}
	}
}

func (w *Watcher) reload(ctx context.Context, manifestPath string) {
	m, err := LoadManifestFile(manifestPath)
	if err != nil {
		w.logger.Warn().Err(err).Str("path", manifestPath).Msg("failed to reload plugin manifest")
		return
	}

	loader := w.ipc
	if backendForPath(m.Entrypoint) == "wasm" {
		loader = w.wasm
	}
	if loader == nil {
		w.logger.Warn().Str("path", manifestPath).Msg("no loader registered for backend")
		return
	}

	converters, err := loader.Load(ctx, manifestPath)
	if err != nil {
		w.logger.Warn().Err(err).Str("path", manifestPath).Msg("failed to reload plugin bundle")
		return
	}
	for _, c := range converters {
		w.registry.Put(c)
	}
	w.logger.Info().Str("path", manifestPath).Int("converters", len(converters)).Msg("reloaded plugin bundle")
}

// Stop halts Run and closes the underlying fsnotify watcher.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.watcher.Close()
}

// errUnsupportedBackend reports a manifest whose entrypoint suffix matches
// neither a WASM module nor a recognised subprocess binary convention.
var errUnsupportedBackend = convert.NewPluginABI("manifest entrypoint does not match a known backend", nil)
