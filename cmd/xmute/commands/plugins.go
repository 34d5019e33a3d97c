package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	xplugin "github.com/xmute-dev/xmute/pkg/plugin"
	"github.com/xmute-dev/xmute/pkg/plugin/ipc"
	"github.com/xmute-dev/xmute/pkg/plugin/wasm"
	"github.com/xmute-dev/xmute/pkg/registry"
)

const manifestFileName = "manifest.yaml"

// loadPlugins runs the fixed discovery order (spec §6: built-ins, then
// $PLUGIN_PATH entries, per-user dir, project-local dir, later overriding
// earlier) and returns a populated plug-in registry plus every error met
// while loading; the registry's Close releases the loaders it used.
func loadPlugins(ctx context.Context) (*xplugin.Registry, []error) {
	wasmLoader, err := wasm.NewLoader(ctx)
	if err != nil {
		return nil, []error{fmt.Errorf("plugins: start wasm runtime: %w", err)}
	}
	ipcLoader := ipc.NewLoader()

	userDir, _ := os.UserConfigDir()
	if userDir != "" {
		userDir = filepath.Join(userDir, "xmute", "plugins")
	}
	projectDir := filepath.Join(".", ".xmute", "plugins")

	bundlePaths := xplugin.DiscoverSources(pluginPath, userDir, projectDir, manifestFileName)

	reg := xplugin.NewRegistry()
	var sources []xplugin.Source
	for _, path := range bundlePaths {
		m, err := xplugin.LoadManifestFile(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("skipping unreadable plugin manifest")
			continue
		}
		var loader xplugin.Loader = ipcLoader
		if strings.HasSuffix(m.Entrypoint, ".wasm") {
			loader = wasmLoader
		}
		sources = append(sources, xplugin.Source{Path: path, Loader: loader})
	}

	errs := reg.LoadAll(ctx, sources)
	return reg, errs
}

func newPluginsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "Manage converter plug-ins",
	}
	cmd.AddCommand(newPluginsListCommand())
	return cmd
}

func newPluginsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List discovered converter plug-ins and register them",
		Long: `Runs plug-in discovery (built-ins, $PLUGIN_PATH, per-user directory,
project-local directory, later overriding earlier) and prints every
converter each loaded bundle exports.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			reg, errs := loadPlugins(ctx)
			for _, e := range errs {
				log.Warn().Err(e).Msg("plugin load error")
			}
			defer reg.Close(ctx)

			converters := reg.Converters()
			if len(converters) == 0 {
				fmt.Println("No converters discovered.")
				return nil
			}
			for _, c := range converters {
				decl := c.Decl()
				fmt.Printf("%s  inputs=%d outputs=%d capabilities=%v\n",
					decl.ID, len(decl.Inputs), len(decl.Outputs), decl.Capabilities)
			}
			return nil
		},
	}
}

// buildRegistry loads discovered plug-ins into a pkg/registry.Registry ready
// for the planner and executor. The returned closer releases the underlying
// plug-in loaders (WASM module instances, IPC subprocesses) and must be
// called once the registry is no longer needed.
func buildRegistry(ctx context.Context) (*registry.Registry, func(), error) {
	plugins, errs := loadPlugins(ctx)
	for _, e := range errs {
		log.Warn().Err(e).Msg("plugin load error")
	}

	reg := registry.New()
	for _, c := range plugins.Converters() {
		if err := reg.Register(c); err != nil {
			log.Warn().Err(err).Str("converter", c.Decl().ID).Msg("skipping converter")
		}
	}
	closer := func() { _ = plugins.Close(ctx) }
	return reg, closer, nil
}
