package wasm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/xmute-dev/xmute/pkg/convert"
	"github.com/xmute-dev/xmute/pkg/graph"
	"github.com/xmute-dev/xmute/pkg/plugin"
)

// DefaultTimeout bounds a single xmute_convert call, mirroring the
// teacher's per-operation WASM timeout.
const DefaultTimeout = 30 * time.Second

// Loader implements pkg/plugin.Loader for WASM-compiled converter
// plug-ins. One Loader owns one wazero runtime shared by every module it
// instantiates, closed together on Close.
type Loader struct {
	runtime wazero.Runtime
	timeout time.Duration

	mu      sync.Mutex
	bridges []*bridge
}

// NewLoader creates a Loader with its own wazero runtime and WASI host
// module instantiated, ready to load converter bundles.
func NewLoader(ctx context.Context) (*Loader, error) {
	rt := wazero.NewRuntime(ctx)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("wasm: instantiate wasi: %w", err)
	}
	return &Loader{runtime: rt, timeout: DefaultTimeout}, nil
}

// Load reads the manifest at path, verifies its checksum and ABI version,
// compiles and instantiates the referenced WASM module, and returns one
// convert.Converter per declared converter, all sharing the module
// instance.
func (l *Loader) Load(ctx context.Context, path string) ([]convert.Converter, error) {
	m, err := plugin.LoadManifestFile(path)
	if err != nil {
		return nil, err
	}

	wasmBytes, err := os.ReadFile(m.EntrypointPath())
	if err != nil {
		return nil, convert.NewPluginABI("failed to read wasm module", err)
	}
	if err := m.VerifyChecksum(wasmBytes); err != nil {
		return nil, err
	}

	compiled, err := l.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, convert.NewPluginABI("failed to compile wasm module", err)
	}

	cfg := wazero.NewModuleConfig().WithName(m.Metadata.Name)
	instance, err := l.runtime.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		return nil, convert.NewPluginABI("failed to instantiate wasm module", err)
	}

	br, err := newBridge(instance, l.timeout)
	if err != nil {
		instance.Close(ctx)
		return nil, convert.NewPluginABI(err.Error(), err)
	}

	version, err := br.abiVersion(ctx)
	if err != nil {
		instance.Close(ctx)
		return nil, convert.NewPluginABI("failed to read plug-in abi version", err)
	}
	if int(version) < plugin.ABIMinVersion || int(version) > plugin.ABIVersion {
		instance.Close(ctx)
		return nil, convert.NewPluginABI(
			fmt.Sprintf("plug-in abi version %d outside supported range [%d, %d]", version, plugin.ABIMinVersion, plugin.ABIVersion), nil)
	}

	l.mu.Lock()
	l.bridges = append(l.bridges, br)
	l.mu.Unlock()

	decls := m.Decls()
	converters := make([]convert.Converter, 0, len(decls))
	for _, decl := range decls {
		converters = append(converters, &wasmConverter{decl: decl, bridge: br})
	}
	return converters, nil
}

// Close closes the wazero runtime and every module instance it holds.
func (l *Loader) Close(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var firstErr error
	for _, br := range l.bridges {
		if err := br.close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := l.runtime.Close(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// wasmConverter adapts one manifest-declared converter to convert.Converter
// by JSON-encoding a single call across the shared bridge.
type wasmConverter struct {
	decl   *convert.ConverterDecl
	bridge *bridge
}

func (w *wasmConverter) Decl() *convert.ConverterDecl { return w.decl }

// wireInputs/wireOutputs are the JSON envelope exchanged with the plug-in:
// PortValue's exported fields round-trip through graph.Value's own JSON
// codec, so no separate wire type is needed for Properties.
type wirePortValue struct {
	Item  *wireItem  `json:"item,omitempty"`
	Items []wireItem `json:"items,omitempty"`
	List  bool       `json:"list"`
}

type wireItem struct {
	Bytes      []byte           `json:"bytes"`
	Properties graph.Properties `json:"properties"`
}

func toWire(pv convert.PortValue) wirePortValue {
	if pv.List {
		items := make([]wireItem, len(pv.Items))
		for i, it := range pv.Items {
			items[i] = wireItem{Bytes: it.Bytes, Properties: it.Properties}
		}
		return wirePortValue{Items: items, List: true}
	}
	return wirePortValue{Item: &wireItem{Bytes: pv.Item.Bytes, Properties: pv.Item.Properties}}
}

func fromWire(w wirePortValue) convert.PortValue {
	if w.List {
		items := make([]convert.Item, len(w.Items))
		for i, it := range w.Items {
			items[i] = convert.Item{Bytes: it.Bytes, Properties: it.Properties}
		}
		return convert.Batch(items)
	}
	if w.Item == nil {
		return convert.PortValue{}
	}
	return convert.Single(convert.Item{Bytes: w.Item.Bytes, Properties: w.Item.Properties})
}

type wireErrorResponse struct {
	Error string `json:"error"`
}

func (w *wasmConverter) Convert(ctx context.Context, inputs convert.Inputs, options graph.Properties) (convert.Outputs, error) {
	wireIn := make(map[string]wirePortValue, len(inputs))
	for port, pv := range inputs {
		wireIn[port] = toWire(pv)
	}
	inputsJSON, err := json.Marshal(wireIn)
	if err != nil {
		return nil, convert.NewInternal("failed to marshal inputs for plug-in call", err).WithConverterID(w.decl.ID)
	}
	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return nil, convert.NewInternal("failed to marshal options for plug-in call", err).WithConverterID(w.decl.ID)
	}

	outBytes, err := w.bridge.convert(ctx, w.decl.ID, inputsJSON, optionsJSON)
	if err != nil {
		diag := w.bridge.diagnostic(ctx)
		msg := err.Error()
		if diag != "" {
			msg = diag
		}
		return nil, convert.NewPluginABI(msg, err).WithConverterID(w.decl.ID)
	}

	var errResp wireErrorResponse
	if json.Unmarshal(outBytes, &errResp) == nil && errResp.Error != "" {
		return nil, convert.NewInvalidInput(errResp.Error, nil).WithConverterID(w.decl.ID)
	}

	var wireOut map[string]wirePortValue
	if err := json.Unmarshal(outBytes, &wireOut); err != nil {
		return nil, convert.NewInternal("failed to unmarshal plug-in output", err).WithConverterID(w.decl.ID)
	}
	outputs := make(convert.Outputs, len(wireOut))
	for port, wv := range wireOut {
		outputs[port] = fromWire(wv)
	}
	return outputs, nil
}
