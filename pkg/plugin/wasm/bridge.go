// Package wasm is a pkg/plugin.Loader backend that loads converter
// plug-ins compiled to WebAssembly and run through tetratelabs/wazero.
// Grounded on the teacher's pkg/providers/host.WASMBridge: exported
// malloc/free functions carry the memory-ownership contract (the plug-in
// allocates outputs; the host frees them), and a packed-uint64 return
// value ((ptr << 32) | len) hands a function's output buffer back across
// the boundary.
package wasm

import (
	"context"
	"fmt"
	"time"

	"github.com/tetratelabs/wazero/api"
)

// bridge wraps one instantiated WASM module exporting the converter ABI:
// a version integer, a convert(id, inputs, options) entry point, and an
// optional last_error diagnostic function.
type bridge struct {
	module api.Module
	memory api.Memory

	malloc    api.Function
	free      api.Function
	version   api.Function
	convertFn api.Function
	lastError api.Function // optional

	timeout time.Duration
}

func newBridge(module api.Module, timeout time.Duration) (*bridge, error) {
	b := &bridge{module: module, timeout: timeout}

	b.memory = module.Memory()
	if b.memory == nil {
		return nil, fmt.Errorf("wasm module does not export memory")
	}

	b.malloc = module.ExportedFunction("malloc")
	if b.malloc == nil {
		return nil, fmt.Errorf("wasm module does not export malloc")
	}
	b.free = module.ExportedFunction("free")
	if b.free == nil {
		return nil, fmt.Errorf("wasm module does not export free")
	}
	b.version = module.ExportedFunction("xmute_abi_version")
	if b.version == nil {
		return nil, fmt.Errorf("wasm module does not export xmute_abi_version")
	}
	b.convertFn = module.ExportedFunction("xmute_convert")
	if b.convertFn == nil {
		return nil, fmt.Errorf("wasm module does not export xmute_convert")
	}
	b.lastError = module.ExportedFunction("xmute_last_error") // optional, may be nil

	return b, nil
}

// abiVersion calls the module's version export. The loader checks it right
// after newBridge has resolved the exports, matching the teacher's
// manifest-then-module load order: a version mismatch is rejected before a
// single converter call is ever attempted.
func (b *bridge) abiVersion(ctx context.Context) (int32, error) {
	results, err := b.version.Call(ctx)
	if err != nil {
		return 0, fmt.Errorf("xmute_abi_version call failed: %w", err)
	}
	if len(results) == 0 {
		return 0, fmt.Errorf("xmute_abi_version returned no results")
	}
	return int32(results[0]), nil
}

// convert invokes the module's convert entry point with JSON-encoded
// (id, inputs, options) and returns the JSON-encoded outputs-or-error the
// plug-in produced. The plug-in allocates the returned buffer; convert
// frees it via the module's free export once read into the host's own
// memory, mirroring callWASMFunction's read-then-deallocate sequence.
func (b *bridge) convert(ctx context.Context, id string, inputsJSON, optionsJSON []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	idPtr, idLen, err := b.writeBuf(ctx, []byte(id))
	if err != nil {
		return nil, err
	}
	defer b.free.Call(ctx, uint64(idPtr))

	inPtr, inLen, err := b.writeBuf(ctx, inputsJSON)
	if err != nil {
		return nil, err
	}
	defer b.free.Call(ctx, uint64(inPtr))

	optPtr, optLen, err := b.writeBuf(ctx, optionsJSON)
	if err != nil {
		return nil, err
	}
	defer b.free.Call(ctx, uint64(optPtr))

	results, err := b.convertFn.Call(ctx,
		uint64(idPtr), uint64(idLen),
		uint64(inPtr), uint64(inLen),
		uint64(optPtr), uint64(optLen))
	if err != nil {
		return nil, fmt.Errorf("xmute_convert call failed: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("xmute_convert returned no results")
	}

	return b.readPacked(ctx, results[0])
}

// diagnostic calls the optional last_error export, returning "" when the
// plug-in does not supply one.
func (b *bridge) diagnostic(ctx context.Context) string {
	if b.lastError == nil {
		return ""
	}
	results, err := b.lastError.Call(ctx)
	if err != nil || len(results) == 0 {
		return ""
	}
	out, err := b.readPacked(ctx, results[0])
	if err != nil {
		return ""
	}
	return string(out)
}

func (b *bridge) writeBuf(ctx context.Context, data []byte) (ptr, length uint32, err error) {
	if len(data) == 0 {
		return 0, 0, nil
	}
	results, err := b.malloc.Call(ctx, uint64(len(data)))
	if err != nil {
		return 0, 0, fmt.Errorf("malloc failed: %w", err)
	}
	if len(results) == 0 || results[0] == 0 {
		return 0, 0, fmt.Errorf("malloc returned null pointer")
	}
	ptr = uint32(results[0])
	if !b.memory.Write(ptr, data) {
		return 0, 0, fmt.Errorf("failed to write to wasm memory")
	}
	return ptr, uint32(len(data)), nil
}

func (b *bridge) readPacked(ctx context.Context, packed uint64) ([]byte, error) {
	outPtr := uint32(packed >> 32)
	outLen := uint32(packed & 0xFFFFFFFF)
	if outLen == 0 {
		return nil, nil
	}
	out, ok := b.memory.Read(outPtr, outLen)
	if !ok {
		return nil, fmt.Errorf("failed to read output from wasm memory")
	}
	cp := make([]byte, len(out))
	copy(cp, out)
	if _, err := b.free.Call(ctx, uint64(outPtr)); err != nil {
		return nil, fmt.Errorf("free failed: %w", err)
	}
	return cp, nil
}

func (b *bridge) close(ctx context.Context) error {
	return b.module.Close(ctx)
}
