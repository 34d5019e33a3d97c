package plugin

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/xmute-dev/xmute/pkg/convert"
)

const testManifestYAML = `
metadata:
  name: image-suite
  version: 1.0.0
abi_version: 1
entrypoint: resize.wasm
capabilities: [fs:temp]
converters:
  - id: image.resize
    inputs:
      in: {format: png}
    outputs:
      out: {format: png}
    produces: {format: png}
    costs: {speed: 2.0}
    thread_safe: true
  - id: image.frames-to-sprite
    inputs:
      frames: {format: png, list: true}
    outputs:
      out: {format: png}
    derive_option: {width: width}
`

func TestLoadManifestBytes(t *testing.T) {
	m, err := LoadManifestBytes([]byte(testManifestYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Metadata.Name != "image-suite" {
		t.Errorf("expected name image-suite, got %s", m.Metadata.Name)
	}
	if len(m.Converters) != 2 {
		t.Fatalf("expected 2 converters, got %d", len(m.Converters))
	}
}

func TestLoadManifestBytes_RejectsUnsupportedABIVersion(t *testing.T) {
	yaml := `
metadata: {name: x, version: "1"}
abi_version: 99
entrypoint: x.wasm
converters:
  - id: x
    inputs: {in: {}}
    outputs: {out: {}}
`
	_, err := LoadManifestBytes([]byte(yaml))
	if err == nil {
		t.Fatal("expected an error for an out-of-range abi_version")
	}
}

func TestLoadManifestBytes_RequiresName(t *testing.T) {
	_, err := LoadManifestBytes([]byte(`entrypoint: x.wasm
converters: [{id: x, inputs: {in: {}}, outputs: {out: {}}}]`))
	if err == nil {
		t.Fatal("expected an error for a manifest missing metadata.name")
	}
}

func TestManifest_Decls(t *testing.T) {
	m, err := LoadManifestBytes([]byte(testManifestYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	decls := m.Decls()
	if len(decls) != 2 {
		t.Fatalf("expected 2 decls, got %d", len(decls))
	}

	byID := make(map[string]*convert.ConverterDecl, len(decls))
	for _, d := range decls {
		byID[d.ID] = d
	}

	resize, ok := byID["image.resize"]
	if !ok {
		t.Fatal("expected an image.resize decl")
	}
	if !resize.ThreadSafe {
		t.Error("expected image.resize to carry thread_safe=true")
	}
	if resize.Inputs["in"].List {
		t.Error("expected image.resize's in port to be non-list")
	}

	sprite, ok := byID["image.frames-to-sprite"]
	if !ok {
		t.Fatal("expected a frames-to-sprite decl")
	}
	if !sprite.Inputs["frames"].List {
		t.Error("expected frames-to-sprite's frames port to be a list")
	}
	if sprite.DeriveOption["width"] != "width" {
		t.Errorf("expected derive_option width->width, got %v", sprite.DeriveOption)
	}
}

func TestManifest_VerifyChecksum(t *testing.T) {
	m, err := LoadManifestBytes([]byte(testManifestYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data := []byte("fake wasm bytes")
	sum := sha256.Sum256(data)
	m.Checksum = "sha256:" + hex.EncodeToString(sum[:])

	if err := m.VerifyChecksum(data); err != nil {
		t.Errorf("expected checksum to verify, got %v", err)
	}
	if err := m.VerifyChecksum([]byte("tampered")); err == nil {
		t.Error("expected tampered data to fail checksum verification")
	}
}

func TestRegistryPut_LaterOverridesEarlier(t *testing.T) {
	reg := NewRegistry()
	reg.Put(fakeConverter{id: "image.resize", source: "builtin"})
	reg.Put(fakeConverter{id: "image.resize", source: "user-dir"})

	converters := reg.Converters()
	if len(converters) != 1 {
		t.Fatalf("expected one registration to survive, got %d", len(converters))
	}
	if got := converters[0].(fakeConverter).source; got != "user-dir" {
		t.Errorf("expected the later registration to win, got %s", got)
	}
}
