package ipc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/google/uuid"

	"github.com/xmute-dev/xmute/pkg/convert"
	"github.com/xmute-dev/xmute/pkg/graph"
	"github.com/xmute-dev/xmute/pkg/plugin"
)

// Loader implements pkg/plugin.Loader by spawning the manifest's
// entrypoint as a subprocess and speaking the READY/CMD/DONE/ERROR
// protocol over its stdin/stdout.
type Loader struct {
	mu    sync.Mutex
	procs []*process
}

// NewLoader creates an empty ipc Loader.
func NewLoader() *Loader { return &Loader{} }

// process owns one running subprocess and its protocol streams. Calls are
// serialised with callMu because a single subprocess reads one CMD at a
// time from its stdin.
type process struct {
	cmd    *exec.Cmd
	enc    *Encoder
	dec    *Decoder
	stdin  io.WriteCloser
	callMu sync.Mutex
}

func (l *Loader) Load(ctx context.Context, path string) ([]convert.Converter, error) {
	m, err := plugin.LoadManifestFile(path)
	if err != nil {
		return nil, err
	}

	binPath := m.EntrypointPath()

	cmd := exec.CommandContext(ctx, binPath)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, convert.NewPluginABI("failed to open subprocess stdin", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, convert.NewPluginABI("failed to open subprocess stdout", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, convert.NewPluginABI("failed to start plug-in subprocess", err)
	}

	p := &process{
		cmd:   cmd,
		enc:   NewEncoder(stdin),
		dec:   NewDecoder(stdout),
		stdin: stdin,
	}

	msg, err := p.dec.Decode()
	if err != nil {
		cmd.Process.Kill()
		return nil, convert.NewPluginABI("failed to read READY from plug-in subprocess", err)
	}
	if msg.Type != TypeReady {
		cmd.Process.Kill()
		return nil, convert.NewPluginABI(fmt.Sprintf("expected READY, got %s", msg.Type), nil)
	}
	var ready ReadyMessage
	if err := json.Unmarshal(msg.Data, &ready); err != nil {
		cmd.Process.Kill()
		return nil, convert.NewPluginABI("failed to parse READY payload", err)
	}
	if ready.ABIVersion < plugin.ABIMinVersion || ready.ABIVersion > plugin.ABIVersion {
		cmd.Process.Kill()
		return nil, convert.NewPluginABI(
			fmt.Sprintf("plug-in abi version %d outside supported range [%d, %d]", ready.ABIVersion, plugin.ABIMinVersion, plugin.ABIVersion), nil)
	}

	l.mu.Lock()
	l.procs = append(l.procs, p)
	l.mu.Unlock()

	decls := m.Decls()
	converters := make([]convert.Converter, 0, len(decls))
	for _, decl := range decls {
		converters = append(converters, &ipcConverter{decl: decl, proc: p})
	}
	return converters, nil
}

// Close signals every subprocess to exit by closing its stdin, then waits
// for it.
func (l *Loader) Close(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var firstErr error
	for _, p := range l.procs {
		p.stdin.Close()
		if err := p.cmd.Wait(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ipcConverter adapts one manifest-declared converter to convert.Converter
// by round-tripping a CMD/DONE exchange over the shared subprocess.
type ipcConverter struct {
	decl *convert.ConverterDecl
	proc *process
}

func (c *ipcConverter) Decl() *convert.ConverterDecl { return c.decl }

func (c *ipcConverter) Convert(ctx context.Context, inputs convert.Inputs, options graph.Properties) (convert.Outputs, error) {
	inputsJSON, err := json.Marshal(wireInputs(inputs))
	if err != nil {
		return nil, convert.NewInternal("failed to marshal inputs for plug-in call", err).WithConverterID(c.decl.ID)
	}
	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return nil, convert.NewInternal("failed to marshal options for plug-in call", err).WithConverterID(c.decl.ID)
	}

	cmdID := uuid.NewString()

	c.proc.callMu.Lock()
	defer c.proc.callMu.Unlock()

	if err := c.proc.enc.EncodeCommand(CommandMessage{
		ID:         cmdID,
		Converter:  c.decl.ID,
		InputsJSON: inputsJSON,
		Options:    optionsJSON,
	}); err != nil {
		return nil, convert.NewPluginABI("failed to send command to plug-in subprocess", err).WithConverterID(c.decl.ID)
	}

	for {
		msg, err := c.proc.dec.Decode()
		if err != nil {
			return nil, convert.NewPluginABI("failed to read response from plug-in subprocess", err).WithConverterID(c.decl.ID)
		}
		switch msg.Type {
		case TypeDone:
			var done DoneMessage
			if err := json.Unmarshal(msg.Data, &done); err != nil {
				return nil, convert.NewInternal("failed to parse DONE payload", err).WithConverterID(c.decl.ID)
			}
			if done.ID != cmdID {
				continue // stale response for a prior, already-timed-out call
			}
			var wireOut map[string]wirePortValue
			if err := json.Unmarshal(done.Outputs, &wireOut); err != nil {
				return nil, convert.NewInternal("failed to parse outputs", err).WithConverterID(c.decl.ID)
			}
			outputs := make(convert.Outputs, len(wireOut))
			for port, wv := range wireOut {
				outputs[port] = fromWire(wv)
			}
			return outputs, nil
		case TypeError:
			var errMsg ErrorMessage
			if err := json.Unmarshal(msg.Data, &errMsg); err != nil {
				return nil, convert.NewInternal("failed to parse ERROR payload", err).WithConverterID(c.decl.ID)
			}
			if errMsg.ID != cmdID {
				continue
			}
			return nil, convert.NewInvalidInput(errMsg.Message, nil).WithConverterID(c.decl.ID)
		case TypeExit:
			return nil, convert.NewPluginABI("plug-in subprocess exited", nil).WithConverterID(c.decl.ID)
		default:
			continue // ignore EVENT-equivalent progress lines, not modelled here
		}
	}
}

type wirePortValue struct {
	Item  *wireItem  `json:"item,omitempty"`
	Items []wireItem `json:"items,omitempty"`
	List  bool       `json:"list"`
}

type wireItem struct {
	Bytes      []byte           `json:"bytes"`
	Properties graph.Properties `json:"properties"`
}

func wireInputs(inputs convert.Inputs) map[string]wirePortValue {
	out := make(map[string]wirePortValue, len(inputs))
	for port, pv := range inputs {
		if pv.List {
			items := make([]wireItem, len(pv.Items))
			for i, it := range pv.Items {
				items[i] = wireItem{Bytes: it.Bytes, Properties: it.Properties}
			}
			out[port] = wirePortValue{Items: items, List: true}
			continue
		}
		out[port] = wirePortValue{Item: &wireItem{Bytes: pv.Item.Bytes, Properties: pv.Item.Properties}}
	}
	return out
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
