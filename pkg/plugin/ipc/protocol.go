// Package ipc is a pkg/plugin.Loader backend that loads converter
// plug-ins as a trusted subprocess communicating over a newline-delimited
// JSON-over-stdio protocol, grounded on the teacher's
// pkg/micro_runner/protocol (codec.go's bufio.Scanner framing with an
// enlarged buffer, types.go's READY/CMD/EVENT/DONE/ERROR/EXIT message
// envelope). Used for plug-ins that need full process trust rather than
// the WASM sandbox's narrower surface — spec's Non-goals explicitly permit
// this ("not a sandbox: plug-in converters run with full process trust").
package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// MessageType tags one line of the protocol.
type MessageType string

const (
	TypeReady MessageType = "READY"
	TypeCmd   MessageType = "CMD"
	TypeDone  MessageType = "DONE"
	TypeError MessageType = "ERROR"
	TypeExit  MessageType = "EXIT"
)

// Message is the envelope every protocol line carries.
type Message struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ReadyMessage announces the subprocess's ABI version and declared
// converters, sent once at startup before any CMD is accepted.
type ReadyMessage struct {
	ABIVersion int               `json:"abi_version"`
	Converters []json.RawMessage `json:"converters"`
}

// CommandMessage carries one convert() call.
type CommandMessage struct {
	ID         string          `json:"id"`
	Converter  string          `json:"converter"`
	InputsJSON json.RawMessage `json:"inputs"`
	Options    json.RawMessage `json:"options"`
}

// DoneMessage carries the successful result of the command with matching
// ID.
type DoneMessage struct {
	ID      string          `json:"id"`
	Outputs json.RawMessage `json:"outputs"`
}

// ErrorMessage carries a command failure.
type ErrorMessage struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Encoder writes newline-delimited Messages to w.
type Encoder struct{ w *bufio.Writer }

func NewEncoder(w io.Writer) *Encoder { return &Encoder{w: bufio.NewWriter(w)} }

func (e *Encoder) encode(t MessageType, data interface{}) error {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("ipc: marshal %s payload: %w", t, err)
		}
		raw = b
	}
	line, err := json.Marshal(Message{Type: t, Data: raw})
	if err != nil {
		return fmt.Errorf("ipc: marshal envelope: %w", err)
	}
	if _, err := e.w.Write(line); err != nil {
		return err
	}
	if err := e.w.WriteByte('\n'); err != nil {
		return err
	}
	return e.w.Flush()
}

func (e *Encoder) EncodeCommand(cmd CommandMessage) error { return e.encode(TypeCmd, cmd) }

// Decoder reads newline-delimited Messages from r, sized for the large
// JSON payloads a converter call can carry.
type Decoder struct{ s *bufio.Scanner }

func NewDecoder(r io.Reader) *Decoder {
	s := bufio.NewScanner(r)
	const maxCapacity = 64 * 1024 * 1024
	s.Buffer(make([]byte, 0, 64*1024), maxCapacity)
	return &Decoder{s: s}
}

func (d *Decoder) Decode() (*Message, error) {
	if !d.s.Scan() {
		if err := d.s.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	var msg Message
	if err := json.Unmarshal(d.s.Bytes(), &msg); err != nil {
		return nil, fmt.Errorf("ipc: unmarshal message: %w", err)
	}
	return &msg, nil
}
