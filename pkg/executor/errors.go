package executor

import (
	"fmt"

	"github.com/xmute-dev/xmute/pkg/convert"
)

// ExecuteError wraps a convert.Kind-labelled failure with the step/job
// context the executor boundary adds (spec §7: "byte count and limit for
// MemoryLimitExceeded").
type ExecuteError struct {
	Kind        convert.Kind
	Message     string
	ConverterID string
	Requested   int64
	Limit       int64
	Err         error
}

func (e *ExecuteError) Error() string {
	if e.Kind == convert.KindMemoryLimitExceeded {
		return fmt.Sprintf("[%s] %s: requested %d bytes, limit %d (converter=%s)", e.Kind, e.Message, e.Requested, e.Limit, e.ConverterID)
	}
	return fmt.Sprintf("[%s] %s (converter=%s)", e.Kind, e.Message, e.ConverterID)
}

func (e *ExecuteError) Unwrap() error { return e.Err }

func newCancelledErr() *ExecuteError {
	return &ExecuteError{Kind: convert.KindCancelled, Message: "execution cancelled"}
}

func newMemoryLimitErr(converterID string, requested, limit int64) *ExecuteError {
	return &ExecuteError{
		Kind:        convert.KindMemoryLimitExceeded,
		Message:     "bounded executor refused reservation",
		ConverterID: converterID,
		Requested:   requested,
		Limit:       limit,
	}
}
