package convert

import (
	"errors"
	"fmt"
)

// Kind labels the error taxonomy shared across convert/planner/executor
// boundaries (spec §7). NoPath is only ever produced by pkg/planner but is
// declared here so all three error types share one vocabulary.
type Kind string

const (
	KindNoPath              Kind = "no_path"
	KindInvalidInput        Kind = "invalid_input"
	KindUnsupportedOption   Kind = "unsupported_option"
	KindMemoryLimitExceeded Kind = "memory_limit_exceeded"
	KindCancelled           Kind = "cancelled"
	KindPluginABI           Kind = "plugin_abi"
	KindInternal            Kind = "internal"
)

// ErrorClass classifies an error for retry logic, independent of Kind.
// Mirrors the teacher's four-way classification.
type ErrorClass string

const (
	ClassTransient ErrorClass = "transient"
	ClassThrottled ErrorClass = "throttled"
	ClassConflict  ErrorClass = "conflict"
	ClassPermanent ErrorClass = "permanent"
)

// ConvertError is the error type Converter.Convert returns. Its shape
// mirrors the teacher's EngineError: a classification for retry logic, a
// human message, an optional code, context (which converter/port), an
// underlying error, and free-form details.
type ConvertError struct {
	Kind        Kind
	Class       ErrorClass
	Message     string
	Code        string
	ConverterID string
	Port        string
	Err         error
	Details     map[string]interface{}
}

func (e *ConvertError) Error() string {
	if e.ConverterID != "" && e.Port != "" {
		return fmt.Sprintf("[%s] %s (converter=%s, port=%s): %s", e.Kind, e.Message, e.ConverterID, e.Port, e.unwrapMessage())
	}
	if e.ConverterID != "" {
		return fmt.Sprintf("[%s] %s (converter=%s): %s", e.Kind, e.Message, e.ConverterID, e.unwrapMessage())
	}
	return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Message, e.unwrapMessage())
}

func (e *ConvertError) Unwrap() error { return e.Err }

func (e *ConvertError) unwrapMessage() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return ""
}

// Is implements error equality for errors.Is, matching on Kind and Code.
func (e *ConvertError) Is(target error) bool {
	t, ok := target.(*ConvertError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// NewInvalidInput reports bytes failing a converter's runtime checks.
func NewInvalidInput(message string, err error) *ConvertError {
	return &ConvertError{Kind: KindInvalidInput, Class: ClassPermanent, Message: message, Err: err}
}

// NewUnsupportedOption reports an option the converter does not understand
// and cannot ignore.
func NewUnsupportedOption(message string, err error) *ConvertError {
	return &ConvertError{Kind: KindUnsupportedOption, Class: ClassPermanent, Message: message, Err: err}
}

// NewCancelled reports a Cancel token firing mid-conversion.
func NewCancelled(message string) *ConvertError {
	return &ConvertError{Kind: KindCancelled, Class: ClassPermanent, Message: message}
}

// NewPluginABI reports a plug-in load failure or version mismatch.
func NewPluginABI(message string, err error) *ConvertError {
	return &ConvertError{Kind: KindPluginABI, Class: ClassPermanent, Message: message, Err: err}
}

// NewInternal reports an invariant violation, e.g. a port binding that
// references a step that did not produce the named port.
func NewInternal(message string, err error) *ConvertError {
	return &ConvertError{Kind: KindInternal, Class: ClassPermanent, Message: message, Err: err}
}

// NewTransient wraps err as a transient, retryable ConvertError.
func NewTransient(message string, err error) *ConvertError {
	return &ConvertError{Kind: KindInvalidInput, Class: ClassTransient, Message: message, Err: err}
}

func (e *ConvertError) WithConverterID(id string) *ConvertError {
	e.ConverterID = id
	return e
}

func (e *ConvertError) WithPort(port string) *ConvertError {
	e.Port = port
	return e
}

func (e *ConvertError) WithCode(code string) *ConvertError {
	e.Code = code
	return e
}

func (e *ConvertError) WithClass(class ErrorClass) *ConvertError {
	e.Class = class
	return e
}

func (e *ConvertError) WithDetail(key string, value interface{}) *ConvertError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsRetryable reports whether err is a ConvertError classified as
// transient, throttled, or conflict.
func IsRetryable(err error) bool {
	var e *ConvertError
	if errors.As(err, &e) {
		return e.Class == ClassTransient || e.Class == ClassThrottled || e.Class == ClassConflict
	}
	return false
}

// ErrKind extracts the Kind from err, the zero Kind if err is not a
// ConvertError.
func ErrKind(err error) Kind {
	var e *ConvertError
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
