package inlinecall

import (
	"errors"
	"fmt"
)

// Sentinel errors for inlinecall. Use errors.Is to check.
var (
	ErrMalformedDirective = errors.New("malformed function call")
	ErrToolNotFound       = errors.New("tool not found")
	ErrArgumentDecode     = errors.New("parameter parsing failed")
	ErrToolExecution      = errors.New("tool execution failed")
	ErrValidation         = errors.New("validation failed")
	ErrStreamAborted      = errors.New("stream aborted by consumer")
)

// ErrorKind classifies a failed call. Every kind is converted to inline diagnostic text
// at the rewrite boundary and never reaches the stream consumer as an error.
type ErrorKind int

const (
	KindMalformedDirective ErrorKind = iota + 1
	KindToolNotFound
	KindArgumentDecode
	KindToolExecution
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindMalformedDirective:
		return ErrMalformedDirective
	case KindToolNotFound:
		return ErrToolNotFound
	case KindArgumentDecode:
		return ErrArgumentDecode
	case KindToolExecution:
		return ErrToolExecution
	}
	return nil
}

func (k ErrorKind) String() string {
	switch k {
	case KindMalformedDirective:
		return "malformed_directive"
	case KindToolNotFound:
		return "tool_not_found"
	case KindArgumentDecode:
		return "argument_decode"
	case KindToolExecution:
		return "tool_execution"
	}
	return "unknown"
}

// CallError is the failure side of a dispatch. Err holds the cause (may be nil for
// ToolNotFound); errors.Is matches the sentinel for Kind.
type CallError struct {
	Kind ErrorKind
	Tool string
	Err  error
}

func (e *CallError) Error() string {
	switch e.Kind {
	case KindToolNotFound:
		return fmt.Sprintf("Tool '%s' not found", e.Tool)
	case KindArgumentDecode:
		return "Parameter parsing failed: " + causeMessage(e.Err)
	}
	return causeMessage(e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

func (e *CallError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// ClientError is an error that should be sent back to the LLM for self-correction
// (e.g. invalid JSON, schema validation failure, bad enum value).
// Do not expose stack traces or internal details to the LLM.
// Err optionally wraps a sentinel (e.g. ErrValidation) for errors.Is/errors.As.
type ClientError struct {
	Reason string
	Err    error
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("invalid tool input: %s", e.Reason)
}

// Unwrap supports errors.Is/errors.As on wrapped chains (e.g. errors.Is(err, ErrValidation)).
func (e *ClientError) Unwrap() error { return e.Err }

// IsClientError returns true if err is or wraps a ClientError.
func IsClientError(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce)
}

// KindOf returns the kind of a dispatch failure, or 0 when err is not a CallError.
func KindOf(err error) ErrorKind {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}

// diagnostic renders a dispatch failure as the bracketed text spliced into the output.
func diagnostic(err error) string {
	return "[Function Call Error: " + err.Error() + "]"
}

// causeMessage prefers the ClientError reason so the model sees what to fix.
func causeMessage(err error) string {
	if err == nil {
		return ""
	}
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Reason
	}
	return err.Error()
}

// wrapJSONParseError returns a ClientError for JSON unmarshal failures.
// Used by ArgDecoder.Decode and NewDynamicTool so parse errors are consistent.
func wrapJSONParseError(err error) error {
	return &ClientError{Reason: "json parse error: " + err.Error()}
}

// panicError wraps a recovered panic value; used by the dispatcher fault boundary.
type panicError struct{ p any }

func (e *panicError) Error() string {
	return "panic: " + fmt.Sprint(e.p)
}
