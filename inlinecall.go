package inlinecall

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
)

// Directive delimiters. Matching is literal and case-sensitive.
const (
	OpenTag  = "<function_call>"
	CloseTag = "</function_call>"
)

// Tool is the contract for a tool the model can call inline.
// It is provider-agnostic and knows nothing about the directive syntax.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns a valid JSON Schema as map, shown to the model as argSchema.
	Parameters() map[string]any
	// Invoke runs the tool with the JSON argument object taken from the directive.
	// The result is either a single value or a lazily-produced fragment sequence.
	Invoke(ctx context.Context, argsJSON []byte) (Result, error)
}

// ArgumentValidator is implemented by tools that can check arguments against their
// schema without running. Batch rewrites call it before Invoke.
type ArgumentValidator interface {
	ValidateArgs(argsJSON []byte) error
}

// Result is the outcome of a successful Invoke: exactly one of Value or Stream is used.
// When Stream is non-nil, Value is ignored and the fragments are passed through as they arrive.
type Result struct {
	Value  any
	Stream iter.Seq2[string, error]
}

// ValueResult wraps a plain value.
func ValueResult(v any) Result { return Result{Value: v} }

// StreamResult wraps a fragment sequence.
func StreamResult(seq iter.Seq2[string, error]) Result { return Result{Stream: seq} }

// IsStream reports whether the result is a fragment sequence.
func (r Result) IsStream() bool { return r.Stream != nil }

// Descriptor is the self-description of a tool used in the system prompt.
type Descriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	ArgSchema   map[string]any `json:"argSchema"`
}

// Fragments returns a sequence that yields chunks in order. Useful for tests and for
// turning an already-buffered response into a stream source.
func Fragments(chunks ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, c := range chunks {
			if !yield(c, nil) {
				return
			}
		}
	}
}

// Collect drains seq into one string. It stops at the first error and returns the
// text collected so far together with that error.
func Collect(seq iter.Seq2[string, error]) (string, error) {
	var out []byte
	for frag, err := range seq {
		if err != nil {
			return string(out), err
		}
		out = append(out, frag...)
	}
	return string(out), nil
}

// stringify renders a tool value the way it is spliced into the output.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case json.RawMessage:
		return string(x)
	case fmt.Stringer:
		return x.String()
	case error:
		return x.Error()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
