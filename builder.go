package inlinecall

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"maps"
)

// tool is the internal implementation of Tool built by NewTool, NewStreamTool, or NewDynamicTool.
type tool struct {
	name        string
	description string
	schema      map[string]any
	check       func([]byte) error
	invoke      func(context.Context, []byte) (Result, error)
}

// NewTool builds a Tool from a typed function returning a single value. The argument schema
// is generated from T; Invoke decodes and validates the arguments, then calls fn.
// Returns an error if schema generation fails (e.g. unsupported type).
func NewTool[T any, R any](
	name, description string,
	fn func(ctx context.Context, args T) (R, error),
	opts ...ToolOption,
) (Tool, error) {
	if fn == nil {
		return nil, fmt.Errorf("tool %q: handler must not be nil", name)
	}
	o := applyToolOptions(opts)
	dec, err := NewArgDecoder[T](o.strict)
	if err != nil {
		return nil, fmt.Errorf("tool %q: %w", name, err)
	}
	invoke := func(ctx context.Context, argsJSON []byte) (Result, error) {
		args, err := dec.Decode(argsJSON)
		if err != nil {
			return Result{}, err
		}
		res, err := fn(ctx, args)
		if err != nil {
			return Result{}, err
		}
		return ValueResult(res), nil
	}
	return &tool{
		name:        name,
		description: description,
		schema:      dec.Schema(),
		check:       dec.Check,
		invoke:      invoke,
	}, nil
}

// NewStreamTool builds a Tool whose result is a lazily-produced fragment sequence.
// Arguments are decoded and validated eagerly in Invoke; fn itself runs only when the
// returned stream is drained, and may call yield any number of times (zero is valid).
// yield returns ErrStreamAborted once the consumer stops pulling; fn should then return.
func NewStreamTool[T any](
	name, description string,
	fn func(ctx context.Context, args T, yield func(fragment string) error) error,
	opts ...ToolOption,
) (Tool, error) {
	if fn == nil {
		return nil, fmt.Errorf("tool %q: handler must not be nil", name)
	}
	o := applyToolOptions(opts)
	dec, err := NewArgDecoder[T](o.strict)
	if err != nil {
		return nil, fmt.Errorf("tool %q: %w", name, err)
	}
	invoke := func(ctx context.Context, argsJSON []byte) (Result, error) {
		args, err := dec.Decode(argsJSON)
		if err != nil {
			return Result{}, err
		}
		return StreamResult(streamFrom(func(yield func(string) error) error {
			return fn(ctx, args, yield)
		})), nil
	}
	return &tool{
		name:        name,
		description: description,
		schema:      dec.Schema(),
		check:       dec.Check,
		invoke:      invoke,
	}, nil
}

// NewDynamicTool creates a Tool from a raw JSON Schema map and a handler that receives the
// validated argument JSON. Useful when tools are described at runtime (config, plugins).
// schemaMap and fn must be non-nil. The provided schemaMap is never mutated.
func NewDynamicTool(
	name, description string,
	schemaMap map[string]any,
	fn func(ctx context.Context, argsJSON []byte) (Result, error),
	opts ...ToolOption,
) (Tool, error) {
	if schemaMap == nil {
		return nil, fmt.Errorf("tool %q: schema map must not be nil", name)
	}
	if fn == nil {
		return nil, fmt.Errorf("tool %q: handler must not be nil", name)
	}
	o := applyToolOptions(opts)
	schemaCopy, err := toMap(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("tool %q: copy schema: %w", name, err)
	}
	compiled, err := prepareSchema(schemaCopy, o.strict)
	if err != nil {
		return nil, fmt.Errorf("tool %q: compile schema: %w", name, err)
	}
	check := func(argsJSON []byte) error {
		_, err := checkJSON(compiled, argsJSON)
		return err
	}
	invoke := func(ctx context.Context, argsJSON []byte) (Result, error) {
		if err := check(argsJSON); err != nil {
			return Result{}, err
		}
		return fn(ctx, argsJSON)
	}
	return &tool{
		name:        name,
		description: description,
		schema:      schemaCopy,
		check:       check,
		invoke:      invoke,
	}, nil
}

func (t *tool) Name() string        { return t.name }
func (t *tool) Description() string { return t.description }

// Parameters returns a shallow copy of the JSON Schema (top-level keys only).
// Nested maps (e.g. under "properties") are shared; callers must not mutate them.
func (t *tool) Parameters() map[string]any { return maps.Clone(t.schema) }

func (t *tool) Invoke(ctx context.Context, argsJSON []byte) (Result, error) {
	return t.invoke(ctx, argsJSON)
}

func (t *tool) ValidateArgs(argsJSON []byte) error { return t.check(argsJSON) }

func applyToolOptions(opts []ToolOption) toolOptions {
	var o toolOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// streamFrom adapts a push-style producer into a fragment sequence. The producer starts on
// the first pull. After the consumer stops, every further yield returns ErrStreamAborted.
// A producer error other than ErrStreamAborted is delivered as the final element.
func streamFrom(produce func(yield func(string) error) error) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stopped := false
		err := produce(func(fragment string) error {
			if stopped {
				return ErrStreamAborted
			}
			if !yield(fragment, nil) {
				stopped = true
				return ErrStreamAborted
			}
			return nil
		})
		if err != nil && !stopped && !errors.Is(err, ErrStreamAborted) {
			yield("", err)
		}
	}
}

var (
	_ Tool              = (*tool)(nil)
	_ ArgumentValidator = (*tool)(nil)
)
