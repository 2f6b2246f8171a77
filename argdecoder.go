package inlinecall

import (
	"encoding/json"
	"maps"
	"reflect"

	"github.com/google/jsonschema-go/jsonschema"
)

// Validatable is implemented by argument structs that need business validation beyond
// the schema. It runs after schema validation and unmarshaling.
type Validatable interface {
	Validate() error
}

// schemaValidator validates a JSON-like value (e.g. map[string]any from json.Unmarshal).
// *jsonschema.Resolved implements it.
type schemaValidator interface {
	Validate(v any) error
}

// ArgDecoder turns the argument text of a directive into a typed value of T.
// The schema it validates against is the same one the model sees in the system prompt.
type ArgDecoder[T any] struct {
	schemaMap map[string]any
	resolved  *jsonschema.Resolved
}

// NewArgDecoder creates an ArgDecoder for type T. When strict is true, every object in the
// schema gets additionalProperties: false and all of its properties become required.
func NewArgDecoder[T any](strict bool) (*ArgDecoder[T], error) {
	schemaMap, resolved, err := generateSchema[T](strict)
	if err != nil {
		return nil, err
	}
	return &ArgDecoder[T]{schemaMap: schemaMap, resolved: resolved}, nil
}

// Schema returns a shallow copy of the JSON Schema (top-level keys only).
// Nested maps are shared; callers must not mutate them.
func (d *ArgDecoder[T]) Schema() map[string]any {
	return maps.Clone(d.schemaMap)
}

// Check validates argsJSON against the schema without decoding into T.
func (d *ArgDecoder[T]) Check(argsJSON []byte) error {
	_, err := checkJSON(d.resolved, argsJSON)
	return err
}

// Decode validates argsJSON against the schema, unmarshals it into T and runs
// Validatable when T (or *T) implements it. Failures are ClientErrors.
func (d *ArgDecoder[T]) Decode(argsJSON []byte) (T, error) {
	var zero T
	if _, err := checkJSON(d.resolved, argsJSON); err != nil {
		return zero, err
	}
	var args T
	if err := json.Unmarshal(argsJSON, &args); err != nil {
		return zero, wrapJSONParseError(err)
	}
	if err := validateTyped(args); err != nil {
		if IsClientError(err) {
			return zero, err
		}
		return zero, &ClientError{Reason: err.Error(), Err: ErrValidation}
	}
	return args, nil
}

// checkJSON parses argsJSON generically and validates the result against the schema.
func checkJSON(validate schemaValidator, argsJSON []byte) (any, error) {
	var v any
	if err := json.Unmarshal(argsJSON, &v); err != nil {
		return nil, wrapJSONParseError(err)
	}
	if err := validate.Validate(v); err != nil {
		return nil, &ClientError{Reason: err.Error(), Err: ErrValidation}
	}
	return v, nil
}

// validateTyped runs Validatable on args; for value types whose Validate has a pointer
// receiver it falls back to &args. Validate is never called twice.
func validateTyped[T any](args T) error {
	if v, ok := any(args).(Validatable); ok {
		return v.Validate()
	}
	typ := reflect.TypeOf(args)
	if typ == nil || typ.Kind() == reflect.Pointer {
		return nil
	}
	if v, ok := any(&args).(Validatable); ok {
		return v.Validate()
	}
	return nil
}
