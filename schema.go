package inlinecall

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

var (
	customTypesMu sync.RWMutex
	customTypes   = make(map[reflect.Type]*jsonschema.Schema)
)

var errNilSchema = errors.New("schema reflection returned nil")

// RegisterType maps a Go type to a JSON Schema type/format in generated argument schemas.
// emptyInstance must not be nil and jsonType must not be empty. Pointer fields (*T) use the
// mapping registered for T. Call it at startup, before the first NewTool or NewArgDecoder.
func RegisterType(emptyInstance any, jsonType, format string) {
	if emptyInstance == nil {
		panic("inlinecall: RegisterType emptyInstance must not be nil")
	}
	if jsonType == "" {
		panic("inlinecall: RegisterType jsonType must not be empty")
	}
	customTypesMu.Lock()
	defer customTypesMu.Unlock()
	customTypes[reflect.TypeOf(emptyInstance)] = &jsonschema.Schema{Type: jsonType, Format: format}
}

func typeSchemas() map[reflect.Type]*jsonschema.Schema {
	customTypesMu.RLock()
	defer customTypesMu.RUnlock()
	out := make(map[reflect.Type]*jsonschema.Schema, len(customTypes))
	for t, s := range customTypes {
		if s != nil {
			out[t] = s.CloneSchemas()
		}
	}
	return out
}

// generateSchema reflects T into a schema map (what the model sees) and a resolved
// validator (what incoming arguments are checked against). Both come from the same map.
func generateSchema[T any](strict bool) (map[string]any, *jsonschema.Resolved, error) {
	schema, err := jsonschema.For[T](&jsonschema.ForOptions{TypeSchemas: typeSchemas()})
	if err != nil {
		return nil, nil, err
	}
	if schema == nil {
		return nil, nil, errNilSchema
	}
	schemaMap, err := toMap(schema)
	if err != nil {
		return nil, nil, err
	}
	applyFieldTags(schemaMap, reflect.TypeOf(*new(T)))
	resolved, err := prepareSchema(schemaMap, strict)
	if err != nil {
		return nil, nil, err
	}
	return schemaMap, resolved, nil
}

// prepareSchema applies strict mode, drops ids and compiles the map in place.
func prepareSchema(schemaMap map[string]any, strict bool) (*jsonschema.Resolved, error) {
	if strict {
		applyStrictMode(schemaMap)
	}
	walkSchema(schemaMap, func(n map[string]any) {
		delete(n, "id")
		delete(n, "$id")
	})
	return compileSchema(schemaMap)
}

// toMap round-trips v through JSON. It doubles as a deep copy for caller-owned schema maps.
func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	return out, nil
}

// applyFieldTags copies `description` and `enum` struct tags onto root-level properties.
// Properties are matched by the json tag name.
func applyFieldTags(schemaMap map[string]any, typ reflect.Type) {
	if schemaMap == nil || typ == nil {
		return
	}
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return
	}
	props, ok := schemaMap["properties"].(map[string]any)
	if !ok || len(props) == 0 {
		return
	}
	for field := range typ.Fields() {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		prop, ok := props[name].(map[string]any)
		if !ok {
			continue
		}
		if desc := field.Tag.Get("description"); desc != "" {
			prop["description"] = desc
		}
		if enumStr := field.Tag.Get("enum"); enumStr != "" {
			var enum []any
			for p := range strings.SplitSeq(enumStr, ",") {
				enum = append(enum, strings.TrimSpace(p))
			}
			prop["enum"] = enum
		}
	}
}

// walkSchema visits every map node in the schema tree, including $defs.
func walkSchema(schemaMap map[string]any, visit func(map[string]any)) {
	if schemaMap == nil {
		return
	}
	visit(schemaMap)
	for _, val := range schemaMap {
		switch v := val.(type) {
		case map[string]any:
			walkSchema(v, visit)
		case []any:
			for _, item := range v {
				if m, ok := item.(map[string]any); ok {
					walkSchema(m, visit)
				}
			}
		}
	}
}

// applyStrictMode sets additionalProperties: false on every object and makes all of its
// properties required, in sorted order.
func applyStrictMode(schemaMap map[string]any) {
	walkSchema(schemaMap, func(n map[string]any) {
		props, ok := n["properties"].(map[string]any)
		if !ok {
			return
		}
		n["additionalProperties"] = false
		keys := slices.Sorted(maps.Keys(props))
		if len(keys) == 0 {
			return
		}
		required := make([]any, len(keys))
		for i, k := range keys {
			required[i] = k
		}
		n["required"] = required
	})
}

// compileSchema compiles a raw schema map into a resolved validator. The map is not mutated.
func compileSchema(schemaMap map[string]any) (*jsonschema.Resolved, error) {
	data, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, err
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return s.Resolve(nil)
}
