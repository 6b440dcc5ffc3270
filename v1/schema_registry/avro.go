package schema_registry

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/hamba/avro/v2"
)

// AvroOptions configures the Avro adapter.
type AvroOptions struct {
	// TypeHook is offered every inline type definition (a JSON object with a "type"
	// attribute) after references are merged, innermost first. Returning true
	// replaces the definition with the returned value, for example to compile an
	// enum as "int":
	//
	//	TypeHook: func(attrs map[string]interface{}) (interface{}, bool) {
	//	    if attrs["type"] == "enum" {
	//	        return "int", true
	//	    }
	//	    return nil, false
	//	}
	TypeHook func(attrs map[string]interface{}) (interface{}, bool)
}

// AvroSchema is a compiled Avro schema.
type AvroSchema struct {
	definition string
	merged     string
	schema     avro.Schema
}

// SchemaType implements ParsedSchema.
func (s *AvroSchema) SchemaType() SchemaType { return SchemaTypeAvro }

// Definition implements ParsedSchema.
func (s *AvroSchema) Definition() string { return s.definition }

// Merged returns the definition with every reference substituted, as compiled.
func (s *AvroSchema) Merged() string { return s.merged }

// Schema returns the compiled hamba schema.
func (s *AvroSchema) Schema() avro.Schema { return s.schema }

type avroAdapter struct{}

func (avroAdapter) Type() SchemaType { return SchemaTypeAvro }

func (avroAdapter) Parse(schema Schema, refs []ResolvedReference, opts SchemaOptions) (ParsedSchema, error) {
	root, err := decodeAvroDefinition(schema.Schema)
	if err != nil {
		return nil, err
	}

	m := &avroMerger{
		refs:    make(map[string]string, len(refs)),
		hook:    opts.Avro.TypeHook,
		defined: make(map[string]bool),
	}
	for _, ref := range refs {
		m.refs[ref.Name] = ref.Schema.Schema
	}

	merged, err := m.merge(root, "")
	if err != nil {
		return nil, err
	}
	text, err := json.Marshal(merged)
	if err != nil {
		return nil, wrapArgumentError(err, "invalid avro schema")
	}

	// A fresh cache keeps named types from leaking between schemas.
	compiled, err := avro.ParseWithCache(string(text), "", &avro.SchemaCache{})
	if err != nil {
		return nil, wrapArgumentError(err, "invalid avro schema")
	}
	return &AvroSchema{definition: schema.Schema, merged: string(text), schema: compiled}, nil
}

func (avroAdapter) Validate(parsed ParsedSchema) error {
	s, ok := parsed.(*AvroSchema)
	if !ok {
		return mismatchedSchema(SchemaTypeAvro, parsed)
	}
	named, ok := s.schema.(avro.NamedSchema)
	if !ok || named.Name() == "" {
		return newArgumentError("invalid name: avro schema must be a named type, got %s", s.schema.Type())
	}
	return nil
}

func (avroAdapter) ToBytes(parsed ParsedSchema, payload interface{}) ([]byte, error) {
	s, ok := parsed.(*AvroSchema)
	if !ok {
		return nil, mismatchedSchema(SchemaTypeAvro, parsed)
	}
	if issues := validateAvro(s.schema, payload); len(issues) > 0 {
		return nil, newValidationError("invalid avro payload", issues)
	}
	data, err := avro.Marshal(s.schema, normalizeAvro(s.schema, payload))
	if err != nil {
		return nil, newValidationError(err.Error(), []ValidationIssue{{
			Path:   []string{},
			Value:  payload,
			Schema: describeAvro(s.schema),
		}})
	}
	return data, nil
}

func (avroAdapter) FromBytes(parsed ParsedSchema, data []byte) (interface{}, error) {
	s, ok := parsed.(*AvroSchema)
	if !ok {
		return nil, mismatchedSchema(SchemaTypeAvro, parsed)
	}
	var out interface{}
	if err := avro.Unmarshal(s.schema, data, &out); err != nil {
		return nil, fmt.Errorf("decode avro payload: %w", err)
	}
	return out, nil
}

func (avroAdapter) SubjectFor(schema Schema, separator string) (string, error) {
	root, err := decodeAvroDefinition(schema.Schema)
	if err != nil {
		return "", err
	}
	attrs, _ := root.(map[string]interface{})
	namespace, _ := attrs["namespace"].(string)
	name, _ := attrs["name"].(string)
	if namespace == "" || name == "" {
		return "", newArgumentError("invalid avro schema: namespace and name are required to derive a subject (namespace=%q, name=%q)",
			namespace, name)
	}
	return namespace + separator + name, nil
}

func (avroAdapter) Equal(a, b string) bool {
	return jsonEqual(a, b)
}

func (avroAdapter) MessageIndexes(ParsedSchema) []int { return nil }

func decodeAvroDefinition(definition string) (interface{}, error) {
	var root interface{}
	if err := json.Unmarshal([]byte(definition), &root); err != nil {
		// A bare primitive name such as `string` is not JSON.
		trimmed := strings.TrimSpace(definition)
		if isAvroPrimitive(trimmed) {
			return trimmed, nil
		}
		return nil, wrapArgumentError(err, "invalid avro schema")
	}
	return root, nil
}

var avroPrimitives = map[string]struct{}{
	"null": {}, "boolean": {}, "int": {}, "long": {}, "float": {}, "double": {}, "bytes": {}, "string": {},
}

func isAvroPrimitive(name string) bool {
	_, ok := avroPrimitives[name]
	return ok
}

// avroMerger substitutes referenced schema bodies into a definition tree. Each
// referenced full name is inlined at its first use only, since Avro forbids
// redefining a named type. Every node it returns is newly allocated.
type avroMerger struct {
	refs    map[string]string
	hook    func(map[string]interface{}) (interface{}, bool)
	defined map[string]bool
}

func (m *avroMerger) merge(node interface{}, namespace string) (interface{}, error) {
	switch v := node.(type) {
	case string:
		return m.mergeName(v, namespace)
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, member := range v {
			merged, err := m.merge(member, namespace)
			if err != nil {
				return nil, err
			}
			out[i] = merged
		}
		return out, nil
	case map[string]interface{}:
		return m.mergeDefinition(v, namespace)
	default:
		return v, nil
	}
}

func (m *avroMerger) mergeName(name, namespace string) (interface{}, error) {
	if isAvroPrimitive(name) {
		return name, nil
	}
	candidates := []string{name}
	if full := qualifyAvroName(name, namespace); full != name {
		candidates = append(candidates, full)
	}
	for _, c := range candidates {
		if m.defined[c] {
			return name, nil
		}
	}
	for _, c := range candidates {
		body, ok := m.refs[c]
		if !ok {
			continue
		}
		tree, err := decodeAvroDefinition(body)
		if err != nil {
			return nil, wrapArgumentError(err, "invalid referenced avro schema %q", c)
		}
		m.defined[c] = true
		return m.merge(tree, "")
	}
	return name, nil
}

func (m *avroMerger) mergeDefinition(attrs map[string]interface{}, namespace string) (interface{}, error) {
	out := make(map[string]interface{}, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}

	switch t := out["type"].(type) {
	case string:
		switch t {
		case "record", "error":
			full, ns := m.define(out, namespace)
			fields, _ := out["fields"].([]interface{})
			mergedFields := make([]interface{}, len(fields))
			for i, f := range fields {
				field, ok := f.(map[string]interface{})
				if !ok {
					return nil, newArgumentError("invalid avro schema: field %d of %q is not an object", i, full)
				}
				copied := make(map[string]interface{}, len(field))
				for k, v := range field {
					copied[k] = v
				}
				fieldType, err := m.merge(field["type"], ns)
				if err != nil {
					return nil, err
				}
				copied["type"] = fieldType
				mergedFields[i] = copied
			}
			out["fields"] = mergedFields
		case "enum", "fixed":
			m.define(out, namespace)
		case "array":
			items, err := m.merge(out["items"], namespace)
			if err != nil {
				return nil, err
			}
			out["items"] = items
		case "map":
			values, err := m.merge(out["values"], namespace)
			if err != nil {
				return nil, err
			}
			out["values"] = values
		default:
			if !isAvroPrimitive(t) {
				merged, err := m.mergeName(t, namespace)
				if err != nil {
					return nil, err
				}
				out["type"] = merged
			}
		}
	case map[string]interface{}, []interface{}:
		merged, err := m.merge(t, namespace)
		if err != nil {
			return nil, err
		}
		out["type"] = merged
	}

	if m.hook != nil {
		if replacement, ok := m.hook(out); ok {
			return replacement, nil
		}
	}
	return out, nil
}

// define records the full name of a named type and returns it with the namespace
// its children resolve against.
func (m *avroMerger) define(attrs map[string]interface{}, enclosing string) (string, string) {
	name, _ := attrs["name"].(string)
	ns := enclosing
	if explicit, ok := attrs["namespace"].(string); ok {
		ns = explicit
	}
	full := qualifyAvroName(name, ns)
	if i := strings.LastIndex(full, "."); i >= 0 {
		ns = full[:i]
	} else {
		ns = ""
	}
	m.defined[full] = true
	return full, ns
}

func qualifyAvroName(name, namespace string) string {
	if strings.Contains(name, ".") || namespace == "" {
		return name
	}
	return namespace + "." + name
}

// jsonEqual compares two JSON documents structurally.
func jsonEqual(a, b string) bool {
	var av, bv interface{}
	if err := json.Unmarshal([]byte(a), &av); err != nil {
		return strings.TrimSpace(a) == strings.TrimSpace(b)
	}
	if err := json.Unmarshal([]byte(b), &bv); err != nil {
		return false
	}
	return reflect.DeepEqual(av, bv)
}
