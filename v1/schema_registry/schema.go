package schema_registry

import "fmt"

// SchemaType identifies the serialization format of a schema.
type SchemaType string

const (
	SchemaTypeAvro     SchemaType = "AVRO"
	SchemaTypeJSON     SchemaType = "JSON"
	SchemaTypeProtobuf SchemaType = "PROTOBUF"
)

// String returns the registry name of the schema type.
func (t SchemaType) String() string {
	return string(t)
}

// ParseSchemaType converts a registry schemaType field into a SchemaType.
// The registry omits schemaType for Avro schemas, so an empty string maps to AVRO.
func ParseSchemaType(s string) (SchemaType, error) {
	switch SchemaType(s) {
	case "", SchemaTypeAvro:
		return SchemaTypeAvro, nil
	case SchemaTypeJSON:
		return SchemaTypeJSON, nil
	case SchemaTypeProtobuf:
		return SchemaTypeProtobuf, nil
	}
	return "", newArgumentError("unknown schema type %q", s)
}

// Compatibility is a registry-side compatibility level.
type Compatibility string

const (
	CompatibilityNone               Compatibility = "NONE"
	CompatibilityBackward           Compatibility = "BACKWARD"
	CompatibilityBackwardTransitive Compatibility = "BACKWARD_TRANSITIVE"
	CompatibilityForward            Compatibility = "FORWARD"
	CompatibilityForwardTransitive  Compatibility = "FORWARD_TRANSITIVE"
	CompatibilityFull               Compatibility = "FULL"
	CompatibilityFullTransitive     Compatibility = "FULL_TRANSITIVE"
)

// DefaultCompatibility is applied when RegisterOptions.Compatibility is empty.
const DefaultCompatibility = CompatibilityBackward

// DefaultSeparator joins namespace and name when a subject is derived from a schema.
const DefaultSeparator = "."

// LatestVersion addresses the newest version of a subject.
const LatestVersion = -1

// Reference points from one schema to another schema that is already registered.
//
// Name is the identifier used inside the referencing schema: an import path for
// Protobuf, a fully qualified type name for Avro, a $ref target for JSON Schema.
// Subject and Version locate the referenced schema in the registry.
type Reference struct {
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Version int    `json:"version"`
}

// Schema is a schema definition together with its type and references.
//
// Type must not change once the Schema is handed to the registry. References, when
// present, are ordered and their names are unique.
type Schema struct {
	Type       SchemaType  `json:"schemaType,omitempty"`
	Schema     string      `json:"schema"`
	References []Reference `json:"references,omitempty"`
}

// NewAvroSchema returns an AVRO schema.
func NewAvroSchema(definition string, refs ...Reference) Schema {
	return Schema{Type: SchemaTypeAvro, Schema: definition, References: refs}
}

// NewJSONSchema returns a JSON schema.
func NewJSONSchema(definition string, refs ...Reference) Schema {
	return Schema{Type: SchemaTypeJSON, Schema: definition, References: refs}
}

// NewProtobufSchema returns a PROTOBUF schema.
func NewProtobufSchema(definition string, refs ...Reference) Schema {
	return Schema{Type: SchemaTypeProtobuf, Schema: definition, References: refs}
}

// validate checks the structural invariants of a schema before it reaches an adapter.
func (s Schema) validate() error {
	if _, ok := adapters[s.Type]; !ok {
		return newArgumentError("unsupported schema type %q", s.Type)
	}
	if s.Schema == "" {
		return newArgumentError("schema definition is required")
	}
	if s.References != nil && len(s.References) == 0 {
		return newArgumentError("references must be omitted or non-empty")
	}
	seen := make(map[string]struct{}, len(s.References))
	for _, ref := range s.References {
		if ref.Name == "" || ref.Subject == "" {
			return newArgumentError("reference requires a name and a subject: %+v", ref)
		}
		if _, dup := seen[ref.Name]; dup {
			return newArgumentError("duplicate reference name %q", ref.Name)
		}
		seen[ref.Name] = struct{}{}
	}
	return nil
}

// SubjectSchema is a schema as stored under a subject.
type SubjectSchema struct {
	Subject string `json:"subject"`
	Version int    `json:"version"`
	ID      int    `json:"id"`
	Schema
}

// RegisteredSchema is the result of a successful registration.
type RegisteredSchema struct {
	ID int
}

// String implements fmt.Stringer.
func (r RegisteredSchema) String() string {
	return fmt.Sprintf("schema id %d", r.ID)
}
