package schema_registry

// ParsedSchema is the compiled, type specific form of a schema: a compiled Avro
// schema, a JSON Schema validator or a Protobuf message descriptor.
//
// A ParsedSchema belongs to the adapter that produced it and must not be modified
// once it is cached.
type ParsedSchema interface {
	// SchemaType reports which adapter produced the schema.
	SchemaType() SchemaType

	// Definition returns the schema text as registered (before reference merging).
	Definition() string
}

// ResolvedReference is a reference together with the body of the schema it points to.
type ResolvedReference struct {
	Reference

	// Schema is the referenced schema as stored in the registry, including its own references.
	Schema Schema
}

// SchemaOptions carries the per-type parse options.
type SchemaOptions struct {
	Avro     AvroOptions
	JSON     JSONOptions
	Protobuf ProtobufOptions
}

// Adapter implements one schema type.
type Adapter interface {
	// Type returns the schema type handled by the adapter.
	Type() SchemaType

	// Parse compiles schema. refs holds every transitively referenced schema in
	// dependency order, leaves first.
	Parse(schema Schema, refs []ResolvedReference, opts SchemaOptions) (ParsedSchema, error)

	// Validate checks a parsed schema for problems the compiler tolerates.
	Validate(parsed ParsedSchema) error

	// ToBytes validates payload against parsed and serializes it.
	ToBytes(parsed ParsedSchema, payload interface{}) ([]byte, error)

	// FromBytes deserializes data with parsed.
	FromBytes(parsed ParsedSchema, data []byte) (interface{}, error)

	// SubjectFor derives a subject name from the schema definition.
	SubjectFor(schema Schema, separator string) (string, error)

	// Equal reports whether two definitions of this type describe the same schema.
	Equal(a, b string) bool

	// MessageIndexes returns the indexes framed in front of the payload.
	MessageIndexes(parsed ParsedSchema) []int
}

// adapters is the fixed dispatch table over schema types.
var adapters = map[SchemaType]Adapter{
	SchemaTypeAvro:     avroAdapter{},
	SchemaTypeJSON:     jsonAdapter{},
	SchemaTypeProtobuf: protobufAdapter{},
}

// AdapterFor returns the adapter handling t.
func AdapterFor(t SchemaType) (Adapter, error) {
	a, ok := adapters[t]
	if !ok {
		return nil, newArgumentError("unsupported schema type %q", t)
	}
	return a, nil
}

// mismatchedSchema is returned when an adapter receives a schema compiled by another one.
func mismatchedSchema(want SchemaType, got ParsedSchema) error {
	if got == nil {
		return newArgumentError("expected a parsed %s schema, got nil", want)
	}
	return newArgumentError("expected a parsed %s schema, got %s", want, got.SchemaType())
}
