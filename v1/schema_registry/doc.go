// Package schema_registry lets producers and consumers agree on a schema by
// reference. Messages carry a small header naming a schema registered in a
// Confluent compatible Schema Registry, and the receiver resolves that header to
// decode the payload.
//
// Core Features:
//   - Confluent wire format framing (magic byte, big-endian registry id, message indexes)
//   - Avro, JSON Schema and Protobuf adapters behind one Adapter interface
//   - Reference resolution across subjects, leaves first
//   - Per-id cache of parsed schemas with one registry round-trip per cold id
//   - Compatibility enforcement on registration
//   - HTTP and franz-go transports, Prometheus metrics, OpenTelemetry spans and an fx module
//
// Basic Usage:
//
//	import "github.com/Aleph-Alpha/schema-registry-client/v1/schema_registry"
//
//	api, err := schema_registry.NewClient(schema_registry.Config{
//	    URL:      "http://localhost:8081",
//	    Username: "user",     // Optional
//	    Password: "password", // Optional
//	    Timeout:  10 * time.Second,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	registry, err := schema_registry.New(api)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Register a schema. The subject is derived from namespace and name: "com.example.User".
//	user := schema_registry.NewAvroSchema(`{
//	    "type": "record",
//	    "namespace": "com.example",
//	    "name": "User",
//	    "fields": [
//	        {"name": "name", "type": "string"},
//	        {"name": "age", "type": "int"}
//	    ]
//	}`)
//	registered, err := registry.Register(ctx, user, schema_registry.RegisterOptions{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Encode and decode
//	buf, err := registry.Encode(ctx, registered.ID, map[string]interface{}{"name": "Ada", "age": 36})
//	decoded, err := registry.Decode(ctx, buf)
//
// References:
//
// A schema may reference schemas registered earlier. Register the referenced
// schema first and point at its subject and version:
//
//	b := schema_registry.NewAvroSchema(`{"type":"record","namespace":"test","name":"B","fields":[{"name":"id","type":"int"}]}`)
//	_, err := registry.Register(ctx, b, schema_registry.RegisterOptions{Subject: "B"})
//	version, err := ... // version of "B", e.g. via API.SchemaByVersion(ctx, "B", schema_registry.LatestVersion)
//
//	a := schema_registry.NewAvroSchema(
//	    `{"type":"record","namespace":"test","name":"A","fields":[{"name":"id","type":"int"},{"name":"b","type":"test.B"}]}`,
//	    schema_registry.Reference{Name: "test.B", Subject: "B", Version: version},
//	)
//	_, err = registry.Register(ctx, a, schema_registry.RegisterOptions{Subject: "A"})
//
// Wire Format:
//
//	[0x00][registry id, 4 bytes big-endian][message indexes, 1 byte each][payload]
//
// Avro and JSON Schema frame no message indexes. Protobuf frames a single 0x00
// selecting the first message, and strips leading zero bytes before decoding.
// EncodeExtended and DecodeExtended handle the layout with a 4-byte index count.
//
// Errors:
//
// Callers branch with errors.As:
//
//	var verr *schema_registry.ValidationError
//	if errors.As(err, &verr) {
//	    for _, path := range verr.Paths() { ... }
//	}
//
//   - *ArgumentError: bad input, a missing schema attribute or an unresolvable reference
//   - *ValidationError: the payload does not satisfy the schema; carries every invalid path
//   - *CompatibilityError: the subject is configured with another compatibility level
//   - *ResponseError: any other registry failure; IsNotFound reports 404s
//
// FX Integration:
//
//	app := fx.New(
//	    schema_registry.FXModule,
//	    fx.Provide(
//	        func() schema_registry.Config {
//	            return schema_registry.Config{URL: "http://localhost:8081"}
//	        },
//	        // Optional: the logger from v1/logger
//	        func(l logger.Logger) schema_registry.Logger { return l },
//	    ),
//	    fx.Invoke(func(r *schema_registry.Registry) {
//	        // use r
//	    }),
//	)
//
// Thread Safety:
//
// Registry, Cache and both API implementations are safe for concurrent use.
// Parsed schemas returned by the cache must be treated as read-only.
package schema_registry
