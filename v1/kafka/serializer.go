package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Aleph-Alpha/schema-registry-client/v1/schema_registry"
)

// Serializer turns a value into a message body.
type Serializer interface {
	Serialize(ctx context.Context, data interface{}) ([]byte, error)
}

// Deserializer turns a message body back into a value.
type Deserializer interface {
	Deserialize(ctx context.Context, data []byte) (interface{}, error)
}

// Codec is the part of *schema_registry.Registry a RegistrySerializer needs.
type Codec interface {
	Encode(ctx context.Context, id int, payload interface{}) ([]byte, error)
	Decode(ctx context.Context, buf []byte) (interface{}, error)
	LatestSchemaID(ctx context.Context, subject string) (int, error)
	GetLatestSchemaID(ctx context.Context, subject string) (int, error)
}

var _ Codec = (*schema_registry.Registry)(nil)

// RegistrySerializer frames values in the schema registry wire format. It is
// both the Serializer and the Deserializer of a client.
//
// Deserialize needs no configured schema: the registry id travels in every
// message.
type RegistrySerializer struct {
	codec   Codec
	schema  SchemaConfig
	metrics *serializerMetrics
}

var (
	_ Serializer   = (*RegistrySerializer)(nil)
	_ Deserializer = (*RegistrySerializer)(nil)
)

// NewRegistrySerializer builds a serializer around codec. reg may be nil, in
// which case no metrics are recorded.
func NewRegistrySerializer(codec Codec, schema SchemaConfig, reg prometheus.Registerer) (*RegistrySerializer, error) {
	if codec == nil {
		return nil, fmt.Errorf("kafka: registry serializer needs a codec")
	}
	if schema.ID < 0 {
		return nil, fmt.Errorf("kafka: invalid schema id %d", schema.ID)
	}

	s := &RegistrySerializer{codec: codec, schema: schema}
	if reg != nil {
		m, err := newSerializerMetrics(reg)
		if err != nil {
			return nil, fmt.Errorf("kafka: registering serializer metrics: %w", err)
		}
		s.metrics = m
	}
	return s, nil
}

// Serialize encodes data with the configured schema id, or with the latest
// id of the configured subject.
//
// The latest id is looked up once and then served from the registry cache. When
// the registry no longer knows that id, it is fetched again and the encode
// retried once.
func (s *RegistrySerializer) Serialize(ctx context.Context, data interface{}) (out []byte, err error) {
	defer func() { s.metrics.record("serialize", err) }()

	id, err := s.schemaID(ctx)
	if err != nil {
		return nil, err
	}
	out, err = s.codec.Encode(ctx, id, data)
	if err == nil || s.schema.ID > 0 || !schema_registry.IsNotFound(err) {
		return out, err
	}

	fresh, lookupErr := s.codec.GetLatestSchemaID(ctx, s.schema.Subject)
	if lookupErr != nil || fresh == id {
		return nil, err
	}
	return s.codec.Encode(ctx, fresh, data)
}

// Deserialize decodes a framed message body with the schema named in its header.
func (s *RegistrySerializer) Deserialize(ctx context.Context, data []byte) (out interface{}, err error) {
	defer func() { s.metrics.record("deserialize", err) }()
	return s.codec.Decode(ctx, data)
}

func (s *RegistrySerializer) schemaID(ctx context.Context) (int, error) {
	if s.schema.ID > 0 {
		return s.schema.ID, nil
	}
	if s.schema.Subject == "" {
		return 0, ErrNoSchema
	}
	id, err := s.codec.LatestSchemaID(ctx, s.schema.Subject)
	if err != nil {
		return 0, fmt.Errorf("resolving latest schema of %q: %w", s.schema.Subject, err)
	}
	return id, nil
}

// serializerMetrics counts serialized and deserialized messages. A nil
// *serializerMetrics records nothing.
type serializerMetrics struct {
	messages *prometheus.CounterVec
}

func newSerializerMetrics(reg prometheus.Registerer) (*serializerMetrics, error) {
	messages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kafka_serializer_messages_total",
		Help: "Messages passed through the registry serializer by direction and status.",
	}, []string{"direction", "status"})

	if err := reg.Register(messages); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, fmt.Errorf("collector kafka_serializer_messages_total has type %T", are.ExistingCollector)
		}
		messages = existing
	}
	return &serializerMetrics{messages: messages}, nil
}

func (m *serializerMetrics) record(direction string, err error) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(direction, errorStatus(err)).Inc()
}

// errorStatus labels an outcome: success, validation (the value does not
// match its schema), not_found (unknown schema id or subject) or error.
func errorStatus(err error) string {
	var verr *schema_registry.ValidationError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &verr):
		return "validation"
	case schema_registry.IsNotFound(err):
		return "not_found"
	default:
		return "error"
	}
}
