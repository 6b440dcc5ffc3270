package kafka

import (
	"context"
	"sync"
)

// Client publishes and consumes registry framed messages.
type Client interface {
	// Publish serializes data and writes it with key. Values that are already
	// []byte are written as they are. The optional header map is added to the
	// message next to the trace context headers.
	Publish(ctx context.Context, key string, data interface{}, headers ...map[string]interface{}) error

	// Consume fetches messages until ctx is canceled or the client shuts down.
	// The channel is closed when consumption stops.
	Consume(ctx context.Context, wg *sync.WaitGroup) <-chan Message

	// ConsumeParallel is Consume with numWorkers concurrent fetchers.
	ConsumeParallel(ctx context.Context, wg *sync.WaitGroup, numWorkers int) <-chan Message

	// Deserialize decodes the body of msg with the client's Deserializer.
	Deserialize(msg Message) (interface{}, error)

	SetSerializer(s Serializer)
	SetDeserializer(d Deserializer)

	TranslateError(err error) error
	IsRetryableError(err error) bool
	IsPermanentError(err error) bool
	IsAuthenticationError(err error) bool

	GracefulShutdown()
}

// Message is a fetched Kafka message.
type Message interface {
	// Context carries the producer's trace, so spans started from it join
	// the trace the message was published in.
	Context() context.Context

	// CommitMsg commits the message offset for the consumer group.
	CommitMsg() error

	// Body is the raw, still framed, value.
	Body() []byte

	// Value decodes Body with the client's Deserializer.
	Value() (interface{}, error)

	Key() string
	Header() map[string]interface{}
	Topic() string
	Partition() int
	Offset() int64
}

var _ Client = (*KafkaClient)(nil)
