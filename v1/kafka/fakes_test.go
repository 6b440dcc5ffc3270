package kafka

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Aleph-Alpha/schema-registry-client/v1/observability"
	"github.com/Aleph-Alpha/schema-registry-client/v1/schema_registry"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *fakeWriter) messages() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.msgs...)
}

// fakeReader hands out queued messages and blocks once the queue is empty.
type fakeReader struct {
	queue   chan kafka.Message
	done    chan struct{}
	once    sync.Once
	mu      sync.Mutex
	commits []kafka.Message
}

func newFakeReader(msgs ...kafka.Message) *fakeReader {
	r := &fakeReader{queue: make(chan kafka.Message, len(msgs)+1), done: make(chan struct{})}
	for _, m := range msgs {
		r.queue <- m
	}
	return r
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.queue:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	case <-r.done:
		return kafka.Message{}, io.EOF
	}
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commits = append(r.commits, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.once.Do(func() { close(r.done) })
	return nil
}

func (r *fakeReader) committed() []kafka.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]kafka.Message(nil), r.commits...)
}

// fakeCodec frames fmt.Sprint(payload) behind the registry header.
type fakeCodec struct {
	latest    map[string]int
	encodeErr error
}

func (c *fakeCodec) Encode(_ context.Context, id int, payload interface{}) ([]byte, error) {
	if c.encodeErr != nil {
		return nil, c.encodeErr
	}
	return schema_registry.EncodeMessage(int32(id), []byte(fmt.Sprint(payload))), nil
}

func (c *fakeCodec) Decode(_ context.Context, buf []byte) (interface{}, error) {
	msg, err := schema_registry.DecodeMessage(buf)
	if err != nil {
		return nil, err
	}
	return fmt.Sprintf("%d:%s", msg.RegistryID, msg.Payload), nil
}

func (c *fakeCodec) LatestSchemaID(ctx context.Context, subject string) (int, error) {
	return c.GetLatestSchemaID(ctx, subject)
}

func (c *fakeCodec) GetLatestSchemaID(_ context.Context, subject string) (int, error) {
	id, ok := c.latest[subject]
	if !ok {
		return 0, &schema_registry.ResponseError{StatusCode: 404, ErrorCode: 40401, Message: "Subject not found."}
	}
	return id, nil
}

type recordingObserver struct {
	mu  sync.Mutex
	ops []observability.OperationContext
}

func (o *recordingObserver) ObserveOperation(ctx observability.OperationContext) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ops = append(o.ops, ctx)
}

func (o *recordingObserver) operations(name string) []observability.OperationContext {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []observability.OperationContext
	for _, op := range o.ops {
		if op.Operation == name {
			out = append(out, op)
		}
	}
	return out
}

type recordingLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *recordingLogger) record(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

func (l *recordingLogger) InfoWithContext(_ context.Context, msg string, _ error, _ ...map[string]interface{}) {
	l.record(msg)
}

func (l *recordingLogger) WarnWithContext(_ context.Context, msg string, _ error, _ ...map[string]interface{}) {
	l.record(msg)
}

func (l *recordingLogger) ErrorWithContext(_ context.Context, msg string, _ error, _ ...map[string]interface{}) {
	l.record(msg)
}

func (l *recordingLogger) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.messages...)
}

// testClient is a client wired to fakes, a span recorder and a recording observer.
type testClient struct {
	*KafkaClient
	writer   *fakeWriter
	reader   *fakeReader
	spans    *tracetest.SpanRecorder
	observer *recordingObserver
}

func newTestClient(reader *fakeReader) *testClient {
	spans := tracetest.NewSpanRecorder()
	tc := &testClient{
		KafkaClient: &KafkaClient{
			cfg:            Config{Brokers: []string{"localhost:9092"}, Topic: "orders"}.withDefaults(),
			propagator:     propagation.TraceContext{},
			shutdownSignal: make(chan struct{}),
		},
		writer:   &fakeWriter{},
		reader:   reader,
		spans:    spans,
		observer: &recordingObserver{},
	}
	tc.WithTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans)))
	tc.WithObserver(tc.observer)
	tc.KafkaClient.writer = tc.writer
	if reader != nil {
		tc.KafkaClient.reader = reader
	}
	return tc
}
