package kafka

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ConsumerMessage is the Message delivered by Consume.
type ConsumerMessage struct {
	ctx          context.Context
	message      kafka.Message
	reader       messageReader
	deserializer Deserializer
}

var _ Message = (*ConsumerMessage)(nil)

func (k *KafkaClient) Consume(ctx context.Context, wg *sync.WaitGroup) <-chan Message {
	return k.ConsumeParallel(ctx, wg, 1)
}

func (k *KafkaClient) ConsumeParallel(ctx context.Context, wg *sync.WaitGroup, numWorkers int) <-chan Message {
	if numWorkers < 1 {
		numWorkers = 1
	}

	outChan := make(chan Message, 100*numWorkers)

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(outChan)

		workerWg := &sync.WaitGroup{}

		for i := 0; i < numWorkers; i++ {
			workerWg.Add(1)
			go func(workerID int) {
				defer workerWg.Done()
				k.consumeWorker(ctx, outChan, workerID)
			}(i)
		}

		workerWg.Wait()
	}()

	return outChan
}

func (k *KafkaClient) consumeWorker(ctx context.Context, outChan chan<- Message, workerID int) {
	fields := map[string]interface{}{"worker_id": workerID, "topic": k.cfg.Topic}

	for {
		select {
		case <-k.shutdownSignal:
			k.logInfo(ctx, "stopping consumer worker on shutdown", fields)
			return
		case <-ctx.Done():
			k.logInfo(ctx, "stopping consumer worker on context cancellation", fields)
			return
		default:
		}

		k.mu.RLock()
		reader := k.reader
		deserializer := k.deserializer
		k.mu.RUnlock()

		if reader == nil {
			k.logError(ctx, "kafka reader is not initialized", ErrReaderNotInitialized, fields)
			return
		}

		start := time.Now()
		msg, err := reader.FetchMessage(ctx)

		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			// A closed reader ends consumption just like a shutdown.
			select {
			case <-k.shutdownSignal:
				return
			default:
			}
			err = translateError(err)
			k.observeOperation("consume", k.cfg.Topic, "", time.Since(start), err, 0)
			k.logError(ctx, "failed to fetch message", err, fields)
			continue
		}

		msgCtx := k.propagator.Extract(ctx, headerCarrier{headers: &msg.Headers})
		msgCtx, span := k.tracer.Start(msgCtx, "kafka.consume",
			trace.WithSpanKind(trace.SpanKindConsumer),
			trace.WithAttributes(
				attribute.String("messaging.system", "kafka"),
				attribute.String("messaging.destination.name", msg.Topic),
				attribute.Int("messaging.kafka.destination.partition", msg.Partition),
				attribute.Int64("messaging.kafka.message.offset", msg.Offset),
				attribute.Int("messaging.message.body.size", len(msg.Value)),
			),
		)
		k.observeOperation("consume", msg.Topic, strconv.Itoa(msg.Partition), time.Since(start), nil, int64(len(msg.Value)))

		delivered := &ConsumerMessage{
			ctx:          msgCtx,
			message:      msg,
			reader:       reader,
			deserializer: deserializer,
		}

		select {
		case outChan <- delivered:
			span.End()
		case <-ctx.Done():
			span.End()
			return
		case <-k.shutdownSignal:
			span.End()
			return
		}
	}
}

func (k *KafkaClient) Publish(ctx context.Context, key string, data interface{}, headers ...map[string]interface{}) (publishErr error) {
	start := time.Now()
	var msgSize int64

	ctx, span := k.tracer.Start(ctx, "kafka.publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", k.cfg.Topic),
		),
	)

	defer func() {
		if publishErr != nil {
			span.RecordError(publishErr)
			span.SetStatus(codes.Error, publishErr.Error())
		}
		span.SetAttributes(attribute.Int64("messaging.message.body.size", msgSize))
		span.End()
		k.observeOperation("produce", k.cfg.Topic, "", time.Since(start), publishErr, msgSize)
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	k.mu.RLock()
	writer := k.writer
	serializer := k.serializer
	k.mu.RUnlock()

	if writer == nil {
		return ErrWriterNotInitialized
	}

	var value []byte
	switch v := data.(type) {
	case []byte:
		value = v
	default:
		if serializer == nil {
			return ErrNoSerializer
		}
		var err error
		value, err = serializer.Serialize(ctx, data)
		if err != nil {
			return err
		}
	}
	msgSize = int64(len(value))

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
	}
	if len(headers) > 0 {
		msg.Headers = toKafkaHeaders(headers[0])
	}
	k.propagator.Inject(ctx, headerCarrier{headers: &msg.Headers})

	if err := writer.WriteMessages(ctx, msg); err != nil {
		return translateError(err)
	}
	return nil
}

// Deserialize decodes msg with the client's current Deserializer.
func (k *KafkaClient) Deserialize(msg Message) (interface{}, error) {
	k.mu.RLock()
	deserializer := k.deserializer
	k.mu.RUnlock()

	if deserializer == nil {
		return nil, ErrNoDeserializer
	}
	return deserializer.Deserialize(msg.Context(), msg.Body())
}

func (cm *ConsumerMessage) Context() context.Context {
	return cm.ctx
}

func (cm *ConsumerMessage) CommitMsg() error {
	return cm.reader.CommitMessages(context.Background(), cm.message)
}

func (cm *ConsumerMessage) Body() []byte {
	return cm.message.Value
}

func (cm *ConsumerMessage) Value() (interface{}, error) {
	if cm.deserializer == nil {
		return nil, ErrNoDeserializer
	}
	return cm.deserializer.Deserialize(cm.ctx, cm.message.Value)
}

func (cm *ConsumerMessage) Key() string {
	return string(cm.message.Key)
}

func (cm *ConsumerMessage) Header() map[string]interface{} {
	headers := make(map[string]interface{}, len(cm.message.Headers))
	for _, h := range cm.message.Headers {
		headers[h.Key] = string(h.Value)
	}
	return headers
}

func (cm *ConsumerMessage) Topic() string {
	return cm.message.Topic
}

func (cm *ConsumerMessage) Partition() int {
	return cm.message.Partition
}

func (cm *ConsumerMessage) Offset() int64 {
	return cm.message.Offset
}
