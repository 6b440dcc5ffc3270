package kafka

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/schema-registry-client/v1/observability"
)

const instrumentationName = "github.com/Aleph-Alpha/schema-registry-client/v1/kafka"

// messageWriter is the part of *kafka.Writer the client uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// messageReader is the part of *kafka.Reader the client uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaClient produces or consumes messages on one topic. Values go through
// the configured Serializer and Deserializer, normally a RegistrySerializer,
// and carry the producer's trace context in their headers.
type KafkaClient struct {
	cfg Config

	logger   Logger
	observer observability.Observer

	tracer     trace.Tracer
	propagator propagation.TextMapPropagator

	writer messageWriter
	reader messageReader

	serializer   Serializer
	deserializer Deserializer

	mu sync.RWMutex

	shutdownSignal    chan struct{}
	closeShutdownOnce sync.Once
}

// NewClient creates a writer, or a reader when cfg.IsConsumer is set. No
// connection is made until the first message is written or fetched.
func NewClient(cfg Config) (*KafkaClient, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka: topic is required")
	}
	cfg = cfg.withDefaults()

	k := &KafkaClient{
		cfg:            cfg,
		tracer:         otel.GetTracerProvider().Tracer(instrumentationName),
		propagator:     otel.GetTextMapPropagator(),
		shutdownSignal: make(chan struct{}),
	}

	dialer, err := newDialer(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.IsConsumer {
		k.reader = newReader(cfg, dialer, k)
		return k, nil
	}

	w, err := newWriter(cfg, dialer, k)
	if err != nil {
		return nil, err
	}
	k.writer = w
	return k, nil
}

// WithLogger sets the logger. It also receives kafka-go's internal errors.
func (k *KafkaClient) WithLogger(logger Logger) *KafkaClient {
	k.logger = logger
	return k
}

func (k *KafkaClient) WithObserver(observer observability.Observer) *KafkaClient {
	k.observer = observer
	return k
}

// WithTracerProvider makes publish and consume spans come from tp instead of
// the global provider.
func (k *KafkaClient) WithTracerProvider(tp trace.TracerProvider) *KafkaClient {
	k.tracer = tp.Tracer(instrumentationName)
	return k
}

// WithPropagator replaces the propagator used to carry trace context in
// message headers.
func (k *KafkaClient) WithPropagator(p propagation.TextMapPropagator) *KafkaClient {
	k.propagator = p
	return k
}

func (k *KafkaClient) WithSerializer(serializer Serializer) *KafkaClient {
	k.SetSerializer(serializer)
	return k
}

func (k *KafkaClient) WithDeserializer(deserializer Deserializer) *KafkaClient {
	k.SetDeserializer(deserializer)
	return k
}

func (k *KafkaClient) SetSerializer(s Serializer) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.serializer = s
}

func (k *KafkaClient) SetDeserializer(d Deserializer) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.deserializer = d
}

func (k *KafkaClient) logInfo(ctx context.Context, msg string, fields map[string]interface{}) {
	if k.logger != nil {
		k.logger.InfoWithContext(ctx, msg, nil, fields)
	}
}

func (k *KafkaClient) logWarn(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if k.logger != nil {
		k.logger.WarnWithContext(ctx, msg, err, fields)
	}
}

func (k *KafkaClient) logError(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if k.logger != nil {
		k.logger.ErrorWithContext(ctx, msg, err, fields)
	}
}

// kafkaErrorLogger forwards kafka-go's internal errors to the client logger,
// which may be set after the writer or reader is built.
func kafkaErrorLogger(client *KafkaClient) kafka.LoggerFunc {
	return func(msg string, args ...interface{}) {
		if len(args) > 0 {
			msg = fmt.Sprintf(msg, args...)
		}
		client.logError(context.Background(), "kafka internal error", nil, map[string]interface{}{
			"detail": msg,
			"topic":  client.cfg.Topic,
		})
	}
}

var compressionCodecs = map[string]compress.Codec{
	"gzip":   &compress.GzipCodec,
	"snappy": &compress.SnappyCodec,
	"lz4":    &compress.Lz4Codec,
	"zstd":   &compress.ZstdCodec,
}

func newWriter(cfg Config, dialer *kafka.Dialer, client *KafkaClient) (*kafka.Writer, error) {
	wc := kafka.WriterConfig{
		Brokers:      cfg.Brokers,
		Topic:        cfg.Topic,
		Dialer:       dialer,
		Balancer:     &kafka.Hash{},
		MaxAttempts:  cfg.MaxAttempts,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: cfg.RequiredAcks,
		Async:        cfg.Async,
		ErrorLogger:  kafkaErrorLogger(client),
	}
	if cfg.Async {
		wc.BatchSize = cfg.BatchSize
		wc.BatchTimeout = cfg.BatchTimeout
	}
	if cfg.CompressionCodec != "" {
		codec, ok := compressionCodecs[strings.ToLower(cfg.CompressionCodec)]
		if !ok {
			return nil, fmt.Errorf("kafka: unsupported compression codec %q", cfg.CompressionCodec)
		}
		wc.CompressionCodec = codec
	}

	w := kafka.NewWriter(wc)
	w.AllowAutoTopicCreation = cfg.AllowAutoTopicCreation
	return w, nil
}

func newReader(cfg Config, dialer *kafka.Dialer, client *KafkaClient) *kafka.Reader {
	rc := kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     cfg.GroupID,
		Dialer:      dialer,
		MinBytes:    cfg.MinBytes,
		MaxBytes:    cfg.MaxBytes,
		MaxWait:     cfg.MaxWait,
		StartOffset: cfg.StartOffset,
		ErrorLogger: kafkaErrorLogger(client),
	}
	if cfg.EnableAutoCommit {
		rc.CommitInterval = cfg.CommitInterval
	}
	// kafka-go rejects a partition together with a group.
	if cfg.GroupID == "" && cfg.Partition >= 0 {
		rc.Partition = cfg.Partition
	}
	return kafka.NewReader(rc)
}

// newDialer builds the dialer shared by the writer and the reader.
func newDialer(cfg Config) (*kafka.Dialer, error) {
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	if cfg.TLS.Enabled {
		tlsConfig, err := loadTLSConfig(cfg.TLS)
		if err != nil {
			return nil, fmt.Errorf("kafka: tls: %w", err)
		}
		dialer.TLS = tlsConfig
	}
	if cfg.SASL.Enabled {
		mechanism, err := saslMechanism(cfg.SASL)
		if err != nil {
			return nil, fmt.Errorf("kafka: sasl: %w", err)
		}
		dialer.SASLMechanism = mechanism
	}
	return dialer, nil
}

func loadTLSConfig(cfg TLSConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec
	}

	if cfg.CACertPath != "" {
		pem, err := os.ReadFile(cfg.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("reading CA bundle: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", cfg.CACertPath)
		}
		tlsConfig.RootCAs = pool
	}

	if cfg.ClientCertPath != "" || cfg.ClientKeyPath != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCertPath, cfg.ClientKeyPath)
		if err != nil {
			return nil, fmt.Errorf("loading client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

var scramAlgorithms = map[string]scram.Algorithm{
	"SCRAM-SHA-256": scram.SHA256,
	"SCRAM-SHA-512": scram.SHA512,
}

func saslMechanism(cfg SASLConfig) (sasl.Mechanism, error) {
	name := strings.ToUpper(cfg.Mechanism)
	if name == "PLAIN" {
		return plain.Mechanism{Username: cfg.Username, Password: cfg.Password}, nil
	}
	algo, ok := scramAlgorithms[name]
	if !ok {
		return nil, fmt.Errorf("unsupported mechanism %q", cfg.Mechanism)
	}
	return scram.Mechanism(algo, cfg.Username, cfg.Password)
}
