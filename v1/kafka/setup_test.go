package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/schema-registry-client/v1/schema_registry"
)

func TestNewClientRequiresBrokersAndTopic(t *testing.T) {
	_, err := NewClient(Config{Topic: "orders"})
	assert.Error(t, err)

	_, err = NewClient(Config{Brokers: []string{"localhost:9092"}})
	assert.Error(t, err)
}

func TestNewClientProducer(t *testing.T) {
	client, err := NewClient(Config{
		Brokers:                []string{"localhost:9092"},
		Topic:                  "orders",
		CompressionCodec:       "zstd",
		AllowAutoTopicCreation: true,
	})
	require.NoError(t, err)
	defer client.GracefulShutdown()

	assert.Nil(t, client.reader)
	w, ok := client.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "orders", w.Topic)
	assert.True(t, w.AllowAutoTopicCreation)
	assert.Equal(t, kafka.RequireAll, w.RequiredAcks)

	assert.Equal(t, DefaultMaxAttempts, client.cfg.MaxAttempts)
	assert.Equal(t, DefaultWriteTimeout, client.cfg.WriteTimeout)
	assert.Equal(t, int64(FirstOffset), client.cfg.StartOffset)
}

func TestNewClientConsumer(t *testing.T) {
	client, err := NewClient(Config{
		Brokers:    []string{"localhost:9092"},
		Topic:      "orders",
		GroupID:    "billing",
		IsConsumer: true,
	})
	require.NoError(t, err)
	defer client.GracefulShutdown()

	assert.NotNil(t, client.reader)
	assert.Nil(t, client.writer)
}

func TestNewWriterCompression(t *testing.T) {
	for codec, want := range map[string]kafka.Compression{
		"gzip":   kafka.Gzip,
		"snappy": kafka.Snappy,
		"lz4":    kafka.Lz4,
		"zstd":   kafka.Zstd,
	} {
		w, err := newWriter(Config{Brokers: []string{"localhost:9092"}, Topic: "t", CompressionCodec: codec}, &kafka.Dialer{}, &KafkaClient{})
		require.NoError(t, err, codec)
		assert.Equal(t, want, w.Compression, codec)
		_ = w.Close()
	}

	_, err := newWriter(Config{Brokers: []string{"localhost:9092"}, Topic: "t", CompressionCodec: "brotli"}, &kafka.Dialer{}, &KafkaClient{})
	assert.Error(t, err)
}

func TestNewClientTLSAndSASLErrors(t *testing.T) {
	_, err := NewClient(Config{
		Brokers: []string{"localhost:9092"},
		Topic:   "orders",
		TLS:     TLSConfig{Enabled: true, CACertPath: "/nonexistent/ca.crt"},
	})
	assert.Error(t, err)

	_, err = NewClient(Config{
		Brokers: []string{"localhost:9092"},
		Topic:   "orders",
		SASL:    SASLConfig{Enabled: true, Mechanism: "GSSAPI"},
	})
	assert.Error(t, err)
}

func TestSASLMechanism(t *testing.T) {
	for _, mechanism := range []string{"PLAIN", "SCRAM-SHA-256", "scram-sha-512"} {
		m, err := saslMechanism(SASLConfig{Mechanism: mechanism, Username: "u", Password: "p"})
		require.NoError(t, err, mechanism)
		assert.Equal(t, strings.ToUpper(mechanism), m.Name())
	}

	_, err := saslMechanism(SASLConfig{Mechanism: "GSSAPI"})
	assert.Error(t, err)
}

func TestLoadTLSConfig(t *testing.T) {
	cfg, err := loadTLSConfig(TLSConfig{InsecureSkipVerify: true})
	require.NoError(t, err)
	assert.True(t, cfg.InsecureSkipVerify)
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)

	_, err = loadTLSConfig(TLSConfig{CACertPath: "/nonexistent/ca.crt"})
	assert.Error(t, err)

	_, err = loadTLSConfig(TLSConfig{ClientCertPath: "/nonexistent/client.crt", ClientKeyPath: "/nonexistent/client.key"})
	assert.Error(t, err)
}

func TestKafkaErrorLogger(t *testing.T) {
	log := &recordingLogger{}
	client := &KafkaClient{cfg: Config{Topic: "orders"}}

	logFn := kafkaErrorLogger(client)
	logFn("dropped %d messages", 3)
	assert.Empty(t, log.all())

	client.WithLogger(log)
	logFn("dropped %d messages", 3)
	assert.Equal(t, []string{"kafka internal error"}, log.all())
}

func TestTranslateError(t *testing.T) {
	client := &KafkaClient{}

	assert.NoError(t, client.TranslateError(nil))

	plain := errors.New("boom")
	assert.Same(t, plain, client.TranslateError(plain))

	cases := map[kafka.Error]error{
		kafka.UnknownTopicOrPartition:  ErrTopicNotFound,
		kafka.MessageSizeTooLarge:      ErrMessageTooLarge,
		kafka.LeaderNotAvailable:       ErrLeaderNotAvailable,
		kafka.RequestTimedOut:          ErrRequestTimedOut,
		kafka.SASLAuthenticationFailed: ErrAuthenticationFailed,
		kafka.TopicAuthorizationFailed: ErrAuthorizationFailed,
		kafka.RebalanceInProgress:      ErrRebalanceInProgress,
	}
	for code, sentinel := range cases {
		wrapped := fmt.Errorf("write: %w", code)
		translated := client.TranslateError(wrapped)
		assert.ErrorIs(t, translated, sentinel, code.Title())
		assert.ErrorIs(t, translated, code)
	}
}

func TestErrorClassification(t *testing.T) {
	client := &KafkaClient{}

	assert.True(t, client.IsRetryableError(kafka.LeaderNotAvailable))
	assert.True(t, client.IsRetryableError(context.DeadlineExceeded))
	assert.False(t, client.IsRetryableError(nil))
	assert.False(t, client.IsRetryableError(errors.New("boom")))

	assert.True(t, client.IsPermanentError(kafka.MessageSizeTooLarge))
	assert.True(t, client.IsPermanentError(fmt.Errorf("publish: %w", ErrNoSchema)))
	assert.True(t, client.IsPermanentError(&schema_registry.ArgumentError{Message: "bad"}))
	assert.False(t, client.IsPermanentError(kafka.LeaderNotAvailable))

	assert.True(t, client.IsPermanentError(kafka.UnknownTopicOrPartition))
	client.cfg.AllowAutoTopicCreation = true
	assert.False(t, client.IsPermanentError(kafka.UnknownTopicOrPartition))

	assert.True(t, client.IsAuthenticationError(kafka.SASLAuthenticationFailed))
	assert.True(t, client.IsAuthenticationError(kafka.GroupAuthorizationFailed))
	assert.False(t, client.IsAuthenticationError(kafka.LeaderNotAvailable))
}
