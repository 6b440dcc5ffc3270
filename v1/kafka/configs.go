package kafka

import (
	"context"
	"time"
)

// Config defines the Kafka connection and the schema its values are framed with.
type Config struct {
	// Brokers is the list of bootstrap brokers, e.g. ["localhost:9092"].
	Brokers []string `yaml:"brokers" envconfig:"KAFKA_BROKERS"`

	// Topic is read from by consumers and written to by producers.
	Topic string `yaml:"topic" envconfig:"KAFKA_TOPIC"`

	// GroupID enables consumer groups. Leave empty to read a single partition.
	GroupID string `yaml:"group_id" envconfig:"KAFKA_GROUP_ID"`

	// IsConsumer selects a reader instead of a writer.
	IsConsumer bool `yaml:"is_consumer" envconfig:"KAFKA_IS_CONSUMER"`

	MinBytes int           `yaml:"min_bytes" envconfig:"KAFKA_MIN_BYTES"`
	MaxBytes int           `yaml:"max_bytes" envconfig:"KAFKA_MAX_BYTES"`
	MaxWait  time.Duration `yaml:"max_wait" envconfig:"KAFKA_MAX_WAIT"`

	// CommitInterval is only used with EnableAutoCommit. Otherwise messages
	// are committed explicitly through Message.CommitMsg.
	CommitInterval   time.Duration `yaml:"commit_interval" envconfig:"KAFKA_COMMIT_INTERVAL"`
	EnableAutoCommit bool          `yaml:"enable_auto_commit" envconfig:"KAFKA_ENABLE_AUTO_COMMIT"`

	// StartOffset is FirstOffset or LastOffset for new consumer groups.
	StartOffset int64 `yaml:"start_offset" envconfig:"KAFKA_START_OFFSET"`

	// Partition is read when GroupID is empty. -1 lets the reader choose.
	Partition int `yaml:"partition" envconfig:"KAFKA_PARTITION"`

	// RequiredAcks is RequireNone, RequireOne or RequireAll.
	RequiredAcks int           `yaml:"required_acks" envconfig:"KAFKA_REQUIRED_ACKS"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"KAFKA_WRITE_TIMEOUT"`

	// Async makes Publish return before the broker acknowledges.
	Async        bool          `yaml:"async" envconfig:"KAFKA_ASYNC"`
	BatchSize    int           `yaml:"batch_size" envconfig:"KAFKA_BATCH_SIZE"`
	BatchTimeout time.Duration `yaml:"batch_timeout" envconfig:"KAFKA_BATCH_TIMEOUT"`

	// CompressionCodec is one of gzip, snappy, lz4 or zstd. Empty disables compression.
	CompressionCodec string `yaml:"compression_codec" envconfig:"KAFKA_COMPRESSION_CODEC"`

	MaxAttempts            int  `yaml:"max_attempts" envconfig:"KAFKA_MAX_ATTEMPTS"`
	AllowAutoTopicCreation bool `yaml:"allow_auto_topic_creation" envconfig:"KAFKA_ALLOW_AUTO_TOPIC_CREATION"`

	TLS  TLSConfig  `yaml:"tls"`
	SASL SASLConfig `yaml:"sasl"`

	// Schema selects the registry schema producers encode values with.
	Schema SchemaConfig `yaml:"schema"`
}

// SchemaConfig picks the schema a RegistrySerializer frames values with.
// ID wins over Subject. With only Subject set, the latest version of the
// subject is used and its id cached by the registry.
type SchemaConfig struct {
	ID      int    `yaml:"id" envconfig:"KAFKA_SCHEMA_ID"`
	Subject string `yaml:"subject" envconfig:"KAFKA_SCHEMA_SUBJECT"`
}

// Logger is the part of logger.Logger the Kafka client uses.
type Logger interface {
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}

type TLSConfig struct {
	Enabled            bool   `yaml:"enabled" envconfig:"KAFKA_TLS_ENABLED"`
	CACertPath         string `yaml:"ca_cert_path" envconfig:"KAFKA_TLS_CA_CERT_PATH"`
	ClientCertPath     string `yaml:"client_cert_path" envconfig:"KAFKA_TLS_CLIENT_CERT_PATH"`
	ClientKeyPath      string `yaml:"client_key_path" envconfig:"KAFKA_TLS_CLIENT_KEY_PATH"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify" envconfig:"KAFKA_TLS_INSECURE_SKIP_VERIFY"`
}

type SASLConfig struct {
	Enabled bool `yaml:"enabled" envconfig:"KAFKA_SASL_ENABLED"`

	// Mechanism is PLAIN, SCRAM-SHA-256 or SCRAM-SHA-512.
	Mechanism string `yaml:"mechanism" envconfig:"KAFKA_SASL_MECHANISM"`
	Username  string `yaml:"username" envconfig:"KAFKA_SASL_USERNAME"`
	Password  string `yaml:"password" envconfig:"KAFKA_SASL_PASSWORD"` //nolint:gosec
}

const (
	DefaultMinBytes       = 1
	DefaultMaxBytes       = 10e6 // 10MB
	DefaultMaxWait        = 10 * time.Second
	DefaultCommitInterval = 1 * time.Second
	DefaultStartOffset    = FirstOffset
	DefaultPartition      = -1
	DefaultRequiredAcks   = RequireAll
	DefaultBatchSize      = 100
	DefaultBatchTimeout   = 1 * time.Second
	DefaultMaxAttempts    = 10
	DefaultWriteTimeout   = 10 * time.Second

	RequireNone = 0
	RequireOne  = 1
	RequireAll  = -1

	FirstOffset = -2
	LastOffset  = -1
)

// withDefaults fills every zero field with its default.
func (cfg Config) withDefaults() Config {
	if cfg.MinBytes == 0 {
		cfg.MinBytes = DefaultMinBytes
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.MaxWait == 0 {
		cfg.MaxWait = DefaultMaxWait
	}
	if cfg.CommitInterval == 0 {
		cfg.CommitInterval = DefaultCommitInterval
	}
	if cfg.StartOffset == 0 {
		cfg.StartOffset = DefaultStartOffset
	}
	if cfg.Partition == 0 {
		cfg.Partition = DefaultPartition
	}
	if cfg.RequiredAcks == 0 {
		cfg.RequiredAcks = DefaultRequiredAcks
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = DefaultBatchTimeout
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	return cfg
}
