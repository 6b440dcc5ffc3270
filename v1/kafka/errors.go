package kafka

import (
	"context"
	"errors"
	"net"

	"github.com/segmentio/kafka-go"

	"github.com/Aleph-Alpha/schema-registry-client/v1/schema_registry"
)

var (
	// ErrWriterNotInitialized is returned by Publish on a consumer client.
	ErrWriterNotInitialized = errors.New("writer not initialized")

	// ErrReaderNotInitialized is returned when consuming on a producer client.
	ErrReaderNotInitialized = errors.New("reader not initialized")

	// ErrNoSchema means a RegistrySerializer has neither a schema id nor a subject.
	ErrNoSchema = errors.New("no schema id or subject configured")

	// ErrNoSerializer means a non-[]byte value was published without a Serializer.
	ErrNoSerializer = errors.New("no serializer configured")

	// ErrNoDeserializer means Message.Value was called without a Deserializer.
	ErrNoDeserializer = errors.New("no deserializer configured")

	ErrTopicNotFound         = errors.New("topic not found")
	ErrTopicAlreadyExists    = errors.New("topic already exists")
	ErrMessageTooLarge       = errors.New("message too large")
	ErrOffsetOutOfRange      = errors.New("offset out of range")
	ErrLeaderNotAvailable    = errors.New("leader not available")
	ErrNotLeaderForPartition = errors.New("not leader for partition")
	ErrRequestTimedOut       = errors.New("request timed out")
	ErrRebalanceInProgress   = errors.New("rebalance in progress")
	ErrGroupCoordinator      = errors.New("group coordinator not available")
	ErrAuthenticationFailed  = errors.New("authentication failed")
	ErrAuthorizationFailed   = errors.New("authorization failed")
)

// translatedError keeps the original error reachable through errors.As while
// matching one of the sentinels above with errors.Is.
type translatedError struct {
	sentinel error
	cause    error
}

func (e *translatedError) Error() string { return e.sentinel.Error() + ": " + e.cause.Error() }

func (e *translatedError) Is(target error) bool { return target == e.sentinel }

func (e *translatedError) Unwrap() error { return e.cause }

var brokerErrors = map[kafka.Error]error{
	kafka.UnknownTopicOrPartition:      ErrTopicNotFound,
	kafka.TopicAlreadyExists:           ErrTopicAlreadyExists,
	kafka.MessageSizeTooLarge:          ErrMessageTooLarge,
	kafka.OffsetOutOfRange:             ErrOffsetOutOfRange,
	kafka.LeaderNotAvailable:           ErrLeaderNotAvailable,
	kafka.NotLeaderForPartition:        ErrNotLeaderForPartition,
	kafka.RequestTimedOut:              ErrRequestTimedOut,
	kafka.RebalanceInProgress:          ErrRebalanceInProgress,
	kafka.GroupCoordinatorNotAvailable: ErrGroupCoordinator,
	kafka.NotCoordinatorForGroup:       ErrGroupCoordinator,
	kafka.SASLAuthenticationFailed:     ErrAuthenticationFailed,
	kafka.TopicAuthorizationFailed:     ErrAuthorizationFailed,
	kafka.GroupAuthorizationFailed:     ErrAuthorizationFailed,
	kafka.ClusterAuthorizationFailed:   ErrAuthorizationFailed,
}

// TranslateError maps broker error codes onto the sentinels of this package.
// Errors it does not recognize are returned unchanged.
func (k *KafkaClient) TranslateError(err error) error {
	return translateError(err)
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	var kerr kafka.Error
	if errors.As(err, &kerr) {
		if sentinel, ok := brokerErrors[kerr]; ok {
			return &translatedError{sentinel: sentinel, cause: err}
		}
	}
	return err
}

// IsRetryableError reports whether publishing or fetching again may succeed.
func (k *KafkaClient) IsRetryableError(err error) bool {
	if err == nil || k.IsPermanentError(err) {
		return false
	}
	var kerr kafka.Error
	if errors.As(err, &kerr) {
		return kerr.Temporary()
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// IsPermanentError reports whether retrying err is pointless: the value does
// not match its schema, the schema is unusable, or the broker refused the
// message or the credentials.
func (k *KafkaClient) IsPermanentError(err error) bool {
	if err == nil {
		return false
	}
	var (
		verr *schema_registry.ValidationError
		aerr *schema_registry.ArgumentError
	)
	switch {
	case errors.As(err, &verr), errors.As(err, &aerr):
		return true
	case errors.Is(err, ErrNoSchema), errors.Is(err, ErrNoSerializer), errors.Is(err, ErrWriterNotInitialized):
		return true
	}

	t := translateError(err)
	if errors.Is(t, ErrTopicNotFound) {
		return !k.cfg.AllowAutoTopicCreation
	}
	return errors.Is(t, ErrMessageTooLarge) || k.IsAuthenticationError(t)
}

// IsAuthenticationError reports whether err is an authentication or
// authorization failure.
func (k *KafkaClient) IsAuthenticationError(err error) bool {
	t := translateError(err)
	return errors.Is(t, ErrAuthenticationFailed) || errors.Is(t, ErrAuthorizationFailed)
}
