package kafka

import (
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/propagation"
)

// headerCarrier lets an otel propagator read and write Kafka message headers.
type headerCarrier struct {
	headers *[]kafka.Header
}

var _ propagation.TextMapCarrier = headerCarrier{}

func (c headerCarrier) Get(key string) string {
	for _, h := range *c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// Set replaces an existing header so a re-published message does not carry
// two traceparent values.
func (c headerCarrier) Set(key, value string) {
	for i, h := range *c.headers {
		if h.Key == key {
			(*c.headers)[i].Value = []byte(value)
			return
		}
	}
	*c.headers = append(*c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(*c.headers))
	for _, h := range *c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}

func toKafkaHeaders(header map[string]interface{}) []kafka.Header {
	headers := make([]kafka.Header, 0, len(header))
	for k, v := range header {
		var value []byte
		switch val := v.(type) {
		case string:
			value = []byte(val)
		case []byte:
			value = val
		default:
			value = []byte(fmt.Sprintf("%v", val))
		}
		headers = append(headers, kafka.Header{Key: k, Value: value})
	}
	return headers
}
