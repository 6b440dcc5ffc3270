package schema_registry

import (
	"time"

	"github.com/Aleph-Alpha/schema-registry-client/v1/observability"
)

// observeOperation reports a completed operation to the observer, if any.
func (r *Registry) observeOperation(operation, resource, subResource string, duration time.Duration, err error, size int64, metadata map[string]interface{}) {
	if r == nil || r.observer == nil {
		return
	}

	r.observer.ObserveOperation(observability.OperationContext{
		Component:   "schema_registry",
		Operation:   operation,
		Resource:    resource,
		SubResource: subResource,
		Duration:    duration,
		Error:       err,
		Size:        size,
		Metadata:    metadata,
	})
}
