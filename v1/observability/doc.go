// Package observability defines the Observer hook shared by the schema registry
// client packages.
//
// An Observer receives one OperationContext per completed operation. Implementations
// typically translate these into metrics, spans or log lines:
//
//	type logObserver struct{ log *zap.Logger }
//
//	func (o logObserver) ObserveOperation(op observability.OperationContext) {
//	    o.log.Info("operation",
//	        zap.String("component", op.Component),
//	        zap.String("operation", op.Operation),
//	        zap.Duration("duration", op.Duration),
//	        zap.Error(op.Error),
//	    )
//	}
//
//	registry, err := schema_registry.New(api, schema_registry.WithObserver(logObserver{log}))
package observability
