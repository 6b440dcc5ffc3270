package observability

// NoOpObserver discards every observation.
type NoOpObserver struct{}

// ObserveOperation does nothing.
func (n *NoOpObserver) ObserveOperation(ctx OperationContext) {}

// NewNoOpObserver returns an Observer that discards everything.
func NewNoOpObserver() Observer {
	return &NoOpObserver{}
}
