package log

// Observer receives engine events, typically to export metrics.
// Methods are called synchronously on the producer's goroutine and must be cheap.
type Observer interface {
	ObserveAppend(log string, index uint32, bytes int)
	ObserveFiltered(log string, level Level)
	ObserveHandlerError(log string, op string)
	ObserveFlush(log string)
}

// NoopObserver is used when no observer is configured.
type NoopObserver struct{}

// ObserveAppend ignores the event.
func (NoopObserver) ObserveAppend(string, uint32, int) {}

// ObserveFiltered ignores the event.
func (NoopObserver) ObserveFiltered(string, Level) {}

// ObserveHandlerError ignores the event.
func (NoopObserver) ObserveHandlerError(string, string) {}

// ObserveFlush ignores the event.
func (NoopObserver) ObserveFlush(string) {}

// Compile-time interface satisfaction check.
var _ Observer = NoopObserver{}
