// Package interfaces provides internal interface definitions for gochan.
// These are separate from the public package to avoid circular imports
// between the root package and the internal packages that need the same
// shapes (internal/queue needs to talk about loggers and observers without
// importing the root package).
package interfaces

// Logger is the optional logging sink accepted by Channel, Pool and Worker.
// A nil Logger is always a valid value: every call site checks for nil
// before logging, so the core never requires a logger to function.
type Logger interface {
	Printf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// Observer receives metrics events from channels and the worker pool.
// Implementations must be thread-safe: methods are called concurrently from
// every channel and every worker.
type Observer interface {
	ObserveSend(bytes uint64, latencyNs uint64, success bool)
	ObserveReceive(bytes uint64, latencyNs uint64, success bool)
	ObserveClose()
	ObserveTaskDispatch()
	ObserveTaskComplete(latencyNs uint64, success bool)
	ObserveWorkerReplaced()
	ObserveQueueDepth(depth uint32)
}
