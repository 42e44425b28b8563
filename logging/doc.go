// Package logging provides a minimal logging interface and slog adapters for
// agentjury.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) plus With for attaching request or run scoped attributes. This
// package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - a sampling handler that drops a configurable share of non-error records
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.New(logging.Options{Level: logging.LogLevelInfo, Format: "json"})
//	jury := agentjury.New(factory, guard, func(o *agentjury.Options) { o.Logger = logger })
package logging
