// Package logging provides a minimal logging interface and adapters for the
// weather assistant.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the session store, sweeper, upstream clients and HTTP layer use for
// observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.New(&logging.Config{Level: logging.LogLevelInfo, Format: "text"})
//	sweeper := session.NewSweeper(store, func(o *session.SweeperOptions) { o.Logger = logger })
//
// The design intentionally keeps the interface minimal to avoid vendor lock-in
// while supporting structured logging where available.
package logging
