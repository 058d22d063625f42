// Package logging provides a minimal logging interface and adapters for
// DeskMesh.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the runner, interpreter and model adapters use for
// observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - DeskMeshLogger with contextual helpers (session, run, component) and
//     domain helpers for steps, model calls and driver actions
//
// The design intentionally keeps the interface minimal to avoid vendor
// lock-in while supporting structured logging where available.
package logging
