// Package errors provides structured error types for the simulation bridge.
//
// Errors are categorized by Phase (where in the load/bootstrap/exec chain
// the error occurred) and Kind (error category). Use the convenience
// constructors for common patterns:
//
//	err := errors.Fetch("/engine/ngspice.wasm", 404)
//	err := errors.Link("/lib/ngspice-models.so", cause)
//
// All errors propagate unmodified to the Simulation Bridge's single
// top-level recovery point, which reports them to the host via
// errors.Message. They implement the standard error interface and
// support errors.Is/As.
package errors
