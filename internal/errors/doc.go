// Package errors defines error types for the uartdap session layer.
//
// Transport failures are fatal for a session, parse failures are
// recoverable and only logged, and monitor-reported errors surface as
// error events. All error types support unwrapping where they wrap a cause
// and can be checked using errors.Is, errors.As, and errors.AsType.
package errors
