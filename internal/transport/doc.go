// Package transport provides the byte-stream links to a monitor console.
//
// Two implementations satisfy config.Transport: SerialTransport drives a
// local UART through the Gurux serial media, and StreamTransport wraps any
// io.ReadWriteCloser, including TCP connections to a network serial bridge.
// New selects between them from the configured device.
package transport
