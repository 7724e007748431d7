// Package client implements the connected DAP Client.
//
// A Client opens the configured transport, runs a protocol.Session over it
// in an errgroup, and exposes two layers of API:
//   - Send, Receive and ReceiveEvents for callers that drive the event
//     stream themselves
//   - Do, Read and Write for one request at a time, with monitor error
//     replies converted to errors
//
// The Client owns the transport; Close cancels the session and closes it.
package client
