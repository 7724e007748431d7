// Package protocol implements the half-duplex session with a kernel monitor.
//
// A Session owns a byte-stream transport and runs a single processing loop
// that multiplexes three inputs: commands from the caller, bytes from the
// transport, and transport closure. At most one command is outstanding; the
// next is not written until a matching acknowledgement, an error reply, or
// the end of the stream resolves it.
//
// The Session handles:
//   - Encoding commands and writing them with the configured line ending
//   - Splitting console output into lines and dropping our own echo
//   - Parsing acknowledgements and correlating them with the pending command
//   - Emitting a final ClosedEvent when the transport ends
//
// Example usage:
//
//	session := protocol.NewSession(log, transport, protocol.SessionConfig{
//		Echo:       wire.EchoRemote,
//		LineEnding: wire.LineEndingCRLF,
//	})
//	go session.Run(ctx)
//
//	_ = session.Send(ctx, &message.ReadCommand{Addr: 0xc0000010})
//	ev := <-session.Events()
package protocol
