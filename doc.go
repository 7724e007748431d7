// Package uartdap provides a Debug Access Port over a target's kernel
// monitor console.
//
// A DAP session turns typed memory commands into the monitor's text grammar
// (mr kernel / mw kernel), writes them over a serial port or any byte
// stream, and correlates the console output with the outstanding command.
// Prompts, timestamps, echoed commands and unrelated chatter are filtered
// out; only acknowledgements and error replies become events.
//
// # Basic Usage
//
// For a batch of commands, use Exec:
//
//	cmds := uartdap.CommandsFromSlice([]uartdap.Command{
//	    &uartdap.WriteCommand{Addr: 0xc0000010, Data: 0x600df00d},
//	    &uartdap.ReadCommand{Addr: 0xc0000010},
//	})
//
//	for ev, err := range uartdap.Exec(ctx, cmds, uartdap.WithDevice("/dev/ttyUSB0")) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    switch e := ev.(type) {
//	    case *uartdap.ReadEvent:
//	        fmt.Printf("0x%08x = 0x%08x\n", e.Addr, e.Data)
//	    case *uartdap.ErrorEvent:
//	        fmt.Println("monitor:", e.Message)
//	    }
//	}
//
// # Interactive Sessions
//
// For request/response access, use NewClient or the WithClient helper:
//
//	err := uartdap.WithClient(ctx, func(c uartdap.Client) error {
//	    if err := c.Write(ctx, 0xc0000010, 0x600df00d); err != nil {
//	        return err
//	    }
//	    word, err := c.Read(ctx, 0xc0000010)
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Printf("0x%08x\n", word)
//	    return nil
//	},
//	    uartdap.WithDevice("tcp://localhost:4000"),
//	    uartdap.WithTarget(uartdap.TargetVxWorks),
//	    uartdap.WithEcho(uartdap.EchoRemote),
//	)
//
// There is no internal timeout while a command is outstanding. Bound each
// call with a context deadline.
//
// # Logging
//
// For detailed operation tracking, use WithLogger:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
//	client := uartdap.NewClient()
//	err := client.Start(ctx, uartdap.WithLogger(logger))
//
// # Error Handling
//
// The package provides typed errors for different failure scenarios:
//
//	word, err := client.Read(ctx, addr)
//	if err != nil {
//	    if monErr, ok := errors.AsType[*uartdap.ProtocolError](err); ok {
//	        log.Printf("monitor rejected read: %s", monErr.Message)
//	    }
//	    if trErr, ok := errors.AsType[*uartdap.TransportError](err); ok {
//	        log.Fatalf("console %s failed: %v", trErr.Op, trErr.Err)
//	    }
//	    log.Fatal(err)
//	}
//
// # Testing Without Hardware
//
// NewMonitor models a kernel monitor. Serve it on one end of a net.Pipe and
// inject the other end with WithTransport and NewStreamTransport.
package uartdap
