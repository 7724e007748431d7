package uartdap

import (
	"context"
	stderrors "errors"
	"fmt"
	"iter"

	"golang.org/x/sync/errgroup"
)

// Exec runs a batch of commands over a fresh session and returns an
// iterator of their events.
//
// Commands are sent in order from a separate goroutine; the session closes
// once the sequence is exhausted and every command has been answered. The
// iterator yields one event per command followed by the final ClosedEvent.
//
// Example usage:
//
//	cmds := CommandsFromSlice([]Command{
//	    &WriteCommand{Addr: 0xc0000010, Data: 0x600df00d},
//	    &ReadCommand{Addr: 0xc0000010},
//	})
//
//	for ev, err := range Exec(ctx, cmds, WithDevice("/dev/ttyUSB0")) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(ev)
//	}
//
// Errors are yielded inline. A command that cannot be encoded stops the
// batch: commands already sent are still answered, then the error is
// yielded. Transport failures and context cancellation end iteration after
// yielding the error. Breaking out of the loop closes the session; the
// sending goroutine exits at its next command.
func Exec(ctx context.Context, commands iter.Seq[Command], opts ...Option) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		options := applyOptions(opts)

		log := options.Logger
		if log == nil {
			log = NopLogger()
		}

		log = log.With("component", "exec")

		client := NewClient()
		if err := client.Start(ctx, opts...); err != nil {
			yield(nil, err)

			return
		}

		defer func() {
			if err := client.Close(); err != nil {
				log.Warn("failed to close client", "error", err)
			}
		}()

		sendCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		var eg errgroup.Group

		eg.Go(func() error {
			return sendCommands(sendCtx, client, commands)
		})

		for ev, err := range client.ReceiveEvents(ctx) {
			if !yield(ev, err) {
				log.Debug("Yield returned false, stopping iteration")

				return
			}

			if err != nil {
				return
			}
		}

		if err := eg.Wait(); err != nil {
			yield(nil, err)
		}
	}
}

// sendCommands feeds commands to the client and ends input when done.
func sendCommands(ctx context.Context, client Client, commands iter.Seq[Command]) (err error) {
	defer func() {
		if endErr := client.EndInput(); endErr != nil && err == nil {
			err = fmt.Errorf("end input: %w", endErr)
		}
	}()

	for cmd := range commands {
		if err := client.Send(ctx, cmd); err != nil {
			if stderrors.Is(err, ErrSessionClosed) || stderrors.Is(err, context.Canceled) {
				return nil
			}

			return fmt.Errorf("send command: %w", err)
		}
	}

	return nil
}
