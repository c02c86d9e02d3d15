// Package signals wires SIGINT into the shared cancellation flag, per
// spec §4.6: the first interrupt requests graceful shutdown and lets
// workers drain; a second interrupt reverts to Go's default disposition,
// which terminates the process immediately.
package signals

import (
	"context"
	"os"
	"os/signal"

	"github.com/fenilsonani/hunt/internal/walker"
)

// Install arranges for the first SIGINT to set cancel and cancel the
// returned context, after which the handler is released so a second
// SIGINT gets the default handling (immediate termination). The caller
// defers stop to release the handler on a normal exit.
func Install(cancel *walker.CancelFlag) (ctx context.Context, stop func()) {
	ctx, stop = signal.NotifyContext(context.Background(), os.Interrupt)
	go func() {
		<-ctx.Done()
		cancel.Set()
		stop()
	}()
	return ctx, stop
}
