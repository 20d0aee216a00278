package async

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// shutdownGrace bounds how long Run waits for the reactor to drain pending
// work after the entry coroutine returns.
const shutdownGrace = 5 * time.Second

// Entry is a program's top-level coroutine body, run under [Run]. It
// receives argv (matching the upstream `co_main(int argc, char *argv[])`
// convention) and an executor already bound to the running reactor, and
// returns the process exit code. ctx.Done() fires for either signal; to
// distinguish SIGINT's [CancelTotal] from SIGTERM's [CancelTerminal], read
// [CancelSlotFromContext](ctx) and inspect the delivered [CancelType].
type Entry func(ctx context.Context, ex Executor, argv []string) int

// Run wires SIGINT/SIGTERM into a [CancelSignal] driving entry's context —
// SIGINT requests [CancelTotal] (recoverable, lets cleanup run), SIGTERM
// requests [CancelTerminal] (non-recoverable) — then drives a fresh
// [Reactor] until entry returns, and shuts the reactor down. The signal's
// [CancelSlot] is installed on ctx via [WithCancelSlot] so entry can recover
// the SIGINT/SIGTERM distinction that a flat ctx.Done() would otherwise
// collapse. Grounded on original_source's main.hpp (a signal_helper wiring
// an asio::cancellation_signal into the entry coroutine's promise), realized
// with the stdlib os/signal package rather than a poller-backed signal set
// since signal delivery is an OS/process boundary concern, not part of the
// coroutine core (spec.md §1, SPEC_FULL.md §3).
func Run(entry Entry, argv []string) int {
	reactor, err := NewReactor()
	if err != nil {
		return 1
	}

	ctx, stop := context.WithCancel(context.Background())
	sig, slot := NewCancelPair()
	ctx = WithCancelSlot(ctx, slot)

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		for s := range sigCh {
			switch s {
			case syscall.SIGINT:
				sig.Emit(CancelTotal)
			case syscall.SIGTERM:
				sig.Emit(CancelTerminal)
			}
			stop()
		}
	}()

	ex := reactor.Executor()
	exitCode := 0
	runDone := make(chan struct{})

	go func() {
		defer close(runDone)
		exitCode = entry(ctx, ex, argv)
	}()

	go func() { _ = reactor.Run(ctx) }()

	<-runDone
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	_ = reactor.Shutdown(shutdownCtx)
	stop()

	return exitCode
}
