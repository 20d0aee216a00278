// Package async provides a single-threaded, cooperative asynchronous
// runtime: a coroutine-shaped task model and the structured-concurrency
// combinators that compose it.
//
// # Architecture
//
// A [Reactor] is the scheduling authority: a task-queue plus timer-heap plus
// microtask-queue, driven from exactly one goroutine at a time (its "reactor
// goroutine"). Go has no stackless coroutines, so tasks run on ordinary
// goroutines and settle their results by posting a continuation back onto
// the Reactor. Other shared state — a [receiver]'s attached awaiter, a
// [Channel]'s buffer, a [CancelSlot]'s handler — is guarded by its own mutex
// and may be touched from any goroutine.
//
// # Task shapes
//
//   - [EagerTask] starts running the moment it is created ("eager-detachable").
//   - [Task] starts suspended; it only runs once awaited or spawned ("lazy").
//   - [Generator] yields a sequence of values, optionally accepting push-back.
//   - [Detached] is fire-and-forget: no owner, only a weak cancel handle.
//   - [ThreadTask] runs its body on a goroutine locked to its own OS thread,
//     or on a shared [ThreadPool], and settles back onto the caller's
//     executor; it has no reactor of its own and no Detach method.
//
// # Combinators
//
// [Gather], [Join], [Race], [Select], [LeftSelect], [Wait] and [WaitGroup]
// compose concurrent tasks. [Race] and [Select] report whichever task
// settles first; [LeftSelect] breaks ties toward the lowest index. When the
// caller's ctx is done, a combinator withdraws its pending awaits with
// [CancelInterruptAwait]; the child tasks themselves are not cancelled.
// [With] is the structured-concurrency helper that guarantees an
// exit action runs on every control-flow exit of a nested operation.
//
// # Cancellation
//
// [CancelSignal]/[CancelSlot] form an emitter/receiver pair. [CancelType] is
// a flag set ({Terminal, Partial, Total, InterruptAwait}) with
// Total ⊇ Partial ⊇ Terminal. InterruptAwait cancels only the current
// suspension point, so the same awaitable can be re-awaited — this is how
// [Race] and [Select] withdraw losing branches without destroying them.
//
// # Usage
//
//	r, err := async.NewReactor()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	t := async.NewTask(r.Executor(), func(ctx context.Context) (int, error) {
//	    return 42, nil
//	})
//
//	go func() {
//	    v, err := t.Await(context.Background())
//	    fmt.Println(v, err)
//	    r.Shutdown(context.Background())
//	}()
//
//	if err := r.Run(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
package async
