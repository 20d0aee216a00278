package async

import (
	"context"
	"sync"
)

// settleViaReactor runs fn's body on the calling goroutine (callers start it
// with a go statement), then settles r on the reactor goroutine via
// PostInternal, falling back to a direct settle
// if the reactor has already terminated. fn always runs, even when ctx is
// already done, so a body observes a cancellation through its ctx. Mirrors
// promisify.go's Goexit/panic handling and its "single-owner resolution,
// fallback to direct resolution" contract.
func settleViaReactor[T any](ctx context.Context, ex Executor, r *receiver[T], fn func(context.Context) (T, error)) {
	completed := false
	defer func() {
		if rec := recover(); rec != nil {
			settle(ex, r, zeroOf[T](), &PanicError{Value: rec})
			return
		}
		if !completed {
			settle(ex, r, zeroOf[T](), ErrGoexit)
		}
	}()

	v, err := fn(ctx)
	completed = true
	settle(ex, r, v, err)
}

func settle[T any](ex Executor, r *receiver[T], v T, err error) {
	if postErr := ex.PostInternal(func() { r.settle(v, err) }); postErr != nil {
		r.settle(v, err)
	}
}

func zeroOf[T any]() (zero T) { return }

// EagerTask is the eager-detachable task shape: the body begins running the
// instant the task is constructed, on its own goroutine, and may be
// detached (left unawaited) safely — the reactor's registry force-rejects
// it on shutdown rather than leaking. Generalized from the teacher's
// Promisify (spec.md §4.6 "eager/detachable").
type EagerTask[T any] struct {
	ex         Executor
	r          *receiver[T]
	cancel     context.CancelFunc
	registryID uint64
}

// NewEagerTask starts fn immediately on a new goroutine, bound to ex.
func NewEagerTask[T any](ctx context.Context, ex Executor, fn func(context.Context) (T, error)) *EagerTask[T] {
	r := newReceiver[T](ex)
	cctx, cancel := context.WithCancel(ctx)
	r.cancelSlot.Handle(bodyCancelHandler(cancel))

	t := &EagerTask[T]{ex: ex, r: r, cancel: cancel}
	if reactor := ex.Reactor(); reactor != nil {
		t.registryID = reactor.registry.track(registryEntry(t))
	}

	go func() {
		settleViaReactor(cctx, ex, r, fn)
		if reactor := ex.Reactor(); reactor != nil && t.registryID != 0 {
			_ = ex.Post(func() { reactor.registry.untrack(t.registryID) })
		}
	}()
	return t
}

// Await blocks until the task settles or ctx is done. If ctx is done first,
// the current suspension is withdrawn with [CancelInterruptAwait] — per the
// resolved Open Question, the task itself is not cancelled, and Await may be
// called again afterward to re-attach (spec.md §9 "interrupt-await").
func (t *EagerTask[T]) Await(ctx context.Context) (T, error) {
	return awaitReceiver(ctx, t.r)
}

// Cancel requests cancellation of the task's body with the given strength.
func (t *EagerTask[T]) Cancel(ct CancelType) {
	t.r.cancelSignal.Emit(ct)
}

// Ready reports whether the task has settled.
func (t *EagerTask[T]) Ready() bool { return t.r.ready() }

// Detach explicitly discards the caller's interest in the result; the task
// continues to run to completion (or is force-rejected on reactor
// shutdown) regardless of whether Detach is called, since EagerTask is
// tracked from construction — Detach exists for readability at call sites
// that intentionally fire-and-forget.
func (t *EagerTask[T]) Detach() {}

func (t *EagerTask[T]) pending() bool   { return t.r.pending() }
func (t *EagerTask[T]) reject(err error) { t.cancel(); t.r.reject(err) }

// awaitReceiver is the shared Await implementation for every task shape.
func awaitReceiver[T any](ctx context.Context, r *receiver[T]) (T, error) {
	done := make(chan struct{})
	var once sync.Once
	if err := r.attach(func() { once.Do(func() { close(done) }) }); err != nil {
		return zeroOf[T](), err
	}
	select {
	case <-done:
		return r.take()
	case <-ctx.Done():
		// Withdraw this awaiter so a later Await can attach again.
		r.mu.Lock()
		r.hasAwaiter = false
		r.continuation = nil
		r.mu.Unlock()
		r.cancelSignal.Emit(CancelInterruptAwait)
		return zeroOf[T](), ctx.Err()
	}
}

// Task is the lazy task shape: construction does no work; the body starts
// running only once [Task.Await] (or [Task.Spawn]) is first called.
// Generalized from the teacher's deferred-start convention used by
// ChainedPromise.Then callbacks (which don't run until the prior stage
// settles) into an explicit lazy-start primitive.
type Task[T any] struct {
	ex Executor
	fn func(context.Context) (T, error)
	r  *receiver[T]

	startOnce sync.Once
	cancel    context.CancelFunc
}

// NewTask creates a lazy task bound to ex; fn does not run until started.
func NewTask[T any](ex Executor, fn func(context.Context) (T, error)) *Task[T] {
	return &Task[T]{ex: ex, fn: fn, r: newReceiver[T](ex)}
}

// Spawn starts the task body if it has not already started, without
// waiting for it to complete.
func (t *Task[T]) Spawn(ctx context.Context) {
	t.startOnce.Do(func() {
		cctx, cancel := context.WithCancel(ctx)
		t.cancel = cancel
		t.r.cancelSlot.Handle(bodyCancelHandler(cancel))
		go settleViaReactor(cctx, t.ex, t.r, t.fn)
	})
}

// Await starts the task if necessary, then blocks until it settles or ctx
// is done (see [EagerTask.Await] for the interrupt-await contract).
func (t *Task[T]) Await(ctx context.Context) (T, error) {
	t.Spawn(ctx)
	return awaitReceiver(ctx, t.r)
}

// Cancel requests cancellation of the task's body with the given strength.
// If the task has not yet been spawned, the request is kept and applied to
// the body's context as soon as [Task.Spawn] starts it.
func (t *Task[T]) Cancel(ct CancelType) {
	t.r.cancelSignal.Emit(ct)
}

// Ready reports whether the task has settled.
func (t *Task[T]) Ready() bool { return t.r.ready() }

func (t *Task[T]) pending() bool { return t.r.pending() }
func (t *Task[T]) reject(err error) {
	if t.cancel != nil {
		t.cancel()
	}
	t.r.reject(err)
}
