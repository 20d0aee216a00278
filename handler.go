package async

// Op is implemented by an asynchronous operation that can be awaited: it
// receives a [CompletionHandler] and must arrange, eventually, for exactly
// one of the handler's settlement methods to be called. Generalized from
// the teacher's promisify-style "goroutine does work, then SubmitInternal
// resolves the promise" contract into an explicit initiation protocol any
// async primitive (timers, channels, thread offload, other tasks) can
// implement.
type Op[T any] interface {
	Initiate(h *CompletionHandler[T])
}

// CompletionHandler is a single-use settlement callback bound to one
// [Reactor] and one [MemorySource]. It mirrors the teacher's pattern of
// settling a promise via SubmitInternal when called off the reactor
// goroutine, and directly when already on it.
type CompletionHandler[T any] struct {
	ex      Executor
	mem     MemorySource
	settle  func(T, error)
	settled bool
}

// newCompletionHandler builds a handler bound to ex, using mem for any
// scratch the caller wants to allocate via [CompletionHandler.Scratch]; a nil
// mem selects the reactor's [Reactor.Scratch] source, or
// [DefaultMemorySource] when ex has no reactor. settle is invoked exactly
// once, dispatched through ex so it always runs on the reactor goroutine.
func newCompletionHandler[T any](ex Executor, mem MemorySource, settle func(T, error)) *CompletionHandler[T] {
	if mem == nil {
		if r := ex.Reactor(); r != nil {
			mem = r.Scratch()
		} else {
			mem = DefaultMemorySource
		}
	}
	return &CompletionHandler[T]{ex: ex, mem: mem, settle: settle}
}

// Complete settles the operation with a value, dispatching onto the bound
// executor. Safe to call from any goroutine; calling it more than once past
// the first is a no-op.
func (h *CompletionHandler[T]) Complete(v T) {
	h.complete(v, nil)
}

// Fail settles the operation with an error, dispatching onto the bound
// executor. Safe to call from any goroutine; calling it more than once past
// the first is a no-op.
func (h *CompletionHandler[T]) Fail(err error) {
	var zero T
	h.complete(zero, err)
}

func (h *CompletionHandler[T]) complete(v T, err error) {
	h.ex.Dispatch(func() {
		if h.settled {
			return
		}
		h.settled = true
		h.settle(v, err)
	})
}

// Scratch allocates n bytes of transient scratch from the handler's bound
// [MemorySource] — the realization of the coroutine-frame allocator
// contract for completion handlers (spec.md §4.2).
func (h *CompletionHandler[T]) Scratch(n int) ([]byte, error) {
	return h.mem.Allocate(n)
}

// Executor returns the executor this handler settles onto.
func (h *CompletionHandler[T]) Executor() Executor { return h.ex }
