package async

import (
	"context"
	"sync"
)

// Yield is the function a [Generator] body calls to produce a value and
// suspend until the consumer resumes it, optionally with a pushed-back
// value. Mirrors cobalt's generator<T,U> co_yield/co_await exchange.
type Yield[T, U any] func(ctx context.Context, value T) (U, error)

type genItem[T any] struct {
	v    T
	err  error
	done bool
}

// Generator produces a sequence of T values, consumed one at a time via
// [Generator.Next], optionally receiving a pushed-back U value from the
// consumer after each yield. Realized as a dedicated goroutine handshaking
// over two channels, since Go has no native yield/resume; the handshake
// itself plays the role the teacher's ChainedPromise chain plays for
// single-shot tasks, generalized to a repeating exchange (spec.md §4.9).
type Generator[T, U any] struct {
	ex Executor

	body func(context.Context, Yield[T, U]) error

	mu      sync.Mutex
	started bool

	in  chan U
	out chan genItem[T]

	cancelSignal *CancelSignal
	cancelSlot   *CancelSlot
}

// NewGenerator creates a generator bound to ex; body does not run until the
// first call to [Generator.Next].
func NewGenerator[T, U any](ex Executor, body func(context.Context, Yield[T, U]) error) *Generator[T, U] {
	sig, slot := NewCancelPair()
	return &Generator[T, U]{
		ex:           ex,
		body:         body,
		in:           make(chan U),
		out:          make(chan genItem[T]),
		cancelSignal: sig,
		cancelSlot:   slot,
	}
}

func (g *Generator[T, U]) start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	g.cancelSlot.Handle(bodyCancelHandler(cancel))

	yield := func(_ context.Context, v T) (U, error) {
		select {
		case g.out <- genItem[T]{v: v}:
		case <-cctx.Done():
			return zeroOf[U](), cctx.Err()
		}
		select {
		case u := <-g.in:
			return u, nil
		case <-cctx.Done():
			return zeroOf[U](), cctx.Err()
		}
	}

	go func() {
		var err error
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					err = &PanicError{Value: rec}
				}
			}()
			err = g.body(cctx, yield)
		}()
		g.out <- genItem[T]{err: err, done: true}
		close(g.out)
	}()
}

// Next resumes the generator (pushing back resume as the previous yield's
// result, ignored on the first call) and blocks until it produces its next
// value, finishes, or ctx is done. ok is false once the generator has
// finished; err carries the generator's terminal error, if any.
func (g *Generator[T, U]) Next(ctx context.Context, resume U) (value T, ok bool, err error) {
	g.mu.Lock()
	first := !g.started
	g.started = true
	g.mu.Unlock()

	if first {
		g.start(ctx)
	} else {
		select {
		case g.in <- resume:
		case <-ctx.Done():
			return zeroOf[T](), false, ctx.Err()
		}
	}

	select {
	case item, open := <-g.out:
		if !open {
			return zeroOf[T](), false, nil
		}
		if item.done {
			return zeroOf[T](), false, item.err
		}
		return item.v, true, nil
	case <-ctx.Done():
		g.cancelSignal.Emit(CancelInterruptAwait)
		return zeroOf[T](), false, ctx.Err()
	}
}

// Cancel requests cancellation of the generator body with the given
// strength.
func (g *Generator[T, U]) Cancel(ct CancelType) {
	g.cancelSignal.Emit(ct)
}
