package async

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// ThreadTask offloads CPU-intensive work that should not run on a goroutine
// sharing the process's (or reactor's) cooperative scheduling assumptions.
// Grounded directly on the teacher's Promisify/PromisifyWithTimeout/
// PromisifyWithDeadline trio (promisify.go): a goroutine runs fn, and the
// result is settled back onto the reactor via [Executor.PostInternal].
//
// Go has no user-controlled "fresh OS thread" primitive the way
// std::thread does, but runtime.LockOSThread pins the goroutine to its own
// OS thread for its lifetime, which is the closest faithful analogue and is
// what [Spawn] uses.
type ThreadTask[T any] struct {
	r      *receiver[T]
	cancel context.CancelFunc
}

// Spawn runs fn on a dedicated, OS-thread-pinned goroutine, settling back
// onto ex.
func Spawn[T any](ctx context.Context, ex Executor, fn func(context.Context) (T, error)) *ThreadTask[T] {
	r := newReceiver[T](ex)
	cctx, cancel := context.WithCancel(ctx)
	r.cancelSlot.Handle(bodyCancelHandler(cancel))
	t := &ThreadTask[T]{r: r, cancel: cancel}

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		settleViaReactor(cctx, ex, r, fn)
	}()
	return t
}

// SpawnWithTimeout is [Spawn] with the child context bounded by timeout,
// mirroring PromisifyWithTimeout.
func SpawnWithTimeout[T any](ctx context.Context, ex Executor, timeout time.Duration, fn func(context.Context) (T, error)) *ThreadTask[T] {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	t := Spawn(cctx, ex, fn)
	prevCancel := t.cancel
	t.cancel = func() { prevCancel(); cancel() }
	return t
}

// SpawnWithDeadline is [Spawn] with the child context bounded by deadline,
// mirroring PromisifyWithDeadline.
func SpawnWithDeadline[T any](ctx context.Context, ex Executor, deadline time.Time, fn func(context.Context) (T, error)) *ThreadTask[T] {
	cctx, cancel := context.WithDeadline(ctx, deadline)
	t := Spawn(cctx, ex, fn)
	prevCancel := t.cancel
	t.cancel = func() { prevCancel(); cancel() }
	return t
}

// Await blocks until the thread task settles or ctx is done.
func (t *ThreadTask[T]) Await(ctx context.Context) (T, error) {
	return awaitReceiver(ctx, t.r)
}

// Cancel requests cancellation of the underlying goroutine's context.
func (t *ThreadTask[T]) Cancel(ct CancelType) {
	t.r.cancelSignal.Emit(ct)
}

// Ready reports whether the task has settled.
func (t *ThreadTask[T]) Ready() bool { return t.r.ready() }

func (t *ThreadTask[T]) pending() bool    { return t.r.pending() }
func (t *ThreadTask[T]) reject(err error) { t.cancel(); t.r.reject(err) }

// ThreadPool is a bounded pool of OS-thread-pinned workers that ThreadTask
// bodies can be offloaded onto instead of spawning one goroutine per call —
// grounded on original_source's example/thread_pool.cpp, which offloads a
// sequence of CPU-intensive calls onto a shared boost::asio::thread_pool
// rather than one thread per call.
type ThreadPool struct {
	jobs chan func()
	wg   sync.WaitGroup
}

// NewThreadPool starts n worker goroutines, each pinned to its own OS
// thread for the pool's lifetime.
func NewThreadPool(n int) *ThreadPool {
	if n < 1 {
		n = 1
	}
	p := &ThreadPool{jobs: make(chan func())}
	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer p.wg.Done()
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			for job := range p.jobs {
				job()
			}
		}()
	}
	return p
}

// Close stops accepting work and blocks until every worker has drained its
// current job and exited.
func (p *ThreadPool) Close() {
	close(p.jobs)
	p.wg.Wait()
}

// SpawnOnPool runs fn on pool's next available worker, settling back onto
// ex. Unlike [Spawn], concurrency is bounded by the pool's worker count
// rather than one goroutine per call.
func SpawnOnPool[T any](pool *ThreadPool, ctx context.Context, ex Executor, fn func(context.Context) (T, error)) *ThreadTask[T] {
	r := newReceiver[T](ex)
	cctx, cancel := context.WithCancel(ctx)
	r.cancelSlot.Handle(bodyCancelHandler(cancel))
	t := &ThreadTask[T]{r: r, cancel: cancel}

	go func() {
		select {
		case pool.jobs <- func() { settleViaReactor(cctx, ex, r, fn) }:
		case <-cctx.Done():
			settle(ex, r, zeroOf[T](), cctx.Err())
		}
	}()
	return t
}
