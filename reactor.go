package async

import (
	"container/heap"
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kcoro/structasync/internal/rtlog"
)

// Reactor is the runtime's single-threaded scheduling authority: an
// ingress task queue, a priority ("internal") queue, a microtask queue and a
// timer heap, drained by exactly one goroutine at a time (the "reactor
// goroutine", whichever goroutine is inside [Reactor.Run]).
//
// Generalized from eventloop.Loop (loop.go) with the JS-specific API
// (SetTimeout/SetInterval/the I/O poller) stripped: this is the part of the
// teacher's design that is genuinely core to the spec (the executor handle
// and its scheduling primitives), per SPEC_FULL.md §3.
type Reactor struct {
	state *fastState

	external   taskQueue
	internal   taskQueue
	microtasks taskQueue

	timers timerHeap

	wake chan struct{}
	done chan struct{}

	stopOnce sync.Once

	reactorGoroutineID atomic.Uint64

	tickAnchorMu sync.RWMutex
	tickAnchor   time.Time
	tickElapsed  atomic.Int64

	opts *reactorOptions

	log *rtlog.Logger

	// scratch is the per-reactor MonotonicSource offered to completion
	// handlers constructed without an explicit source (spec.md §4.2).
	scratch *MonotonicSource

	// registry tracks EagerTask/Detached instances so Shutdown can reject
	// every still-pending one, mirroring eventloop's registry.RejectAll.
	registry *registry[registryEntry]

	wakePending atomic.Bool
}

// timerEntry is a single scheduled callback.
type timerEntry struct {
	when time.Time
	seq   uint64
	task  func()
	valid *bool
}

// timerHeap is a min-heap of timerEntry ordered by deadline, then insertion
// order, mirroring eventloop's timerHeap (loop.go).
type timerHeap []*timerEntry

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].when.Equal(h[j].when) {
		return h[i].seq < h[j].seq
	}
	return h[i].when.Before(h[j].when)
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x any)   { *h = append(*h, x.(*timerEntry)) }
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return x
}

// NewReactor creates a new Reactor in the Awake state.
func NewReactor(opts ...ReactorOption) (*Reactor, error) {
	r := &Reactor{
		state:      newFastState(),
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
		opts:       resolveReactorOptions(opts),
		log:        rtlog.New(),
		scratch:    NewMonotonicSource(),
		registry:   newRegistry[registryEntry](),
	}
	return r, nil
}

// Run drives the reactor until it terminates via [Reactor.Shutdown],
// [Reactor.Close], or ctx cancellation. Run blocks for the duration;
// callers that want a background reactor should `go r.Run(ctx)`.
func (r *Reactor) Run(ctx context.Context) error {
	if r.isReactorThread() {
		return ErrReentrantRun
	}
	if !r.state.TryTransition(StateAwake, StateRunning) {
		if r.state.Load() == StateTerminated {
			return ErrReactorTerminated
		}
		return ErrReactorAlreadyRunning
	}
	defer close(r.done)

	r.tickAnchorMu.Lock()
	r.tickAnchor = time.Now()
	r.tickAnchorMu.Unlock()
	r.tickElapsed.Store(0)

	r.reactorGoroutineID.Store(goroutineID())
	defer r.reactorGoroutineID.Store(0)

	ctxDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			r.wakeUp()
		case <-ctxDone:
		}
	}()
	defer close(ctxDone)

	for {
		select {
		case <-ctx.Done():
			r.drainToTermination()
			return ctx.Err()
		default:
		}

		state := r.state.Load()
		if state == StateTerminating || state == StateTerminated {
			r.drainToTermination()
			return nil
		}

		r.tick()
	}
}

// Shutdown requests graceful termination: the reactor drains every queued
// task and microtask, rejects any still-pending tracked tasks, then stops.
// It blocks until termination completes or ctx is done.
func (r *Reactor) Shutdown(ctx context.Context) error {
	var result error
	r.stopOnce.Do(func() {
		result = r.shutdownImpl(ctx)
	})
	if result == nil && r.state.Load() != StateTerminated {
		return ErrReactorTerminated
	}
	return result
}

func (r *Reactor) shutdownImpl(ctx context.Context) error {
	for {
		cur := r.state.Load()
		if cur == StateTerminated || cur == StateTerminating {
			return ErrReactorTerminated
		}
		if r.state.TryTransition(cur, StateTerminating) {
			if cur == StateAwake {
				r.state.Store(StateTerminated)
				return nil
			}
			r.wakeUp()
			break
		}
	}
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close immediately requests termination without waiting for it to
// complete; use Shutdown to block until drained.
func (r *Reactor) Close() error {
	for {
		cur := r.state.Load()
		if cur == StateTerminated {
			return ErrReactorTerminated
		}
		if r.state.TryTransition(cur, StateTerminating) {
			if cur == StateAwake {
				r.state.Store(StateTerminated)
			} else {
				r.wakeUp()
			}
			return nil
		}
	}
}

// State returns the reactor's current lifecycle state.
func (r *Reactor) State() ReactorState { return r.state.Load() }

// Executor returns an [Executor] handle bound to this reactor.
func (r *Reactor) Executor() Executor { return Executor{r: r} }

// Submit enqueues fn on the external (lowest-priority) queue. Safe to call
// from any goroutine.
func (r *Reactor) Submit(fn func()) error {
	if r.state.Load() == StateTerminated {
		return ErrReactorTerminated
	}
	r.external.push(fn)
	r.wakeUp()
	return nil
}

// SubmitInternal enqueues fn on the internal (priority) queue, processed
// before the external queue on every tick. Safe to call from any goroutine.
func (r *Reactor) SubmitInternal(fn func()) error {
	if r.state.Load() == StateTerminated {
		return ErrReactorTerminated
	}
	r.internal.push(fn)
	r.wakeUp()
	return nil
}

// ScheduleMicrotask enqueues fn onto the microtask queue, drained once per
// tick after the task queues, or after every timer and external task when
// [WithStrictMicrotaskOrdering] is enabled.
func (r *Reactor) ScheduleMicrotask(fn func()) error {
	if r.state.Load() == StateTerminated {
		return ErrReactorTerminated
	}
	r.microtasks.push(fn)
	return nil
}

var timerSeq atomic.Uint64

// ScheduleTimer schedules fn to run after delay has elapsed, measured from
// the reactor's monotonic tick clock. The returned cancel function prevents
// fn from running if called before the deadline fires; it is idempotent and
// safe to call from any goroutine.
func (r *Reactor) ScheduleTimer(delay time.Duration, fn func()) (cancel func(), err error) {
	if r.state.Load() == StateTerminated {
		return nil, ErrReactorTerminated
	}
	valid := true
	entry := &timerEntry{
		when:  r.CurrentTickTime().Add(delay),
		seq:   timerSeq.Add(1),
		task:  fn,
		valid: &valid,
	}
	if err := r.SubmitInternal(func() {
		heap.Push(&r.timers, entry)
	}); err != nil {
		return nil, err
	}
	return func() { valid = false }, nil
}

// CurrentTickTime returns the reactor's cached monotonic time for the
// current tick, stable for the tick's duration (mirrors eventloop's
// CurrentTickTime/tick anchor design, loop.go).
func (r *Reactor) CurrentTickTime() time.Time {
	r.tickAnchorMu.RLock()
	anchor := r.tickAnchor
	r.tickAnchorMu.RUnlock()
	if anchor.IsZero() {
		return time.Now()
	}
	return anchor.Add(time.Duration(r.tickElapsed.Load()))
}

// Scratch returns the reactor's shared [MonotonicSource], used by
// [CompletionHandler]s that are not given an explicit [MemorySource]. The
// reactor itself never calls [MonotonicSource.Reset] on it.
func (r *Reactor) Scratch() *MonotonicSource { return r.scratch }

func (r *Reactor) wakeUp() {
	if r.state.Load() == StateTerminated {
		return
	}
	if r.wakePending.CompareAndSwap(false, true) {
		select {
		case r.wake <- struct{}{}:
		default:
		}
	}
}

func (r *Reactor) dispatch(fn func()) {
	if r.isReactorThread() {
		fn()
		return
	}
	_ = r.Submit(fn)
}

func (r *Reactor) isReactorThread() bool {
	id := r.reactorGoroutineID.Load()
	return id != 0 && goroutineID() == id
}

// tick runs one iteration: timers, internal queue, external queue
// (budgeted), microtasks, then sleeps until the next deadline or wakeup.
func (r *Reactor) tick() {
	r.tickAnchorMu.RLock()
	anchor := r.tickAnchor
	r.tickAnchorMu.RUnlock()
	r.tickElapsed.Store(int64(time.Since(anchor)))

	r.runTimers()
	r.drainQueue(&r.internal)
	r.processExternalBudgeted()
	r.drainMicrotasks()

	if r.state.Load() != StateRunning {
		return
	}
	r.sleepUntilWork()
}

func (r *Reactor) runTimers() {
	now := r.CurrentTickTime()
	for len(r.timers) > 0 && !r.timers[0].when.After(now) {
		t := heap.Pop(&r.timers).(*timerEntry)
		if *t.valid {
			r.safeRun(t.task)
			if r.opts.strictMicrotaskOrdering {
				r.drainMicrotasks()
			}
		}
	}
}

func (r *Reactor) drainQueue(q *taskQueue) {
	for _, fn := range q.drain() {
		r.safeRun(fn)
	}
}

func (r *Reactor) processExternalBudgeted() {
	jobs := r.external.drain()
	budget := r.opts.tickBudget
	n := len(jobs)
	if n > budget {
		n = budget
	}
	for i := 0; i < n; i++ {
		r.safeRun(jobs[i])
		if r.opts.strictMicrotaskOrdering {
			r.drainMicrotasks()
		}
	}
	// Anything beyond budget is pushed back onto the external queue for the
	// next tick, preserving FIFO order (spec.md §5 "Ordering guarantees").
	if n < len(jobs) {
		leftover := jobs[n:]
		r.external.mu.Lock()
		r.external.jobs = append(append([]func(){}, leftover...), r.external.jobs...)
		r.external.mu.Unlock()
		r.wakeUp()
	}
}

func (r *Reactor) drainMicrotasks() {
	const budget = 1024
	for i := 0; i < budget; i++ {
		jobs := r.microtasks.drain()
		if len(jobs) == 0 {
			return
		}
		for _, fn := range jobs {
			r.safeRun(fn)
		}
	}
}

func (r *Reactor) sleepUntilWork() {
	if r.opts.hooks != nil && r.opts.hooks.BeforeSleep != nil {
		r.opts.hooks.BeforeSleep()
	}
	if !r.state.TryTransition(StateRunning, StateSleeping) {
		return
	}

	if r.external.length() > 0 || r.internal.length() > 0 {
		r.state.TryTransition(StateSleeping, StateRunning)
		return
	}

	timeout := r.nextTimeout()
	if timeout <= 0 {
		r.state.TryTransition(StateSleeping, StateRunning)
		return
	}

	if timeout < 0 {
		<-r.wake
	} else {
		timer := time.NewTimer(timeout)
		select {
		case <-r.wake:
			timer.Stop()
		case <-timer.C:
		}
	}
	r.wakePending.Store(false)
	if r.opts.hooks != nil && r.opts.hooks.AfterWake != nil {
		r.opts.hooks.AfterWake()
	}
	r.state.TryTransition(StateSleeping, StateRunning)
}

// nextTimeout returns how long to block: 0 to not block at all, a positive
// duration capped by the next timer deadline, or a negative duration
// (meaning "no timers pending, block indefinitely for a wakeup").
func (r *Reactor) nextTimeout() time.Duration {
	const maxWait = 10 * time.Second
	if len(r.timers) == 0 {
		return -1
	}
	delay := r.timers[0].when.Sub(time.Now())
	if delay < 0 {
		delay = 0
	}
	if delay > maxWait {
		delay = maxWait
	}
	return delay
}

func (r *Reactor) drainToTermination() {
	r.state.Store(StateTerminated)
	for {
		drained := false
		for _, fn := range r.internal.drain() {
			r.safeRun(fn)
			drained = true
		}
		for _, fn := range r.external.drain() {
			r.safeRun(fn)
			drained = true
		}
		for _, fn := range r.microtasks.drain() {
			r.safeRun(fn)
			drained = true
		}
		if !drained {
			break
		}
		runtime.Gosched()
	}
	r.registry.rejectAll(ErrReactorTerminated)
}

func (r *Reactor) safeRun(fn func()) {
	if fn == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("task panicked", "panic", rec)
		}
	}()
	fn()
}

// goroutineID returns the current goroutine's runtime ID, mirroring
// eventloop's getGoroutineID (loop.go) — used only to detect reactor-thread
// affinity for immediate dispatch, never for correctness-critical locking.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}
