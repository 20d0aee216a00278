package async

// reactorOptions holds configuration resolved from a set of [ReactorOption].
// Grounded on eventloop's loopOptions/LoopOption pattern (options.go).
type reactorOptions struct {
	strictMicrotaskOrdering bool
	tickBudget              int
	hooks                   *reactorTestHooks
}

// ReactorOption configures a [Reactor] at construction time.
type ReactorOption interface {
	applyReactor(*reactorOptions)
}

type reactorOptionFunc func(*reactorOptions)

func (f reactorOptionFunc) applyReactor(o *reactorOptions) { f(o) }

// WithStrictMicrotaskOrdering controls whether microtasks are drained after
// every task execution (strict) or batched per tick (default, higher
// throughput). Mirrors eventloop.WithStrictMicrotaskOrdering.
func WithStrictMicrotaskOrdering(enabled bool) ReactorOption {
	return reactorOptionFunc(func(o *reactorOptions) {
		o.strictMicrotaskOrdering = enabled
	})
}

// WithTickBudget caps the number of external-queue tasks processed per
// reactor tick before yielding to timers/microtasks, mirroring eventloop's
// processExternal budget constant. A value <= 0 is ignored and leaves the
// budget as it was (1024 by default).
func WithTickBudget(n int) ReactorOption {
	return reactorOptionFunc(func(o *reactorOptions) {
		if n > 0 {
			o.tickBudget = n
		}
	})
}

// reactorTestHooks provides injection points for deterministic tests,
// mirroring eventloop's loopTestHooks.
type reactorTestHooks struct {
	BeforeSleep func()
	AfterWake   func()
	OnTaskSpawn func()
}

// withTestHooks installs deterministic test hooks. Unexported: only this
// package's own tests construct a *reactorTestHooks.
func withTestHooks(h *reactorTestHooks) ReactorOption {
	return reactorOptionFunc(func(o *reactorOptions) {
		o.hooks = h
	})
}

// resolveReactorOptions applies opts over the documented defaults.
func resolveReactorOptions(opts []ReactorOption) *reactorOptions {
	cfg := &reactorOptions{
		tickBudget: 1024,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyReactor(cfg)
	}
	return cfg
}
