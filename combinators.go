package async

import (
	"context"
	"sync"
)

// GatherResult holds the per-child outcome of a [Gather] call. Every child
// is awaited to completion regardless of whether others failed; [Join] is
// built on Gather and likewise never short-circuits.
type GatherResult[T any] struct {
	Values []T
	errs   []error
}

// Errors returns the non-nil errors observed across every child, in
// registration order, grounded on the teacher's AggregateError (used by its
// JS.Any/All combinators to surface every rejection rather than just the
// first).
func (g *GatherResult[T]) Errors() []error {
	var out []error
	for _, e := range g.errs {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Err returns nil if every child succeeded, or an [AggregateError] wrapping
// every observed error otherwise.
func (g *GatherResult[T]) Err() error {
	errs := g.Errors()
	if len(errs) == 0 {
		return nil
	}
	return &AggregateError{Errors: errs}
}

// Gather awaits every task concurrently and always waits for all of them,
// collecting both values and errors by index.
func Gather[T any](ctx context.Context, tasks ...*EagerTask[T]) *GatherResult[T] {
	n := len(tasks)
	values := make([]T, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i, t := range tasks {
		go func(i int, t *EagerTask[T]) {
			defer wg.Done()
			v, err := t.Await(ctx)
			values[i] = v
			errs[i] = err
		}(i, t)
	}
	wg.Wait()
	return &GatherResult[T]{Values: values, errs: errs}
}

// Join awaits every task, like [Gather], but returns the first error
// observed in registration order rather than aggregating every error —
// the single-representative-error convention the spec's `join` operation
// uses in contrast to `gather`. A failing task does not cancel the others;
// Join returns only after every task has settled.
func Join[T any](ctx context.Context, tasks ...*EagerTask[T]) ([]T, error) {
	g := Gather(ctx, tasks...)
	for _, e := range g.errs {
		if e != nil {
			return g.Values, e
		}
	}
	return g.Values, nil
}

// Wait awaits every task and returns one error per task (nil for success),
// discarding values — the variadic form.
func Wait[T any](ctx context.Context, tasks ...*EagerTask[T]) []error {
	return Gather(ctx, tasks...).errs
}

// WaitSlice is [Wait] over a pre-built slice, the ranged form.
func WaitSlice[T any](ctx context.Context, tasks []*EagerTask[T]) []error {
	return Wait(ctx, tasks...)
}

// RaceResult holds the outcome of a [Race] or [LeftSelect].
type RaceResult[T any] struct {
	Value T
	Index int
	Err   error
}

// Race awaits every task concurrently and returns as soon as the first one
// settles. The remaining tasks are not cancelled outright: per the resolved
// design question on interrupt-await + partial result (see DESIGN.md), only
// their in-flight Await is withdrawn with [CancelInterruptAwait] — the
// underlying task bodies keep running and may be re-awaited later by the
// caller if it retains a reference.
func Race[T any](ctx context.Context, tasks ...*EagerTask[T]) RaceResult[T] {
	type indexed struct {
		i   int
		v   T
		err error
	}
	if len(tasks) == 0 {
		return RaceResult[T]{Err: ErrWaitNotReady}
	}

	cctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Wait for every losing Await to withdraw before returning, so the
	// caller can re-await a loser straight away.
	var running sync.WaitGroup
	running.Add(len(tasks))
	defer running.Wait()

	results := make(chan indexed, len(tasks))
	for i, t := range tasks {
		go func(i int, t *EagerTask[T]) {
			defer running.Done()
			v, err := t.Await(cctx)
			results <- indexed{i, v, err}
		}(i, t)
	}

	select {
	case r := <-results:
		cancel()
		return RaceResult[T]{Value: r.v, Index: r.i, Err: r.err}
	case <-ctx.Done():
		return RaceResult[T]{Err: ctx.Err()}
	}
}

// LeftSelect behaves like [Race], but when more than one task is already
// settled at the moment of decision, it is biased toward the lowest index
// — mirroring the teacher's deterministic by-slice-index ordering in its
// own All/Race implementations, recovered here per spec.md §4.8's
// left_select requirement.
func LeftSelect[T any](ctx context.Context, tasks ...*EagerTask[T]) RaceResult[T] {
	result := Race(ctx, tasks...)
	if result.Err != nil && result.Index == 0 && len(tasks) == 0 {
		return result
	}
	for i, t := range tasks {
		if i >= result.Index {
			break
		}
		if t.Ready() {
			v, err := t.Await(ctx)
			return RaceResult[T]{Value: v, Index: i, Err: err}
		}
	}
	return result
}

// Select is an alias for [Race] under the spec's naming — both withdraw
// losing branches via [CancelInterruptAwait] rather than terminating them.
func Select[T any](ctx context.Context, tasks ...*EagerTask[T]) RaceResult[T] {
	return Race(ctx, tasks...)
}
