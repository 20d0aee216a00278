package async

import (
	"context"
	"sync"
)

// Member is a WaitGroup-trackable handle to a task shape, adapting any of
// [EagerTask], [Task], [ThreadTask], or [Detached] to the single
// await/cancel shape WaitGroup needs. Use the matching Wrap* constructor.
type Member struct {
	await  func(context.Context) error
	cancel func(CancelType)
}

// WrapEagerTask adapts an [EagerTask] handle into a [Member].
func WrapEagerTask[T any](t *EagerTask[T]) Member {
	return Member{
		await:  func(ctx context.Context) error { _, err := t.Await(ctx); return err },
		cancel: t.Cancel,
	}
}

// WrapLazyTask adapts a [Task] handle into a [Member].
func WrapLazyTask[T any](t *Task[T]) Member {
	return Member{
		await:  func(ctx context.Context) error { _, err := t.Await(ctx); return err },
		cancel: t.Cancel,
	}
}

// WrapThreadTask adapts a [ThreadTask] handle into a [Member].
func WrapThreadTask[T any](t *ThreadTask[T]) Member {
	return Member{
		await:  func(ctx context.Context) error { _, err := t.Await(ctx); return err },
		cancel: t.Cancel,
	}
}

// WrapDetached adapts a [Detached] handle into a [Member].
func WrapDetached(d *Detached) Member {
	return Member{
		await:  func(ctx context.Context) error { _, err := awaitReceiver(ctx, d.r); return err },
		cancel: d.Cancel,
	}
}

type waitMember struct {
	id uint64
	m  Member
}

// WaitGroup tracks a dynamic set of in-flight task members and lets a
// caller wait for all of them, wait for just the next one to finish, or
// walk away, mirroring original_source's wait_group (detail/wait_group.hpp's
// select/wait wrappers over a std::list<promise<void>>, generalized from
// void-only members to any [Member]).
//
// wait_group.hpp's constructor takes two distinct cancellation_types — one
// used on normal scope exit, one on exceptional scope exit. [NewWaitGroup]
// carries that same pair; a zero-value WaitGroup (as produced by
// `var wg WaitGroup`) defaults both to [CancelTotal], matching this type's
// previous unconditional behavior.
type WaitGroup struct {
	mu              sync.Mutex
	members         []waitMember
	nextID          uint64
	normalExit      CancelType
	exceptionalExit CancelType
}

// NewWaitGroup creates a WaitGroup whose [WaitGroup.CloseNormal] and
// [WaitGroup.CloseExceptional] cancel remaining members with normalExit and
// exceptionalExit respectively.
func NewWaitGroup(normalExit, exceptionalExit CancelType) *WaitGroup {
	return &WaitGroup{normalExit: normalExit, exceptionalExit: exceptionalExit}
}

// Add registers m as a member of the group.
func (wg *WaitGroup) Add(m Member) {
	wg.mu.Lock()
	wg.nextID++
	wg.members = append(wg.members, waitMember{id: wg.nextID, m: m})
	wg.mu.Unlock()
}

func (wg *WaitGroup) snapshot() []waitMember {
	wg.mu.Lock()
	defer wg.mu.Unlock()
	out := make([]waitMember, len(wg.members))
	copy(out, wg.members)
	return out
}

func (wg *WaitGroup) takeAll() []waitMember {
	wg.mu.Lock()
	members := wg.members
	wg.members = nil
	wg.mu.Unlock()
	return members
}

func (wg *WaitGroup) removeID(id uint64) {
	wg.mu.Lock()
	for i, wm := range wg.members {
		if wm.id == id {
			wg.members = append(wg.members[:i], wg.members[i+1:]...)
			break
		}
	}
	wg.mu.Unlock()
}

// Wait blocks until every currently-registered member settles, or ctx is
// done, and returns one error per member (nil entries for members that
// completed without error), in registration order. Every waited-on member
// is removed from the group.
func (wg *WaitGroup) Wait(ctx context.Context) []error {
	members := wg.takeAll()
	if len(members) == 0 {
		return nil
	}

	errs := make([]error, len(members))
	var done sync.WaitGroup
	done.Add(len(members))
	for i, wm := range members {
		go func(i int, m Member) {
			defer done.Done()
			errs[i] = m.await(ctx)
		}(i, wm.m)
	}
	done.Wait()
	return errs
}

// WaitOne blocks until the next currently-registered member to settle does
// so, removes exactly that member from the group (every other member stays
// registered), and returns its error — the spec's wait_one, grounded on
// wait_group.hpp's select_wrapper-backed wait_one() (spec.md §3: "its
// wait_one takes the next to complete and removes it"; §8's echo-handler
// loop awaits wait_one before adding the next handler). Returns
// [ErrWaitNotReady] if the group has no members to wait on.
func (wg *WaitGroup) WaitOne(ctx context.Context) error {
	members := wg.snapshot()
	if len(members) == 0 {
		return ErrWaitNotReady
	}

	type result struct {
		id  uint64
		err error
	}
	// Withdraw the other members' awaits, and wait for them to detach,
	// before returning, so a later WaitOne or Wait can await them again.
	cctx, cancel := context.WithCancel(ctx)
	var running sync.WaitGroup
	running.Add(len(members))
	defer func() {
		cancel()
		running.Wait()
	}()

	results := make(chan result, len(members))
	for _, wm := range members {
		go func(wm waitMember) {
			defer running.Done()
			results <- result{wm.id, wm.m.await(cctx)}
		}(wm)
	}

	select {
	case r := <-results:
		wg.removeID(r.id)
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels every still-registered member with ct and returns
// immediately without waiting for them to settle — "fire and cancel, not
// fire and forget".
func (wg *WaitGroup) Close(ct CancelType) {
	for _, wm := range wg.takeAll() {
		wm.m.cancel(ct)
	}
}

// CloseNormal closes the group using the normal-scope-exit cancellation
// type ([NewWaitGroup]'s normalExit, or [CancelTotal] for a zero-value
// WaitGroup) — the exit hook to use with [With] when the enclosing scope is
// leaving without an error.
func (wg *WaitGroup) CloseNormal() {
	wg.Close(wg.exitTypeOrDefault(wg.normalExit))
}

// CloseExceptional closes the group using the exceptional-scope-exit
// cancellation type ([NewWaitGroup]'s exceptionalExit, or [CancelTotal] for
// a zero-value WaitGroup) — the exit hook to use with [With] when the
// enclosing scope is leaving because of an error or panic.
func (wg *WaitGroup) CloseExceptional() {
	wg.Close(wg.exitTypeOrDefault(wg.exceptionalExit))
}

func (wg *WaitGroup) exitTypeOrDefault(ct CancelType) CancelType {
	if ct == 0 {
		return CancelTotal
	}
	return ct
}
