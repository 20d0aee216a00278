package async

import "context"

// Detached is a fire-and-forget task shape: its body starts immediately and
// the caller retains only a weak cancellation handle, never a result.
// Generalized from the teacher's common `go loop.Promisify(ctx, fn)` pattern
// used when the caller never reads the resulting Promise (spec.md §4.6).
type Detached struct {
	r      *receiver[struct{}]
	cancel context.CancelFunc
}

// Go starts fn immediately on a new goroutine bound to ex. Any error fn
// returns, and any panic it raises, is logged via the reactor's ambient
// logger rather than surfaced to a caller — there is none.
func Go(ctx context.Context, ex Executor, fn func(context.Context) error) *Detached {
	r := newReceiver[struct{}](ex)
	cctx, cancel := context.WithCancel(ctx)
	r.cancelSlot.Handle(bodyCancelHandler(cancel))

	d := &Detached{r: r, cancel: cancel}
	var registryID uint64
	reactor := ex.Reactor()
	if reactor != nil {
		registryID = reactor.registry.track(registryEntry(d))
	}

	go func() {
		settleViaReactor(cctx, ex, r, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, fn(ctx)
		})
		if reactor != nil {
			if registryID != 0 {
				_ = ex.Post(func() { reactor.registry.untrack(registryID) })
			}
			// The settle above is queued with PostInternal; queue the check
			// behind it so it sees the settled result.
			logFailure := func() {
				if err := d.err(); err != nil {
					reactor.log.Warn("detached task failed", "error", err)
				}
			}
			if ex.PostInternal(logFailure) != nil {
				logFailure()
			}
		}
	}()
	return d
}

// err returns the settled error, or nil if still pending.
func (d *Detached) err() error {
	if !d.r.ready() {
		return nil
	}
	_, err := d.r.take()
	return err
}

// Cancel requests cancellation of the task with the given strength.
func (d *Detached) Cancel(ct CancelType) {
	d.r.cancelSignal.Emit(ct)
}

func (d *Detached) pending() bool    { return d.r.pending() }
func (d *Detached) reject(err error) { d.cancel(); d.r.reject(err) }
