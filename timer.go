package async

import (
	"context"
	"time"
)

// sleepOp adapts [Reactor.ScheduleTimer] to the [Op] protocol. Its cancel
// function is stashed so the caller can withdraw the timer if the await is
// interrupted before it fires.
type sleepOp struct {
	ex     Executor
	d      time.Duration
	cancel func()
}

func (o *sleepOp) Initiate(h *CompletionHandler[struct{}]) {
	cancel, err := o.ex.Reactor().ScheduleTimer(o.d, func() { h.Complete(struct{}{}) })
	if err != nil {
		h.Fail(err)
		return
	}
	o.cancel = cancel
}

// Sleep suspends for d, the generic scheduling primitive every structured-
// concurrency runtime needs (spec.md §1's "timers kept as a generic
// scheduling primitive"), grounded on original_source's example/delay.cpp
// (asio::steady_timer + async_wait).
func Sleep(ctx context.Context, ex Executor, d time.Duration) error {
	r := newReceiver[struct{}](ex)
	op := &sleepOp{ex: ex, d: d}
	h := newCompletionHandler[struct{}](ex, DefaultMemorySource, func(v struct{}, err error) {
		r.settle(v, err)
	})
	op.Initiate(h)
	_, err := awaitReceiver(ctx, r)
	if err != nil && op.cancel != nil {
		op.cancel()
	}
	return err
}
