package async

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGather_CollectsAllValuesAndErrors(t *testing.T) {
	_, ex, stop := startReactor(t)
	defer stop()

	errA := errors.New("a failed")
	t1 := NewEagerTask[int](context.Background(), ex, func(ctx context.Context) (int, error) { return 1, nil })
	t2 := NewEagerTask[int](context.Background(), ex, func(ctx context.Context) (int, error) { return 0, errA })
	t3 := NewEagerTask[int](context.Background(), ex, func(ctx context.Context) (int, error) { return 3, nil })

	result := Gather(context.Background(), t1, t2, t3)
	require.Equal(t, []int{1, 0, 3}, result.Values)

	errs := result.Errors()
	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], errA)

	var agg *AggregateError
	require.ErrorAs(t, result.Err(), &agg)
	require.Len(t, agg.Errors, 1)
}

func TestJoin_ReturnsFirstErrorInIndexOrder(t *testing.T) {
	_, ex, stop := startReactor(t)
	defer stop()

	err1 := errors.New("first")
	err2 := errors.New("second")
	t1 := NewEagerTask[int](context.Background(), ex, func(ctx context.Context) (int, error) { return 0, err1 })
	t2 := NewEagerTask[int](context.Background(), ex, func(ctx context.Context) (int, error) { return 0, err2 })

	_, err := Join(context.Background(), t1, t2)
	require.ErrorIs(t, err, err1)
}

func TestWait_ReturnsOneErrorPerTask(t *testing.T) {
	_, ex, stop := startReactor(t)
	defer stop()

	t1 := NewEagerTask[struct{}](context.Background(), ex, func(ctx context.Context) (struct{}, error) { return struct{}{}, nil })
	t2 := NewEagerTask[struct{}](context.Background(), ex, func(ctx context.Context) (struct{}, error) { return struct{}{}, errors.New("x") })

	errs := Wait(context.Background(), t1, t2)
	require.Len(t, errs, 2)
	require.NoError(t, errs[0])
	require.Error(t, errs[1])
}

func TestRace_FirstSettledWins(t *testing.T) {
	_, ex, stop := startReactor(t)
	defer stop()

	fast := NewEagerTask[string](context.Background(), ex, func(ctx context.Context) (string, error) {
		return "fast", nil
	})
	slow := NewEagerTask[string](context.Background(), ex, func(ctx context.Context) (string, error) {
		time.Sleep(200 * time.Millisecond)
		return "slow", nil
	})

	result := Race(context.Background(), slow, fast)
	require.NoError(t, result.Err)
	require.Equal(t, "fast", result.Value)
	require.Equal(t, 1, result.Index)
}

func TestRace_LoserRemainsAwaitableAfterInterrupt(t *testing.T) {
	_, ex, stop := startReactor(t)
	defer stop()

	fast := NewEagerTask[int](context.Background(), ex, func(ctx context.Context) (int, error) { return 1, nil })
	release := make(chan struct{})
	slow := NewEagerTask[int](context.Background(), ex, func(ctx context.Context) (int, error) {
		// Honors ctx like any real task body would. Race withdraws the
		// losing branch's Await via CancelInterruptAwait; that must not
		// reach this ctx, or the body would observe ctx.Done() here and
		// settle with context.Canceled instead of staying alive.
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-release:
			return 2, nil
		}
	})

	result := Race(context.Background(), fast, slow)
	require.Equal(t, 0, result.Index)
	require.False(t, slow.Ready())

	close(release)
	v, err := slow.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, v)
}

func TestLeftSelect_BiasesTowardLowestReadyIndex(t *testing.T) {
	_, ex, stop := startReactor(t)
	defer stop()

	// Both tasks settle essentially immediately; LeftSelect should prefer
	// index 0 whenever it has also become ready by decision time.
	t0 := NewEagerTask[int](context.Background(), ex, func(ctx context.Context) (int, error) { return 0, nil })
	t1 := NewEagerTask[int](context.Background(), ex, func(ctx context.Context) (int, error) { return 1, nil })

	// Let t0 settle before racing, so it is ready at decision time whichever
	// task Race reports first.
	_, _ = t0.Await(context.Background())
	result := LeftSelect(context.Background(), t0, t1)
	require.Equal(t, 0, result.Index)
}
