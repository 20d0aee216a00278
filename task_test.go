package async

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEagerTask_StartsImmediatelyAndAwaits(t *testing.T) {
	_, ex, stop := startReactor(t)
	defer stop()

	started := make(chan struct{})
	task := NewEagerTask[int](context.Background(), ex, func(ctx context.Context) (int, error) {
		close(started)
		return 9, nil
	})

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("eager task body did not start")
	}

	v, err := task.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, 9, v)
	require.True(t, task.Ready())
}

func TestEagerTask_PropagatesError(t *testing.T) {
	_, ex, stop := startReactor(t)
	defer stop()

	wantErr := errors.New("boom")
	task := NewEagerTask[int](context.Background(), ex, func(ctx context.Context) (int, error) {
		return 0, wantErr
	})

	_, err := task.Await(context.Background())
	require.ErrorIs(t, err, wantErr)
}

func TestEagerTask_PanicBecomesPanicError(t *testing.T) {
	_, ex, stop := startReactor(t)
	defer stop()

	task := NewEagerTask[int](context.Background(), ex, func(ctx context.Context) (int, error) {
		panic("kaboom")
	})

	_, err := task.Await(context.Background())
	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, "kaboom", pe.Value)
}

func TestEagerTask_InterruptedAwaitDoesNotKillTask(t *testing.T) {
	_, ex, stop := startReactor(t)
	defer stop()

	release := make(chan struct{})
	task := NewEagerTask[int](context.Background(), ex, func(ctx context.Context) (int, error) {
		// A task body that honors ctx, per the documented contract of the
		// fn func(context.Context) signature. If the interrupt-await
		// emitted below ever reached this body's own context, this would
		// return context.Canceled instead of 5.
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-release:
			return 5, nil
		}
	})

	awaitCtx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := task.Await(awaitCtx)
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, task.Ready())

	close(release)
	v, err := task.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, v)
}

func TestEagerTask_SecondAwaiterRejected(t *testing.T) {
	_, ex, stop := startReactor(t)
	defer stop()

	release := make(chan struct{})
	task := NewEagerTask[int](context.Background(), ex, func(ctx context.Context) (int, error) {
		<-release
		return 1, nil
	})
	defer close(release)

	errCh := make(chan error, 1)
	go func() {
		_, err := task.Await(context.Background())
		errCh <- err
	}()

	// Give the first Await a chance to attach before the second races it.
	time.Sleep(20 * time.Millisecond)
	_, err := task.Await(context.Background())
	require.ErrorIs(t, err, ErrAlreadyAwaited)

	<-errCh
}

func TestTask_LazyDoesNotStartUntilSpawned(t *testing.T) {
	_, ex, stop := startReactor(t)
	defer stop()

	started := make(chan struct{})
	task := NewTask[int](ex, func(ctx context.Context) (int, error) {
		close(started)
		return 3, nil
	})

	select {
	case <-started:
		t.Fatal("lazy task started before Spawn/Await")
	case <-time.After(30 * time.Millisecond):
	}

	v, err := task.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, v)
}

func TestTask_SpawnIsIdempotent(t *testing.T) {
	_, ex, stop := startReactor(t)
	defer stop()

	var starts int
	started := make(chan struct{}, 2)
	task := NewTask[int](ex, func(ctx context.Context) (int, error) {
		starts++
		started <- struct{}{}
		return starts, nil
	})

	task.Spawn(context.Background())
	task.Spawn(context.Background())

	v, err := task.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, v)
}
