package async

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWith_ExitAlwaysRuns(t *testing.T) {
	var exitCalled bool
	err := With(42,
		func(arg int) error {
			require.Equal(t, 42, arg)
			return nil
		},
		func(arg int, err error) error {
			exitCalled = true
			return err
		},
	)
	require.NoError(t, err)
	require.True(t, exitCalled)
}

func TestWith_ExitRunsOnBodyError(t *testing.T) {
	bodyErr := errors.New("body failed")
	var seen error
	err := With(0,
		func(int) error { return bodyErr },
		func(_ int, err error) error {
			seen = err
			return err
		},
	)
	require.ErrorIs(t, err, bodyErr)
	require.ErrorIs(t, seen, bodyErr)
}

func TestWith_ExitRunsOnPanicAndCanSuppress(t *testing.T) {
	err := With(0,
		func(int) error { panic("boom") },
		func(_ int, err error) error {
			var pe *PanicError
			if errors.As(err, &pe) {
				return nil
			}
			return err
		},
	)
	require.NoError(t, err)
}

func TestWith_ExitCanReplaceError(t *testing.T) {
	replacement := errors.New("replacement")
	err := With(0,
		func(int) error { return errors.New("original") },
		func(_ int, _ error) error { return replacement },
	)
	require.ErrorIs(t, err, replacement)
}

func TestSuppressCancel_SwallowsMatchingType(t *testing.T) {
	exit := SuppressCancel[int](CancelInterruptAwait)
	require.NoError(t, exit(0, &CancelError{Type: CancelInterruptAwait}))
	require.Error(t, exit(0, errors.New("unrelated")))
}

func TestSuppressError_SwallowsOnlyTarget(t *testing.T) {
	target := errors.New("target")
	exit := SuppressError[int](target)
	require.NoError(t, exit(0, target))
	require.Error(t, exit(0, errors.New("other")))
}
