package async

import "errors"

// With runs body(arg), then always runs exit(arg, err) — whether body
// returned an error, panicked, or succeeded — and returns exit's result as
// the final error. exit may replace or suppress the error entirely (return
// nil), matching original_source's with.hpp "enter/body/exit always runs,
// exit's error takes precedence" contract (detail/with.hpp's try/catch
// double-tag_invoke sequence), recovered here since the distilled spec
// dropped the scoped-exit primitive.
func With[A any](arg A, body func(A) error, exit func(A, error) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &PanicError{Value: rec}
		}
		err = exit(arg, err)
	}()
	err = body(arg)
	return
}

// SuppressCancel builds a [With] exit hook that swallows a [CancelError]
// whose type matches any bit in types, passing through every other error
// unchanged. Grounded on original_source's example/suppress.cpp
// suppress<system_error>() tag_invoke, generalized from a single exception
// type to the spec's CancelType bitmask.
func SuppressCancel[A any](types CancelType) func(A, error) error {
	return func(_ A, err error) error {
		var ce *CancelError
		if errors.As(err, &ce) && ce.Type&types != 0 {
			return nil
		}
		return err
	}
}

// SuppressError builds a [With] exit hook that swallows any error matching
// target via errors.Is, passing through every other error unchanged.
// Grounded on example/suppress.cpp's suppress(error_code) overload,
// generalized from a specific error_code comparison to errors.Is.
func SuppressError[A any](target error) func(A, error) error {
	return func(_ A, err error) error {
		if errors.Is(err, target) {
			return nil
		}
		return err
	}
}
