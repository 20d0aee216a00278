package async

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCancelType_Has(t *testing.T) {
	require.True(t, CancelTotal.Has(CancelTotal))
	require.False(t, CancelTerminal.Has(CancelPartial))
}

func TestCancelSlot_HandleBeforeEmit(t *testing.T) {
	sig, slot := NewCancelPair()

	var got CancelType
	slot.Handle(func(ct CancelType) { got = ct })

	sig.Emit(CancelTotal)
	require.Equal(t, CancelTotal, got)

	rt, ok := slot.Requested()
	require.True(t, ok)
	require.Equal(t, CancelTotal, rt)
}

func TestCancelSlot_EmitBeforeHandle(t *testing.T) {
	sig, slot := NewCancelPair()
	sig.Emit(CancelTerminal)

	var got CancelType
	slot.Handle(func(ct CancelType) { got = ct })
	require.Equal(t, CancelTerminal, got)
}

func TestCancelError_Is(t *testing.T) {
	var err error = &CancelError{Type: CancelTotal}
	require.ErrorIs(t, err, &CancelError{Type: CancelPartial})
}

func TestCancelSlotFromContext_RoundTrips(t *testing.T) {
	_, slot := NewCancelPair()

	_, ok := CancelSlotFromContext(context.Background())
	require.False(t, ok)

	ctx := WithCancelSlot(context.Background(), slot)
	got, ok := CancelSlotFromContext(ctx)
	require.True(t, ok)
	require.Same(t, slot, got)
}

func TestCancelSlotFromContext_DistinguishesDeliveredType(t *testing.T) {
	sig, slot := NewCancelPair()
	ctx := WithCancelSlot(context.Background(), slot)

	sig.Emit(CancelTerminal)

	got, ok := CancelSlotFromContext(ctx)
	require.True(t, ok)
	rt, ok := got.Requested()
	require.True(t, ok)
	require.Equal(t, CancelTerminal, rt)
}
