package async

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMonotonicSource_ServesInlineUntilExhausted(t *testing.T) {
	src := NewMonotonicSource()

	buf, err := src.Allocate(64)
	require.NoError(t, err)
	require.Len(t, buf, 64)

	inline, fellBack := src.Stats()
	require.Equal(t, 1, inline)
	require.Equal(t, 0, fellBack)

	_, err = src.Allocate(monotonicBufSize)
	require.NoError(t, err)
	inline, fellBack = src.Stats()
	require.Equal(t, 1, inline)
	require.Equal(t, 1, fellBack)
}

func TestMonotonicSource_ResetReclaimsInlineBuffer(t *testing.T) {
	src := NewMonotonicSource()
	_, _ = src.Allocate(monotonicBufSize)
	src.Reset()

	_, err := src.Allocate(64)
	require.NoError(t, err)
	// Stats is cumulative: the first, exactly buffer-sized allocation was
	// also served inline.
	inline, fellBack := src.Stats()
	require.Equal(t, 2, inline)
	require.Equal(t, 0, fellBack)
}

func TestMonotonicSource_NegativeSizeFails(t *testing.T) {
	src := NewMonotonicSource()
	_, err := src.Allocate(-1)
	require.ErrorIs(t, err, ErrAllocationFailed)
}

func TestMemorySourceFromContext_FallsBackToDefault(t *testing.T) {
	require.Equal(t, DefaultMemorySource, MemorySourceFromContext(context.Background()))
}

func TestMemorySourceFromContext_HonorsInstalled(t *testing.T) {
	src := NewMonotonicSource()
	ctx := WithMemorySource(context.Background(), src)
	require.Same(t, src, MemorySourceFromContext(ctx))
}
