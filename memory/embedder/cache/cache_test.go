package cache_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/becomeliminal/recall-go-sdk/memory/embedder/cache"
)

// countingEmbedder counts how often the backing model is hit.
type countingEmbedder struct {
	calls atomic.Int64
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls.Add(1)
	vec := make([]float32, 4)
	for i, r := range text {
		vec[i%4] += float32(r)
	}
	return vec, nil
}

func (c *countingEmbedder) Dimensions() int { return 4 }

func TestEmbedDelegatesAndCaches(t *testing.T) {
	ctx := context.Background()
	inner := &countingEmbedder{}

	cached, err := cache.New(inner, 0)
	require.NoError(t, err)
	defer cached.Close()

	assert.Equal(t, 4, cached.Dimensions())

	want, err := inner.Embed(ctx, "hello world")
	require.NoError(t, err)
	inner.calls.Store(0)

	got, err := cached.Embed(ctx, "hello world")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.EqualValues(t, 1, inner.calls.Load())

	// Cache admission is asynchronous; poll until the entry lands and a
	// repeat lookup stops reaching the backing embedder.
	require.Eventually(t, func() bool {
		before := inner.calls.Load()
		vec, err := cached.Embed(ctx, "hello world")
		return err == nil && len(vec) == 4 && inner.calls.Load() == before
	}, 2*time.Second, 10*time.Millisecond)
}

func TestEmbedDistinctTextsMiss(t *testing.T) {
	ctx := context.Background()
	inner := &countingEmbedder{}

	cached, err := cache.New(inner, 0)
	require.NoError(t, err)
	defer cached.Close()

	_, err = cached.Embed(ctx, "alpha")
	require.NoError(t, err)
	_, err = cached.Embed(ctx, "beta")
	require.NoError(t, err)

	assert.EqualValues(t, 2, inner.calls.Load())
}
