package provider_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/edugenius-backend/internal/modules/ai/provider"
	"github.com/yungbote/edugenius-backend/internal/modules/ai/provider/providertest"
	"github.com/yungbote/edugenius-backend/internal/platform/logger"
)

func TestCachedEmbedderBatchesOnlyMisses(t *testing.T) {
	inner := providertest.NewEmbedder(8)
	c, err := provider.NewCachedEmbedder(inner, nil, provider.EmbedCacheConfig{Size: 16}, logger.Nop())
	require.NoError(t, err)
	ctx := context.Background()

	first, err := c.Embed(ctx, []string{"alpha", "beta"})
	require.NoError(t, err)
	second, err := c.Embed(ctx, []string{"beta", "gamma", "alpha"})
	require.NoError(t, err)

	require.Equal(t, 2, inner.Calls())
	assert.Equal(t, []string{"gamma"}, inner.Batches[1])
	assert.Equal(t, first[1], second[0])
	assert.Equal(t, first[0], second[2])
	assert.Equal(t, providertest.Vector("gamma", 8), second[1])
}

func TestCachedEmbedderSharesThroughRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	ctx := context.Background()

	innerA := providertest.NewEmbedder(4)
	a, err := provider.NewCachedEmbedder(innerA, rdb, provider.EmbedCacheConfig{Namespace: "test"}, logger.Nop())
	require.NoError(t, err)
	want, err := a.Embed(ctx, []string{"what is a monad"})
	require.NoError(t, err)
	assert.Len(t, mr.Keys(), 1)

	// A second process with a cold LRU hits Redis instead of the provider.
	innerB := providertest.NewEmbedder(4)
	b, err := provider.NewCachedEmbedder(innerB, rdb, provider.EmbedCacheConfig{Namespace: "test"}, logger.Nop())
	require.NoError(t, err)
	got, err := b.Embed(ctx, []string{"what is a monad"})
	require.NoError(t, err)

	assert.Equal(t, 0, innerB.Calls())
	assert.Equal(t, want, got)
}

func TestCachedEmbedderSurvivesRedisOutage(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	inner := providertest.NewEmbedder(4)
	c, err := provider.NewCachedEmbedder(inner, rdb, provider.EmbedCacheConfig{}, logger.Nop())
	require.NoError(t, err)
	vecs, err := c.Embed(context.Background(), []string{"x"})
	require.NoError(t, err)
	assert.Len(t, vecs, 1)
	assert.Equal(t, 1, inner.Calls())
}

func TestCachedEmbedderPropagatesProviderError(t *testing.T) {
	inner := providertest.NewEmbedder(4)
	inner.Fail = &provider.EmbeddingError{Provider: "fake", Transient: true}
	c, err := provider.NewCachedEmbedder(inner, nil, provider.EmbedCacheConfig{}, nil)
	require.NoError(t, err)

	_, err = c.Embed(context.Background(), []string{"x"})
	var ee *provider.EmbeddingError
	require.ErrorAs(t, err, &ee)
	assert.True(t, ee.Retryable())
}
