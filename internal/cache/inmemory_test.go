package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tillpoint/tillpoint/internal/config"
	"github.com/tillpoint/tillpoint/internal/logger"
)

func TestInMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(config.GetDefaultConfig(), logger.NewNoopLogger())

	key := GenerateKey(PrefixStore, "store_1")
	assert.Equal(t, "store:v1::store_1", key)

	c.Set(ctx, key, "value", 0)
	v, ok := c.Get(ctx, key)
	assert.True(t, ok)
	assert.Equal(t, "value", v)

	c.Set(ctx, GenerateKey(PrefixStore, "store_2"), "other", 0)
	c.DeleteByPrefix(ctx, PrefixStore)
	_, ok = c.Get(ctx, key)
	assert.False(t, ok)
}

func TestDisabledCacheAlwaysMisses(t *testing.T) {
	ctx := context.Background()
	cfg := config.GetDefaultConfig()
	cfg.Cache.Enabled = false
	c := NewInMemoryCache(cfg, logger.NewNoopLogger())

	c.Set(ctx, "k", "v", 0)
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}
