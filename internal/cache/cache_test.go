package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/taxbridge/taxbridge/internal/config"
)

func TestGenerateKey(t *testing.T) {
	assert.Equal(t, "config:v1::1", GenerateKey(PrefixConfiguration, "1"))
	assert.Equal(t, "taxcat:v1::01:extra", GenerateKey(PrefixTaxCategory, "01", "extra"))
	assert.Equal(t, "nexus:v1::42", GenerateKey(PrefixNexus, 42))
}

func TestInMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(config.GetDefaultConfig())

	key := GenerateKey(PrefixConfiguration, "1")
	c.Set(ctx, key, "value", time.Minute)

	got, found := c.Get(ctx, key)
	assert.True(t, found)
	assert.Equal(t, "value", got)

	c.Delete(ctx, key)
	_, found = c.Get(ctx, key)
	assert.False(t, found)
}

func TestInMemoryCacheDisabled(t *testing.T) {
	ctx := context.Background()
	cfg := config.GetDefaultConfig()
	cfg.Cache.Enabled = false
	c := NewInMemoryCache(cfg)

	c.Set(ctx, "key", "value", time.Minute)
	_, found := c.Get(ctx, "key")
	assert.False(t, found)
}

func TestInMemoryCacheDeleteByPrefix(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(config.GetDefaultConfig())

	c.Set(ctx, GenerateKey(PrefixTaxCategory, "01"), "a", time.Minute)
	c.Set(ctx, GenerateKey(PrefixTaxCategory, "02"), "b", time.Minute)
	c.Set(ctx, GenerateKey(PrefixNexus, "1"), "c", time.Minute)

	c.DeleteByPrefix(ctx, PrefixTaxCategory)

	_, found := c.Get(ctx, GenerateKey(PrefixTaxCategory, "01"))
	assert.False(t, found)
	_, found = c.Get(ctx, GenerateKey(PrefixNexus, "1"))
	assert.True(t, found)
}

func TestInMemoryCacheFlush(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(config.GetDefaultConfig())

	c.Set(ctx, "key", "value", time.Minute)
	c.Flush(ctx)

	_, found := c.Get(ctx, "key")
	assert.False(t, found)
}
