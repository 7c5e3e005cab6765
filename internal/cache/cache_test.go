package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSetGet(t *testing.T) {
	c := New(true)
	defer c.Close()

	c.Set("k", []byte("v"), time.Minute)
	data, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), data)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestNegativeEntry(t *testing.T) {
	c := New(true)
	defer c.Close()

	c.Set("miss", nil, time.Minute)
	data, ok := c.Get("miss")
	assert.True(t, ok)
	assert.Nil(t, data)
}

func TestExpiry(t *testing.T) {
	c := NewWithInterval(true, 10*time.Millisecond)
	defer c.Close()

	c.Set("k", []byte("v"), 20*time.Millisecond)
	c.Set("ignored", []byte("v"), 0)
	_, ok := c.Get("ignored")
	assert.False(t, ok)

	assert.Eventually(t, func() bool {
		_, ok := c.Get("k")
		return !ok
	}, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool {
		return c.Stats()["total_keys"] == 0
	}, time.Second, 5*time.Millisecond)
}

func TestDisabledAndNil(t *testing.T) {
	c := New(false)
	c.Set("k", []byte("v"), time.Minute)
	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.False(t, c.Enabled())
	c.Close()

	var nilCache *Cache
	nilCache.Set("k", []byte("v"), time.Minute)
	_, ok = nilCache.Get("k")
	assert.False(t, ok)
	assert.Equal(t, false, nilCache.Stats()["enabled"])
	nilCache.Close()
}

func TestCloseStopsEvictionAndIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := NewWithInterval(true, time.Millisecond)
	c.Set("k", []byte("v"), time.Minute)
	c.Close()
	c.Close()
}

func TestStats(t *testing.T) {
	c := New(true)
	defer c.Close()

	c.Set("a", []byte("1"), time.Minute)
	c.Set("b", nil, time.Minute)
	stats := c.Stats()
	assert.Equal(t, true, stats["enabled"])
	assert.Equal(t, 2, stats["total_keys"])
	assert.Equal(t, 2, stats["active_keys"])
	assert.Equal(t, 0, stats["expired_keys"])
}
