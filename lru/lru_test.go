package lru

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_GetRefreshesRecency(t *testing.T) {
	c := New(2, nil)
	c.Add("a", "1")
	c.Add("b", "2")

	// 访问 a 之后，b 成为最久未使用的条目
	_, ok := c.Get("a")
	require.True(t, ok)
	c.Add("c", "3")

	_, ok = c.Get("b")
	assert.False(t, ok, "b should have been evicted")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
	v, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, "3", v)
	assert.Equal(t, 2, c.Len())
}

func TestCache_OverwriteRefreshesRecency(t *testing.T) {
	c := New(2, nil)
	c.Add("a", "1")
	c.Add("b", "2")
	c.Add("a", "10")
	c.Add("c", "3")

	assert.Equal(t, []string{"c", "a"}, c.Keys())
	v, _ := c.Get("a")
	assert.Equal(t, "10", v)
}

func TestCache_MissDoesNotMutate(t *testing.T) {
	c := New(3, nil)
	c.Add("a", "1")
	c.Add("b", "2")
	before := c.Keys()

	_, ok := c.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, before, c.Keys())
	assert.Equal(t, 2, c.Len())
}

func TestCache_Remove(t *testing.T) {
	evicted := 0
	c := New(2, func(string, string) { evicted++ })
	c.Add("a", "1")

	assert.False(t, c.Remove("missing"))
	assert.True(t, c.Remove("a"))
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 0, evicted, "explicit removal is not an eviction")
}

func TestCache_OnEvicted(t *testing.T) {
	var keys []string
	c := New(2, func(key string, value string) {
		keys = append(keys, key+"="+value)
	})
	c.Add("k1", "v1")
	c.Add("k2", "v2")
	c.Add("k3", "v3")
	c.Add("k4", "v4")

	assert.Equal(t, []string{"k1=v1", "k2=v2"}, keys)
}

func TestCache_NeverExceedsCapacity(t *testing.T) {
	const capacity = 16
	c := New(capacity, nil)
	r := rand.New(rand.NewSource(1))

	for i := 0; i < 2000; i++ {
		key := fmt.Sprintf("key-%d", r.Intn(64))
		if r.Intn(3) == 0 {
			c.Get(key)
			continue
		}
		c.Add(key, fmt.Sprintf("value-%d", i))
		require.LessOrEqual(t, c.Len(), capacity)
	}
	assert.Equal(t, capacity, c.Len())
}

func TestCache_Unbounded(t *testing.T) {
	c := New(0, nil)
	for i := 0; i < 500; i++ {
		c.Add(fmt.Sprintf("key-%d", i), "v")
	}
	assert.Equal(t, 500, c.Len())
}
