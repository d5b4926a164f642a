package consistenthash

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// atoiHash maps "2" to 2, "12" to 12 and so on, which makes positions
// predictable.
func atoiHash(key []byte) uint32 {
	i, _ := strconv.Atoi(string(key))
	return uint32(i)
}

func TestMap_Get(t *testing.T) {
	m := New(3, atoiHash)
	// 2, 4, 6, 12, 14, 16, 22, 24, 26
	m.Add("6", "4", "2")

	cases := map[string]string{
		"2":  "2",
		"11": "2",
		"23": "4",
		"27": "2",
	}
	for key, want := range cases {
		got, ok := m.Get(key)
		require.True(t, ok)
		assert.Equal(t, want, got, "key %s", key)
	}

	// 8, 18, 28
	m.Add("8")
	got, _ := m.Get("27")
	assert.Equal(t, "8", got)

	require.True(t, m.Remove("8"))
	got, _ = m.Get("27")
	assert.Equal(t, "2", got)
}

func TestMap_Empty(t *testing.T) {
	m := New(10, nil)
	_, ok := m.Get("anything")
	assert.False(t, ok)

	m.Add("a")
	m.Remove("a")
	_, ok = m.Get("anything")
	assert.False(t, ok)
	assert.Empty(t, m.Nodes())
}

func TestMap_AddIsIdempotent(t *testing.T) {
	m := New(10, nil)
	m.Add("a", "b")
	m.Add("a")
	m.Add("b", "a")

	assert.Equal(t, 2, m.Len())
	assert.Len(t, m.keys, 20)
}

func TestMap_RemoveAbsent(t *testing.T) {
	m := New(10, nil)
	m.Add("a")
	assert.False(t, m.Remove("b"))
	assert.Equal(t, []string{"a"}, m.Nodes())
}

func TestMap_MembershipMatchesAddsMinusRemoves(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	m := New(20, nil)
	want := map[string]bool{}

	for i := 0; i < 500; i++ {
		node := fmt.Sprintf("10.0.0.%d:7000", r.Intn(12))
		if r.Intn(2) == 0 {
			m.Add(node)
			want[node] = true
		} else {
			m.Remove(node)
			delete(want, node)
		}
	}

	var expected []string
	for n := range want {
		expected = append(expected, n)
	}
	got := m.Nodes()
	sort.Strings(expected)
	sort.Strings(got)
	assert.Equal(t, expected, got)
}

func TestMap_Deterministic(t *testing.T) {
	nodes := []string{"127.0.0.1:50051", "127.0.0.1:50052", "127.0.0.1:50053"}
	m1 := New(50, nil)
	m2 := New(50, nil)
	m1.Add(nodes...)
	m2.Add(nodes...)

	for i := 0; i < 200; i++ {
		key := fmt.Sprintf("key-%d", i)
		a, _ := m1.Get(key)
		b, _ := m1.Get(key)
		c, _ := m2.Get(key)
		assert.Equal(t, a, b)
		assert.Equal(t, a, c)
	}
	assert.Equal(t, m1.Nodes(), m2.Nodes())
}

func TestMap_RemoveOnlyRemapsOwnedKeys(t *testing.T) {
	m := New(50, nil)
	m.Add("n1", "n2", "n3", "n4")

	before := map[string]string{}
	for i := 0; i < 1000; i++ {
		key := fmt.Sprintf("key-%d", i)
		before[key], _ = m.Get(key)
	}

	m.Remove("n3")
	moved := 0
	for key, owner := range before {
		now, ok := m.Get(key)
		require.True(t, ok)
		assert.NotEqual(t, "n3", now)
		if owner != "n3" {
			assert.Equal(t, owner, now, "key %s moved although its owner stayed", key)
		} else {
			moved++
		}
	}
	assert.Greater(t, moved, 0)
}

func TestMap_CollisionSurvivesRemoval(t *testing.T) {
	// every virtual node lands on the same point
	m := New(3, func([]byte) uint32 { return 42 })
	m.Add("a", "b")

	got, _ := m.Get("k")
	assert.Equal(t, "a", got)

	m.Remove("b")
	got, _ = m.Get("k")
	assert.Equal(t, "a", got)

	m.Add("b")
	m.Remove("a")
	got, ok := m.Get("k")
	require.True(t, ok)
	assert.Equal(t, "b", got)
}
