package consistenthash

import (
	"hash/crc32"
	"sort"
	"strconv"
)

type Hash func([]byte) uint32

// Map is a consistent hash ring of node names. It is not safe for
// concurrent use; callers serialize access.
type Map struct {
	hash     Hash
	replicas int
	// sorted virtual node positions
	keys    []int
	hashMap map[int]string
	// members in insertion order
	nodes []string
}

// New creates a Map instance
func New(replicas int, fn Hash) *Map {
	if fn == nil {
		fn = crc32.ChecksumIEEE
	}
	if replicas <= 0 {
		replicas = 1
	}
	return &Map{
		hash:     fn,
		replicas: replicas,
		hashMap:  make(map[int]string),
	}
}

// Add adds nodes to the ring. Nodes already present are skipped.
func (m *Map) Add(nodes ...string) {
	for _, node := range nodes {
		if m.Contains(node) {
			continue
		}
		m.nodes = append(m.nodes, node)
		m.place(node)
	}
	sort.Ints(m.keys)
}

// place puts the virtual nodes of node on the ring. On a position
// collision the earlier member keeps the point.
func (m *Map) place(node string) {
	for i := 0; i < m.replicas; i++ {
		hash := int(m.hash([]byte(strconv.Itoa(i) + node)))
		if _, taken := m.hashMap[hash]; taken {
			continue
		}
		m.keys = append(m.keys, hash)
		m.hashMap[hash] = node
	}
}

// Remove drops node and all of its virtual nodes. Keys it owned fall to
// the next node clockwise; nothing is migrated. Reports whether node was
// a member.
func (m *Map) Remove(node string) bool {
	idx := m.indexOf(node)
	if idx < 0 {
		return false
	}
	m.nodes = append(m.nodes[:idx], m.nodes[idx+1:]...)

	// rebuild so that points shadowed by the removed node go back to
	// the member that collided with it
	m.keys = m.keys[:0]
	m.hashMap = make(map[int]string, len(m.nodes)*m.replicas)
	for _, n := range m.nodes {
		m.place(n)
	}
	sort.Ints(m.keys)
	return true
}

// Get returns the node owning key: the first virtual node at or after
// the key's hash, wrapping around. ok is false on an empty ring.
func (m *Map) Get(key string) (node string, ok bool) {
	if len(m.keys) == 0 {
		return "", false
	}
	hash := int(m.hash([]byte(key)))
	// binary search for appropriate replica, if none found, idx = len(m.keys)
	idx := sort.Search(len(m.keys), func(i int) bool {
		return m.keys[i] >= hash
	})
	// % len for the case when idx == len(m.keys)
	return m.hashMap[m.keys[idx%len(m.keys)]], true
}

// Nodes returns a snapshot of the members ordered by the position of
// their first virtual node.
func (m *Map) Nodes() []string {
	nodes := make([]string, len(m.nodes))
	copy(nodes, m.nodes)
	pos := make(map[string]uint32, len(nodes))
	for _, n := range nodes {
		pos[n] = m.hash([]byte("0" + n))
	}
	sort.Slice(nodes, func(i, j int) bool {
		if pos[nodes[i]] != pos[nodes[j]] {
			return pos[nodes[i]] < pos[nodes[j]]
		}
		return nodes[i] < nodes[j]
	})
	return nodes
}

func (m *Map) Contains(node string) bool {
	return m.indexOf(node) >= 0
}

func (m *Map) Len() int {
	return len(m.nodes)
}

func (m *Map) indexOf(node string) int {
	for i, n := range m.nodes {
		if n == node {
			return i
		}
	}
	return -1
}
