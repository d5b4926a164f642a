// Package bloomfilter 提供一个并发安全的布隆过滤器，用于判断 key 是否出现过
package bloomfilter

import (
	"hash/fnv"
	"sync"
)

type BloomFilter struct {
	mu   sync.RWMutex
	bits []uint64
	k    uint // hash函数个数
	m    uint // 位数组长度
}

// New 创建长度为 m 位、使用 k 个哈希函数的布隆过滤器
func New(m, k uint) *BloomFilter {
	if m == 0 {
		m = 1
	}
	if k == 0 {
		k = 1
	}
	return &BloomFilter{
		bits: make([]uint64, (m+63)/64),
		k:    k,
		m:    m,
	}
}

func (bf *BloomFilter) Add(key string) {
	h1, h2 := baseHashes(key)
	bf.mu.Lock()
	defer bf.mu.Unlock()
	bf.set(h1, h2)
}

// Test 返回 false 时 key 一定没有加入过，返回 true 时可能是假阳性
func (bf *BloomFilter) Test(key string) bool {
	h1, h2 := baseHashes(key)
	bf.mu.RLock()
	defer bf.mu.RUnlock()
	return bf.has(h1, h2)
}

// TestAndAdd 加入 key，并返回加入之前 key 是否（可能）已经存在
func (bf *BloomFilter) TestAndAdd(key string) bool {
	h1, h2 := baseHashes(key)
	bf.mu.Lock()
	defer bf.mu.Unlock()
	if bf.has(h1, h2) {
		return true
	}
	bf.set(h1, h2)
	return false
}

// Reset 清空所有位
func (bf *BloomFilter) Reset() {
	bf.mu.Lock()
	defer bf.mu.Unlock()
	clear(bf.bits)
}

func (bf *BloomFilter) set(h1, h2 uint) {
	for i := uint(0); i < bf.k; i++ {
		idx := bf.index(h1, h2, i)
		bf.bits[idx/64] |= 1 << (idx % 64)
	}
}

func (bf *BloomFilter) has(h1, h2 uint) bool {
	for i := uint(0); i < bf.k; i++ {
		idx := bf.index(h1, h2, i)
		if bf.bits[idx/64]&(1<<(idx%64)) == 0 {
			return false
		}
	}
	return true
}

// 双重哈希：第 i 个位置为 h1 + i*h2
func (bf *BloomFilter) index(h1, h2, i uint) uint {
	return (h1 + i*h2) % bf.m
}

func baseHashes(key string) (uint, uint) {
	h1 := fnv.New32a()
	h1.Write([]byte(key))
	h2 := fnv.New32()
	h2.Write([]byte(key))
	sum2 := uint(h2.Sum32())
	// 奇数步长避免周期性
	if sum2%2 == 0 {
		sum2++
	}
	return uint(h1.Sum32()), sum2
}
