// Package countminsketch 实现 Count-Min Sketch，用固定内存近似统计 key 的出现次数。
// 估计值只会偏高，不会偏低
package countminsketch

import (
	"hash/fnv"
	"math"
	"sync/atomic"
)

type CountMinSketch struct {
	width uint32
	depth uint32
	table [][]uint64
}

// New 创建一个 Count-Min Sketch。估计值超过真实值 epsilon*N 的概率不超过 delta，
// N 为所有计数之和
func New(epsilon, delta float64) *CountMinSketch {
	width := uint32(math.Ceil(math.E / epsilon))
	depth := uint32(math.Ceil(math.Log(1 / delta)))
	if width == 0 {
		width = 1
	}
	if depth == 0 {
		depth = 1
	}
	table := make([][]uint64, depth)
	for i := range table {
		table[i] = make([]uint64, width)
	}
	return &CountMinSketch{
		width: width,
		depth: depth,
		table: table,
	}
}

// Add 把 key 的计数增加 count，并返回增加后的估计值
func (cms *CountMinSketch) Add(key string, count uint64) uint64 {
	h1, h2 := baseHashes(key)
	min := uint64(math.MaxUint64)
	for i := uint32(0); i < cms.depth; i++ {
		v := atomic.AddUint64(&cms.table[i][cms.index(h1, h2, i)], count)
		if v < min {
			min = v
		}
	}
	return min
}

func (cms *CountMinSketch) Count(key string) uint64 {
	h1, h2 := baseHashes(key)
	min := uint64(math.MaxUint64)
	for i := uint32(0); i < cms.depth; i++ {
		v := atomic.LoadUint64(&cms.table[i][cms.index(h1, h2, i)])
		if v < min {
			min = v
		}
	}
	return min
}

// Decay 将所有计数器的值减半，用于定期衰减。与并发的 Add 交错时，
// 个别计数器可能少减半一次
func (cms *CountMinSketch) Decay() {
	for i := range cms.table {
		row := cms.table[i]
		for j := range row {
			for {
				old := atomic.LoadUint64(&row[j])
				if atomic.CompareAndSwapUint64(&row[j], old, old/2) {
					break
				}
			}
		}
	}
}

func (cms *CountMinSketch) index(h1, h2, i uint32) uint32 {
	return (h1 + i*h2) % cms.width
}

// baseHashes 返回双重哈希的两个基础值，第二个保证为奇数以避免周期性
func baseHashes(key string) (uint32, uint32) {
	h1 := fnv.New32a()
	h1.Write([]byte(key))
	h2 := fnv.New32()
	h2.Write([]byte(key))
	sum2 := h2.Sum32()
	if sum2%2 == 0 {
		sum2++
	}
	return h1.Sum32(), sum2
}
