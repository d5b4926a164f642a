package ringcache

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"
)

// ============================================
// 缓存节点：单锁 LRU 在不同读写比例下的吞吐
// ============================================

func newFilledNode(b *testing.B, capacity, keys int) *CacheNode {
	b.Helper()
	n := NewCacheNode(capacity)
	ctx := context.Background()
	for i := 0; i < keys; i++ {
		n.Put(ctx, Item{Key: fmt.Sprintf("key-%d", i), Value: fmt.Sprintf("value-%d", i)})
	}
	return n
}

func BenchmarkCacheNode_ConcurrentRead(b *testing.B) {
	n := newFilledNode(b, 1000, 1000)
	ctx := context.Background()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			n.Get(ctx, fmt.Sprintf("key-%d", rand.Intn(1000)))
		}
	})
}

func BenchmarkCacheNode_ConcurrentWrite(b *testing.B) {
	n := NewCacheNode(1000)
	ctx := context.Background()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			n.Put(ctx, Item{Key: fmt.Sprintf("key-%d", i%5000), Value: "v"})
			i++
		}
	})
}

// 80% 读 20% 写
func BenchmarkCacheNode_MixedReadWrite(b *testing.B) {
	n := newFilledNode(b, 1000, 1000)
	ctx := context.Background()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			key := fmt.Sprintf("key-%d", rand.Intn(2000))
			if rand.Intn(100) < 80 {
				n.Get(ctx, key)
			} else {
				n.Put(ctx, Item{Key: key, Value: "v"})
			}
		}
	})
}

func BenchmarkCacheNode_Scalability(b *testing.B) {
	for _, parallelism := range []int{1, 4, 16, 64} {
		b.Run(fmt.Sprintf("Goroutines-%d", parallelism), func(b *testing.B) {
			n := newFilledNode(b, 1000, 1000)
			ctx := context.Background()

			b.SetParallelism(parallelism)
			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					n.Get(ctx, fmt.Sprintf("key-%d", rand.Intn(1000)))
				}
			})
		})
	}
}

// ============================================
// 协调者：路由开销（进程内 Peer，不含网络）
// ============================================

func newBenchCoordinator(b *testing.B, nodes int) *Coordinator {
	b.Helper()
	addrs := make([]string, nodes)
	for i := range addrs {
		addrs[i] = fmt.Sprintf("127.0.0.1:%d", 7000+i)
	}
	fc := newFakeCluster(addrs...)
	c := NewCoordinator(fc.dial, 0)
	for _, addr := range addrs {
		if _, err := c.RegisterNode(context.Background(), addr); err != nil {
			b.Fatal(err)
		}
	}
	return c
}

func BenchmarkCoordinator_ResolveOwner(b *testing.B) {
	for _, nodes := range []int{3, 10, 50} {
		b.Run(fmt.Sprintf("Nodes-%d", nodes), func(b *testing.B) {
			c := newBenchCoordinator(b, nodes)
			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				i := 0
				for pb.Next() {
					c.ResolveOwner(fmt.Sprintf("key-%d", i))
					i++
				}
			})
		})
	}
}

// 90% 的请求访问前 10 个 key
func BenchmarkCoordinator_HotKeyGet(b *testing.B) {
	c := newBenchCoordinator(b, 3)
	c.SetHotKeyTracker(NewHotKeyTracker(1000, time.Hour))
	defer c.Close()
	ctx := context.Background()
	for i := 0; i < 1000; i++ {
		c.Put(ctx, Item{Key: fmt.Sprintf("key-%d", i), Value: "v"})
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			var key string
			if rand.Intn(100) < 90 {
				key = fmt.Sprintf("key-%d", rand.Intn(10))
			} else {
				key = fmt.Sprintf("key-%d", rand.Intn(1000))
			}
			c.Get(ctx, key)
		}
	})
}
