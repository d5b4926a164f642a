package bloomfilter

import (
	"fmt"
	"sync"
	"testing"
)

func TestBloomFilter_AddedKeysAreFound(t *testing.T) {
	bf := New(1000, 3)
	keys := []string{"key1", "key2", "key3", "hello", "world", ""}
	for _, key := range keys {
		bf.Add(key)
	}
	for _, key := range keys {
		if !bf.Test(key) {
			t.Errorf("expected key %q to be found", key)
		}
	}
}

func TestBloomFilter_FalsePositiveRate(t *testing.T) {
	testCases := []struct {
		name      string
		m, k      uint
		added     int
		maxFPRate float64 // 百分比
	}{
		{"10K-3hash-1Kkeys", 10000, 3, 1000, 50},
		{"20K-5hash-1Kkeys", 20000, 5, 1000, 30},
		{"50K-7hash-1Kkeys", 50000, 7, 1000, 15},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			bf := New(tc.m, tc.k)
			for i := 0; i < tc.added; i++ {
				bf.Add(fmt.Sprintf("added_key_%d", i))
			}

			const probes = 5000
			falsePositives := 0
			for i := 0; i < probes; i++ {
				if bf.Test(fmt.Sprintf("probe_key_%d", i)) {
					falsePositives++
				}
			}
			rate := float64(falsePositives) / probes * 100
			t.Logf("m=%d k=%d fp=%.2f%%", tc.m, tc.k, rate)
			if rate > tc.maxFPRate {
				t.Errorf("false positive rate too high: %.2f%% (max %.2f%%)", rate, tc.maxFPRate)
			}
		})
	}
}

func TestBloomFilter_TestAndAdd(t *testing.T) {
	bf := New(1024, 4)
	if bf.TestAndAdd("k") {
		t.Fatal("first TestAndAdd should report absent")
	}
	if !bf.TestAndAdd("k") {
		t.Fatal("second TestAndAdd should report present")
	}
	if !bf.Test("k") {
		t.Fatal("key should be present after TestAndAdd")
	}
}

func TestBloomFilter_Reset(t *testing.T) {
	bf := New(1024, 4)
	bf.Add("k")
	bf.Reset()
	if bf.Test("k") {
		t.Fatal("key should be absent after Reset")
	}
}

func TestBloomFilter_ZeroParams(t *testing.T) {
	bf := New(0, 0)
	bf.Add("a")
	if !bf.Test("a") {
		t.Fatal("key should be present")
	}
}

func TestBloomFilter_ConcurrentAccess(t *testing.T) {
	bf := New(50000, 5)
	var wg sync.WaitGroup
	for w := 0; w < 10; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := fmt.Sprintf("worker_%d_key_%d", w, i)
				bf.TestAndAdd(key)
				bf.Test(key)
			}
		}(w)
	}
	wg.Wait()

	for w := 0; w < 10; w++ {
		for i := 0; i < 100; i++ {
			if key := fmt.Sprintf("worker_%d_key_%d", w, i); !bf.Test(key) {
				t.Errorf("key %q should be present", key)
			}
		}
	}
}

func BenchmarkBloomFilter_Add(b *testing.B) {
	bf := New(1_000_000, 5)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bf.Add(fmt.Sprintf("key_%d", i))
	}
}

func BenchmarkBloomFilter_Test(b *testing.B) {
	bf := New(1_000_000, 5)
	for i := 0; i < 10000; i++ {
		bf.Add(fmt.Sprintf("key_%d", i))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bf.Test(fmt.Sprintf("key_%d", i%20000))
	}
}
