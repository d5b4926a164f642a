package ringcache

import (
	"sort"
	"sync"
	"time"

	"github.com/simplely77/ringcache/bloomfilter"
	"github.com/simplely77/ringcache/countminsketch"
)

// DefaultHotKeyDecay 是热点统计的默认衰减间隔
const DefaultHotKeyDecay = time.Minute

// HotKeyTracker 在协调者上统计 key 的访问频率，找出访问次数超过阈值的热点 key。
// 只记录 key，不缓存任何值
type HotKeyTracker struct {
	bf        *bloomfilter.BloomFilter
	cms       *countminsketch.CountMinSketch
	hotKeys   sync.Map // key -> struct{}
	threshold uint64
	decayIntv time.Duration
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// NewHotKeyTracker 创建热点统计器并启动定期衰减
func NewHotKeyTracker(threshold uint64, decayInterval time.Duration) *HotKeyTracker {
	if threshold == 0 {
		threshold = 1
	}
	if decayInterval <= 0 {
		decayInterval = DefaultHotKeyDecay
	}
	h := &HotKeyTracker{
		bf:        bloomfilter.New(1_000_000, 5),
		cms:       countminsketch.New(0.001, 0.99),
		threshold: threshold,
		decayIntv: decayInterval,
		stopCh:    make(chan struct{}),
	}
	go h.periodicDecay()
	return h
}

// Record 在每次转发前调用。第一次出现的 key 只进入布隆过滤器，
// 过滤掉只访问一次的长尾 key
func (h *HotKeyTracker) Record(key string) {
	if !h.bf.TestAndAdd(key) {
		return
	}
	if h.cms.Add(key, 1) < h.threshold {
		return
	}
	if _, loaded := h.hotKeys.LoadOrStore(key, struct{}{}); !loaded {
		Logger().WithField("key", key).Info("hot key detected")
		if IsMetricsEnabled() {
			GetMetrics().RecordHotKey("promoted")
		}
	}
}

func (h *HotKeyTracker) IsHot(key string) bool {
	_, ok := h.hotKeys.Load(key)
	return ok
}

// HotKeys 返回当前的热点 key，按字典序排列
func (h *HotKeyTracker) HotKeys() []string {
	keys := []string{}
	h.hotKeys.Range(func(k, _ any) bool {
		keys = append(keys, k.(string))
		return true
	})
	sort.Strings(keys)
	return keys
}

// decay 计数减半，并把计数跌到阈值一半以下的 key 移出热点集合
func (h *HotKeyTracker) decay() {
	h.cms.Decay()
	h.hotKeys.Range(func(k, _ any) bool {
		key := k.(string)
		if h.cms.Count(key) < h.threshold/2 {
			h.hotKeys.Delete(key)
			if IsMetricsEnabled() {
				GetMetrics().RecordHotKey("demoted")
			}
		}
		return true
	})
}

func (h *HotKeyTracker) periodicDecay() {
	ticker := time.NewTicker(h.decayIntv)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.decay()
		case <-h.stopCh:
			return
		}
	}
}

// Stop 停止定期衰减，可以重复调用
func (h *HotKeyTracker) Stop() {
	h.stopOnce.Do(func() { close(h.stopCh) })
}
