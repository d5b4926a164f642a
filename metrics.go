package ringcache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 包含所有的 Prometheus 指标
type Metrics struct {
	// 请求计数器，role 为 coordinator 或 node
	RequestsTotal *prometheus.CounterVec
	// 请求延迟直方图
	RequestDuration *prometheus.HistogramVec
	// 转发失败计数器，reason 为 unreachable 或 error
	ForwardErrorsTotal *prometheus.CounterVec
	// 节点注册/注销计数器，action 为 registered、deregistered、dropped
	MembershipChangesTotal *prometheus.CounterVec
	// 当前哈希环上的节点数
	RingNodes prometheus.Gauge
	// LRU 淘汰次数
	EvictionsTotal prometheus.Counter
	// 当前本地缓存条目数
	CacheEntries prometheus.Gauge
	// 热点 key 变化计数器，action 为 promoted 或 demoted
	HotKeysTotal *prometheus.CounterVec
}

var (
	// 全局指标实例
	globalMetrics *Metrics
	metricsOnce   sync.Once

	metricsEnabled atomic.Bool
)

// GetMetrics 获取全局 Metrics 实例（单例模式）
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = NewMetrics(prometheus.DefaultRegisterer)
	})
	return globalMetrics
}

// NewMetrics 创建一组指标并注册到 reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ringcache_requests_total",
				Help: "The total number of cache requests",
			},
			[]string{"role", "method", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ringcache_request_duration_seconds",
				Help:    "The request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"role", "method"},
		),
		ForwardErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ringcache_forward_errors_total",
				Help: "The total number of failed forwards to cache nodes",
			},
			[]string{"reason"},
		),
		MembershipChangesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ringcache_membership_changes_total",
				Help: "The total number of ring membership changes",
			},
			[]string{"action"},
		),
		RingNodes: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ringcache_ring_nodes",
				Help: "The number of cache nodes on the hash ring",
			},
		),
		EvictionsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ringcache_evictions_total",
				Help: "The total number of LRU evictions",
			},
		),
		CacheEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ringcache_cache_entries",
				Help: "The current number of entries in the local cache",
			},
		),
		HotKeysTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ringcache_hot_keys_total",
				Help: "The total number of hot key promotions and demotions",
			},
			[]string{"action"},
		),
	}
}

// RecordRequest 记录一次请求及其耗时
func (m *Metrics) RecordRequest(role, method, status string, start time.Time) {
	m.RequestsTotal.WithLabelValues(role, method, status).Inc()
	m.RequestDuration.WithLabelValues(role, method).Observe(time.Since(start).Seconds())
}

// RecordForwardError 记录转发失败
func (m *Metrics) RecordForwardError(reason string) {
	m.ForwardErrorsTotal.WithLabelValues(reason).Inc()
}

// RecordMembership 记录成员变化并更新环大小
func (m *Metrics) RecordMembership(action string, ringSize int) {
	m.MembershipChangesTotal.WithLabelValues(action).Inc()
	m.RingNodes.Set(float64(ringSize))
}

// RecordEviction 记录一次淘汰
func (m *Metrics) RecordEviction() {
	m.EvictionsTotal.Inc()
}

// SetCacheEntries 设置本地缓存条目数
func (m *Metrics) SetCacheEntries(n int) {
	m.CacheEntries.Set(float64(n))
}

// RecordHotKey 记录热点 key 的晋升或降级
func (m *Metrics) RecordHotKey(action string) {
	m.HotKeysTotal.WithLabelValues(action).Inc()
}

// EnableMetrics 启用 Prometheus 指标收集（可选调用）
// 如果不调用此函数，指标收集将被禁用
func EnableMetrics() {
	metricsEnabled.Store(true)
}

// DisableMetrics 禁用 Prometheus 指标收集
func DisableMetrics() {
	metricsEnabled.Store(false)
}

// IsMetricsEnabled 检查指标收集是否启用
func IsMetricsEnabled() bool {
	return metricsEnabled.Load()
}

// requestStatus 把一次操作的结果归类为指标标签
func requestStatus(err error, ok bool) string {
	switch {
	case err != nil:
		return "error"
	case !ok:
		return "miss"
	}
	return "ok"
}
