package ringcache

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultCapacity 是缓存节点默认的最大条目数
const DefaultCapacity = 100

const roleNode = "node"

// CacheNode 持有一段键空间的数据，只回答本地缓存中的键，不感知哈希环，
// 也不会再转发请求
type CacheNode struct {
	cache *cache
}

// NewCacheNode 创建容量为 capacity 的缓存节点，capacity <= 0 时使用默认值
func NewCacheNode(capacity int) *CacheNode {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &CacheNode{cache: newCache(capacity)}
}

// RegisterNode 只有协调者支持
func (n *CacheNode) RegisterNode(ctx context.Context, addr string) (Response, error) {
	return Response{}, ErrNotCoordinator
}

// DeregisterNode 只有协调者支持
func (n *CacheNode) DeregisterNode(ctx context.Context, addr string) (Response, error) {
	return Response{}, ErrNotCoordinator
}

// Get 从本地缓存读取，未命中时返回空值而不是错误
func (n *CacheNode) Get(ctx context.Context, key string) (Item, error) {
	start := time.Now()
	if key == "" {
		n.record("get", ErrEmptyKey, false, start)
		return Item{}, ErrEmptyKey
	}
	value, ok := n.cache.get(key)
	Logger().WithFields(logrus.Fields{"key": key, "hit": ok}).Debug("local get")
	n.record("get", nil, ok, start)
	return Item{Key: key, Value: value}, nil
}

// Put 写入本地缓存，必要时淘汰最久未使用的条目
func (n *CacheNode) Put(ctx context.Context, item Item) (Response, error) {
	start := time.Now()
	if item.Key == "" {
		n.record("put", ErrEmptyKey, false, start)
		return Response{}, ErrEmptyKey
	}
	n.cache.add(item.Key, item.Value)
	Logger().WithField("key", item.Key).Debug("local put")
	n.record("put", nil, true, start)
	return Response{Success: true, Message: msgInserted}, nil
}

// Remove 删除本地缓存中的键，键不存在是正常结果
func (n *CacheNode) Remove(ctx context.Context, key string) (Response, error) {
	start := time.Now()
	if key == "" {
		n.record("remove", ErrEmptyKey, false, start)
		return Response{}, ErrEmptyKey
	}
	ok := n.cache.remove(key)
	Logger().WithFields(logrus.Fields{"key": key, "found": ok}).Debug("local remove")
	n.record("remove", nil, ok, start)
	if !ok {
		return Response{Success: false, Message: msgKeyNotFound}, nil
	}
	return Response{Success: true, Message: msgRemoved}, nil
}

// Len 返回本地缓存的条目数
func (n *CacheNode) Len() int {
	return n.cache.len()
}

func (n *CacheNode) record(method string, err error, ok bool, start time.Time) {
	if IsMetricsEnabled() {
		GetMetrics().RecordRequest(roleNode, method, requestStatus(err, ok), start)
	}
}
