package ringcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/simplely77/ringcache/consistenthash"
)

const (
	// DefaultReplicas 是每个节点在哈希环上的虚拟节点数
	DefaultReplicas = 50
	// DefaultForwardTimeout 是单次转发的超时时间
	DefaultForwardTimeout = 10 * time.Second

	roleCoordinator = "coordinator"
)

// Coordinator 通过一致性哈希把每个操作转发给负责该键的缓存节点，自身不存数据。
//
// 哈希环和已注册节点表由同一把读写锁保护：路由只拿读锁，注册、注销以及
// 转发失败后的自动注销拿写锁。转发本身在锁外进行。
type Coordinator struct {
	mu sync.RWMutex
	// 哈希环上的节点与 peers 的键集合始终一致
	ring  *consistenthash.Map
	peers map[string]Peer

	dial    PeerDialer
	timeout time.Duration
	// 为 nil 时不统计热点
	hot *HotKeyTracker
}

// NewCoordinator 创建协调者，replicas <= 0 时使用 DefaultReplicas
func NewCoordinator(dial PeerDialer, replicas int) *Coordinator {
	if dial == nil {
		panic("nil peer dialer")
	}
	if replicas <= 0 {
		replicas = DefaultReplicas
	}
	return &Coordinator{
		ring:    consistenthash.New(replicas, nil),
		peers:   make(map[string]Peer),
		dial:    dial,
		timeout: DefaultForwardTimeout,
	}
}

// SetForwardTimeout 设置单次转发的超时时间，d <= 0 时使用 DefaultForwardTimeout
func (c *Coordinator) SetForwardTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultForwardTimeout
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = d
}

// SetHotKeyTracker 开启热点 key 统计，Close 时会停止 h
func (c *Coordinator) SetHotKeyTracker(h *HotKeyTracker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hot = h
}

// HotKeys 返回当前的热点 key，未开启统计时返回 nil
func (c *Coordinator) HotKeys() []string {
	c.mu.RLock()
	hot := c.hot
	c.mu.RUnlock()
	if hot == nil {
		return nil
	}
	return hot.HotKeys()
}

// RegisterNode 把节点加入节点表和哈希环，重复注册是幂等的
func (c *Coordinator) RegisterNode(ctx context.Context, addr string) (Response, error) {
	if addr == "" {
		return Response{}, ErrInvalidNode
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.peers[addr]; !ok {
		peer, err := c.dial(addr)
		if err != nil {
			return Response{}, fmt.Errorf("dial %s: %w", addr, err)
		}
		c.peers[addr] = peer
		c.ring.Add(addr)
		Logger().WithFields(logrus.Fields{"node": addr, "nodes": c.ring.Len()}).Info("node registered")
		if IsMetricsEnabled() {
			GetMetrics().RecordMembership("registered", c.ring.Len())
		}
	}
	return Response{Success: true, Message: msgRegistered}, nil
}

// DeregisterNode 把节点从节点表和哈希环中移除。该节点上的数据不会迁移
func (c *Coordinator) DeregisterNode(ctx context.Context, addr string) (Response, error) {
	if !c.removeNode(addr, nil, "deregistered") {
		return Response{}, fmt.Errorf("%w: %s", ErrNodeNotFound, addr)
	}
	return Response{Success: true, Message: msgDeregistered}, nil
}

// removeNode 移除 addr；only 非空时，只有当前注册的仍是这个 Peer 才移除，
// 避免把失败期间重新注册的节点误删
func (c *Coordinator) removeNode(addr string, only Peer, action string) bool {
	c.mu.Lock()
	peer, ok := c.peers[addr]
	if !ok || (only != nil && peer != only) {
		c.mu.Unlock()
		return false
	}
	delete(c.peers, addr)
	c.ring.Remove(addr)
	size := c.ring.Len()
	c.mu.Unlock()

	if err := peer.Close(); err != nil {
		Logger().WithError(err).WithField("node", addr).Warn("close peer")
	}
	Logger().WithFields(logrus.Fields{"node": addr, "nodes": size}).Infof("node %s", action)
	if IsMetricsEnabled() {
		GetMetrics().RecordMembership(action, size)
	}
	return true
}

// ResolveOwner 返回负责 key 的节点地址
func (c *Coordinator) ResolveOwner(key string) (string, error) {
	addr, _, err := c.pick(key)
	return addr, err
}

// ListNodes 返回当前成员的快照，按在环上的位置排序
func (c *Coordinator) ListNodes() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ring.Nodes()
}

func (c *Coordinator) pick(key string) (string, Peer, error) {
	if key == "" {
		return "", nil, ErrEmptyKey
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	addr, ok := c.ring.Get(key)
	if !ok {
		return "", nil, ErrNoNodesAvailable
	}
	return addr, c.peers[addr], nil
}

// Get 转发到负责 key 的节点，原样返回其结果
func (c *Coordinator) Get(ctx context.Context, key string) (Item, error) {
	start := time.Now()
	var item Item
	err := c.forward(ctx, "get", key, func(ctx context.Context, p Peer) (err error) {
		item, err = p.Get(ctx, key)
		return err
	})
	c.record("get", err, item.Found(), start)
	return item, err
}

// Put 转发到负责 item.Key 的节点
func (c *Coordinator) Put(ctx context.Context, item Item) (Response, error) {
	start := time.Now()
	var resp Response
	err := c.forward(ctx, "put", item.Key, func(ctx context.Context, p Peer) (err error) {
		resp, err = p.Put(ctx, item)
		return err
	})
	c.record("put", err, resp.Success, start)
	return resp, err
}

// Remove 转发到负责 key 的节点
func (c *Coordinator) Remove(ctx context.Context, key string) (Response, error) {
	start := time.Now()
	var resp Response
	err := c.forward(ctx, "remove", key, func(ctx context.Context, p Peer) (err error) {
		resp, err = p.Remove(ctx, key)
		return err
	})
	c.record("remove", err, resp.Success, start)
	return resp, err
}

// forward 解析 key 的归属节点并调用 call。对端不可达时同步注销该节点后
// 返回错误，不重试其他节点。
//
// 转发不继承调用方的取消，只受转发超时约束：调用方放弃等待后，已经发出的
// 操作仍会在节点上完成
func (c *Coordinator) forward(ctx context.Context, method, key string, call func(context.Context, Peer) error) error {
	addr, peer, err := c.pick(key)
	if err != nil {
		return err
	}
	log := Logger().WithFields(logrus.Fields{"method": method, "key": key, "node": addr})
	log.Debug("forwarding")

	c.mu.RLock()
	timeout, hot := c.timeout, c.hot
	c.mu.RUnlock()
	if hot != nil {
		hot.Record(key)
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	err = call(ctx, peer)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrPeerUnreachable) {
		log.WithError(err).Warn("node unreachable, deregistering")
		if IsMetricsEnabled() {
			GetMetrics().RecordForwardError("unreachable")
		}
		c.removeNode(addr, peer, "dropped")
	} else {
		log.WithError(err).Warn("forward failed")
		if IsMetricsEnabled() {
			GetMetrics().RecordForwardError("error")
		}
	}
	return fmt.Errorf("forward %s to %s: %w", method, addr, err)
}

// Close 关闭所有到缓存节点的连接并清空节点表
func (c *Coordinator) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hot != nil {
		c.hot.Stop()
	}
	var errs []error
	for addr, p := range c.peers {
		errs = append(errs, p.Close())
		c.ring.Remove(addr)
		delete(c.peers, addr)
	}
	return errors.Join(errs...)
}

func (c *Coordinator) record(method string, err error, ok bool, start time.Time) {
	if IsMetricsEnabled() {
		GetMetrics().RecordRequest(roleCoordinator, method, requestStatus(err, ok), start)
	}
}
