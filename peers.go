package ringcache

import "context"

// Service 是协调者和缓存节点共同对外提供的能力，进程启动时二选一：
// Coordinator 负责路由，CacheNode 负责存储
type Service interface {
	RegisterNode(ctx context.Context, addr string) (Response, error)
	DeregisterNode(ctx context.Context, addr string) (Response, error)
	Get(ctx context.Context, key string) (Item, error)
	Put(ctx context.Context, item Item) (Response, error)
	Remove(ctx context.Context, key string) (Response, error)
}

// Peer 是协调者到一个缓存节点的请求/响应通道。
// 对端不可达时返回的错误必须包装 ErrPeerUnreachable。
// 实现必须是可比较的类型（通常是指针）
type Peer interface {
	Get(ctx context.Context, key string) (Item, error)
	Put(ctx context.Context, item Item) (Response, error)
	Remove(ctx context.Context, key string) (Response, error)
	Close() error
}

// PeerDialer 为节点地址创建 Peer，不应阻塞等待连接建立
type PeerDialer func(addr string) (Peer, error)

var (
	_ Service = (*Coordinator)(nil)
	_ Service = (*CacheNode)(nil)
)
