package ringcache

import "errors"

var (
	// ErrNotCoordinator 在非协调者节点上调用了仅协调者支持的操作
	ErrNotCoordinator = errors.New("not a coordinator node")
	// ErrNodeNotFound 注销一个未注册的节点
	ErrNodeNotFound = errors.New("node not found")
	// ErrNoNodesAvailable 哈希环为空，无法路由
	ErrNoNodesAvailable = errors.New("no cache nodes available")
	// ErrPeerUnreachable 转发时传输层报告对端不可达，会触发自动注销
	ErrPeerUnreachable = errors.New("peer unreachable")
	ErrEmptyKey        = errors.New("key is required")
	ErrInvalidNode     = errors.New("invalid node address")
)

// 响应消息，与原有节点保持一致
const (
	msgRegistered   = "Node registered successfully"
	msgDeregistered = "Node deregistered successfully"
	msgInserted     = "Inserted successfully"
	msgRemoved      = "Removed successfully"
	msgKeyNotFound  = "Key not found"
)
