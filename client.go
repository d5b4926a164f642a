package ringcache

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	pb "github.com/simplely77/ringcache/proto"
)

// Client 是 CacheService 的 gRPC 客户端。协调者用它作为到缓存节点的 Peer，
// 缓存节点用它向协调者注册，用户用它访问协调者
type Client struct {
	addr   string
	conn   *grpc.ClientConn
	client pb.CacheServiceClient
}

// NewClient 创建到 addr 的客户端。连接在第一次调用时才建立
func NewClient(addr string) (*Client, error) {
	conn, err := grpc.NewClient(
		addr,
		// 明文传输
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create client for %s: %w", addr, err)
	}
	return &Client{
		addr:   addr,
		conn:   conn,
		client: pb.NewCacheServiceClient(conn),
	}, nil
}

// DialPeer 是基于 gRPC 的 PeerDialer
func DialPeer(addr string) (Peer, error) {
	return NewClient(addr)
}

// Get 未命中时返回 Value 为空的 Item
func (c *Client) Get(ctx context.Context, key string) (Item, error) {
	resp, err := c.client.Get(ctx, &pb.Key{Key: key})
	if err != nil {
		return Item{}, c.wrap(err)
	}
	return Item{Key: resp.GetKey(), Value: resp.GetValue()}, nil
}

func (c *Client) Put(ctx context.Context, item Item) (Response, error) {
	resp, err := c.client.Put(ctx, &pb.CacheItem{Key: item.Key, Value: item.Value})
	if err != nil {
		return Response{}, c.wrap(err)
	}
	return fromPBResponse(resp), nil
}

func (c *Client) Remove(ctx context.Context, key string) (Response, error) {
	resp, err := c.client.Remove(ctx, &pb.Key{Key: key})
	if err != nil {
		return Response{}, c.wrap(err)
	}
	return fromPBResponse(resp), nil
}

// RegisterNode 请求协调者把 host:port 加入哈希环
func (c *Client) RegisterNode(ctx context.Context, host string, port int) (Response, error) {
	resp, err := c.client.RegisterNode(ctx, &pb.NodeInfo{Ip: host, Port: int32(port)})
	if err != nil {
		return Response{}, c.wrap(err)
	}
	return fromPBResponse(resp), nil
}

// DeregisterNode 请求协调者把 host:port 移出哈希环
func (c *Client) DeregisterNode(ctx context.Context, host string, port int) (Response, error) {
	resp, err := c.client.DeregisterNode(ctx, &pb.NodeInfo{Ip: host, Port: int32(port)})
	if err != nil {
		return Response{}, c.wrap(err)
	}
	return fromPBResponse(resp), nil
}

// Close 关闭连接
func (c *Client) Close() error {
	return c.conn.Close()
}

// wrap 把传输层的 Unavailable 标记为 ErrPeerUnreachable，其余错误原样包装
func (c *Client) wrap(err error) error {
	if status.Code(err) == codes.Unavailable {
		return fmt.Errorf("%w: %s: %w", ErrPeerUnreachable, c.addr, err)
	}
	return fmt.Errorf("%s: %w", c.addr, err)
}

func fromPBResponse(resp *pb.Response) Response {
	return Response{Success: resp.GetSuccess(), Message: resp.GetMessage()}
}

var _ Peer = (*Client)(nil)
