package ringcache

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pb "github.com/simplely77/ringcache/proto"
)

// DefaultMaxWorkers 是整个进程同时处理的请求数上限
const DefaultMaxWorkers = 10

// GRPCServer 把一个 Service（协调者或缓存节点）暴露为 CacheService
type GRPCServer struct {
	self   string
	svc    Service
	server *grpc.Server
	stop   sync.Once
	pb.UnimplementedCacheServiceServer
}

// NewGRPCServer 创建 gRPC 服务器。maxWorkers 限制所有连接上同时执行的请求数，
// 超出的请求排队，直到有请求完成或自身 ctx 结束
func NewGRPCServer(self string, svc Service, maxWorkers int) *GRPCServer {
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	s := &GRPCServer{
		self: self,
		svc:  svc,
	}
	s.server = grpc.NewServer(
		grpc.UnaryInterceptor(limitWorkers(maxWorkers)),
	)
	pb.RegisterCacheServiceServer(s.server, s)
	return s
}

func (s *GRPCServer) log() *logrus.Entry {
	return Logger().WithField("server", s.self)
}

// Serve 监听 addr 并阻塞处理请求
func (s *GRPCServer) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.ServeListener(lis)
}

// ServeListener 在已有的 listener 上阻塞处理请求
func (s *GRPCServer) ServeListener(lis net.Listener) error {
	s.log().Infof("gRPC server listening on %s", lis.Addr())
	return s.server.Serve(lis)
}

// Stop 等待进行中的请求结束后关闭服务器，可以重复调用
func (s *GRPCServer) Stop() {
	s.stop.Do(s.server.GracefulStop)
}

func (s *GRPCServer) RegisterNode(ctx context.Context, req *pb.NodeInfo) (*pb.Response, error) {
	addr, err := nodeAddr(req)
	if err != nil {
		return toPBResponse(Response{}, err), nil
	}
	s.log().WithField("node", addr).Debug("grpc RegisterNode")
	return toPBResponse(s.svc.RegisterNode(ctx, addr)), nil
}

func (s *GRPCServer) DeregisterNode(ctx context.Context, req *pb.NodeInfo) (*pb.Response, error) {
	addr, err := nodeAddr(req)
	if err != nil {
		return toPBResponse(Response{}, err), nil
	}
	s.log().WithField("node", addr).Debug("grpc DeregisterNode")
	return toPBResponse(s.svc.DeregisterNode(ctx, addr)), nil
}

func (s *GRPCServer) Get(ctx context.Context, req *pb.Key) (*pb.CacheItem, error) {
	s.log().WithField("key", req.GetKey()).Debug("grpc Get")
	item, err := s.svc.Get(ctx, req.GetKey())
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.CacheItem{Key: item.Key, Value: item.Value}, nil
}

func (s *GRPCServer) Put(ctx context.Context, req *pb.CacheItem) (*pb.Response, error) {
	s.log().WithField("key", req.GetKey()).Debug("grpc Put")
	return toPBResponse(s.svc.Put(ctx, Item{Key: req.GetKey(), Value: req.GetValue()})), nil
}

func (s *GRPCServer) Remove(ctx context.Context, req *pb.Key) (*pb.Response, error) {
	s.log().WithField("key", req.GetKey()).Debug("grpc Remove")
	return toPBResponse(s.svc.Remove(ctx, req.GetKey())), nil
}

// limitWorkers 用一个容量为 n 的令牌桶限制进程内同时执行的 handler 数
func limitWorkers(n int) grpc.UnaryServerInterceptor {
	tokens := make(chan struct{}, n)
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		select {
		case tokens <- struct{}{}:
		case <-ctx.Done():
			return nil, status.FromContextError(ctx.Err()).Err()
		}
		defer func() { <-tokens }()
		return handler(ctx, req)
	}
}

func nodeAddr(req *pb.NodeInfo) (string, error) {
	if req.GetIp() == "" || req.GetPort() <= 0 || req.GetPort() > 65535 {
		return "", ErrInvalidNode
	}
	return net.JoinHostPort(req.GetIp(), strconv.Itoa(int(req.GetPort()))), nil
}

// toPBResponse 把领域错误转成失败响应，调用方总能拿到 success/message
func toPBResponse(resp Response, err error) *pb.Response {
	if err != nil {
		return &pb.Response{Success: false, Message: err.Error()}
	}
	return &pb.Response{Success: resp.Success, Message: resp.Message}
}

// toStatus 把 Get 的错误映射为 gRPC 状态码。路由失败不使用 Unavailable，
// 以免调用方把它当成协调者自身不可达
func toStatus(err error) error {
	switch {
	case errors.Is(err, ErrEmptyKey):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrNotCoordinator), errors.Is(err, ErrNoNodesAvailable):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, ErrPeerUnreachable):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	if st, ok := status.FromError(err); ok && st.Code() != codes.Unavailable {
		return status.Error(st.Code(), err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

var _ pb.CacheServiceServer = (*GRPCServer)(nil)
