package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	CacheService_RegisterNode_FullMethodName   = "/CacheService/RegisterNode"
	CacheService_DeregisterNode_FullMethodName = "/CacheService/DeregisterNode"
	CacheService_Get_FullMethodName            = "/CacheService/Get"
	CacheService_Put_FullMethodName            = "/CacheService/Put"
	CacheService_Remove_FullMethodName         = "/CacheService/Remove"
)

// CacheServiceClient is the client API for CacheService.
type CacheServiceClient interface {
	RegisterNode(ctx context.Context, in *NodeInfo, opts ...grpc.CallOption) (*Response, error)
	DeregisterNode(ctx context.Context, in *NodeInfo, opts ...grpc.CallOption) (*Response, error)
	Get(ctx context.Context, in *Key, opts ...grpc.CallOption) (*CacheItem, error)
	Put(ctx context.Context, in *CacheItem, opts ...grpc.CallOption) (*Response, error)
	Remove(ctx context.Context, in *Key, opts ...grpc.CallOption) (*Response, error)
}

type cacheServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewCacheServiceClient(cc grpc.ClientConnInterface) CacheServiceClient {
	return &cacheServiceClient{cc}
}

func (c *cacheServiceClient) RegisterNode(ctx context.Context, in *NodeInfo, opts ...grpc.CallOption) (*Response, error) {
	out := new(Response)
	if err := c.cc.Invoke(ctx, CacheService_RegisterNode_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *cacheServiceClient) DeregisterNode(ctx context.Context, in *NodeInfo, opts ...grpc.CallOption) (*Response, error) {
	out := new(Response)
	if err := c.cc.Invoke(ctx, CacheService_DeregisterNode_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *cacheServiceClient) Get(ctx context.Context, in *Key, opts ...grpc.CallOption) (*CacheItem, error) {
	out := new(CacheItem)
	if err := c.cc.Invoke(ctx, CacheService_Get_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *cacheServiceClient) Put(ctx context.Context, in *CacheItem, opts ...grpc.CallOption) (*Response, error) {
	out := new(Response)
	if err := c.cc.Invoke(ctx, CacheService_Put_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *cacheServiceClient) Remove(ctx context.Context, in *Key, opts ...grpc.CallOption) (*Response, error) {
	out := new(Response)
	if err := c.cc.Invoke(ctx, CacheService_Remove_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// CacheServiceServer is the server API for CacheService. Implementations
// must embed UnimplementedCacheServiceServer.
type CacheServiceServer interface {
	RegisterNode(context.Context, *NodeInfo) (*Response, error)
	DeregisterNode(context.Context, *NodeInfo) (*Response, error)
	Get(context.Context, *Key) (*CacheItem, error)
	Put(context.Context, *CacheItem) (*Response, error)
	Remove(context.Context, *Key) (*Response, error)
	mustEmbedUnimplementedCacheServiceServer()
}

type UnimplementedCacheServiceServer struct{}

func (UnimplementedCacheServiceServer) RegisterNode(context.Context, *NodeInfo) (*Response, error) {
	return nil, status.Errorf(codes.Unimplemented, "method RegisterNode not implemented")
}
func (UnimplementedCacheServiceServer) DeregisterNode(context.Context, *NodeInfo) (*Response, error) {
	return nil, status.Errorf(codes.Unimplemented, "method DeregisterNode not implemented")
}
func (UnimplementedCacheServiceServer) Get(context.Context, *Key) (*CacheItem, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Get not implemented")
}
func (UnimplementedCacheServiceServer) Put(context.Context, *CacheItem) (*Response, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Put not implemented")
}
func (UnimplementedCacheServiceServer) Remove(context.Context, *Key) (*Response, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Remove not implemented")
}
func (UnimplementedCacheServiceServer) mustEmbedUnimplementedCacheServiceServer() {}

func RegisterCacheServiceServer(s grpc.ServiceRegistrar, srv CacheServiceServer) {
	s.RegisterService(&CacheService_ServiceDesc, srv)
}

func _CacheService_RegisterNode_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(NodeInfo)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CacheServiceServer).RegisterNode(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CacheService_RegisterNode_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CacheServiceServer).RegisterNode(ctx, req.(*NodeInfo))
	}
	return interceptor(ctx, in, info, handler)
}

func _CacheService_DeregisterNode_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(NodeInfo)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CacheServiceServer).DeregisterNode(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CacheService_DeregisterNode_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CacheServiceServer).DeregisterNode(ctx, req.(*NodeInfo))
	}
	return interceptor(ctx, in, info, handler)
}

func _CacheService_Get_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(Key)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CacheServiceServer).Get(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CacheService_Get_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CacheServiceServer).Get(ctx, req.(*Key))
	}
	return interceptor(ctx, in, info, handler)
}

func _CacheService_Put_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(CacheItem)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CacheServiceServer).Put(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CacheService_Put_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CacheServiceServer).Put(ctx, req.(*CacheItem))
	}
	return interceptor(ctx, in, info, handler)
}

func _CacheService_Remove_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(Key)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CacheServiceServer).Remove(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CacheService_Remove_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CacheServiceServer).Remove(ctx, req.(*Key))
	}
	return interceptor(ctx, in, info, handler)
}

// CacheService_ServiceDesc is the grpc.ServiceDesc for CacheService.
var CacheService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "CacheService",
	HandlerType: (*CacheServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RegisterNode", Handler: _CacheService_RegisterNode_Handler},
		{MethodName: "DeregisterNode", Handler: _CacheService_DeregisterNode_Handler},
		{MethodName: "Get", Handler: _CacheService_Get_Handler},
		{MethodName: "Put", Handler: _CacheService_Put_Handler},
		{MethodName: "Remove", Handler: _CacheService_Remove_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cache_service.proto",
}
