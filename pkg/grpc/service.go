package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The presence query service is described by hand on top of well known types,
// so it needs no generated code.

const (
	ServiceName = "fieldtrack.presence.v1.PresenceQuery"

	GetPresenceMethod = "/" + ServiceName + "/GetPresence"
	ListOnlineMethod  = "/" + ServiceName + "/ListOnline"
	GetStatsMethod    = "/" + ServiceName + "/GetStats"
)

type PresenceQueryServer interface {
	GetPresence(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ListOnline(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetStats(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

var PresenceQueryServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PresenceQueryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetPresence", Handler: getPresenceHandler},
		{MethodName: "ListOnline", Handler: listOnlineHandler},
		{MethodName: "GetStats", Handler: getStatsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "fieldtrack/presence/v1/presence.proto",
}

func RegisterPresenceQueryServer(s grpc.ServiceRegistrar, srv PresenceQueryServer) {
	s.RegisterService(&PresenceQueryServiceDesc, srv)
}

func getPresenceHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PresenceQueryServer).GetPresence(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetPresenceMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PresenceQueryServer).GetPresence(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func listOnlineHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PresenceQueryServer).ListOnline(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListOnlineMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PresenceQueryServer).ListOnline(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func getStatsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PresenceQueryServer).GetStats(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetStatsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PresenceQueryServer).GetStats(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

type PresenceQueryClient struct {
	cc grpc.ClientConnInterface
}

func NewPresenceQueryClient(cc grpc.ClientConnInterface) *PresenceQueryClient {
	return &PresenceQueryClient{cc: cc}
}

func (c *PresenceQueryClient) GetPresence(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetPresenceMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *PresenceQueryClient) ListOnline(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ListOnlineMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *PresenceQueryClient) GetStats(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetStatsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
