package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "farmsync.v1.SyncService"

// Full method names, as seen by interceptors.
const (
	MethodSubmitBatch = "/" + ServiceName + "/SubmitBatch"
	MethodGetStatus   = "/" + ServiceName + "/GetStatus"
	MethodPing        = "/" + ServiceName + "/Ping"
)

// SyncServer is implemented by the server side of the sync service.
type SyncServer interface {
	SubmitBatch(context.Context, *SubmitBatchRequest) (*SubmitBatchResponse, error)
	GetStatus(context.Context, *GetStatusRequest) (*GetStatusResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
}

// ServiceDesc describes the sync service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SyncServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SubmitBatch",
			Handler: unaryHandler(MethodSubmitBatch, func(s SyncServer, ctx context.Context, in *SubmitBatchRequest) (*SubmitBatchResponse, error) {
				return s.SubmitBatch(ctx, in)
			}),
		},
		{
			MethodName: "GetStatus",
			Handler: unaryHandler(MethodGetStatus, func(s SyncServer, ctx context.Context, in *GetStatusRequest) (*GetStatusResponse, error) {
				return s.GetStatus(ctx, in)
			}),
		},
		{
			MethodName: "Ping",
			Handler: unaryHandler(MethodPing, func(s SyncServer, ctx context.Context, in *PingRequest) (*PingResponse, error) {
				return s.Ping(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "farmsync/v1/sync",
}

// RegisterSyncServer registers srv on s.
func RegisterSyncServer(s grpc.ServiceRegistrar, srv SyncServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func unaryHandler[Req, Resp any](fullMethod string, call func(SyncServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SyncServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(SyncServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// SyncClient is a typed client for the sync service. Every call uses the
// JSON codec.
type SyncClient struct {
	cc grpc.ClientConnInterface
}

func NewSyncClient(cc grpc.ClientConnInterface) *SyncClient {
	return &SyncClient{cc: cc}
}

func (c *SyncClient) SubmitBatch(ctx context.Context, in *SubmitBatchRequest, opts ...grpc.CallOption) (*SubmitBatchResponse, error) {
	out := new(SubmitBatchResponse)
	if err := c.cc.Invoke(ctx, MethodSubmitBatch, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SyncClient) GetStatus(ctx context.Context, in *GetStatusRequest, opts ...grpc.CallOption) (*GetStatusResponse, error) {
	out := new(GetStatusResponse)
	if err := c.cc.Invoke(ctx, MethodGetStatus, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SyncClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	out := new(PingResponse)
	if err := c.cc.Invoke(ctx, MethodPing, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}
