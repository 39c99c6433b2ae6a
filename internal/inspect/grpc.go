package inspect

import (
	"context"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceDesc is the grpc.ServiceDesc for the Inspector service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InspectorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetActor", Handler: unaryHandler(getActorMethod, InspectorServer.GetActor)},
		{MethodName: "ListActors", Handler: unaryHandler(listActorsMethod, InspectorServer.ListActors)},
		{MethodName: "ApplyEffect", Handler: unaryHandler(applyEffectMethod, InspectorServer.ApplyEffect)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "scarlet/inspect/v1/inspect.proto",
}

type unaryMethod func(InspectorServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(InspectorServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(InspectorServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// RegisterInspectorServer registers srv with s.
func RegisterInspectorServer(s grpc.ServiceRegistrar, srv InspectorServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// InspectorClient is the client API for the Inspector service.
type InspectorClient struct {
	cc grpc.ClientConnInterface
}

// NewInspectorClient wraps cc.
func NewInspectorClient(cc grpc.ClientConnInterface) *InspectorClient {
	return &InspectorClient{cc: cc}
}

// GetActor calls Inspector/GetActor.
func (c *InspectorClient) GetActor(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, getActorMethod, in, opts)
}

// ListActors calls Inspector/ListActors.
func (c *InspectorClient) ListActors(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, listActorsMethod, in, opts)
}

// ApplyEffect calls Inspector/ApplyEffect.
func (c *InspectorClient) ApplyEffect(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, applyEffectMethod, in, opts)
}

func (c *InspectorClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// GRPCService serves the Inspector and the standard health service. It
// satisfies server.Service.
type GRPCService struct {
	addr   string
	lis    net.Listener
	srv    *grpc.Server
	health *health.Server
	logger *zap.Logger
}

// NewGRPCService builds a gRPC server for inspector. When lis is nil, Start
// listens on addr.
func NewGRPCService(addr string, lis net.Listener, inspector InspectorServer, logger *zap.Logger) *GRPCService {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	RegisterInspectorServer(srv, inspector)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	return &GRPCService{addr: addr, lis: lis, srv: srv, health: hs, logger: logger}
}

// Start serves until Stop is called.
func (g *GRPCService) Start() error {
	lis := g.lis
	if lis == nil {
		var err error
		lis, err = net.Listen("tcp", g.addr)
		if err != nil {
			return err
		}
	}
	g.logger.Info("inspect gRPC server listening",
		zap.String("addr", lis.Addr().String()),
	)
	return g.srv.Serve(lis)
}

// Stop marks the service NOT_SERVING and drains in-flight calls.
func (g *GRPCService) Stop() {
	g.health.Shutdown()
	g.srv.GracefulStop()
}
