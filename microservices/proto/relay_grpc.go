package uci

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The service only carries google.protobuf.StringValue, so there is no
// generated message code; this file mirrors what protoc-gen-go-grpc emits
// for relay.proto.

const (
	EngineRelay_Relay_FullMethodName = "/uci.EngineRelay/Relay"
)

type (
	RelayClientStream = grpc.BidiStreamingClient[wrapperspb.StringValue, wrapperspb.StringValue]
	RelayServerStream = grpc.BidiStreamingServer[wrapperspb.StringValue, wrapperspb.StringValue]
)

type EngineRelayClient interface {
	Relay(ctx context.Context, opts ...grpc.CallOption) (RelayClientStream, error)
}

type engineRelayClient struct {
	cc grpc.ClientConnInterface
}

func NewEngineRelayClient(cc grpc.ClientConnInterface) EngineRelayClient {
	return &engineRelayClient{cc}
}

func (c *engineRelayClient) Relay(ctx context.Context, opts ...grpc.CallOption) (RelayClientStream, error) {
	stream, err := c.cc.NewStream(ctx, &EngineRelay_ServiceDesc.Streams[0], EngineRelay_Relay_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	return &grpc.GenericClientStream[wrapperspb.StringValue, wrapperspb.StringValue]{ClientStream: stream}, nil
}

type EngineRelayServer interface {
	Relay(RelayServerStream) error
	mustEmbedUnimplementedEngineRelayServer()
}

type UnimplementedEngineRelayServer struct{}

func (UnimplementedEngineRelayServer) Relay(RelayServerStream) error {
	return status.Errorf(codes.Unimplemented, "method Relay not implemented")
}
func (UnimplementedEngineRelayServer) mustEmbedUnimplementedEngineRelayServer() {}

func RegisterEngineRelayServer(s grpc.ServiceRegistrar, srv EngineRelayServer) {
	s.RegisterService(&EngineRelay_ServiceDesc, srv)
}

func _EngineRelay_Relay_Handler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(EngineRelayServer).Relay(&grpc.GenericServerStream[wrapperspb.StringValue, wrapperspb.StringValue]{ServerStream: stream})
}

var EngineRelay_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "uci.EngineRelay",
	HandlerType: (*EngineRelayServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Relay",
			Handler:       _EngineRelay_Relay_Handler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "relay.proto",
}
