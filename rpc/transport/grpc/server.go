package grpc

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/ValentinKolb/hKV/rpc/common"
	"github.com/ValentinKolb/hKV/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"google.golang.org/grpc"
)

var Logger = logger.GetLogger("transport/grpc")

const (
	serviceName = "hkv.Transport"
	sendMethod  = "/" + serviceName + "/Send"
)

// frameServer is the handler type of the service description
type frameServer interface {
	send(ctx context.Context, req *frame) (*frame, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*frameServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Send",
			Handler:    sendHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "hkv/transport.proto",
}

func sendHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(frame)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(frameServer).send(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: sendMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(frameServer).send(ctx, req.(*frame))
	}
	return interceptor(ctx, in, info, handler)
}

// NewGrpcServerTransport creates a server transport that serves requests as unary gRPC calls
func NewGrpcServerTransport() transport.IRPCServerTransport {
	return &grpcServerTransport{}
}

type grpcServerTransport struct {
	handler transport.ServerHandleFunc

	mu       sync.Mutex
	server   *grpc.Server
	listener net.Listener
	closed   bool
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *grpcServerTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *grpcServerTransport) Listen(config common.ServerConfig) error {
	if t.handler == nil {
		return errors.New("no handler registered")
	}

	listener, err := net.Listen("tcp", config.Transport.Endpoint)
	if err != nil {
		return err
	}

	opts := []grpc.ServerOption{grpc.ForceServerCodec(frameCodec{})}
	if config.Transport.WriteBufferSize > 0 {
		opts = append(opts, grpc.WriteBufferSize(config.Transport.WriteBufferSize))
	}
	if config.Transport.ReadBufferSize > 0 {
		opts = append(opts, grpc.ReadBufferSize(config.Transport.ReadBufferSize))
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return listener.Close()
	}
	t.listener = listener
	t.server = grpc.NewServer(opts...)
	t.server.RegisterService(&serviceDesc, t)
	server := t.server
	t.mu.Unlock()

	Logger.Infof("Starting gRPC server on %s", listener.Addr())

	if err := server.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

func (t *grpcServerTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	if t.server != nil {
		t.server.Stop()
	}
	return nil
}

// Addr returns the address the transport is listening on (nil before Listen)
func (t *grpcServerTransport) Addr() net.Addr {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listener == nil {
		return nil
	}
	return t.listener.Addr()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (t *grpcServerTransport) send(_ context.Context, req *frame) (*frame, error) {
	return &frame{
		shardID: req.shardID,
		payload: t.handler(req.shardID, req.payload),
	}, nil
}
