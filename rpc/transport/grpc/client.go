package grpc

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/hKV/rpc/common"
	"github.com/ValentinKolb/hKV/rpc/transport"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// NewGrpcClientTransport creates a client transport that sends requests as unary gRPC calls
func NewGrpcClientTransport() transport.IRPCClientTransport {
	return &grpcClientTransport{}
}

type grpcClientTransport struct {
	conns      []*grpc.ClientConn
	counter    atomic.Uint32
	timeout    time.Duration
	retryCount int
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *grpcClientTransport) Connect(config common.ClientConfig) error {
	if len(config.Transport.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}
	_ = t.Close()

	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()), // plaintext, no TLS
		grpc.WithDefaultCallOptions(grpc.ForceCodec(frameCodec{})),
	}
	if config.Transport.WriteBufferSize > 0 {
		opts = append(opts, grpc.WithWriteBufferSize(config.Transport.WriteBufferSize))
	}
	if config.Transport.ReadBufferSize > 0 {
		opts = append(opts, grpc.WithReadBufferSize(config.Transport.ReadBufferSize))
	}

	conns := make([]*grpc.ClientConn, 0, len(config.Transport.Endpoints))
	for _, endpoint := range config.Transport.Endpoints {
		conn, err := grpc.NewClient(endpoint, opts...)
		if err != nil {
			for _, c := range conns {
				_ = c.Close()
			}
			return fmt.Errorf("failed to create grpc client for %s: %w", endpoint, err)
		}
		conns = append(conns, conn)
	}

	t.conns = conns
	t.timeout = time.Duration(config.TimeoutSecond) * time.Second
	t.retryCount = max(config.Transport.RetryCount, 1)

	Logger.Infof("Created gRPC clients for %d endpoints", len(conns))
	return nil
}

func (t *grpcClientTransport) Send(shardId uint64, req []byte) (resp []byte, err error) {
	if len(t.conns) == 0 {
		return nil, errors.New("grpc transport not initialized")
	}

	for i := 0; i < t.retryCount; i++ {
		idx := t.counter.Add(1) % uint32(len(t.conns))
		resp, err = t.invoke(t.conns[idx], shardId, req)
		if err == nil {
			return resp, nil
		}
		Logger.Debugf("Request attempt %d/%d failed: %v", i+1, t.retryCount, err)
	}
	return nil, err
}

func (t *grpcClientTransport) Close() error {
	var errs []error
	for _, c := range t.conns {
		errs = append(errs, c.Close())
	}
	t.conns = nil
	return errors.Join(errs...)
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (t *grpcClientTransport) invoke(conn *grpc.ClientConn, shardId uint64, req []byte) ([]byte, error) {
	ctx := context.Background()
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	out := new(frame)
	if err := conn.Invoke(ctx, sendMethod, &frame{shardID: shardId, payload: req}, out); err != nil {
		return nil, err
	}
	return out.payload, nil
}
