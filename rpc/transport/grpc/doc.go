// Package grpc implements a gRPC based transport for the hKV RPC system.
//
// Every request is a unary call of /hkv.Transport/Send. The call carries a
// Frame message (shard_id = 1, payload = 2) which is encoded with a small
// protowire codec, so no generated code is needed. The payload is the already
// serialized request or response, which means every serializer can be combined
// with this transport.
//
// The client keeps one grpc.ClientConn per endpoint and selects them round robin.
package grpc
