// Package rpc provides the remote procedure call layer of the hKV key-value server.
// It carries table commands (hset, hget, hgetall, hexist, hdel) between clients and
// the shards of a server.
//
// The package is organized into several subpackages:
//
//   - common: The command protocol (CommandRequest, CommandResponse), status mapping,
//     configuration structures and the logger setup.
//
//   - transport: Network communication abstractions with pluggable implementations
//     (TCP, Unix sockets, HTTP, gRPC).
//
//   - serializer: Message serialization with multiple format options (Binary, JSON,
//     GOB, MessagePack, Protobuf) for converting messages to byte arrays and back.
//
//   - client: RPCStore, an implementation of store.IStore that forwards every call
//     to a remote shard.
//
//   - server: The command dispatcher and the server that manages shards and routes
//     requests to them.
package rpc
