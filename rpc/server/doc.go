// Package server implements the RPC server of the hKV key-value server.
// It decodes requests received by a transport, routes them to the store of the
// addressed shard and encodes exactly one response per request.
//
// Key Components:
//
//   - Dispatch: Executes a single CommandRequest against a store.IStore. It is
//     stateless and total: every request, including unknown message types and
//     panics inside a store, results in a response.
//
//   - IRPCServerAdapter / NewIStoreServerAdapter: The adapter interface used by
//     the server to hand requests to Dispatch.
//
//   - NewRPCServer: Creates a server for a config, transport and serializer.
//     Serve creates the shard stores and blocks in the transport, Close stops the
//     transport and closes all stores.
//
// Shard Types:
//
//   - memory: lstore, a concurrent in-memory map of tables
//   - btree: sstore over an in-memory ordered btree
//   - pebble: sstore over pebble, stored in <data-dir>/shard-<id>
//   - bolt: sstore over bolt, stored in <data-dir>/shard-<id>/hkv.db
//
// If at least one shard is persistent the data directory is locked with a lock
// file, a second server on the same directory fails to start. With metrics
// enabled every store is wrapped in mstore.
//
// Error Handling:
//
//   - request for an unknown shard: 400
//   - request that cannot be decoded: 400
//   - response that cannot be encoded: an encode error response (500) is sent instead
//
// Usage Example:
//
//	config := common.ServerConfig{
//	  Shards: []common.ServerShard{
//	    {ShardID: 100, Type: common.ShardTypeMemory},
//	    {ShardID: 200, Type: common.ShardTypePebble},
//	  },
//	  DataDir:       "./data",
//	  TimeoutSecond: 5,
//	  Transport:     common.ServerTransportConfig{Endpoint: "0.0.0.0:8080"},
//	}
//
//	s := server.NewRPCServer(config, tcp.NewTCPDefaultServerTransport(), serializer.NewBinarySerializer())
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Thread Safety:
//
//	Handle and Dispatch are safe for concurrent use, stores own all locking.
//	Serve should be called only once.
package server
