// Package client implements the RPC client of the hKV key-value server.
// RPCStore implements the store.IStore interface by sending every call as a
// command to a single shard of a remote server.
//
// Key Components:
//
//   - NewRPCStore: Factory function that connects the transport and returns an
//     RPCStore for one shard.
//
//   - RPCStore.Execute: Sends a raw command and returns the response without
//     interpreting its status. Used by the CLI.
//
//   - ResponseError: Returned by the store methods for every response with a
//     non 2xx status. It unwraps to a *store.Error, so errors.Is matches
//     store.ErrNotFound for 404 and store.ErrInvalidCommand for 400.
//
// A 404 answer to Get is not an error, it is reported as (none, false, nil).
//
// Usage Example:
//
//	config := common.ClientConfig{
//	  TimeoutSecond: 5,
//	  Transport: common.ClientTransportConfig{
//	    Endpoints:              []string{"localhost:8080"},
//	    RetryCount:             3,
//	    ConnectionsPerEndpoint: 1,
//	  },
//	}
//
//	s, _ := client.NewRPCStore(100, config, tcp.NewTCPClientTransport(), serializer.NewBinarySerializer())
//	defer s.Close()
//
//	s.Set("users", "alice", store.IntValue(30))
//	value, ok, _ := s.Get("users", "alice")
//
// Thread Safety:
//
//	RPCStore is safe for concurrent use if the transport is.
package client
