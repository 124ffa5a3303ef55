// Package base implements the connection oriented part of the tcp and unix transports.
// The protocol specific bits (dialing, listening, socket options) are supplied by an
// IClientConnector or IServerConnector, everything else lives here.
//
// Frame Format:
//
//	shardId (8 bytes) | requestId (8 bytes) | length (4 bytes) | payload
//
// All integers are big endian. Frames with a payload larger than MaxFrameSize are
// rejected on both sides. Header and payload are written with a single net.Buffers
// write.
//
// Client:
//
// The client opens ConnectionsPerEndpoint connections to every endpoint and picks one
// round robin per request. Requests are multiplexed: each attempt gets a fresh request
// id, a reader goroutine per connection hands responses to the waiting caller. A broken
// connection fails all pending requests and is redialed in the background. Send retries
// with jittered exponential backoff up to RetryCount times.
//
// Server:
//
// The server runs one goroutine per accepted connection and at most WorkersPerConn
// concurrent handler calls for it. Read buffers come from a sync.Pool. Writes to a
// connection are serialized and bounded by the configured timeout, reads have no
// deadline so idle clients stay connected.
package base
