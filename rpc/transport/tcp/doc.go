// Package tcp implements the TCP socket transport of the hKV RPC system. It provides
// concrete implementations of the base package's connector interfaces that apply the
// configured socket options (TCP_NODELAY, keep-alive, linger and buffer sizes) to
// every connection.
//
// Connection pooling, buffer reuse and request correlation are inherited from the
// base package.
//
// The default server buffer size is 512 KB with 100 workers per connection.
package tcp
