// Package cmd implements the command-line interface for the hKV key-value
// store. It provides a hierarchical command structure with operations for
// running the server and interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - kv: Commands for table operations (hset, hget, hgetall, hexist, hdel),
//     an interactive shell and a benchmark tool
//   - serve: Commands for starting and configuring the hKV server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See hkv -help for a list of all commands.
package cmd
