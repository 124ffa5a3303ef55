// Package common provides the data structures and utilities shared by the
// hKV server, client and transports.
//
// The package focuses on:
//   - The command protocol (requests, responses and their status codes)
//   - Configuration structures for client and server components
//   - The zap backed implementation of the Dragonboat logger interface
//
// Key Components:
//
//   - CommandRequest / CommandResponse: The two message shapes exchanged over the wire.
//     A request names a table, a key and (for hset) a pair. A response carries an
//     HTTP style status, an error message and the resulting values or pairs.
//     Factory functions build every request type and every response kind.
//
//   - MessageType: The closed set of commands (hset, hget, hgetall, hexist, hdel).
//     The zero type is unknown and always rejected by the dispatcher.
//
//   - Status mapping: NewErrorResponse and StatusForCode translate store errors into
//     response statuses (NotFound 404, InvalidCommand 400, everything else 500).
//
//   - ServerConfig / ClientConfig: Shards, storage, transport and logging settings.
//
//   - Logger: InitLoggers installs a logger.Factory that creates zap loggers writing to
//     stderr or to a rotating file (lumberjack), with console or json encoding.
package common
