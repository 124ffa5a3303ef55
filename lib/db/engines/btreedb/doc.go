// Package btreedb implements the db.KVDB interface with an in-memory B-tree
// (github.com/google/btree). It keeps keys sorted like the durable engines but
// persists nothing, which makes it the engine of choice for tests and for
// ephemeral shards that need ordered scans.
package btreedb
