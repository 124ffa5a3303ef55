// Package db provides a standardized interface for ordered key-value engines.
// It defines the KVDB interface that the sorted store (lib/store/sstore) builds on,
// so that the actual storage engine stays an exchangeable external library.
//
// The package focuses on:
//   - A minimal byte-key/byte-value interface (Get, Set, Delete, Has)
//   - Ordered prefix scanning through the Iterator interface
//   - Standardized metadata reporting (DatabaseInfo)
//
// Key Components:
//
//   - KVDB Interface: The core interface that all engines must satisfy. Single operations
//     must be atomic; the engine does not know about tables or typed values. Both are
//     layered on top by the sorted store using composite keys ("table:key").
//
//   - Iterator: A pull-style, forward-only cursor over a prefix range in ascending key
//     order. Engines that cannot keep a cursor open across calls materialize the range
//     and return a slice iterator (NewSliceIterator).
//
//   - Implementation Identifiers: The Implementation type provides string constants
//     for the bundled engines.
//
// Engines:
//
//   - engines/pebble: a durable LSM engine based on github.com/cockroachdb/pebble
//   - engines/bolt: a durable B+tree engine based on github.com/boltdb/bolt
//   - engines/btree: a non-durable in-memory engine based on github.com/google/btree
//
// The testing package (github.com/ValentinKolb/hKV/lib/db/testing) provides
// standardized tests and benchmarks for every engine that satisfies the db.KVDB interface.
package db
