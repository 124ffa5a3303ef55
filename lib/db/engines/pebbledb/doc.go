// Package pebbledb implements the db.KVDB interface on top of the pebble LSM engine
// (github.com/cockroachdb/pebble).
//
// Pebble keeps all keys sorted, so prefix scans map directly onto bounded iterators
// (LowerBound = prefix, UpperBound = the next key after the prefix range). The iterator
// returned by ScanPrefix is lazy: it reads from an implicit snapshot taken when the
// iterator is created and must be closed by the caller.
//
// Durability:
//
//	By default every write is synced to the write-ahead log before it returns. Setting
//	DBOptions.NoSync trades this guarantee for throughput. DBOptions.InMemory backs the
//	database with an in-memory filesystem, which is useful for tests.
//
// Usage Example:
//
//	database, err := pebbledb.NewPebbleDB("data/shard-200", nil)
//	if err != nil {
//		return err
//	}
//	defer database.Close()
package pebbledb
