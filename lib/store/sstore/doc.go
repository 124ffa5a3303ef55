// Package sstore implements store.IStore on top of any ordered byte engine (db.KVDB).
//
// Every (table, key) pair is stored under the composite key "table:key", values are
// stored in their binary form (store.Value.MarshalBinary). Because the engines keep keys
// sorted, a table is a single prefix range and GetAll and GetIter return the pairs of a
// table in ascending key order.
//
// Set and Del read the previous value before writing. These read-modify-write sequences
// are serialized per key with a fixed set of striped mutexes (selected by util.Stripe),
// plain reads take no lock and rely on the atomicity of the engine.
//
// Engine failures are reported as store.RetCStorageError with the cause flattened to text.
// Values that cannot be decoded are reported as store.RetCDecodeError or store.RetCConvertError.
//
// Usage Example:
//
//	engine, err := pebbledb.NewPebbleDB("/var/lib/hkv/shard-100", nil)
//	s := sstore.NewSortedStore(engine)
//	pairs, err := s.GetAll("users") // sorted by key
package sstore
