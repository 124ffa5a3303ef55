// Package lstore implements a local, in-memory key-value store based on the
// store.IStore interface. Data is stored entirely in memory and is not persisted
// between process restarts.
//
// Implementation Details:
//
//   - Two levels of concurrent hash maps (github.com/puzpuzpuz/xsync/v3): the outer map
//     resolves a table name to its table, the inner map holds the keys of that table.
//     Tables are created with LoadOrCompute on the first Set, reads never create one.
//
//   - Set and Del use LoadAndStore and LoadAndDelete, so returning the previous value is
//     atomic per key without any additional locking.
//
//   - GetAll and GetIter enumerate in hash order. GetIter is lazy and walks the live table,
//     concurrent writes during iteration may or may not be observed.
//
// Usage Example:
//
//	s := lstore.NewLocalStore()
//	_, _, err := s.Set("users", "alice", store.StringValue("admin"))
//	value, exists, err := s.Get("users", "alice")
package lstore
