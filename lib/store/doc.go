// Package store provides the storage capability of hKV: a table-namespaced key-value
// interface, the typed value model and the error taxonomy shared by every backend.
//
// The package focuses on:
//   - A unified interface (IStore) for table operations across different backends
//   - An immutable, tagged Value with a stable byte representation
//   - Typed errors with a closed set of return codes
//
// Key Components:
//
//   - IStore Interface: Get, Set, Contains, Del, GetAll and GetIter on (table, key) pairs.
//     Set and Del return the previous value. Tables are created by the first write and
//     reading an unknown table yields an empty result. All implementations share this
//     interface, allowing applications to switch backends without code changes.
//
//   - Value and Kvpair: A Value is one of string, integer, float, bool or binary, or the
//     none value (the zero Value). Values encode to a msgpack array [kind, payload]
//     (MarshalBinary) which is what the sorted stores persist and what gob and the msgpack
//     wire serializer send. Reading a value as the wrong type fails with a ConvertError.
//
//   - Error System: *Error carries a RetCode and the context of its kind (table, key,
//     operation or type names) and renders a fixed message per kind. Backend errors are
//     flattened to text so that no engine type escapes a store.
//
// Implementations:
//
//	- Local Store (lstore): Concurrent hash maps from github.com/puzpuzpuz/xsync,
//	  one per table. Fast, unordered and not persistent.
//	  Available in the "github.com/ValentinKolb/hKV/lib/store/lstore" package.
//
//	- Sorted Store (sstore): Any ordered db.KVDB engine (pebble, bolt, btree). Keys are
//	  stored as "table:key", so a table is one ordered prefix range.
//	  Available in the "github.com/ValentinKolb/hKV/lib/store/sstore" package.
//
//	- Metered Store (mstore): A decorator recording operation counts, errors and
//	  latencies of any IStore with github.com/VictoriaMetrics/metrics.
//	  Available in the "github.com/ValentinKolb/hKV/lib/store/mstore" package.
//
// Table names must not contain ':' (TableSeparator). Every implementation rejects
// such names with RetCInvalidCommand so all backends accept exactly the same input.
package store
