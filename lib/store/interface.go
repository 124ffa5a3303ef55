package store

import (
	"iter"

	"github.com/ValentinKolb/hKV/lib/db"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// DBFactory is a function type that creates a new db used by a sorted store.
// This is used to abstract the creation of the engine from the store implementation.
type DBFactory func() (db.KVDB, error)

// IStore is the generic interface for interacting with a table-namespaced key–value store.
// Every implementation is safe for concurrent use and owns all of its locking.
// Failures are reported as *Error (see the RetC* codes), reading an unknown table is never an error.
type IStore interface {
	// Get returns the value stored under key in table. The boolean return value indicates
	// whether a value for the key was found.
	Get(table, key string) (value Value, loaded bool, err error)
	// Set inserts or overwrites the value for key in table and creates the table on first write.
	// It returns the previous value (if any). Set is atomic per key.
	Set(table, key string, value Value) (prev Value, loaded bool, err error)
	// Contains reports whether key exists in table.
	Contains(table, key string) (loaded bool, err error)
	// Del removes key from table and returns the removed value (if any).
	// Deleting an absent key is not an error.
	Del(table, key string) (prev Value, loaded bool, err error)
	// GetAll returns every pair of table. The order is implementation defined.
	GetAll(table string) (pairs []Kvpair, err error)
	// GetIter returns a lazy, forward-only sequence over the pairs of table.
	// An error is yielded once as (Kvpair{}, err) and ends the sequence.
	GetIter(table string) iter.Seq2[Kvpair, error]
	// Close releases all resources held by the store.
	Close() (err error)
}

// TableSeparator joins table and key into the flat keyspace of the sorted stores.
const TableSeparator = ":"

// ValidateTable checks that a table name can be used by every store implementation.
func ValidateTable(table string) error {
	for i := 0; i < len(table); i++ {
		if table[i] == TableSeparator[0] {
			return NewInvalidCommandError("table name must not contain '" + TableSeparator + "': " + table)
		}
	}
	return nil
}

// ValidateValue checks that a value can be stored. Stores never hold the none value,
// so a pair read from a store always carries a present value.
func ValidateValue(value Value) error {
	if value.IsNone() {
		return NewInvalidCommandError("cannot store the none value")
	}
	return nil
}
