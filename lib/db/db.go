package db

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplPebble Implementation = "pebble"
	ImplBolt   Implementation = "bolt"
	ImplBTree  Implementation = "btree"
)

type DatabaseInfo struct {
	SizeBytes int64          `json:"size_bytes"`
	Keys      int64          `json:"keys"`
	DbType    Implementation `json:"db_type"`
	Durable   bool           `json:"durable"`
	Metadata  interface{}    `json:"metadata"`
}

// --------------------------------------------------------------------------
// Iterator Interface
// --------------------------------------------------------------------------

// Iterator walks over a range of entries in ascending key order.
// Next must be called before the first entry is available.
// The slices returned by Key and Value are owned by the caller.
type Iterator interface {
	// Next advances the iterator. It returns false when the range is exhausted or an error occurred.
	Next() bool
	// Key returns the key of the current entry.
	Key() []byte
	// Value returns the value of the current entry.
	Value() []byte
	// Err returns the first error encountered by the iterator.
	Err() error
	// Close releases all resources held by the iterator.
	Close() error
}

// --------------------------------------------------------------------------
// Database Interface
// --------------------------------------------------------------------------

// KVDB defines an interface for ordered key-value engines with byte keys and byte values.
// Every single operation must be atomic on its own; read-modify-write sequences
// are coordinated by the caller (see the sstore package).
type KVDB interface {

	// --------------------------------------------------------------------------
	// Write Operations
	// --------------------------------------------------------------------------

	// Set inserts or updates an entry with the given key and value.
	// If the key already exists, the old value should be overwritten.
	Set(key, value []byte) (err error)

	// Delete removes an entry with the specified key.
	// Deleting a key that does not exist is not an error.
	Delete(key []byte) (err error)

	// --------------------------------------------------------------------------
	// Query Operations
	// --------------------------------------------------------------------------

	// Get retrieves the value for an exact key.
	// The boolean return value indicates whether a value for the key was found.
	Get(key []byte) (value []byte, loaded bool, err error)

	// Has checks whether a key exists in the database.
	Has(key []byte) (loaded bool, err error)

	// ScanPrefix returns an iterator over all entries whose key starts with prefix, sorted by key.
	// Errors are reported through Iterator.Err.
	ScanPrefix(prefix []byte) (it Iterator)

	// --------------------------------------------------------------------------
	// Metadata
	// --------------------------------------------------------------------------

	// GetInfo returns information about the database.
	GetInfo() (info DatabaseInfo)

	// Close closes the database.
	Close() (err error)
}

// --------------------------------------------------------------------------
// Slice Iterator (used by engines that materialize a scan)
// --------------------------------------------------------------------------

// Entry is a single key-value pair held by a SliceIterator.
type Entry struct {
	Key   []byte
	Value []byte
}

// NewSliceIterator returns an Iterator over already materialized entries.
// The entries must be sorted by key.
func NewSliceIterator(entries []Entry, err error) Iterator {
	return &sliceIterator{entries: entries, index: -1, err: err}
}

// NewErrIterator returns an Iterator that yields no entries and reports err.
func NewErrIterator(err error) Iterator {
	return &sliceIterator{index: -1, err: err}
}

type sliceIterator struct {
	entries []Entry
	index   int
	err     error
}

func (it *sliceIterator) Next() bool {
	if it.err != nil {
		return false
	}
	it.index++
	return it.index < len(it.entries)
}

func (it *sliceIterator) Key() []byte {
	if it.index < 0 || it.index >= len(it.entries) {
		return nil
	}
	return it.entries[it.index].Key
}

func (it *sliceIterator) Value() []byte {
	if it.index < 0 || it.index >= len(it.entries) {
		return nil
	}
	return it.entries[it.index].Value
}

func (it *sliceIterator) Err() error {
	return it.err
}

func (it *sliceIterator) Close() error {
	it.entries = nil
	return nil
}
