package btreedb

import (
	"bytes"
	"sync"

	"github.com/ValentinKolb/hKV/lib/db"
	"github.com/google/btree"
)

const defaultDegree = 32

// item is a single entry stored in the tree
type item struct {
	key   []byte
	value []byte
}

func less(a, b item) bool {
	return bytes.Compare(a.key, b.key) < 0
}

// btreeImpl implements db.KVDB with an in-memory B-tree guarded by a RWMutex
type btreeImpl struct {
	mu   sync.RWMutex
	tree *btree.BTreeG[item]
	size int64 // sum of key and value lengths, guarded by mu
}

// NewBTreeDB creates a new, empty in-memory engine.
// Data is lost when the process exits.
func NewBTreeDB() db.KVDB {
	return &btreeImpl{
		tree: btree.NewG[item](defaultDegree, less),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see db.KVDB)
// --------------------------------------------------------------------------

func (b *btreeImpl) Set(key, value []byte) error {
	entry := item{
		key:   append([]byte{}, key...),
		value: append([]byte{}, value...),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if old, replaced := b.tree.ReplaceOrInsert(entry); replaced {
		b.size -= int64(len(old.key) + len(old.value))
	}
	b.size += int64(len(entry.key) + len(entry.value))
	return nil
}

func (b *btreeImpl) Delete(key []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if old, removed := b.tree.Delete(item{key: key}); removed {
		b.size -= int64(len(old.key) + len(old.value))
	}
	return nil
}

func (b *btreeImpl) Get(key []byte) ([]byte, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	found, ok := b.tree.Get(item{key: key})
	if !ok {
		return nil, false, nil
	}
	return append([]byte{}, found.value...), true, nil
}

func (b *btreeImpl) Has(key []byte) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.tree.Has(item{key: key}), nil
}

func (b *btreeImpl) ScanPrefix(prefix []byte) db.Iterator {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var entries []db.Entry
	b.tree.AscendGreaterOrEqual(item{key: prefix}, func(i item) bool {
		if !bytes.HasPrefix(i.key, prefix) {
			return false
		}
		entries = append(entries, db.Entry{
			Key:   append([]byte{}, i.key...),
			Value: append([]byte{}, i.value...),
		})
		return true
	})

	return db.NewSliceIterator(entries, nil)
}

func (b *btreeImpl) GetInfo() db.DatabaseInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return db.DatabaseInfo{
		SizeBytes: b.size,
		Keys:      int64(b.tree.Len()),
		DbType:    db.ImplBTree,
		Durable:   false,
		Metadata:  map[string]interface{}{"degree": defaultDegree},
	}
}

func (b *btreeImpl) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tree.Clear(false)
	b.size = 0
	return nil
}
