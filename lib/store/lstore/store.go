package lstore

import (
	"iter"

	"github.com/ValentinKolb/hKV/lib/store"
	"github.com/puzpuzpuz/xsync/v3"
)

// table holds all keys of one table
type table = xsync.MapOf[string, store.Value]

type storeImpl struct {
	tables *xsync.MapOf[string, *table]
}

// NewLocalStore creates a new local, in-memory store instance.
// This store implementation is not persistent and only works inside a single process.
func NewLocalStore() store.IStore {
	return &storeImpl{
		tables: xsync.NewMapOf[string, *table](),
	}
}

// lookup returns the table without creating it
func (s *storeImpl) lookup(name string) (*table, bool) {
	return s.tables.Load(name)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Get(tableName, key string) (store.Value, bool, error) {
	if err := store.ValidateTable(tableName); err != nil {
		return store.Value{}, false, err
	}
	t, ok := s.lookup(tableName)
	if !ok {
		return store.Value{}, false, nil
	}
	value, ok := t.Load(key)
	return value, ok, nil
}

func (s *storeImpl) Set(tableName, key string, value store.Value) (store.Value, bool, error) {
	if err := store.ValidateTable(tableName); err != nil {
		return store.Value{}, false, err
	}
	if err := store.ValidateValue(value); err != nil {
		return store.Value{}, false, err
	}
	t, _ := s.tables.LoadOrCompute(tableName, func() *table {
		return xsync.NewMapOf[string, store.Value]()
	})
	// LoadAndStore returns the new value if the key was absent
	prev, loaded := t.LoadAndStore(key, value)
	if !loaded {
		return store.Value{}, false, nil
	}
	return prev, true, nil
}

func (s *storeImpl) Contains(tableName, key string) (bool, error) {
	if err := store.ValidateTable(tableName); err != nil {
		return false, err
	}
	t, ok := s.lookup(tableName)
	if !ok {
		return false, nil
	}
	_, ok = t.Load(key)
	return ok, nil
}

func (s *storeImpl) Del(tableName, key string) (store.Value, bool, error) {
	if err := store.ValidateTable(tableName); err != nil {
		return store.Value{}, false, err
	}
	t, ok := s.lookup(tableName)
	if !ok {
		return store.Value{}, false, nil
	}
	prev, loaded := t.LoadAndDelete(key)
	if !loaded {
		return store.Value{}, false, nil
	}
	return prev, true, nil
}

func (s *storeImpl) GetAll(tableName string) ([]store.Kvpair, error) {
	if err := store.ValidateTable(tableName); err != nil {
		return nil, err
	}
	t, ok := s.lookup(tableName)
	if !ok {
		return []store.Kvpair{}, nil
	}
	pairs := make([]store.Kvpair, 0, t.Size())
	t.Range(func(key string, value store.Value) bool {
		pairs = append(pairs, store.NewKvpair(key, value))
		return true
	})
	return pairs, nil
}

func (s *storeImpl) GetIter(tableName string) iter.Seq2[store.Kvpair, error] {
	return func(yield func(store.Kvpair, error) bool) {
		if err := store.ValidateTable(tableName); err != nil {
			yield(store.Kvpair{}, err)
			return
		}
		t, ok := s.lookup(tableName)
		if !ok {
			return
		}
		t.Range(func(key string, value store.Value) bool {
			return yield(store.NewKvpair(key, value), nil)
		})
	}
}

func (s *storeImpl) Close() error {
	s.tables.Clear()
	return nil
}
