package sstore

import (
	"iter"
	"strings"
	"sync"

	"github.com/ValentinKolb/hKV/lib/db"
	"github.com/ValentinKolb/hKV/lib/db/util"
	"github.com/ValentinKolb/hKV/lib/store"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("store/sorted")

// lockStripes is the number of mutexes guarding read-modify-write sequences
const lockStripes = 64

type storeImpl struct {
	db    db.KVDB
	locks [lockStripes]sync.Mutex
}

// NewSortedStore creates a store on top of an ordered engine.
// The store takes ownership of the engine and closes it on Close.
func NewSortedStore(database db.KVDB) store.IStore {
	return &storeImpl{db: database}
}

// NewSortedStoreFromFactory creates the engine with factory and wraps it.
func NewSortedStoreFromFactory(factory store.DBFactory) (store.IStore, error) {
	database, err := factory()
	if err != nil {
		return nil, store.NewStorageError("open", "", "", err)
	}
	return NewSortedStore(database), nil
}

// compositeKey joins table and key into the flat keyspace of the engine
func compositeKey(table, key string) []byte {
	return []byte(table + store.TableSeparator + key)
}

// tablePrefix is the prefix shared by all composite keys of table
func tablePrefix(table string) []byte {
	return []byte(table + store.TableSeparator)
}

// lockFor returns the mutex guarding the composite key
func (s *storeImpl) lockFor(key []byte) *sync.Mutex {
	return &s.locks[util.Stripe(string(key), lockStripes)]
}

// load reads and decodes the value under the composite key
func (s *storeImpl) load(op, table, key string, ck []byte) (store.Value, bool, error) {
	raw, ok, err := s.db.Get(ck)
	if err != nil {
		return store.Value{}, false, store.NewStorageError(op, table, key, err)
	}
	if !ok {
		return store.Value{}, false, nil
	}
	var value store.Value
	if err := value.UnmarshalBinary(raw); err != nil {
		return store.Value{}, false, err
	}
	return value, true, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Get(table, key string) (store.Value, bool, error) {
	if err := store.ValidateTable(table); err != nil {
		return store.Value{}, false, err
	}
	return s.load("get", table, key, compositeKey(table, key))
}

func (s *storeImpl) Set(table, key string, value store.Value) (store.Value, bool, error) {
	if err := store.ValidateTable(table); err != nil {
		return store.Value{}, false, err
	}
	if err := store.ValidateValue(value); err != nil {
		return store.Value{}, false, err
	}
	raw, err := value.MarshalBinary()
	if err != nil {
		return store.Value{}, false, err
	}

	ck := compositeKey(table, key)
	mu := s.lockFor(ck)
	mu.Lock()
	defer mu.Unlock()

	// A previous value that cannot be decoded is reported as absent and overwritten
	prev, loaded, err := s.load("set", table, key, ck)
	if err != nil {
		if e := store.AsError(err); e.Code != store.RetCDecodeError && e.Code != store.RetCConvertError {
			return store.Value{}, false, err
		}
		Logger.Warningf("overwriting undecodable value of table %s, key %s: %v", table, key, err)
		prev, loaded = store.Value{}, false
	}

	if err := s.db.Set(ck, raw); err != nil {
		return store.Value{}, false, store.NewStorageError("set", table, key, err)
	}
	return prev, loaded, nil
}

func (s *storeImpl) Contains(table, key string) (bool, error) {
	if err := store.ValidateTable(table); err != nil {
		return false, err
	}
	ok, err := s.db.Has(compositeKey(table, key))
	if err != nil {
		return false, store.NewStorageError("contains", table, key, err)
	}
	return ok, nil
}

func (s *storeImpl) Del(table, key string) (store.Value, bool, error) {
	if err := store.ValidateTable(table); err != nil {
		return store.Value{}, false, err
	}

	ck := compositeKey(table, key)
	mu := s.lockFor(ck)
	mu.Lock()
	defer mu.Unlock()

	prev, loaded, err := s.load("del", table, key, ck)
	if err != nil {
		return store.Value{}, false, err
	}
	if !loaded {
		return store.Value{}, false, nil
	}

	if err := s.db.Delete(ck); err != nil {
		return store.Value{}, false, store.NewStorageError("del", table, key, err)
	}
	return prev, true, nil
}

func (s *storeImpl) GetAll(table string) ([]store.Kvpair, error) {
	pairs := []store.Kvpair{}
	for pair, err := range s.GetIter(table) {
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

func (s *storeImpl) GetIter(table string) iter.Seq2[store.Kvpair, error] {
	return func(yield func(store.Kvpair, error) bool) {
		if err := store.ValidateTable(table); err != nil {
			yield(store.Kvpair{}, err)
			return
		}

		prefix := tablePrefix(table)
		it := s.db.ScanPrefix(prefix)
		defer it.Close()

		for it.Next() {
			key := strings.TrimPrefix(string(it.Key()), string(prefix))
			var value store.Value
			if err := value.UnmarshalBinary(it.Value()); err != nil {
				yield(store.Kvpair{}, err)
				return
			}
			if !yield(store.NewKvpair(key, value), nil) {
				return
			}
		}
		if err := it.Err(); err != nil {
			yield(store.Kvpair{}, store.NewStorageError("getall", table, "", err))
		}
	}
}

func (s *storeImpl) Close() error {
	if err := s.db.Close(); err != nil {
		return store.NewStorageError("close", "", "", err)
	}
	return nil
}

// Info returns metadata about the engine underlying the store.
func (s *storeImpl) Info() db.DatabaseInfo {
	return s.db.GetInfo()
}
