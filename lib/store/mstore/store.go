package mstore

import (
	"fmt"
	"iter"
	"time"

	"github.com/ValentinKolb/hKV/lib/store"
	"github.com/VictoriaMetrics/metrics"
)

// opMetrics holds the metrics of one operation of one shard
type opMetrics struct {
	calls    *metrics.Counter
	errors   *metrics.Counter
	duration *metrics.Histogram
}

// newOpMetrics registers the metrics of op in set, or globally if set is nil
func newOpMetrics(set *metrics.Set, shard, op string) opMetrics {
	labels := fmt.Sprintf(`{shard=%q,op=%q}`, shard, op)
	if set == nil {
		return opMetrics{
			calls:    metrics.GetOrCreateCounter("hkv_store_operations_total" + labels),
			errors:   metrics.GetOrCreateCounter("hkv_store_errors_total" + labels),
			duration: metrics.GetOrCreateHistogram("hkv_store_operation_duration_seconds" + labels),
		}
	}
	return opMetrics{
		calls:    set.GetOrCreateCounter("hkv_store_operations_total" + labels),
		errors:   set.GetOrCreateCounter("hkv_store_errors_total" + labels),
		duration: set.GetOrCreateHistogram("hkv_store_operation_duration_seconds" + labels),
	}
}

// observe records one call that started at start
func (m opMetrics) observe(start time.Time, err error) {
	m.calls.Inc()
	if err != nil {
		m.errors.Inc()
	}
	m.duration.UpdateDuration(start)
}

type storeImpl struct {
	inner    store.IStore
	get      opMetrics
	set      opMetrics
	contains opMetrics
	del      opMetrics
	getAll   opMetrics
	getIter  opMetrics
}

// NewMeteredStore wraps inner and records calls, errors and latencies of every
// operation in the default metrics set, labelled with shard.
func NewMeteredStore(inner store.IStore, shard string) store.IStore {
	return NewMeteredStoreWithSet(inner, shard, nil)
}

// NewMeteredStoreWithSet is like NewMeteredStore but registers the metrics in set.
// A nil set selects the global registry that is exported by metrics.WritePrometheus.
func NewMeteredStoreWithSet(inner store.IStore, shard string, set *metrics.Set) store.IStore {
	return &storeImpl{
		inner:    inner,
		get:      newOpMetrics(set, shard, "get"),
		set:      newOpMetrics(set, shard, "set"),
		contains: newOpMetrics(set, shard, "contains"),
		del:      newOpMetrics(set, shard, "del"),
		getAll:   newOpMetrics(set, shard, "getall"),
		getIter:  newOpMetrics(set, shard, "getiter"),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Get(table, key string) (store.Value, bool, error) {
	start := time.Now()
	value, loaded, err := s.inner.Get(table, key)
	s.get.observe(start, err)
	return value, loaded, err
}

func (s *storeImpl) Set(table, key string, value store.Value) (store.Value, bool, error) {
	start := time.Now()
	prev, loaded, err := s.inner.Set(table, key, value)
	s.set.observe(start, err)
	return prev, loaded, err
}

func (s *storeImpl) Contains(table, key string) (bool, error) {
	start := time.Now()
	loaded, err := s.inner.Contains(table, key)
	s.contains.observe(start, err)
	return loaded, err
}

func (s *storeImpl) Del(table, key string) (store.Value, bool, error) {
	start := time.Now()
	prev, loaded, err := s.inner.Del(table, key)
	s.del.observe(start, err)
	return prev, loaded, err
}

func (s *storeImpl) GetAll(table string) ([]store.Kvpair, error) {
	start := time.Now()
	pairs, err := s.inner.GetAll(table)
	s.getAll.observe(start, err)
	return pairs, err
}

// GetIter records one call per completed or abandoned iteration
func (s *storeImpl) GetIter(table string) iter.Seq2[store.Kvpair, error] {
	return func(yield func(store.Kvpair, error) bool) {
		start := time.Now()
		var failed error
		for pair, err := range s.inner.GetIter(table) {
			if err != nil {
				failed = err
			}
			if !yield(pair, err) {
				break
			}
		}
		s.getIter.observe(start, failed)
	}
}

func (s *storeImpl) Close() error {
	return s.inner.Close()
}
