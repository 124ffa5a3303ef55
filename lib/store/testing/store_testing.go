package testing

import (
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/ValentinKolb/hKV/lib/store"
)

// StoreFactory is a function that creates a new, empty instance of an IStore implementation
type StoreFactory func() store.IStore

// Options describes guarantees of an implementation beyond the IStore contract
type Options struct {
	// Sorted is set if GetAll and GetIter return the pairs in ascending key order
	Sorted bool
}

// RunStoreTests runs the conformance suite every IStore implementation must pass.
func RunStoreTests(t *testing.T, name string, factory StoreFactory, opts Options) {
	t.Run(name, func(t *testing.T) {
		t.Run("GetMiss", func(t *testing.T) {
			testGetMiss(t, factory())
		})

		t.Run("SetThenGet", func(t *testing.T) {
			testSetThenGet(t, factory())
		})

		t.Run("RoundTripOverwrite", func(t *testing.T) {
			testRoundTripOverwrite(t, factory())
		})

		t.Run("DeleteIdempotence", func(t *testing.T) {
			testDeleteIdempotence(t, factory())
		})

		t.Run("ExistenceConsistency", func(t *testing.T) {
			testExistenceConsistency(t, factory())
		})

		t.Run("GetAllCompleteness", func(t *testing.T) {
			testGetAllCompleteness(t, factory())
		})

		t.Run("GetIter", func(t *testing.T) {
			testGetIter(t, factory())
		})

		t.Run("TableIsolation", func(t *testing.T) {
			testTableIsolation(t, factory())
		})

		t.Run("AllKinds", func(t *testing.T) {
			testAllKinds(t, factory())
		})

		t.Run("TableSeparator", func(t *testing.T) {
			testTableSeparator(t, factory())
		})

		t.Run("NoneValue", func(t *testing.T) {
			testNoneValue(t, factory())
		})

		t.Run("ConcurrentWriters", func(t *testing.T) {
			testConcurrentWriters(t, factory())
		})

		if opts.Sorted {
			t.Run("SortedOrder", func(t *testing.T) {
				testSortedOrder(t, factory())
			})
		}
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func mustSet(t testing.TB, s store.IStore, table, key string, value store.Value) {
	t.Helper()
	if _, _, err := s.Set(table, key, value); err != nil {
		t.Fatalf("Set(%s, %s) failed: %v", table, key, err)
	}
}

// pairsByKey indexes pairs by key and fails on duplicates
func pairsByKey(t testing.TB, pairs []store.Kvpair) map[string]store.Value {
	t.Helper()
	m := make(map[string]store.Value, len(pairs))
	for _, p := range pairs {
		if _, dup := m[p.Key]; dup {
			t.Errorf("Duplicate key %s in result", p.Key)
		}
		m[p.Key] = p.Value
	}
	return m
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testGetMiss(t *testing.T, s store.IStore) {
	defer s.Close()

	value, loaded, err := s.Get("users", "alice")
	if err != nil {
		t.Errorf("Get on empty store failed: %v", err)
	}
	if loaded || !value.IsNone() {
		t.Errorf("Expected no value for missing key, got %v (loaded=%t)", value, loaded)
	}

	pairs, err := s.GetAll("users")
	if err != nil || len(pairs) != 0 {
		t.Errorf("Expected empty GetAll for unknown table, got %v (err=%v)", pairs, err)
	}

	// Reading must not create the table
	for range s.GetIter("users") {
		t.Errorf("Expected no pairs for unknown table")
	}
}

func testSetThenGet(t *testing.T, s store.IStore) {
	defer s.Close()

	prev, loaded, err := s.Set("users", "alice", store.StringValue("admin"))
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if loaded || !prev.IsNone() {
		t.Errorf("Expected no previous value on first Set, got %v", prev)
	}

	value, loaded, err := s.Get("users", "alice")
	if err != nil || !loaded {
		t.Fatalf("Expected value after Set (err=%v)", err)
	}
	if got, _ := value.AsString(); got != "admin" {
		t.Errorf("Expected admin, got %s", got)
	}
}

func testRoundTripOverwrite(t *testing.T, s store.IStore) {
	defer s.Close()

	mustSet(t, s, "t", "k", store.IntValue(1))

	prev, loaded, err := s.Set("t", "k", store.IntValue(2))
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if !loaded || !prev.Equal(store.IntValue(1)) {
		t.Errorf("Expected previous value 1, got %v (loaded=%t)", prev, loaded)
	}

	value, _, _ := s.Get("t", "k")
	if !value.Equal(store.IntValue(2)) {
		t.Errorf("Expected 2 after overwrite, got %v", value)
	}

	pairs, _ := s.GetAll("t")
	if len(pairs) != 1 {
		t.Errorf("Expected exactly one pair after overwrite, got %d", len(pairs))
	}
}

func testDeleteIdempotence(t *testing.T, s store.IStore) {
	defer s.Close()

	mustSet(t, s, "t", "k", store.BoolValue(true))

	prev, loaded, err := s.Del("t", "k")
	if err != nil || !loaded || !prev.Equal(store.BoolValue(true)) {
		t.Errorf("Expected Del to return the removed value, got %v (loaded=%t, err=%v)", prev, loaded, err)
	}

	prev, loaded, err = s.Del("t", "k")
	if err != nil {
		t.Errorf("Second Del should not fail: %v", err)
	}
	if loaded || !prev.IsNone() {
		t.Errorf("Second Del should return no value, got %v", prev)
	}

	if _, loaded, _ := s.Get("t", "k"); loaded {
		t.Errorf("Expected key to be absent after Del")
	}

	// Deleting in an unknown table is fine as well
	if _, loaded, err := s.Del("unknown", "k"); err != nil || loaded {
		t.Errorf("Del on unknown table should be a no-op (loaded=%t, err=%v)", loaded, err)
	}
}

func testExistenceConsistency(t *testing.T, s store.IStore) {
	defer s.Close()

	check := func(key string) {
		t.Helper()
		contains, err := s.Contains("t", key)
		if err != nil {
			t.Fatalf("Contains failed: %v", err)
		}
		_, loaded, err := s.Get("t", key)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if contains != loaded {
			t.Errorf("Contains(%s)=%t but Get loaded=%t", key, contains, loaded)
		}
	}

	check("k")
	mustSet(t, s, "t", "k", store.FloatValue(1.5))
	check("k")
	if ok, _ := s.Contains("t", "k"); !ok {
		t.Errorf("Expected Contains to be true after Set")
	}
	_, _, _ = s.Del("t", "k")
	check("k")
	if ok, _ := s.Contains("t", "k"); ok {
		t.Errorf("Expected Contains to be false after Del")
	}
}

func testGetAllCompleteness(t *testing.T, s store.IStore) {
	defer s.Close()

	expected := map[string]store.Value{}
	for i := 0; i < 50; i++ {
		key := fmt.Sprintf("key-%02d", i)
		expected[key] = store.IntValue(int64(i))
		mustSet(t, s, "t", key, expected[key])
	}
	// overwrite and delete some keys
	expected["key-07"] = store.StringValue("seven")
	mustSet(t, s, "t", "key-07", expected["key-07"])
	delete(expected, "key-13")
	_, _, _ = s.Del("t", "key-13")

	pairs, err := s.GetAll("t")
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	got := pairsByKey(t, pairs)
	if len(got) != len(expected) {
		t.Fatalf("Expected %d pairs, got %d", len(expected), len(got))
	}
	for key, value := range expected {
		if !got[key].Equal(value) {
			t.Errorf("Key %s: expected %v, got %v", key, value, got[key])
		}
	}
}

func testGetIter(t *testing.T, s store.IStore) {
	defer s.Close()

	for i := 0; i < 10; i++ {
		mustSet(t, s, "t", fmt.Sprintf("k%d", i), store.IntValue(int64(i)))
	}

	seq := s.GetIter("t")

	// the sequence is restartable
	for round := 0; round < 2; round++ {
		count := 0
		for pair, err := range seq {
			if err != nil {
				t.Fatalf("GetIter yielded error: %v", err)
			}
			if pair.Value.IsNone() {
				t.Errorf("GetIter yielded a pair without value for %s", pair.Key)
			}
			count++
		}
		if count != 10 {
			t.Errorf("Round %d: expected 10 pairs, got %d", round, count)
		}
	}

	// stopping early is allowed
	count := 0
	for range seq {
		count++
		if count == 3 {
			break
		}
	}
	if count != 3 {
		t.Errorf("Expected to stop after 3 pairs, got %d", count)
	}
}

func testTableIsolation(t *testing.T, s store.IStore) {
	defer s.Close()

	mustSet(t, s, "a", "k", store.StringValue("in-a"))
	mustSet(t, s, "ab", "k", store.StringValue("in-ab"))
	mustSet(t, s, "b", "k", store.StringValue("in-b"))

	value, _, _ := s.Get("a", "k")
	if got, _ := value.AsString(); got != "in-a" {
		t.Errorf("Expected in-a, got %s", got)
	}

	pairs, _ := s.GetAll("a")
	if len(pairs) != 1 {
		t.Errorf("Expected table a to hold 1 pair, got %d", len(pairs))
	}

	_, _, _ = s.Del("a", "k")
	if ok, _ := s.Contains("ab", "k"); !ok {
		t.Errorf("Deleting from table a must not affect table ab")
	}
}

func testAllKinds(t *testing.T, s store.IStore) {
	defer s.Close()

	values := map[string]store.Value{
		"string":       store.StringValue("hello, 世界"),
		"empty-string": store.StringValue(""),
		"int":          store.IntValue(-42),
		"float":        store.FloatValue(3.25),
		"bool":         store.BoolValue(false),
		"binary":       store.BinaryValue([]byte{0x00, 0xff, 0x10}),
		"empty-binary": store.BinaryValue(nil),
	}

	for key, value := range values {
		mustSet(t, s, "kinds", key, value)
	}

	for key, value := range values {
		got, loaded, err := s.Get("kinds", key)
		if err != nil || !loaded {
			t.Errorf("Get(%s) failed (loaded=%t, err=%v)", key, loaded, err)
			continue
		}
		if !got.Equal(value) {
			t.Errorf("Key %s: expected %v (%s), got %v (%s)", key, value, value.Kind(), got, got.Kind())
		}
	}
}

func testTableSeparator(t *testing.T, s store.IStore) {
	defer s.Close()

	_, _, err := s.Set("bad:table", "k", store.IntValue(1))
	if e := store.AsError(err); e == nil || e.Code != store.RetCInvalidCommand {
		t.Errorf("Expected InvalidCommand for table with separator, got %v", err)
	}

	if _, err := s.GetAll("bad:table"); store.AsError(err) == nil {
		t.Errorf("Expected GetAll to reject table with separator")
	}

	// keys may contain the separator
	mustSet(t, s, "t", "a:b", store.IntValue(1))
	if ok, _ := s.Contains("t", "a:b"); !ok {
		t.Errorf("Expected key with separator to be stored")
	}
	pairs, _ := s.GetAll("t")
	if len(pairs) != 1 || pairs[0].Key != "a:b" {
		t.Errorf("Expected key a:b in GetAll, got %v", pairs)
	}
}

func testNoneValue(t *testing.T, s store.IStore) {
	defer s.Close()

	_, loaded, err := s.Set("t", "empty", store.Value{})
	if e := store.AsError(err); e == nil || e.Code != store.RetCInvalidCommand {
		t.Errorf("Expected InvalidCommand when storing none, got %v", err)
	}
	if loaded {
		t.Errorf("Expected loaded=false for rejected Set")
	}
	if ok, err := s.Contains("t", "empty"); err != nil || ok {
		t.Errorf("Expected rejected key to be absent (ok=%t, err=%v)", ok, err)
	}

	// an existing value is left untouched
	mustSet(t, s, "t", "k", store.IntValue(3))
	if _, _, err := s.Set("t", "k", store.Value{}); store.AsError(err) == nil {
		t.Errorf("Expected error when overwriting with none")
	}
	got, ok, err := s.Get("t", "k")
	if err != nil || !ok || !got.Equal(store.IntValue(3)) {
		t.Errorf("Expected k to keep 3, got %v (loaded=%t, err=%v)", got, ok, err)
	}

	pairs, err := s.GetAll("t")
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	for _, pair := range pairs {
		if pair.Value.IsNone() {
			t.Errorf("GetAll returned none value for key %s", pair.Key)
		}
	}
}

func testConcurrentWriters(t *testing.T, s store.IStore) {
	defer s.Close()

	const writers = 8
	const rounds = 200

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			value := store.StringValue(fmt.Sprintf("writer-%d", w))
			for i := 0; i < rounds; i++ {
				prev, loaded, err := s.Set("t", "hot", value)
				if err != nil {
					t.Errorf("concurrent Set failed: %v", err)
					return
				}
				if loaded {
					if str, err := prev.AsString(); err != nil || len(str) < len("writer-") {
						t.Errorf("torn previous value %v", prev)
						return
					}
				}
				_, _, _ = s.Set("t", fmt.Sprintf("w%d-%d", w, i), store.IntValue(int64(i)))
			}
		}(w)
	}
	wg.Wait()

	pairs, err := s.GetAll("t")
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(pairs) != writers*rounds+1 {
		t.Errorf("Expected %d pairs, got %d", writers*rounds+1, len(pairs))
	}
}

func testSortedOrder(t *testing.T, s store.IStore) {
	defer s.Close()

	keys := []string{"pear", "apple", "fig", "banana", "cherry", "apple2"}
	for _, key := range keys {
		mustSet(t, s, "fruits", key, store.StringValue(key))
	}
	sort.Strings(keys)

	pairs, err := s.GetAll("fruits")
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(pairs) != len(keys) {
		t.Fatalf("Expected %d pairs, got %d", len(keys), len(pairs))
	}
	for i, pair := range pairs {
		if pair.Key != keys[i] {
			t.Errorf("Position %d: expected %s, got %s", i, keys[i], pair.Key)
		}
	}

	i := 0
	for pair, err := range s.GetIter("fruits") {
		if err != nil {
			t.Fatalf("GetIter failed: %v", err)
		}
		if pair.Key != keys[i] {
			t.Errorf("Iter position %d: expected %s, got %s", i, keys[i], pair.Key)
		}
		i++
	}
}
