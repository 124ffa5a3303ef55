package testing

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/ValentinKolb/hKV/lib/db"
)

// DBFactory is a function that creates a new instance of a KVDB implementation
type DBFactory func() db.KVDB

// RunKVDBTests runs a comprehensive test suite for a KVDB implementation.
func RunKVDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory())
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory())
		})

		t.Run("Has", func(t *testing.T) {
			testHas(t, factory())
		})

		t.Run("ScanPrefix", func(t *testing.T) {
			testScanPrefix(t, factory())
		})

		t.Run("ScanPrefixCopies", func(t *testing.T) {
			testScanPrefixCopies(t, factory())
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory())
		})

		t.Run("Concurrent", func(t *testing.T) {
			testConcurrent(t, factory())
		})

		t.Run("Info", func(t *testing.T) {
			testInfo(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// mustSet fails the test immediately if the engine rejects the write
func mustSet(t testing.TB, database db.KVDB, key, value []byte) {
	t.Helper()
	if err := database.Set(key, value); err != nil {
		t.Fatalf("Set(%q) failed: %v", key, err)
	}
}

// collect drains an iterator into a slice of entries
func collect(t testing.TB, it db.Iterator) []db.Entry {
	t.Helper()
	defer it.Close()

	var entries []db.Entry
	for it.Next() {
		entries = append(entries, db.Entry{Key: it.Key(), Value: it.Value()})
	}
	if err := it.Err(); err != nil {
		t.Fatalf("iterator failed: %v", err)
	}
	return entries
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, database db.KVDB) {
	defer database.Close()

	testKey := []byte("test-key")
	testValue1 := []byte("test-value1")
	testValue2 := []byte("test-value2")

	mustSet(t, database, testKey, testValue1)

	result, exists, err := database.Get(testKey)
	if err != nil || !exists {
		t.Errorf("Expected key %s to exist after Set (err=%v)", testKey, err)
	}
	if !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s, got %s", testValue1, result)
	}

	mustSet(t, database, testKey, testValue2)

	result, exists, _ = database.Get(testKey)
	if !exists {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}
	if !bytes.Equal(result, testValue2) {
		t.Errorf("Expected value %s, got %s", testValue2, result)
	}

	_, exists, err = database.Get([]byte("nonexistent-key"))
	if err != nil || exists {
		t.Errorf("Expected nonexistent key to return exists=false (err=%v)", err)
	}

	// Get must hand out a copy
	retrievedValue, _, _ := database.Get(testKey)
	retrievedValue[0] = 'X'

	originalValue, _, _ := database.Get(testKey)
	if bytes.Equal(retrievedValue, originalValue) {
		t.Errorf("Get should return a copy, not a reference to the stored value")
	}

	// Set must not keep a reference to the caller's slice
	input := []byte("mutable")
	mustSet(t, database, []byte("copy-key"), input)
	input[0] = 'X'
	stored, _, _ := database.Get([]byte("copy-key"))
	if !bytes.Equal(stored, []byte("mutable")) {
		t.Errorf("Set should copy the value, got %s", stored)
	}
}

func testDelete(t *testing.T, database db.KVDB) {
	defer database.Close()

	testKey := []byte("delete-test-key")
	testValue := []byte("delete-test-value")

	mustSet(t, database, testKey, testValue)

	_, exists, _ := database.Get(testKey)
	if !exists {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}

	if err := database.Delete(testKey); err != nil {
		t.Errorf("Delete failed: %v", err)
	}

	_, exists, _ = database.Get(testKey)
	if exists {
		t.Errorf("Expected key %s to not exist after Delete", testKey)
	}

	if has, _ := database.Has(testKey); has {
		t.Errorf("Expected key %s to not exist after Delete", testKey)
	}

	if err := database.Delete([]byte("nonexistent-key")); err != nil {
		t.Errorf("Deleting a nonexistent key should not fail: %v", err)
	}
}

func testHas(t *testing.T, database db.KVDB) {
	defer database.Close()

	testKey := []byte("has-exists-test-key")

	if has, err := database.Has(testKey); err != nil || has {
		t.Errorf("Expected Has to return false for nonexistent key (err=%v)", err)
	}

	mustSet(t, database, testKey, []byte("has-exists-test-value"))

	if has, _ := database.Has(testKey); !has {
		t.Errorf("Expected Has to return true after Set")
	}

	// A key that is only a prefix of a stored key must not be reported
	if has, _ := database.Has([]byte("has-exists")); has {
		t.Errorf("Expected Has to return false for a prefix of an existing key")
	}
}

func testScanPrefix(t *testing.T, database db.KVDB) {
	defer database.Close()

	mustSet(t, database, []byte("users:carol"), []byte("3"))
	mustSet(t, database, []byte("users:alice"), []byte("1"))
	mustSet(t, database, []byte("users:bob"), []byte("2"))
	mustSet(t, database, []byte("usersx:dave"), []byte("4"))
	mustSet(t, database, []byte("orders:1"), []byte("5"))

	entries := collect(t, database.ScanPrefix([]byte("users:")))
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries for prefix users:, got %d", len(entries))
	}

	expected := []string{"users:alice", "users:bob", "users:carol"}
	for i, e := range entries {
		if string(e.Key) != expected[i] {
			t.Errorf("Entry %d: expected key %s, got %s", i, expected[i], e.Key)
		}
	}
	if string(entries[0].Value) != "1" {
		t.Errorf("Expected value 1 for users:alice, got %s", entries[0].Value)
	}

	if entries := collect(t, database.ScanPrefix([]byte("missing:"))); len(entries) != 0 {
		t.Errorf("Expected no entries for unknown prefix, got %d", len(entries))
	}

	// An empty prefix walks the whole keyspace
	if entries := collect(t, database.ScanPrefix(nil)); len(entries) != 5 {
		t.Errorf("Expected 5 entries for empty prefix, got %d", len(entries))
	}
}

func testScanPrefixCopies(t *testing.T, database db.KVDB) {
	defer database.Close()

	mustSet(t, database, []byte("p:a"), []byte("value-a"))
	mustSet(t, database, []byte("p:b"), []byte("value-b"))

	entries := collect(t, database.ScanPrefix([]byte("p:")))
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}

	entries[0].Value[0] = 'X'
	entries[0].Key[0] = 'X'

	value, exists, _ := database.Get([]byte("p:a"))
	if !exists || !bytes.Equal(value, []byte("value-a")) {
		t.Errorf("Scanned entries should be copies, stored value is now %s", value)
	}
}

func testEdgeCases(t *testing.T, database db.KVDB) {
	defer database.Close()

	// Empty value
	mustSet(t, database, []byte("empty-value"), []byte{})
	value, exists, _ := database.Get([]byte("empty-value"))
	if !exists {
		t.Errorf("Expected key with empty value to exist")
	}
	if len(value) != 0 {
		t.Errorf("Expected empty value, got %v", value)
	}

	// Binary keys including the 0xff byte
	binKey := []byte{0x00, 0x01, 0xff, 0xfe}
	mustSet(t, database, binKey, []byte("binary"))
	if value, exists, _ := database.Get(binKey); !exists || string(value) != "binary" {
		t.Errorf("Expected binary key to be stored, got %s (exists=%t)", value, exists)
	}
	if entries := collect(t, database.ScanPrefix([]byte{0x00, 0x01, 0xff})); len(entries) != 1 {
		t.Errorf("Expected 1 entry for binary prefix, got %d", len(entries))
	}

	// Large value
	large := bytes.Repeat([]byte("x"), 1<<20)
	mustSet(t, database, []byte("large"), large)
	if value, _, _ := database.Get([]byte("large")); !bytes.Equal(value, large) {
		t.Errorf("Large value was not stored correctly (len=%d)", len(value))
	}
}

func testConcurrent(t *testing.T, database db.KVDB) {
	defer database.Close()

	const workers = 8
	const perWorker = 200

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				key := []byte(fmt.Sprintf("w%d:key-%04d", w, i))
				if err := database.Set(key, []byte(fmt.Sprintf("%d", i))); err != nil {
					t.Errorf("concurrent Set failed: %v", err)
					return
				}
				if _, exists, err := database.Get(key); err != nil || !exists {
					t.Errorf("concurrent Get of %s failed (exists=%t, err=%v)", key, exists, err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	for w := 0; w < workers; w++ {
		entries := collect(t, database.ScanPrefix([]byte(fmt.Sprintf("w%d:", w))))
		if len(entries) != perWorker {
			t.Errorf("Worker %d: expected %d entries, got %d", w, perWorker, len(entries))
		}
	}
}

func testInfo(t *testing.T, database db.KVDB) {
	defer database.Close()

	mustSet(t, database, []byte("info-key"), []byte("info-value"))

	info := database.GetInfo()
	if info.DbType == "" {
		t.Errorf("Expected a database type in GetInfo")
	}
	if info.Keys == 0 {
		t.Errorf("Expected a non zero key count (or -1 if unknown), got 0")
	}
}
