package testing

import (
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/hKV/lib/db"
)

// RunKVDBBenchmarks runs all benchmarks for a key-value database implementations
func RunKVDBBenchmarks(b *testing.B, name string, factory DBFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("Set", func(b *testing.B) {
			benchmarkSet(b, factory())
		})

		b.Run("SetExisting", func(b *testing.B) {
			benchmarkSetExisting(b, factory())
		})

		b.Run("Get", func(b *testing.B) {
			benchmarkGet(b, factory())
		})

		b.Run("Has(not)", func(b *testing.B) {
			benchmarkHasNot(b, factory())
		})

		b.Run("ScanPrefix", func(b *testing.B) {
			benchmarkScanPrefix(b, factory())
		})

		b.Run("MixedUsage", func(b *testing.B) {
			benchmarkMixedUsage(b, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// Benchmark for Set operation with unique keys
func benchmarkSet(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	var counter atomic.Int64
	value := []byte("benchmark-value")

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			key := []byte(fmt.Sprintf("bench:key-%d", counter.Add(1)))
			_ = database.Set(key, value)
		}
	})
}

// Benchmark for overwriting a small set of hot keys
func benchmarkSetExisting(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	keys := prefill(b, database, 100)
	value := []byte("updated-value")

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_ = database.Set(keys[i%len(keys)], value)
			i++
		}
	})
}

// Benchmark for Get on existing keys
func benchmarkGet(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	keys := prefill(b, database, 1000)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(rand.Int63()))
		for pb.Next() {
			_, _, _ = database.Get(keys[r.Intn(len(keys))])
		}
	})
}

// Benchmark for Has on keys that were never written
func benchmarkHasNot(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	prefill(b, database, 1000)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_, _ = database.Has([]byte(fmt.Sprintf("missing:key-%d", i)))
			i++
		}
	})
}

// Benchmark for scanning a prefix with 100 entries
func benchmarkScanPrefix(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	prefill(b, database, 100)
	prefix := []byte("bench:")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		it := database.ScanPrefix(prefix)
		for it.Next() {
		}
		_ = it.Close()
	}
}

// Benchmark for a realistic read-heavy workload (80% reads, 15% writes, 5% deletes)
func benchmarkMixedUsage(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	keys := prefill(b, database, 1000)
	value := []byte("mixed-value")

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(rand.Int63()))
		for pb.Next() {
			key := keys[r.Intn(len(keys))]
			switch op := r.Intn(100); {
			case op < 80:
				_, _, _ = database.Get(key)
			case op < 95:
				_ = database.Set(key, value)
			default:
				_ = database.Delete(key)
			}
		}
	})
}

// prefill writes n keys below the "bench:" prefix and returns them
func prefill(b *testing.B, database db.KVDB, n int) [][]byte {
	b.Helper()
	keys := make([][]byte, n)
	for i := 0; i < n; i++ {
		keys[i] = []byte(fmt.Sprintf("bench:key-%06d", i))
		if err := database.Set(keys[i], []byte("prefill")); err != nil {
			b.Fatalf("prefill failed: %v", err)
		}
	}
	return keys
}
