package btreedb

import (
	"testing"

	"github.com/ValentinKolb/hKV/lib/db"
	dbtesting "github.com/ValentinKolb/hKV/lib/db/testing"
	"github.com/stretchr/testify/assert"
)

func Test(t *testing.T) {
	dbtesting.RunKVDBTests(t, "BTreeDB", func() db.KVDB {
		return NewBTreeDB()
	})
}

func TestInfoTracksSize(t *testing.T) {
	database := NewBTreeDB()
	defer database.Close()

	assert.NoError(t, database.Set([]byte("ab"), []byte("cd")))
	assert.NoError(t, database.Set([]byte("ab"), []byte("cdef")))
	assert.Equal(t, int64(6), database.GetInfo().SizeBytes)
	assert.Equal(t, int64(1), database.GetInfo().Keys)

	assert.NoError(t, database.Delete([]byte("ab")))
	assert.Equal(t, int64(0), database.GetInfo().SizeBytes)
	assert.False(t, database.GetInfo().Durable)
}

func Benchmark(b *testing.B) {
	dbtesting.RunKVDBBenchmarks(b, "BTreeDB", func() db.KVDB {
		return NewBTreeDB()
	})
}
