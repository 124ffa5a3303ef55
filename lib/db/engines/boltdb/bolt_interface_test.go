package boltdb

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/hKV/lib/db"
	dbtesting "github.com/ValentinKolb/hKV/lib/db/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFactory returns a factory that opens a fresh database file per call
func newFactory(tb testing.TB, opts *DBOptions) dbtesting.DBFactory {
	dir := tb.TempDir()
	var counter atomic.Int32
	return func() db.KVDB {
		path := filepath.Join(dir, fmt.Sprintf("bolt-%d.db", counter.Add(1)))
		database, err := NewBoltDB(path, opts)
		require.NoError(tb, err)
		return database
	}
}

func Test(t *testing.T) {
	dbtesting.RunKVDBTests(t, "BoltDB", newFactory(t, &DBOptions{NoSync: true}))
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")

	database, err := NewBoltDB(path, nil)
	require.NoError(t, err)
	require.NoError(t, database.Set([]byte("users:alice"), []byte("1")))
	require.NoError(t, database.Set([]byte("users:bob"), []byte("2")))
	require.NoError(t, database.Close())

	database, err = NewBoltDB(path, nil)
	require.NoError(t, err)
	defer database.Close()

	value, loaded, err := database.Get([]byte("users:bob"))
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, []byte("2"), value)

	info := database.GetInfo()
	assert.Equal(t, db.ImplBolt, info.DbType)
	assert.Equal(t, int64(2), info.Keys)
}

func Benchmark(b *testing.B) {
	dbtesting.RunKVDBBenchmarks(b, "BoltDB", newFactory(b, &DBOptions{NoSync: true}))
}
