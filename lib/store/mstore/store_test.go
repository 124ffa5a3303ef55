package mstore

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ValentinKolb/hKV/lib/store"
	"github.com/ValentinKolb/hKV/lib/store/lstore"
	storetesting "github.com/ValentinKolb/hKV/lib/store/testing"
	"github.com/VictoriaMetrics/metrics"
)

func Test(t *testing.T) {
	storetesting.RunStoreTests(t, "MeteredStore", func() store.IStore {
		return NewMeteredStoreWithSet(lstore.NewLocalStore(), "test", metrics.NewSet())
	}, storetesting.Options{})
}

func TestMetricsRecorded(t *testing.T) {
	set := metrics.NewSet()
	s := NewMeteredStoreWithSet(lstore.NewLocalStore(), "7", set)
	defer s.Close()

	_, _, _ = s.Set("users", "alice", store.IntValue(1))
	_, _, _ = s.Get("users", "alice")
	_, _, _ = s.Get("users", "bob")
	_, _, _ = s.Set("bad:table", "k", store.IntValue(1))

	var buf bytes.Buffer
	set.WritePrometheus(&buf)
	out := buf.String()

	for _, want := range []string{
		`hkv_store_operations_total{shard="7",op="get"} 2`,
		`hkv_store_operations_total{shard="7",op="set"} 2`,
		`hkv_store_errors_total{shard="7",op="set"} 1`,
		`hkv_store_errors_total{shard="7",op="get"} 0`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected metrics output to contain %q\n%s", want, out)
		}
	}
}
