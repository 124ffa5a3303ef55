package lstore

import (
	"testing"

	"github.com/ValentinKolb/hKV/lib/store"
	storetesting "github.com/ValentinKolb/hKV/lib/store/testing"
)

func Test(t *testing.T) {
	storetesting.RunStoreTests(t, "LocalStore", func() store.IStore {
		return NewLocalStore()
	}, storetesting.Options{})
}

func TestReadDoesNotCreateTable(t *testing.T) {
	s := NewLocalStore().(*storeImpl)
	defer s.Close()

	_, _, _ = s.Get("ghost", "k")
	_, _ = s.Contains("ghost", "k")
	_, _, _ = s.Del("ghost", "k")
	_, _ = s.GetAll("ghost")

	if _, ok := s.tables.Load("ghost"); ok {
		t.Errorf("Reading an unknown table must not create it")
	}
}

func TestFirstSetReportsNoPrevious(t *testing.T) {
	s := NewLocalStore()
	defer s.Close()

	prev, loaded, err := s.Set("t", "k", store.StringValue("world"))
	if err != nil || loaded || !prev.IsNone() {
		t.Fatalf("Expected (none, false) on first Set, got (%v, %t, %v)", prev, loaded, err)
	}

	prev, loaded, err = s.Set("t", "k", store.StringValue("again"))
	if err != nil || !loaded || !prev.Equal(store.StringValue("world")) {
		t.Fatalf("Expected (world, true) on second Set, got (%v, %t, %v)", prev, loaded, err)
	}

	prev, loaded, err = s.Del("t", "missing")
	if err != nil || loaded || !prev.IsNone() {
		t.Fatalf("Expected (none, false) deleting a missing key, got (%v, %t, %v)", prev, loaded, err)
	}
}
