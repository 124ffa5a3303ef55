package server

import (
	"errors"
	"net/http"
	"sort"
	"testing"

	"github.com/ValentinKolb/hKV/lib/store"
	"github.com/ValentinKolb/hKV/lib/store/lstore"
	"github.com/ValentinKolb/hKV/rpc/common"
)

// brokenStore fails or panics on every operation it overrides
type brokenStore struct {
	store.IStore
	err   error
	panic bool
}

func (b *brokenStore) fail() error {
	if b.panic {
		panic("backend exploded")
	}
	return b.err
}

func (b *brokenStore) Get(string, string) (store.Value, bool, error) {
	return store.Value{}, false, b.fail()
}

func (b *brokenStore) Set(string, string, store.Value) (store.Value, bool, error) {
	return store.Value{}, false, b.fail()
}

func (b *brokenStore) Contains(string, string) (bool, error) {
	return false, b.fail()
}

func (b *brokenStore) Del(string, string) (store.Value, bool, error) {
	return store.Value{}, false, b.fail()
}

func (b *brokenStore) GetAll(string) ([]store.Kvpair, error) {
	return nil, b.fail()
}

func expectStatus(t *testing.T, resp *common.CommandResponse, status uint32) {
	t.Helper()
	if resp == nil {
		t.Fatalf("Expected a response, got nil")
	}
	if resp.Status != status {
		t.Fatalf("Expected status %d, got %d (%s)", status, resp.Status, resp.Message)
	}
}

func expectValue(t *testing.T, resp *common.CommandResponse, want store.Value) {
	t.Helper()
	expectStatus(t, resp, http.StatusOK)
	if len(resp.Values) != 1 {
		t.Fatalf("Expected exactly one value, got %v", resp.Values)
	}
	if !resp.Values[0].Equal(want) {
		t.Errorf("Expected value %v, got %v", want, resp.Values[0])
	}
}

func TestDispatchGetMiss(t *testing.T) {
	s := lstore.NewLocalStore()
	defer s.Close()

	resp := Dispatch(common.NewHgetRequest("users", "nobody"), s)
	expectStatus(t, resp, http.StatusNotFound)
	if resp.Message != "Not found for table:users, key:nobody" {
		t.Errorf("Unexpected message: %q", resp.Message)
	}
}

func TestDispatchSetThenGet(t *testing.T) {
	s := lstore.NewLocalStore()
	defer s.Close()

	// first set returns none
	expectValue(t, Dispatch(common.NewHsetRequest("users", "alice", store.IntValue(30)), s), store.Value{})

	expectValue(t, Dispatch(common.NewHgetRequest("users", "alice"), s), store.IntValue(30))

	// overwrite returns the previous value
	expectValue(t, Dispatch(common.NewHsetRequest("users", "alice", store.StringValue("thirty")), s), store.IntValue(30))
	expectValue(t, Dispatch(common.NewHgetRequest("users", "alice"), s), store.StringValue("thirty"))
}

func TestDispatchHexist(t *testing.T) {
	s := lstore.NewLocalStore()
	defer s.Close()

	expectValue(t, Dispatch(common.NewHexistRequest("users", "alice"), s), store.BoolValue(false))
	Dispatch(common.NewHsetRequest("users", "alice", store.BoolValue(true)), s)
	expectValue(t, Dispatch(common.NewHexistRequest("users", "alice"), s), store.BoolValue(true))
}

func TestDispatchHdel(t *testing.T) {
	s := lstore.NewLocalStore()
	defer s.Close()

	Dispatch(common.NewHsetRequest("users", "alice", store.FloatValue(1.5)), s)
	expectValue(t, Dispatch(common.NewHdelRequest("users", "alice"), s), store.FloatValue(1.5))

	// second delete succeeds and returns none
	expectValue(t, Dispatch(common.NewHdelRequest("users", "alice"), s), store.Value{})
	expectStatus(t, Dispatch(common.NewHgetRequest("users", "alice"), s), http.StatusNotFound)
}

func TestDispatchHgetall(t *testing.T) {
	s := lstore.NewLocalStore()
	defer s.Close()

	// unknown table is an empty result
	resp := Dispatch(common.NewHgetallRequest("users"), s)
	expectStatus(t, resp, http.StatusOK)
	if resp.Pairs == nil || len(resp.Pairs) != 0 {
		t.Errorf("Expected empty pairs, got %v", resp.Pairs)
	}

	Dispatch(common.NewHsetRequest("users", "bob", store.IntValue(2)), s)
	Dispatch(common.NewHsetRequest("users", "alice", store.IntValue(1)), s)
	Dispatch(common.NewHsetRequest("other", "carol", store.IntValue(3)), s)

	resp = Dispatch(common.NewHgetallRequest("users"), s)
	expectStatus(t, resp, http.StatusOK)

	pairs := resp.Pairs
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })
	if len(pairs) != 2 || pairs[0].Key != "alice" || pairs[1].Key != "bob" {
		t.Fatalf("Unexpected pairs: %v", pairs)
	}
	if !pairs[0].Value.Equal(store.IntValue(1)) || !pairs[1].Value.Equal(store.IntValue(2)) {
		t.Errorf("Unexpected values: %v", pairs)
	}
}

func TestDispatchInvalidRequests(t *testing.T) {
	s := lstore.NewLocalStore()
	defer s.Close()

	tests := []struct {
		name   string
		req    *common.CommandRequest
		status uint32
	}{
		{"nil request", nil, http.StatusBadRequest},
		{"unset type", &common.CommandRequest{Table: "t", Key: "k"}, http.StatusBadRequest},
		{"unknown type", &common.CommandRequest{MsgType: 99, Table: "t"}, http.StatusBadRequest},
		{"hset without pair", &common.CommandRequest{MsgType: common.MsgTHset, Table: "t"}, http.StatusBadRequest},
		{"hset with none", &common.CommandRequest{MsgType: common.MsgTHset, Table: "t", Pair: &store.Kvpair{Key: "k"}}, http.StatusBadRequest},
		{"table with separator", common.NewHgetRequest("a:b", "k"), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := Dispatch(tt.req, s)
			expectStatus(t, resp, tt.status)
			if resp.Message == "" {
				t.Errorf("Expected an error message")
			}
		})
	}
}

func TestDispatchNilStore(t *testing.T) {
	expectStatus(t, Dispatch(common.NewHgetRequest("t", "k"), nil), http.StatusInternalServerError)
}

func TestDispatchStorageErrors(t *testing.T) {
	s := &brokenStore{err: store.NewStorageError("get", "t", "k", errors.New("disk on fire"))}

	requests := []*common.CommandRequest{
		common.NewHgetRequest("t", "k"),
		common.NewHsetRequest("t", "k", store.IntValue(1)),
		common.NewHdelRequest("t", "k"),
		common.NewHgetallRequest("t"),
	}
	for _, req := range requests {
		t.Run(req.MsgType.String(), func(t *testing.T) {
			resp := Dispatch(req, s)
			expectStatus(t, resp, http.StatusInternalServerError)
			if resp.Message != "Cannot process command get with table: t, key: k. Error: disk on fire" {
				t.Errorf("Unexpected message: %q", resp.Message)
			}
		})
	}

	// a failed existence check is reported as not found
	t.Run("hexist", func(t *testing.T) {
		expectStatus(t, Dispatch(common.NewHexistRequest("t", "k"), s), http.StatusNotFound)
	})

	t.Run("hexist invalid", func(t *testing.T) {
		invalid := &brokenStore{err: store.NewInvalidCommandError("bad table")}
		expectStatus(t, Dispatch(common.NewHexistRequest("t", "k"), invalid), http.StatusBadRequest)
	})
}

func TestDispatchRecoversPanics(t *testing.T) {
	s := &brokenStore{panic: true}

	for _, req := range []*common.CommandRequest{
		common.NewHgetRequest("t", "k"),
		common.NewHsetRequest("t", "k", store.IntValue(1)),
		common.NewHexistRequest("t", "k"),
		common.NewHdelRequest("t", "k"),
		common.NewHgetallRequest("t"),
	} {
		resp := Dispatch(req, s)
		expectStatus(t, resp, http.StatusInternalServerError)
		if resp.Message != "Internal error: backend exploded" {
			t.Errorf("Unexpected message: %q", resp.Message)
		}
	}
}

func TestAdapterUsesDispatch(t *testing.T) {
	s := lstore.NewLocalStore()
	defer s.Close()

	adapter := NewIStoreServerAdapter()
	expectValue(t, adapter.Handle(common.NewHsetRequest("t", "k", store.IntValue(1)), s), store.Value{})
	expectValue(t, adapter.Handle(common.NewHgetRequest("t", "k"), s), store.IntValue(1))
}

// staleStore reports a value together with loaded=false, like a map that returns the stored value for new keys
type staleStore struct {
	store.IStore
}

func (s staleStore) Set(_, _ string, value store.Value) (store.Value, bool, error) {
	return value, false, nil
}

func (s staleStore) Del(string, string) (store.Value, bool, error) {
	return store.StringValue("stale"), false, nil
}

func TestDispatchReportsOnlyLoadedPrevious(t *testing.T) {
	s := staleStore{IStore: lstore.NewLocalStore()}
	defer s.Close()

	expectValue(t, Dispatch(common.NewHsetRequest("t1", "hello", store.StringValue("world")), s), store.Value{})
	expectValue(t, Dispatch(common.NewHdelRequest("t1", "hello"), s), store.Value{})
}

func TestDispatchFirstSetOnLocalStore(t *testing.T) {
	s := lstore.NewLocalStore()
	defer s.Close()

	expectValue(t, Dispatch(common.NewHsetRequest("t1", "hello", store.StringValue("world")), s), store.Value{})
	expectValue(t, Dispatch(common.NewHgetRequest("t1", "hello"), s), store.StringValue("world"))
	expectValue(t, Dispatch(common.NewHsetRequest("t1", "hello", store.StringValue("again")), s), store.StringValue("world"))
}
