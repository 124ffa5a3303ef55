package client

import (
	"errors"
	"iter"
	"net/http"

	"github.com/ValentinKolb/hKV/lib/store"
	"github.com/ValentinKolb/hKV/rpc/common"
	"github.com/ValentinKolb/hKV/rpc/serializer"
	"github.com/ValentinKolb/hKV/rpc/transport"
)

// NewRPCStore creates a new RPC store
// The function takes a shard ID, a config, a transport and a serializer as parameters.
// The transport is connected before the store is returned.
func NewRPCStore(
	shardId uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (*RPCStore, error) {
	if err := transport.Connect(config); err != nil {
		return nil, err
	}

	return &RPCStore{
		rpcClientAdapter{
			shardId:    shardId,
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}, nil
}

// RPCStore implements store.IStore by sending every call to a server shard
type RPCStore struct {
	rpcClientAdapter
}

var _ store.IStore = (*RPCStore)(nil)

// Execute sends a request and returns the response of the server.
// Unlike the store methods it does not interpret the status of the response.
func (i *RPCStore) Execute(req *common.CommandRequest) (*common.CommandResponse, error) {
	if req == nil {
		return nil, errors.New("request is nil")
	}
	return i.invokeRPCRequest(req)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the store package in interface.go)
// --------------------------------------------------------------------------

func (i *RPCStore) Get(table, key string) (value store.Value, loaded bool, err error) {
	req := common.NewHgetRequest(table, key)
	resp, err := i.invokeRPCRequest(req)
	if err != nil {
		return store.Value{}, false, err
	}
	if resp.Status == http.StatusNotFound {
		return store.Value{}, false, nil
	}
	if !resp.IsSuccess() {
		return store.Value{}, false, &ResponseError{Status: resp.Status, Message: resp.Message}
	}
	value, err = singleValue(req, resp)
	if err != nil {
		return store.Value{}, false, err
	}
	return value, true, nil
}

func (i *RPCStore) Set(table, key string, value store.Value) (prev store.Value, loaded bool, err error) {
	req := common.NewHsetRequest(table, key, value)
	resp, err := i.invokeChecked(req)
	if err != nil {
		return store.Value{}, false, err
	}
	prev, err = singleValue(req, resp)
	if err != nil {
		return store.Value{}, false, err
	}
	return prev, !prev.IsNone(), nil
}

func (i *RPCStore) Contains(table, key string) (loaded bool, err error) {
	req := common.NewHexistRequest(table, key)
	resp, err := i.invokeRPCRequest(req)
	if err != nil {
		return false, err
	}
	// A failed existence check is answered with not found
	if resp.Status == http.StatusNotFound {
		return false, nil
	}
	if !resp.IsSuccess() {
		return false, &ResponseError{Status: resp.Status, Message: resp.Message}
	}
	value, err := singleValue(req, resp)
	if err != nil {
		return false, err
	}
	return value.AsBool()
}

func (i *RPCStore) Del(table, key string) (prev store.Value, loaded bool, err error) {
	req := common.NewHdelRequest(table, key)
	resp, err := i.invokeChecked(req)
	if err != nil {
		return store.Value{}, false, err
	}
	prev, err = singleValue(req, resp)
	if err != nil {
		return store.Value{}, false, err
	}
	return prev, !prev.IsNone(), nil
}

func (i *RPCStore) GetAll(table string) (pairs []store.Kvpair, err error) {
	resp, err := i.invokeChecked(common.NewHgetallRequest(table))
	if err != nil {
		return nil, err
	}
	if resp.Pairs == nil {
		return []store.Kvpair{}, nil
	}
	return resp.Pairs, nil
}

// GetIter fetches the whole table with one Hgetall request and yields its pairs
func (i *RPCStore) GetIter(table string) iter.Seq2[store.Kvpair, error] {
	return func(yield func(store.Kvpair, error) bool) {
		pairs, err := i.GetAll(table)
		if err != nil {
			yield(store.Kvpair{}, err)
			return
		}
		for _, p := range pairs {
			if !yield(p, nil) {
				return
			}
		}
	}
}

func (i *RPCStore) Close() error {
	return i.transport.Close()
}
