package server_test

import (
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/ValentinKolb/hKV/lib/store"
	storetesting "github.com/ValentinKolb/hKV/lib/store/testing"
	"github.com/ValentinKolb/hKV/rpc/client"
	"github.com/ValentinKolb/hKV/rpc/common"
	"github.com/ValentinKolb/hKV/rpc/serializer"
	"github.com/ValentinKolb/hKV/rpc/server"
	"github.com/ValentinKolb/hKV/rpc/transport/tcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConfig(t *testing.T, shards ...common.ServerShard) common.ServerConfig {
	return common.ServerConfig{
		Shards:        shards,
		DataDir:       t.TempDir(),
		NoSync:        true,
		TimeoutSecond: 5,
		Transport: common.ServerTransportConfig{
			Endpoint:     "127.0.0.1:0",
			TCPNoDelay:   true,
			TCPLingerSec: -1,
		},
	}
}

func decode(t *testing.T, s serializer.IRPCSerializer, data []byte) *common.CommandResponse {
	t.Helper()
	resp := &common.CommandResponse{}
	require.NoError(t, s.Deserialize(data, resp))
	return resp
}

func encode(t *testing.T, s serializer.IRPCSerializer, req *common.CommandRequest) []byte {
	t.Helper()
	data, err := s.Serialize(req)
	require.NoError(t, err)
	return data
}

func TestHandle(t *testing.T) {
	ser := serializer.NewBinarySerializer()
	srv := server.NewRPCServer(newConfig(t,
		common.ServerShard{ShardID: 100, Type: common.ShardTypeMemory},
		common.ServerShard{ShardID: 200, Type: common.ShardTypeBTree},
	), nil, ser)
	require.NoError(t, srv.Init())
	defer srv.Close()

	t.Run("SetThenGet", func(t *testing.T) {
		resp := decode(t, ser, srv.Handle(100, encode(t, ser, common.NewHsetRequest("users", "alice", store.IntValue(30)))))
		assert.Equal(t, uint32(http.StatusOK), resp.Status)

		resp = decode(t, ser, srv.Handle(100, encode(t, ser, common.NewHgetRequest("users", "alice"))))
		require.Equal(t, uint32(http.StatusOK), resp.Status)
		require.Len(t, resp.Values, 1)
		assert.True(t, resp.Values[0].Equal(store.IntValue(30)))
	})

	t.Run("ShardsAreIsolated", func(t *testing.T) {
		resp := decode(t, ser, srv.Handle(200, encode(t, ser, common.NewHgetRequest("users", "alice"))))
		assert.Equal(t, uint32(http.StatusNotFound), resp.Status)
	})

	t.Run("UnknownShard", func(t *testing.T) {
		resp := decode(t, ser, srv.Handle(300, encode(t, ser, common.NewHgetRequest("users", "alice"))))
		assert.Equal(t, uint32(http.StatusBadRequest), resp.Status)
		assert.Contains(t, resp.Message, "shard 300 not found")
	})

	t.Run("UndecodableRequest", func(t *testing.T) {
		resp := decode(t, ser, srv.Handle(100, []byte{0xff, 0xff, 0xff}))
		assert.Equal(t, uint32(http.StatusBadRequest), resp.Status)
		assert.Contains(t, resp.Message, "failed to deserialize request")
	})
}

func TestInitErrors(t *testing.T) {
	ser := serializer.NewJSONSerializer()

	t.Run("NoShards", func(t *testing.T) {
		assert.Error(t, server.NewRPCServer(newConfig(t), nil, ser).Init())
	})

	t.Run("DuplicateShard", func(t *testing.T) {
		srv := server.NewRPCServer(newConfig(t,
			common.ServerShard{ShardID: 1, Type: common.ShardTypeMemory},
			common.ServerShard{ShardID: 1, Type: common.ShardTypeBTree},
		), nil, ser)
		assert.Error(t, srv.Init())
	})

	t.Run("InvalidType", func(t *testing.T) {
		srv := server.NewRPCServer(newConfig(t, common.ServerShard{ShardID: 1, Type: "nope"}), nil, ser)
		assert.Error(t, srv.Init())
	})

	t.Run("DataDirLocked", func(t *testing.T) {
		config := newConfig(t, common.ServerShard{ShardID: 1, Type: common.ShardTypeBolt})

		first := server.NewRPCServer(config, nil, ser)
		require.NoError(t, first.Init())

		second := server.NewRPCServer(config, nil, ser)
		assert.Error(t, second.Init())

		// the lock is released on close
		require.NoError(t, first.Close())
		require.NoError(t, second.Init())
		require.NoError(t, second.Close())
	})
}

func TestPersistentShardSurvivesRestart(t *testing.T) {
	ser := serializer.NewMsgpackSerializer()

	for _, shardType := range []common.ServerShardType{common.ShardTypePebble, common.ShardTypeBolt} {
		t.Run(string(shardType), func(t *testing.T) {
			config := newConfig(t, common.ServerShard{ShardID: 7, Type: shardType})

			srv := server.NewRPCServer(config, nil, ser)
			require.NoError(t, srv.Init())
			resp := decode(t, ser, srv.Handle(7, encode(t, ser, common.NewHsetRequest("t", "k", store.StringValue("v")))))
			require.Equal(t, uint32(http.StatusOK), resp.Status)
			require.NoError(t, srv.Close())

			srv = server.NewRPCServer(config, nil, ser)
			require.NoError(t, srv.Init())
			defer srv.Close()
			resp = decode(t, ser, srv.Handle(7, encode(t, ser, common.NewHgetRequest("t", "k"))))
			require.Equal(t, uint32(http.StatusOK), resp.Status)
			assert.True(t, resp.Values[0].Equal(store.StringValue("v")))
		})
	}
}

// startTCPServer starts a server with a single shard and returns its address
func startTCPServer(t *testing.T, shardType common.ServerShardType, ser serializer.IRPCSerializer) string {
	t.Helper()

	trans := tcp.NewTCPDefaultServerTransport()
	srv := server.NewRPCServer(newConfig(t, common.ServerShard{ShardID: 1, Type: shardType}), trans, ser)

	done := make(chan error, 1)
	go func() { done <- srv.Serve() }()
	t.Cleanup(func() {
		assert.NoError(t, srv.Close())
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})

	a := trans.(interface{ Addr() net.Addr })
	require.Eventually(t, func() bool { return a.Addr() != nil }, 5*time.Second, 10*time.Millisecond)
	return a.Addr().String()
}

func newClient(t *testing.T, addr string, ser serializer.IRPCSerializer) *client.RPCStore {
	t.Helper()
	s, err := client.NewRPCStore(1, common.ClientConfig{
		TimeoutSecond: 5,
		Transport: common.ClientTransportConfig{
			Endpoints:              []string{addr},
			RetryCount:             1,
			ConnectionsPerEndpoint: 2,
		},
	}, tcp.NewTCPClientTransport(), ser)
	require.NoError(t, err)
	return s
}

func TestRemoteStore(t *testing.T) {
	for _, shardType := range []common.ServerShardType{common.ShardTypeMemory, common.ShardTypeBTree} {
		storetesting.RunStoreTests(t, string(shardType), func() store.IStore {
			ser := serializer.NewBinarySerializer()
			return newClient(t, startTCPServer(t, shardType, ser), ser)
		}, storetesting.Options{Sorted: shardType == common.ShardTypeBTree})
	}
}

func TestEndToEndTCP(t *testing.T) {
	ser := serializer.NewProtoSerializer()
	c := newClient(t, startTCPServer(t, common.ShardTypeMemory, ser), ser)
	defer c.Close()

	// get miss is not an error
	_, ok, err := c.Get("users", "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	prev, loaded, err := c.Set("users", "alice", store.BinaryValue([]byte{0, 1, 2}))
	require.NoError(t, err)
	assert.False(t, loaded)
	assert.True(t, prev.IsNone())

	val, ok, err := c.Get("users", "alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, val.Equal(store.BinaryValue([]byte{0, 1, 2})))

	// raw commands keep the status
	resp, err := c.Execute(common.NewHgetRequest("users", "bob"))
	require.NoError(t, err)
	assert.Equal(t, uint32(http.StatusNotFound), resp.Status)
	assert.Equal(t, "Not found for table:users, key:bob", resp.Message)

	// errors keep their class
	_, err = c.GetAll("bad:table")
	var respErr *client.ResponseError
	require.ErrorAs(t, err, &respErr)
	assert.Equal(t, uint32(http.StatusBadRequest), respErr.Status)
	assert.ErrorIs(t, err, store.ErrInvalidCommand)
}

func TestMeteredShard(t *testing.T) {
	ser := serializer.NewGOBSerializer()
	config := newConfig(t, common.ServerShard{ShardID: 5, Type: common.ShardTypeMemory})
	config.Metrics = true

	srv := server.NewRPCServer(config, nil, ser)
	require.NoError(t, srv.Init())
	defer srv.Close()

	resp := decode(t, ser, srv.Handle(5, encode(t, ser, common.NewHexistRequest("t", "k"))))
	require.Equal(t, uint32(http.StatusOK), resp.Status)
	assert.True(t, resp.Values[0].Equal(store.BoolValue(false)))
}
