package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/hKV/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestStatusForCode(t *testing.T) {
	tests := []struct {
		code store.RetCode
		want uint32
	}{
		{store.RetCSuccess, http.StatusOK},
		{store.RetCNotFound, http.StatusNotFound},
		{store.RetCInvalidCommand, http.StatusBadRequest},
		{store.RetCConvertError, http.StatusInternalServerError},
		{store.RetCStorageError, http.StatusInternalServerError},
		{store.RetCEncodeError, http.StatusInternalServerError},
		{store.RetCDecodeError, http.StatusInternalServerError},
		{store.RetCInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusForCode(tt.code), "code %s", tt.code)
	}
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse(store.NewNotFoundError("users", "alice"))
	assert.Equal(t, uint32(http.StatusNotFound), resp.Status)
	assert.Equal(t, "Not found for table:users, key:alice", resp.Message)
	assert.False(t, resp.IsSuccess())

	resp = NewErrorResponse(errors.New("boom"))
	assert.Equal(t, uint32(http.StatusInternalServerError), resp.Status)
	assert.Equal(t, "Internal error: boom", resp.Message)

	resp = NewErrorResponse(nil)
	assert.Equal(t, uint32(http.StatusInternalServerError), resp.Status)
}

func TestSuccessResponses(t *testing.T) {
	resp := NewValueResponse(store.IntValue(7))
	assert.True(t, resp.IsSuccess())
	require.Len(t, resp.Values, 1)
	assert.Equal(t, store.IntValue(7), resp.Values[0])

	resp = NewPairsResponse(nil)
	assert.True(t, resp.IsSuccess())
	assert.NotNil(t, resp.Pairs)
	assert.Empty(t, resp.Pairs)
}

func TestParseShards(t *testing.T) {
	shards, err := ParseShards("100, 200=pebble,300=BOLT,400=btree")
	require.NoError(t, err)
	assert.Equal(t, []ServerShard{
		{ShardID: 100, Type: ShardTypeMemory},
		{ShardID: 200, Type: ShardTypePebble},
		{ShardID: 300, Type: ShardTypeBolt},
		{ShardID: 400, Type: ShardTypeBTree},
	}, shards)

	for _, in := range []string{"", " , ", "abc", "1,1", "1=redis", "-1=memory"} {
		_, err := ParseShards(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestServerConfigHelpers(t *testing.T) {
	config := ServerConfig{
		Shards:  []ServerShard{{ShardID: 1, Type: ShardTypeMemory}, {ShardID: 2, Type: ShardTypeBTree}},
		DataDir: "/var/lib/hkv",
	}
	assert.False(t, config.HasPersistentShard())

	config.Shards = append(config.Shards, ServerShard{ShardID: 3, Type: ShardTypeBolt})
	assert.True(t, config.HasPersistentShard())
	assert.Equal(t, filepath.Join("/var/lib/hkv", "shard-3"), config.ShardDir(3))
	assert.Contains(t, config.String(), "bolt")
}

func TestMessageTypeJSON(t *testing.T) {
	for _, msgType := range []MessageType{MsgTHset, MsgTHget, MsgTHgetall, MsgTHexist, MsgTHdel} {
		parsed, err := ParseMessageType(msgType.String())
		require.NoError(t, err)
		assert.Equal(t, msgType, parsed)
	}

	data, err := json.Marshal(MsgTHgetall)
	require.NoError(t, err)
	assert.Equal(t, `"hgetall"`, string(data))

	var decoded MessageType
	require.NoError(t, json.Unmarshal([]byte(`"lpush"`), &decoded))
	assert.Equal(t, MsgTUnknown, decoded)

	_, err = ParseMessageType("lpush")
	assert.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	level, err := ParseLogLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, logger.WARNING, level)

	level, err = ParseLogLevel("")
	require.NoError(t, err)
	assert.Equal(t, logger.INFO, level)

	_, err = ParseLogLevel("verbose")
	assert.Error(t, err)

	assert.Equal(t, zapcore.InfoLevel, toZapLevel(logger.INFO))
	assert.Equal(t, zapcore.DPanicLevel, toZapLevel(logger.CRITICAL))
}

func TestInitLoggers(t *testing.T) {
	assert.Error(t, InitLoggers(LogConfig{Level: "verbose"}))
	assert.Error(t, InitLoggers(LogConfig{Level: "info", Encoding: "xml"}))

	// created before the sink points to the file
	early := CreateLogger("early")

	file := filepath.Join(t.TempDir(), "hkv.log")
	require.NoError(t, InitLoggers(LogConfig{Level: "error", Encoding: "json", File: file, MaxSizeMB: 1}))
	t.Cleanup(func() {
		require.NotPanics(t, func() {
			_ = InitLoggers(LogConfig{Level: "warn"})
		})
	})

	l := CreateLogger("late")
	l.Infof("dropped")
	l.Errorf("kept %d", 1)
	early.Errorf("early kept")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "kept 1")
	assert.Contains(t, string(data), "early kept")
	assert.Contains(t, string(data), `"component":"early"`)
	assert.NotContains(t, string(data), "dropped")
}

func TestInitLoggersTwice(t *testing.T) {
	require.NotPanics(t, func() {
		require.NoError(t, InitLoggers(LogConfig{Level: "warn"}))
		require.NoError(t, InitLoggers(LogConfig{Level: "warn", Encoding: "console"}))
	})
	logger.GetLogger("rpc").Infof("not written")
}
