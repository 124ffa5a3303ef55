package base

import (
	"bytes"
	"encoding/binary"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		_ = writeFrame(client, 42, 7, []byte("payload"))
	}()

	shardID, requestID, data, err := readFrame(server, make([]byte, 4))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), shardID)
	assert.Equal(t, uint64(7), requestID)
	assert.Equal(t, "payload", string(data))
}

func TestReadFrameEmpty(t *testing.T) {
	var buf bytes.Buffer
	header := make([]byte, frameHeaderSize)
	binary.BigEndian.PutUint64(header[:8], 1)
	buf.Write(header)

	shardID, _, data, err := readFrame(&buf, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), shardID)
	assert.Empty(t, data)
}

func TestReadFrameTooLarge(t *testing.T) {
	var buf bytes.Buffer
	header := make([]byte, frameHeaderSize)
	binary.BigEndian.PutUint32(header[16:20], MaxFrameSize+1)
	buf.Write(header)

	_, _, _, err := readFrame(&buf, nil)
	assert.Error(t, err)
}

func TestReadFrameTruncated(t *testing.T) {
	_, _, _, err := readFrame(bytes.NewReader([]byte{0, 1, 2}), nil)
	assert.Error(t, err)
}
