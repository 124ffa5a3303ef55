package grpc

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// frame is the message exchanged by the Send method. On the wire it is the protobuf message
//
//	message Frame { uint64 shard_id = 1; bytes payload = 2; }
type frame struct {
	shardID uint64
	payload []byte
}

const (
	fieldShardID protowire.Number = 1
	fieldPayload protowire.Number = 2
)

// frameCodec is a grpc codec that only understands *frame
type frameCodec struct{}

func (frameCodec) Name() string { return "hkv" }

func (frameCodec) Marshal(v any) ([]byte, error) {
	f, ok := v.(*frame)
	if !ok {
		return nil, fmt.Errorf("grpc codec: unsupported message type %T", v)
	}
	b := make([]byte, 0, len(f.payload)+16)
	if f.shardID != 0 {
		b = protowire.AppendTag(b, fieldShardID, protowire.VarintType)
		b = protowire.AppendVarint(b, f.shardID)
	}
	if len(f.payload) > 0 {
		b = protowire.AppendTag(b, fieldPayload, protowire.BytesType)
		b = protowire.AppendBytes(b, f.payload)
	}
	return b, nil
}

func (frameCodec) Unmarshal(data []byte, v any) error {
	f, ok := v.(*frame)
	if !ok {
		return fmt.Errorf("grpc codec: unsupported message type %T", v)
	}
	*f = frame{payload: []byte{}}

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]

		switch {
		case num == fieldShardID && typ == protowire.VarintType:
			f.shardID, n = protowire.ConsumeVarint(data)
		case num == fieldPayload && typ == protowire.BytesType:
			var payload []byte
			payload, n = protowire.ConsumeBytes(data)
			if n >= 0 {
				// data is owned by grpc and may be reused
				f.payload = append([]byte{}, payload...)
			}
		case num == fieldShardID || num == fieldPayload:
			return errors.New("grpc codec: unexpected wire type")
		default:
			n = protowire.ConsumeFieldValue(num, typ, data)
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
	}
	return nil
}
