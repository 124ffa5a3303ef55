package serializer

import (
	"fmt"
	"math"

	"github.com/ValentinKolb/hKV/lib/store"
	"github.com/ValentinKolb/hKV/rpc/common"
	"google.golang.org/protobuf/encoding/protowire"
)

// NewProtoSerializer creates a new serializer using the protobuf wire format
// (google.golang.org/protobuf/encoding/protowire). The messages are equivalent to:
//
//	message Value        { oneof v { string string = 1; sint64 integer = 2; double float = 3; bool bool = 4; bytes binary = 5; } }
//	message Kvpair       { string key = 1; Value value = 2; }
//	message Request      { uint32 msg_type = 1; string table = 2; string key = 3; Kvpair pair = 4; }
//	message Response     { uint32 status = 1; string message = 2; repeated Value values = 3; repeated Kvpair pairs = 4; bool has_pairs = 5; }
//
// A none value is an empty Value message.
func NewProtoSerializer() IRPCSerializer {
	return &protoSerializerImpl{}
}

// protoSerializerImpl implements IRPCSerializer with hand written protobuf encoding
type protoSerializerImpl struct {
}

// Field numbers
const (
	fieldReqMsgType protowire.Number = 1
	fieldReqTable   protowire.Number = 2
	fieldReqKey     protowire.Number = 3
	fieldReqPair    protowire.Number = 4

	fieldRespStatus   protowire.Number = 1
	fieldRespMessage  protowire.Number = 2
	fieldRespValues   protowire.Number = 3
	fieldRespPairs    protowire.Number = 4
	fieldRespHasPairs protowire.Number = 5

	fieldPairKey   protowire.Number = 1
	fieldPairValue protowire.Number = 2

	fieldValueString  protowire.Number = 1
	fieldValueInteger protowire.Number = 2
	fieldValueFloat   protowire.Number = 3
	fieldValueBool    protowire.Number = 4
	fieldValueBinary  protowire.Number = 5
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (p protoSerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	switch m := msg.(type) {
	case *common.CommandRequest:
		return appendRequest(nil, m), nil
	case *common.CommandResponse:
		return appendResponse(nil, m), nil
	default:
		return nil, errUnsupported(msg)
	}
}

func (p protoSerializerImpl) Deserialize(b []byte, msg common.Message) error {
	switch m := msg.(type) {
	case *common.CommandRequest:
		*m = common.CommandRequest{}
		return consumeRequest(b, m)
	case *common.CommandResponse:
		*m = common.CommandResponse{}
		return consumeResponse(b, m)
	default:
		return errUnsupported(msg)
	}
}

// --------------------------------------------------------------------------
// Encoding
// --------------------------------------------------------------------------

func appendRequest(b []byte, msg *common.CommandRequest) []byte {
	if msg.MsgType != common.MsgTUnknown {
		b = protowire.AppendTag(b, fieldReqMsgType, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(msg.MsgType))
	}
	if msg.Table != "" {
		b = protowire.AppendTag(b, fieldReqTable, protowire.BytesType)
		b = protowire.AppendString(b, msg.Table)
	}
	if msg.Key != "" {
		b = protowire.AppendTag(b, fieldReqKey, protowire.BytesType)
		b = protowire.AppendString(b, msg.Key)
	}
	if msg.Pair != nil {
		b = protowire.AppendTag(b, fieldReqPair, protowire.BytesType)
		b = protowire.AppendBytes(b, appendPair(nil, *msg.Pair))
	}
	return b
}

func appendResponse(b []byte, msg *common.CommandResponse) []byte {
	if msg.Status != 0 {
		b = protowire.AppendTag(b, fieldRespStatus, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(msg.Status))
	}
	if msg.Message != "" {
		b = protowire.AppendTag(b, fieldRespMessage, protowire.BytesType)
		b = protowire.AppendString(b, msg.Message)
	}
	for _, v := range msg.Values {
		b = protowire.AppendTag(b, fieldRespValues, protowire.BytesType)
		b = protowire.AppendBytes(b, appendProtoValue(nil, v))
	}
	for _, pair := range msg.Pairs {
		b = protowire.AppendTag(b, fieldRespPairs, protowire.BytesType)
		b = protowire.AppendBytes(b, appendPair(nil, pair))
	}
	// distinguishes an empty pair list from no pair list
	if msg.Pairs != nil {
		b = protowire.AppendTag(b, fieldRespHasPairs, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(true))
	}
	return b
}

func appendPair(b []byte, pair store.Kvpair) []byte {
	b = protowire.AppendTag(b, fieldPairKey, protowire.BytesType)
	b = protowire.AppendString(b, pair.Key)
	b = protowire.AppendTag(b, fieldPairValue, protowire.BytesType)
	return protowire.AppendBytes(b, appendProtoValue(nil, pair.Value))
}

func appendProtoValue(b []byte, v store.Value) []byte {
	switch v.Kind() {
	case store.KindString:
		s, _ := v.AsString()
		b = protowire.AppendTag(b, fieldValueString, protowire.BytesType)
		b = protowire.AppendString(b, s)
	case store.KindInteger:
		i, _ := v.AsInt()
		b = protowire.AppendTag(b, fieldValueInteger, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(i))
	case store.KindFloat:
		f, _ := v.AsFloat()
		b = protowire.AppendTag(b, fieldValueFloat, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(f))
	case store.KindBool:
		bit, _ := v.AsBool()
		b = protowire.AppendTag(b, fieldValueBool, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(bit))
	case store.KindBinary:
		bin, _ := v.AsBinary()
		b = protowire.AppendTag(b, fieldValueBinary, protowire.BytesType)
		b = protowire.AppendBytes(b, bin)
	}
	return b
}

// --------------------------------------------------------------------------
// Decoding
// --------------------------------------------------------------------------

// fieldFunc consumes the value of one field and returns the number of bytes read.
// It returns -1 (or any protowire error code) to signal an error and 0 if the field is unknown.
type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) int

// walkFields calls fn for every field in b and skips unknown fields
func walkFields(b []byte, fn fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		n = fn(num, typ, b)
		if n == 0 {
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n == errWrongType {
			return fmt.Errorf("field %d: unexpected wire type %d", num, typ)
		}
		if n < 0 {
			return fmt.Errorf("field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return nil
}

// errWrongType is returned by a fieldFunc if a known field has an unexpected wire type
// or a nested message is invalid. It is outside the range of the protowire error codes.
const errWrongType = -100

func consumeRequest(b []byte, msg *common.CommandRequest) error {
	var nested error
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch {
		case num == fieldReqMsgType && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			msg.MsgType = common.MessageType(v)
			return n
		case num == fieldReqTable && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			msg.Table = v
			return n
		case num == fieldReqKey && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			msg.Key = v
			return n
		case num == fieldReqPair && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n
			}
			var pair store.Kvpair
			if nested = consumePair(v, &pair); nested != nil {
				return errWrongType
			}
			msg.Pair = &pair
			return n
		case num <= fieldReqPair:
			return errWrongType
		}
		return 0
	})
	if nested != nil {
		return nested
	}
	return err
}

func consumeResponse(b []byte, msg *common.CommandResponse) error {
	var nested error
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch {
		case num == fieldRespStatus && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			msg.Status = uint32(v)
			return n
		case num == fieldRespMessage && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			msg.Message = v
			return n
		case num == fieldRespValues && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n
			}
			value, err := consumeProtoValue(v)
			if err != nil {
				nested = err
				return errWrongType
			}
			msg.Values = append(msg.Values, value)
			return n
		case num == fieldRespPairs && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n
			}
			var pair store.Kvpair
			if nested = consumePair(v, &pair); nested != nil {
				return errWrongType
			}
			msg.Pairs = append(msg.Pairs, pair)
			return n
		case num == fieldRespHasPairs && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if protowire.DecodeBool(v) && msg.Pairs == nil {
				msg.Pairs = []store.Kvpair{}
			}
			return n
		case num <= fieldRespHasPairs:
			return errWrongType
		}
		return 0
	})
	if nested != nil {
		return nested
	}
	return err
}

func consumePair(b []byte, pair *store.Kvpair) error {
	var nested error
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch {
		case num == fieldPairKey && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			pair.Key = v
			return n
		case num == fieldPairValue && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n
			}
			value, err := consumeProtoValue(v)
			if err != nil {
				nested = err
				return errWrongType
			}
			pair.Value = value
			return n
		case num <= fieldPairValue:
			return errWrongType
		}
		return 0
	})
	if nested != nil {
		return nested
	}
	return err
}

func consumeProtoValue(b []byte) (store.Value, error) {
	var value store.Value
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch {
		case num == fieldValueString && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			value = store.StringValue(v)
			return n
		case num == fieldValueInteger && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			value = store.IntValue(protowire.DecodeZigZag(v))
			return n
		case num == fieldValueFloat && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			value = store.FloatValue(math.Float64frombits(v))
			return n
		case num == fieldValueBool && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			value = store.BoolValue(protowire.DecodeBool(v))
			return n
		case num == fieldValueBinary && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			value = store.BinaryValue(v)
			return n
		case num <= fieldValueBinary:
			return errWrongType
		}
		return 0
	})
	return value, err
}
