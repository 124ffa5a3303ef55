package serializer

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ValentinKolb/hKV/lib/store"
	"github.com/ValentinKolb/hKV/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format.
//
// Request:  msgType u8 | flags u8 | [table] | [key] | [pair key | pair value]
// Response: status u32 | flags u8 | [message] | [n u32 | values] | [n u32 | pairs]
//
// Strings are length prefixed (u32), values are a kind byte followed by the payload.
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasTable   byte = 1 << 0
	hasKey     byte = 1 << 1
	hasPair    byte = 1 << 2
	hasMessage byte = 1 << 3
	hasValues  byte = 1 << 4
	hasPairs   byte = 1 << 5
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	switch m := msg.(type) {
	case *common.CommandRequest:
		// the message type is written as a single byte
		if m.MsgType > math.MaxUint8 {
			return nil, fmt.Errorf("message type %d does not fit the binary format", uint32(m.MsgType))
		}
		return b.serializeRequest(m), nil
	case *common.CommandResponse:
		return b.serializeResponse(m), nil
	default:
		return nil, errUnsupported(msg)
	}
}

func (b binarySerializerImpl) Deserialize(data []byte, msg common.Message) error {
	r := &binaryReader{data: data}
	switch m := msg.(type) {
	case *common.CommandRequest:
		*m = common.CommandRequest{}
		b.deserializeRequest(r, m)
	case *common.CommandResponse:
		*m = common.CommandResponse{}
		b.deserializeResponse(r, m)
	default:
		return errUnsupported(msg)
	}
	if r.err == nil && r.pos != len(data) {
		r.err = fmt.Errorf("%d trailing bytes", len(data)-r.pos)
	}
	return r.err
}

// --------------------------------------------------------------------------
// Request
// --------------------------------------------------------------------------

func (b binarySerializerImpl) serializeRequest(msg *common.CommandRequest) []byte {
	// Calculate total size needed
	size := 2
	if msg.Table != "" {
		size += 4 + len(msg.Table)
	}
	if msg.Key != "" {
		size += 4 + len(msg.Key)
	}
	if msg.Pair != nil {
		size += 4 + len(msg.Pair.Key) + valueSize(msg.Pair.Value)
	}
	result := make([]byte, 2, size)

	// Write message type
	result[0] = byte(msg.MsgType)

	var flags byte
	if msg.Table != "" {
		flags |= hasTable
		result = appendString(result, msg.Table)
	}
	if msg.Key != "" {
		flags |= hasKey
		result = appendString(result, msg.Key)
	}
	if msg.Pair != nil {
		flags |= hasPair
		result = appendString(result, msg.Pair.Key)
		result = appendValue(result, msg.Pair.Value)
	}

	// Set flags byte after knowing which fields are present
	result[1] = flags
	return result
}

func (b binarySerializerImpl) deserializeRequest(r *binaryReader, msg *common.CommandRequest) {
	msg.MsgType = common.MessageType(r.byte())
	flags := r.byte()

	if flags&hasTable != 0 {
		msg.Table = r.string()
	}
	if flags&hasKey != 0 {
		msg.Key = r.string()
	}
	if flags&hasPair != 0 {
		key := r.string()
		value := r.value()
		if r.err == nil {
			pair := store.NewKvpair(key, value)
			msg.Pair = &pair
		}
	}
}

// --------------------------------------------------------------------------
// Response
// --------------------------------------------------------------------------

func (b binarySerializerImpl) serializeResponse(msg *common.CommandResponse) []byte {
	// Calculate total size needed
	size := 5
	if msg.Message != "" {
		size += 4 + len(msg.Message)
	}
	if len(msg.Values) > 0 {
		size += 4
		for _, v := range msg.Values {
			size += valueSize(v)
		}
	}
	if msg.Pairs != nil {
		size += 4
		for _, p := range msg.Pairs {
			size += 4 + len(p.Key) + valueSize(p.Value)
		}
	}
	result := make([]byte, 5, size)

	binary.BigEndian.PutUint32(result[0:4], msg.Status)

	var flags byte
	if msg.Message != "" {
		flags |= hasMessage
		result = appendString(result, msg.Message)
	}
	if len(msg.Values) > 0 {
		flags |= hasValues
		result = binary.BigEndian.AppendUint32(result, uint32(len(msg.Values)))
		for _, v := range msg.Values {
			result = appendValue(result, v)
		}
	}
	// an empty but present pair list is kept (hgetall of an empty table)
	if msg.Pairs != nil {
		flags |= hasPairs
		result = binary.BigEndian.AppendUint32(result, uint32(len(msg.Pairs)))
		for _, p := range msg.Pairs {
			result = appendString(result, p.Key)
			result = appendValue(result, p.Value)
		}
	}

	result[4] = flags
	return result
}

func (b binarySerializerImpl) deserializeResponse(r *binaryReader, msg *common.CommandResponse) {
	msg.Status = r.uint32()
	flags := r.byte()

	if flags&hasMessage != 0 {
		msg.Message = r.string()
	}
	if flags&hasValues != 0 {
		n := r.count()
		msg.Values = make([]store.Value, 0, n)
		for i := 0; i < n && r.err == nil; i++ {
			msg.Values = append(msg.Values, r.value())
		}
	}
	if flags&hasPairs != 0 {
		n := r.count()
		msg.Pairs = make([]store.Kvpair, 0, n)
		for i := 0; i < n && r.err == nil; i++ {
			key := r.string()
			msg.Pairs = append(msg.Pairs, store.NewKvpair(key, r.value()))
		}
	}
}

// --------------------------------------------------------------------------
// Encoding helpers
// --------------------------------------------------------------------------

// valueSize returns the encoded size of a value (kind byte + payload)
func valueSize(v store.Value) int {
	switch v.Kind() {
	case store.KindString:
		s, _ := v.AsString()
		return 1 + 4 + len(s)
	case store.KindBinary:
		bin, _ := v.AsBinary()
		return 1 + 4 + len(bin)
	case store.KindInteger, store.KindFloat:
		return 1 + 8
	case store.KindBool:
		return 1 + 1
	default:
		return 1
	}
}

func appendString(dst []byte, s string) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(s)))
	return append(dst, s...)
}

func appendValue(dst []byte, v store.Value) []byte {
	dst = append(dst, byte(v.Kind()))
	switch v.Kind() {
	case store.KindString:
		s, _ := v.AsString()
		dst = appendString(dst, s)
	case store.KindBinary:
		bin, _ := v.AsBinary()
		dst = binary.BigEndian.AppendUint32(dst, uint32(len(bin)))
		dst = append(dst, bin...)
	case store.KindInteger:
		i, _ := v.AsInt()
		dst = binary.BigEndian.AppendUint64(dst, uint64(i))
	case store.KindFloat:
		f, _ := v.AsFloat()
		dst = binary.BigEndian.AppendUint64(dst, math.Float64bits(f))
	case store.KindBool:
		bit, _ := v.AsBool()
		if bit {
			dst = append(dst, 1)
		} else {
			dst = append(dst, 0)
		}
	}
	return dst
}

// binaryReader reads the fields of a message and remembers the first error
type binaryReader struct {
	data []byte
	pos  int
	err  error
}

// take returns the next n bytes or nil if the data is too short
func (r *binaryReader) take(n int, what string) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.pos+n > len(r.data) {
		r.err = fmt.Errorf("data too short for %s", what)
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *binaryReader) byte() byte {
	if b := r.take(1, "header"); b != nil {
		return b[0]
	}
	return 0
}

func (r *binaryReader) uint32() uint32 {
	if b := r.take(4, "length"); b != nil {
		return binary.BigEndian.Uint32(b)
	}
	return 0
}

// count reads a list length and rejects lengths that cannot fit into the remaining data
func (r *binaryReader) count() int {
	n := int(r.uint32())
	if r.err == nil && n > len(r.data)-r.pos {
		r.err = fmt.Errorf("list length %d exceeds data", n)
		return 0
	}
	return n
}

func (r *binaryReader) string() string {
	n := int(r.uint32())
	return string(r.take(n, "string data"))
}

func (r *binaryReader) value() store.Value {
	kind := store.ValueKind(r.byte())
	if r.err != nil {
		return store.Value{}
	}
	switch kind {
	case store.KindNone:
		return store.Value{}
	case store.KindString:
		return store.StringValue(r.string())
	case store.KindBinary:
		n := int(r.uint32())
		return store.BinaryValue(r.take(n, "binary data"))
	case store.KindInteger:
		if b := r.take(8, "integer"); b != nil {
			return store.IntValue(int64(binary.BigEndian.Uint64(b)))
		}
	case store.KindFloat:
		if b := r.take(8, "float"); b != nil {
			return store.FloatValue(math.Float64frombits(binary.BigEndian.Uint64(b)))
		}
	case store.KindBool:
		if b := r.take(1, "bool"); b != nil {
			return store.BoolValue(b[0] != 0)
		}
	default:
		r.err = store.NewConvertError(fmt.Sprintf("tag %d", kind), "value")
	}
	return store.Value{}
}
