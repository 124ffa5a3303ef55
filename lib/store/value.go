package store

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// --------------------------------------------------------------------------
// Value Kind
// --------------------------------------------------------------------------

// ValueKind is the type tag of a Value. The zero kind is the none state.
type ValueKind uint8

const (
	KindNone    ValueKind = iota // 0: No value present
	KindString                   // 1: UTF-8 text
	KindInteger                  // 2: Signed 64 bit integer
	KindFloat                    // 3: 64 bit IEEE float
	KindBool                     // 4: Boolean
	KindBinary                   // 5: Opaque bytes
)

// String returns the name of the kind as used in error messages.
func (k ValueKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindBinary:
		return "binary"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// ParseValueKind maps a kind name (as returned by ValueKind.String) back to the kind.
// The aliases "int" and "bytes" are accepted as well.
func ParseValueKind(s string) (ValueKind, error) {
	switch s {
	case "none":
		return KindNone, nil
	case "string", "str":
		return KindString, nil
	case "integer", "int":
		return KindInteger, nil
	case "float":
		return KindFloat, nil
	case "bool":
		return KindBool, nil
	case "binary", "bytes":
		return KindBinary, nil
	default:
		return KindNone, NewInvalidCommandError(fmt.Sprintf("unknown value type %q", s))
	}
}

// --------------------------------------------------------------------------
// Value
// --------------------------------------------------------------------------

// Value is an immutable, tagged value. The zero Value is the none value.
// Values are safe to share between goroutines.
type Value struct {
	kind ValueKind
	str  string
	num  int64
	flt  float64
	bit  bool
	bin  []byte
}

// StringValue creates a Value holding text.
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// IntValue creates a Value holding an integer.
func IntValue(i int64) Value { return Value{kind: KindInteger, num: i} }

// FloatValue creates a Value holding a float.
func FloatValue(f float64) Value { return Value{kind: KindFloat, flt: f} }

// BoolValue creates a Value holding a boolean.
func BoolValue(b bool) Value { return Value{kind: KindBool, bit: b} }

// BinaryValue creates a Value holding a copy of b. A nil slice is stored as empty.
func BinaryValue(b []byte) Value {
	return Value{kind: KindBinary, bin: append([]byte{}, b...)}
}

// NewValue converts a host value into a Value. nil becomes the none value.
// Unsigned integers above math.MaxInt64 and unsupported types fail with a ConvertError.
func NewValue(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Value{}, nil
	case Value:
		return t, nil
	case string:
		return StringValue(t), nil
	case []byte:
		return BinaryValue(t), nil
	case bool:
		return BoolValue(t), nil
	case int:
		return IntValue(int64(t)), nil
	case int8:
		return IntValue(int64(t)), nil
	case int16:
		return IntValue(int64(t)), nil
	case int32:
		return IntValue(int64(t)), nil
	case int64:
		return IntValue(t), nil
	case uint8:
		return IntValue(int64(t)), nil
	case uint16:
		return IntValue(int64(t)), nil
	case uint32:
		return IntValue(int64(t)), nil
	case uint:
		return uintValue(uint64(t))
	case uint64:
		return uintValue(t)
	case float32:
		return FloatValue(float64(t)), nil
	case float64:
		return FloatValue(t), nil
	default:
		return Value{}, NewConvertError(fmt.Sprintf("%T", v), "value")
	}
}

func uintValue(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return Value{}, NewConvertError("uint64", KindInteger.String())
	}
	return IntValue(int64(u)), nil
}

// ParseValue interprets the text s as a value of the given kind.
// Binary input is taken verbatim.
func ParseValue(kind ValueKind, s string) (Value, error) {
	switch kind {
	case KindString:
		return StringValue(s), nil
	case KindBinary:
		return BinaryValue([]byte(s)), nil
	case KindInteger:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Value{}, NewConvertError(strconv.Quote(s), kind.String())
		}
		return IntValue(i), nil
	case KindFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, NewConvertError(strconv.Quote(s), kind.String())
		}
		return FloatValue(f), nil
	case KindBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Value{}, NewConvertError(strconv.Quote(s), kind.String())
		}
		return BoolValue(b), nil
	default:
		return Value{}, NewConvertError(strconv.Quote(s), kind.String())
	}
}

// Kind returns the type tag of the value.
func (v Value) Kind() ValueKind { return v.kind }

// IsNone reports whether the value is the none value.
func (v Value) IsNone() bool { return v.kind == KindNone }

func (v Value) mismatch(want ValueKind) error {
	return NewConvertError(v.kind.String(), want.String())
}

// AsString returns the text of a string value.
func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", v.mismatch(KindString)
	}
	return v.str, nil
}

// AsInt returns the integer of an integer value.
func (v Value) AsInt() (int64, error) {
	if v.kind != KindInteger {
		return 0, v.mismatch(KindInteger)
	}
	return v.num, nil
}

// AsFloat returns the float of a float value.
func (v Value) AsFloat() (float64, error) {
	if v.kind != KindFloat {
		return 0, v.mismatch(KindFloat)
	}
	return v.flt, nil
}

// AsBool returns the boolean of a bool value.
func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, v.mismatch(KindBool)
	}
	return v.bit, nil
}

// AsBinary returns a copy of the bytes of a binary value.
func (v Value) AsBinary() ([]byte, error) {
	if v.kind != KindBinary {
		return nil, v.mismatch(KindBinary)
	}
	return append([]byte{}, v.bin...), nil
}

// Equal reports whether both values have the same kind and payload.
// Floats are compared bitwise, so a NaN equals itself.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindInteger:
		return v.num == o.num
	case KindFloat:
		return math.Float64bits(v.flt) == math.Float64bits(o.flt)
	case KindBool:
		return v.bit == o.bit
	case KindBinary:
		return bytes.Equal(v.bin, o.bin)
	default:
		return true
	}
}

// String renders the payload for display. Binary payloads are base64 encoded.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindInteger:
		return strconv.FormatInt(v.num, 10)
	case KindFloat:
		return strconv.FormatFloat(v.flt, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.bit)
	case KindBinary:
		return base64.StdEncoding.EncodeToString(v.bin)
	default:
		return "<none>"
	}
}

// Interface returns the payload as a plain Go value (nil for none).
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindInteger:
		return v.num
	case KindFloat:
		return v.flt
	case KindBool:
		return v.bit
	case KindBinary:
		return append([]byte{}, v.bin...)
	default:
		return nil
	}
}

// --------------------------------------------------------------------------
// Encoding (msgpack array [kind, payload])
// --------------------------------------------------------------------------

var (
	_ msgpack.CustomEncoder = Value{}
	_ msgpack.CustomDecoder = (*Value)(nil)
)

// EncodeMsgpack writes the value as the array [kind, payload].
func (v Value) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeArrayLen(2); err != nil {
		return err
	}
	if err := enc.EncodeUint(uint64(v.kind)); err != nil {
		return err
	}
	switch v.kind {
	case KindString:
		return enc.EncodeString(v.str)
	case KindInteger:
		return enc.EncodeInt(v.num)
	case KindFloat:
		return enc.EncodeFloat64(v.flt)
	case KindBool:
		return enc.EncodeBool(v.bit)
	case KindBinary:
		return enc.EncodeBytes(v.bin)
	default:
		return enc.EncodeNil()
	}
}

// DecodeMsgpack reads a value written by EncodeMsgpack.
// Structural faults return a DecodeError, a tag that does not match its payload a ConvertError.
func (v *Value) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return NewDecodeError(err)
	}
	if n != 2 {
		return NewDecodeError(fmt.Errorf("expected array of length 2, got %d", n))
	}
	tag, err := dec.DecodeUint64()
	if err != nil {
		return NewDecodeError(err)
	}
	payload, err := decodePayload(dec)
	if err != nil {
		return NewDecodeError(err)
	}

	kind := ValueKind(tag)
	if tag > uint64(KindBinary) {
		return NewConvertError(fmt.Sprintf("tag %d", tag), "value")
	}

	converted, ok := fromPayload(kind, payload)
	if !ok {
		return NewConvertError(fmt.Sprintf("%T", payload), kind.String())
	}
	*v = converted
	return nil
}

// decodePayload reads the payload of an encoded value. Binary payloads are read as
// bytes, the loose decoder would turn them into strings.
func decodePayload(dec *msgpack.Decoder) (any, error) {
	c, err := dec.PeekCode()
	if err != nil {
		return nil, err
	}
	if msgpcode.IsBin(c) {
		b, err := dec.DecodeBytes()
		if err != nil {
			return nil, err
		}
		if b == nil {
			b = []byte{}
		}
		return b, nil
	}
	return dec.DecodeInterfaceLoose()
}

// fromPayload builds a value of the given kind from a loosely decoded msgpack payload
func fromPayload(kind ValueKind, payload any) (Value, bool) {
	switch kind {
	case KindNone:
		return Value{}, payload == nil
	case KindString:
		s, ok := payload.(string)
		return StringValue(s), ok
	case KindInteger:
		switch n := payload.(type) {
		case int64:
			return IntValue(n), true
		case uint64:
			if n > math.MaxInt64 {
				return Value{}, false
			}
			return IntValue(int64(n)), true
		}
	case KindFloat:
		f, ok := payload.(float64)
		return FloatValue(f), ok
	case KindBool:
		b, ok := payload.(bool)
		return BoolValue(b), ok
	case KindBinary:
		switch b := payload.(type) {
		case []byte:
			if b == nil {
				b = []byte{}
			}
			return Value{kind: KindBinary, bin: b}, true
		case nil:
			return Value{kind: KindBinary, bin: []byte{}}, true
		}
	}
	return Value{}, false
}

// MarshalBinary returns the storage representation of the value.
// The same bytes are used by gob through encoding.BinaryMarshaler.
func (v Value) MarshalBinary() ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, NewEncodeError(err)
	}
	return data, nil
}

// UnmarshalBinary parses the storage representation written by MarshalBinary.
func (v *Value) UnmarshalBinary(data []byte) error {
	if len(data) == 0 {
		return NewDecodeError(fmt.Errorf("empty input"))
	}
	r := bytes.NewReader(data)
	dec := msgpack.NewDecoder(r)
	var decoded Value
	if err := decoded.DecodeMsgpack(dec); err != nil {
		if _, ok := err.(*Error); ok {
			return err
		}
		return NewDecodeError(err)
	}
	if r.Len() > 0 {
		return NewDecodeError(fmt.Errorf("%d trailing bytes", r.Len()))
	}
	*v = decoded
	return nil
}

// --------------------------------------------------------------------------
// JSON (object with exactly one of string|integer|float|bool|binary)
// --------------------------------------------------------------------------

type jsonValue struct {
	String  *string  `json:"string,omitempty"`
	Integer *int64   `json:"integer,omitempty"`
	Float   *float64 `json:"float,omitempty"`
	Bool    *bool    `json:"bool,omitempty"`
	Binary  *[]byte  `json:"binary,omitempty"`
}

// MarshalJSON encodes the value as a single field object, {} for none.
func (v Value) MarshalJSON() ([]byte, error) {
	var jv jsonValue
	switch v.kind {
	case KindString:
		jv.String = &v.str
	case KindInteger:
		jv.Integer = &v.num
	case KindFloat:
		if math.IsNaN(v.flt) || math.IsInf(v.flt, 0) {
			return nil, NewEncodeError(fmt.Errorf("unsupported float %v", v.flt))
		}
		jv.Float = &v.flt
	case KindBool:
		jv.Bool = &v.bit
	case KindBinary:
		bin := v.bin
		if bin == nil {
			bin = []byte{}
		}
		jv.Binary = &bin
	}
	return json.Marshal(jv)
}

// UnmarshalJSON decodes an object written by MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	var jv jsonValue
	if err := json.Unmarshal(data, &jv); err != nil {
		return NewDecodeError(err)
	}

	var result Value
	set := 0
	if jv.String != nil {
		result, set = StringValue(*jv.String), set+1
	}
	if jv.Integer != nil {
		result, set = IntValue(*jv.Integer), set+1
	}
	if jv.Float != nil {
		result, set = FloatValue(*jv.Float), set+1
	}
	if jv.Bool != nil {
		result, set = BoolValue(*jv.Bool), set+1
	}
	if jv.Binary != nil {
		result, set = Value{kind: KindBinary, bin: append([]byte{}, *jv.Binary...)}, set+1
	}
	if set > 1 {
		return NewDecodeError(fmt.Errorf("value object has %d variants set", set))
	}
	*v = result
	return nil
}

// --------------------------------------------------------------------------
// Kvpair
// --------------------------------------------------------------------------

// Kvpair is a key together with its value. Pairs returned by a store always carry a present value.
type Kvpair struct {
	Key   string `json:"key" yaml:"key" msgpack:"key"`
	Value Value  `json:"value" yaml:"value" msgpack:"value"`
}

// NewKvpair creates a pair from a key and a value.
func NewKvpair(key string, value Value) Kvpair {
	return Kvpair{Key: key, Value: value}
}
