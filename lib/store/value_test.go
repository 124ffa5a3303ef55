package store

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func TestValueAccessors(t *testing.T) {
	if s, err := StringValue("x").AsString(); err != nil || s != "x" {
		t.Errorf("AsString: got %q, %v", s, err)
	}
	if i, err := IntValue(-7).AsInt(); err != nil || i != -7 {
		t.Errorf("AsInt: got %d, %v", i, err)
	}
	if f, err := FloatValue(0.5).AsFloat(); err != nil || f != 0.5 {
		t.Errorf("AsFloat: got %f, %v", f, err)
	}
	if b, err := BoolValue(true).AsBool(); err != nil || !b {
		t.Errorf("AsBool: got %t, %v", b, err)
	}
	if b, err := BinaryValue([]byte("raw")).AsBinary(); err != nil || string(b) != "raw" {
		t.Errorf("AsBinary: got %q, %v", b, err)
	}
}

func TestValueConvertError(t *testing.T) {
	_, err := StringValue("abc").AsInt()
	e := AsError(err)
	if e == nil || e.Code != RetCConvertError {
		t.Fatalf("Expected ConvertError, got %v", err)
	}
	if got := e.Error(); got != "Cannot convert value string to integer" {
		t.Errorf("Unexpected message %q", got)
	}

	if _, err := (Value{}).AsBool(); AsError(err).Code != RetCConvertError {
		t.Errorf("Expected ConvertError reading none as bool, got %v", err)
	}
}

func TestBinaryValueCopies(t *testing.T) {
	input := []byte("abc")
	v := BinaryValue(input)
	input[0] = 'X'

	out, _ := v.AsBinary()
	if string(out) != "abc" {
		t.Errorf("BinaryValue should copy its input, got %s", out)
	}

	out[0] = 'Y'
	again, _ := v.AsBinary()
	if string(again) != "abc" {
		t.Errorf("AsBinary should return a copy, got %s", again)
	}
}

func TestNewValue(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    Value
		wantErr bool
	}{
		{"nil", nil, Value{}, false},
		{"string", "s", StringValue("s"), false},
		{"int", 3, IntValue(3), false},
		{"int8", int8(-3), IntValue(-3), false},
		{"uint32", uint32(7), IntValue(7), false},
		{"uint64 small", uint64(9), IntValue(9), false},
		{"uint64 overflow", uint64(math.MaxUint64), Value{}, true},
		{"float32", float32(1.5), FloatValue(1.5), false},
		{"bool", true, BoolValue(true), false},
		{"bytes", []byte{1, 2}, BinaryValue([]byte{1, 2}), false},
		{"unsupported", struct{}{}, Value{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewValue(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewValue(%v) error = %v, wantErr %t", tt.in, err, tt.wantErr)
			}
			if err != nil && AsError(err).Code != RetCConvertError {
				t.Errorf("Expected ConvertError, got %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("NewValue(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseValue(t *testing.T) {
	if v, err := ParseValue(KindInteger, "42"); err != nil || !v.Equal(IntValue(42)) {
		t.Errorf("ParseValue integer: %v, %v", v, err)
	}
	if v, err := ParseValue(KindBool, "true"); err != nil || !v.Equal(BoolValue(true)) {
		t.Errorf("ParseValue bool: %v, %v", v, err)
	}
	if _, err := ParseValue(KindFloat, "pi"); AsError(err).Code != RetCConvertError {
		t.Errorf("Expected ConvertError for bad float, got %v", err)
	}
	if _, err := ParseValueKind("decimal"); AsError(err).Code != RetCInvalidCommand {
		t.Errorf("Expected InvalidCommand for unknown kind, got %v", err)
	}
}

func TestValueBinaryEncoding(t *testing.T) {
	values := []Value{
		{},
		StringValue(""),
		StringValue("hello"),
		IntValue(math.MinInt64),
		IntValue(math.MaxInt64),
		FloatValue(-0.125),
		FloatValue(math.NaN()),
		BoolValue(true),
		BinaryValue(nil),
		BinaryValue([]byte{0, 1, 2}),
	}

	for _, v := range values {
		data, err := v.MarshalBinary()
		if err != nil {
			t.Fatalf("MarshalBinary(%v) failed: %v", v, err)
		}
		var decoded Value
		if err := decoded.UnmarshalBinary(data); err != nil {
			t.Fatalf("UnmarshalBinary(%v) failed: %v", v, err)
		}
		if !decoded.Equal(v) {
			t.Errorf("Round trip changed %v (%s) into %v (%s)", v, v.Kind(), decoded, decoded.Kind())
		}
	}
}

func TestValueDecodeErrors(t *testing.T) {
	var v Value

	// not msgpack at all
	if err := v.UnmarshalBinary([]byte{0xc1}); AsError(err).Code != RetCDecodeError {
		t.Errorf("Expected DecodeError for malformed input, got %v", err)
	}
	if err := v.UnmarshalBinary(nil); AsError(err).Code != RetCDecodeError {
		t.Errorf("Expected DecodeError for empty input, got %v", err)
	}

	// well formed but unknown tag
	data, _ := msgpack.Marshal([]any{uint8(42), "x"})
	if err := v.UnmarshalBinary(data); AsError(err).Code != RetCConvertError {
		t.Errorf("Expected ConvertError for unknown tag, got %v", err)
	}

	// well formed but payload does not match tag
	data, _ = msgpack.Marshal([]any{uint8(KindInteger), "not a number"})
	if err := v.UnmarshalBinary(data); AsError(err).Code != RetCConvertError {
		t.Errorf("Expected ConvertError for mismatched payload, got %v", err)
	}
	data, _ = msgpack.Marshal([]any{uint8(KindBinary), "text"})
	if err := v.UnmarshalBinary(data); AsError(err).Code != RetCConvertError {
		t.Errorf("Expected ConvertError for text under the binary tag, got %v", err)
	}

	// a valid value followed by garbage
	data, _ = IntValue(7).MarshalBinary()
	v = StringValue("unchanged")
	if err := v.UnmarshalBinary(append(data, 0x01)); AsError(err).Code != RetCDecodeError {
		t.Errorf("Expected DecodeError for trailing bytes, got %v", err)
	}
	if !v.Equal(StringValue("unchanged")) {
		t.Errorf("Failed decode must not modify the target, got %v", v)
	}
}

func TestBinaryValueMsgpack(t *testing.T) {
	data, err := BinaryValue([]byte{0, 1, 2}).MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}
	var decoded Value
	if err := decoded.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary failed: %v", err)
	}
	if decoded.Kind() != KindBinary || !decoded.Equal(BinaryValue([]byte{0, 1, 2})) {
		t.Errorf("Expected binary [0 1 2], got %v (%s)", decoded, decoded.Kind())
	}

	// inside a struct, as the msgpack wire format carries it
	pair := NewKvpair("blob", BinaryValue([]byte("\xffraw")))
	data, err = msgpack.Marshal(pair)
	if err != nil {
		t.Fatalf("Marshal pair failed: %v", err)
	}
	var decodedPair Kvpair
	if err := msgpack.Unmarshal(data, &decodedPair); err != nil {
		t.Fatalf("Unmarshal pair failed: %v", err)
	}
	if decodedPair.Key != "blob" || !decodedPair.Value.Equal(pair.Value) {
		t.Errorf("Expected %v, got %v", pair, decodedPair)
	}
}

func TestValueJSON(t *testing.T) {
	tests := []struct {
		value Value
		json  string
	}{
		{Value{}, `{}`},
		{StringValue("a"), `{"string":"a"}`},
		{IntValue(5), `{"integer":5}`},
		{FloatValue(2.5), `{"float":2.5}`},
		{BoolValue(false), `{"bool":false}`},
		{BinaryValue([]byte("hi")), `{"binary":"aGk="}`},
		{BinaryValue(nil), `{"binary":""}`},
	}

	for _, tt := range tests {
		data, err := json.Marshal(tt.value)
		if err != nil {
			t.Fatalf("Marshal(%v) failed: %v", tt.value, err)
		}
		if string(data) != tt.json {
			t.Errorf("Marshal(%v) = %s, want %s", tt.value, data, tt.json)
		}

		var decoded Value
		if err := json.Unmarshal([]byte(tt.json), &decoded); err != nil {
			t.Fatalf("Unmarshal(%s) failed: %v", tt.json, err)
		}
		if !decoded.Equal(tt.value) {
			t.Errorf("Unmarshal(%s) = %v, want %v", tt.json, decoded, tt.value)
		}
	}

	var v Value
	if err := json.Unmarshal([]byte(`{"string":"a","integer":1}`), &v); err == nil {
		t.Errorf("Expected an error for an object with two variants")
	}
}

func TestKvpairJSON(t *testing.T) {
	pair := NewKvpair("alice", IntValue(30))
	data, err := json.Marshal(pair)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, []byte(`{"key":"alice","value":{"integer":30}}`)) {
		t.Errorf("Unexpected JSON %s", data)
	}
}
