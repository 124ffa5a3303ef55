package serializer

import (
	"errors"
	"math"
	"testing"

	"github.com/ValentinKolb/hKV/lib/store"
	"github.com/ValentinKolb/hKV/rpc/common"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON":    NewJSONSerializer,
	"GOB":     NewGOBSerializer,
	"Binary":  NewBinarySerializer,
	"Msgpack": NewMsgpackSerializer,
	"Proto":   NewProtoSerializer,
}

// testRequests creates a set of requests covering every message type and value kind
func testRequests() []*common.CommandRequest {
	return []*common.CommandRequest{
		// Unset message
		{},

		common.NewHgetRequest("users", "alice"),
		common.NewHgetallRequest("users"),
		common.NewHexistRequest("users", "alice"),
		common.NewHdelRequest("users", "alice"),

		// Hset with every kind of value
		common.NewHsetRequest("users", "alice", store.StringValue("admin")),
		common.NewHsetRequest("users", "age", store.IntValue(-31)),
		common.NewHsetRequest("users", "score", store.FloatValue(99.5)),
		common.NewHsetRequest("users", "active", store.BoolValue(true)),
		common.NewHsetRequest("users", "avatar", store.BinaryValue([]byte{0x89, 'P', 'N', 'G'})),
		common.NewHsetRequest("users", "empty", store.BinaryValue(nil)),
		common.NewHsetRequest("", "", store.StringValue("")),

		// Hset without a value (rejected by the dispatcher, but must survive the wire)
		{MsgType: common.MsgTHset, Table: "users", Pair: &store.Kvpair{Key: "none"}},
	}
}

// testResponses creates a set of responses covering every response shape
func testResponses() []*common.CommandResponse {
	return []*common.CommandResponse{
		common.NewValueResponse(store.StringValue("admin")),
		common.NewValueResponse(store.IntValue(math.MinInt64)),
		common.NewValueResponse(store.BoolValue(false)),
		common.NewValueResponse(store.Value{}),
		common.NewPairsResponse([]store.Kvpair{
			store.NewKvpair("alice", store.StringValue("admin")),
			store.NewKvpair("bob", store.FloatValue(-0.25)),
			store.NewKvpair("carol", store.BinaryValue([]byte("x"))),
		}),
		common.NewPairsResponse(nil),
		common.NewErrorResponse(store.NewNotFoundError("users", "alice")),
		common.NewErrorResponse(errors.New("boom")),
	}
}

// --------------------------------------------------------------------------
// Comparison helpers (nil and empty slices are treated as equal)
// --------------------------------------------------------------------------

func valuesEqual(a, b []store.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func pairEqual(a, b *store.Kvpair) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Key == b.Key && a.Value.Equal(b.Value)
}

func requestsEqual(a, b *common.CommandRequest) bool {
	return a.MsgType == b.MsgType && a.Table == b.Table && a.Key == b.Key && pairEqual(a.Pair, b.Pair)
}

func responsesEqual(a, b *common.CommandResponse) bool {
	if a.Status != b.Status || a.Message != b.Message || !valuesEqual(a.Values, b.Values) {
		return false
	}
	if len(a.Pairs) != len(b.Pairs) {
		return false
	}
	for i := range a.Pairs {
		if !pairEqual(&a.Pairs[i], &b.Pairs[i]) {
			return false
		}
	}
	return true
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

// TestSerializerRoundTrip tests that messages can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, msg := range testRequests() {
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize request %d: %v", i, err)
					continue
				}

				result := &common.CommandRequest{}
				if err := serializer.Deserialize(data, result); err != nil {
					t.Errorf("Failed to deserialize request %d: %v", i, err)
					continue
				}

				if !requestsEqual(msg, result) {
					t.Errorf("Request %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v", i, msg, result)
				}
			}

			for i, msg := range testResponses() {
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize response %d: %v", i, err)
					continue
				}

				result := &common.CommandResponse{}
				if err := serializer.Deserialize(data, result); err != nil {
					t.Errorf("Failed to deserialize response %d: %v", i, err)
					continue
				}

				if !responsesEqual(msg, result) {
					t.Errorf("Response %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v", i, msg, result)
				}
			}
		})
	}
}

// TestValueKindsSurvive checks that the kind of a value is kept, not only its text
func TestValueKindsSurvive(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()
			msg := &common.CommandResponse{
				Status: 200,
				Values: []store.Value{store.StringValue("1"), store.IntValue(1), store.FloatValue(1), store.BoolValue(true)},
			}

			data, err := serializer.Serialize(msg)
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}
			result := &common.CommandResponse{}
			if err := serializer.Deserialize(data, result); err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}

			want := []store.ValueKind{store.KindString, store.KindInteger, store.KindFloat, store.KindBool}
			for i, v := range result.Values {
				if v.Kind() != want[i] {
					t.Errorf("Value %d: expected kind %s, got %s", i, want[i], v.Kind())
				}
			}
		})
	}
}

// TestDeserializeResetsTarget tests that fields of a reused message are overwritten
func TestDeserializeResetsTarget(t *testing.T) {
	for _, name := range []string{"Binary", "Proto"} {
		t.Run(name, func(t *testing.T) {
			serializer := testSerializers[name]()

			data, err := serializer.Serialize(common.NewHgetallRequest("users"))
			if err != nil {
				t.Fatal(err)
			}

			result := common.NewHdelRequest("stale", "stale-key")
			if err := serializer.Deserialize(data, result); err != nil {
				t.Fatal(err)
			}
			if result.Key != "" || result.Table != "users" || result.MsgType != common.MsgTHgetall {
				t.Errorf("Stale fields survived: %+v", result)
			}
		})
	}
}

// TestUnsupportedMessage tests that a nil message is rejected
func TestUnsupportedMessage(t *testing.T) {
	for _, name := range []string{"Binary", "Proto"} {
		if _, err := testSerializers[name]().Serialize(nil); err == nil {
			t.Errorf("%s: expected an error for a nil message", name)
		}
	}
}

// TestBinaryRejectsWideMessageType tests that a message type above one byte is not truncated
func TestBinaryRejectsWideMessageType(t *testing.T) {
	req := common.NewHgetRequest("t", "k")
	req.MsgType = common.MessageType(256 + uint32(common.MsgTHset))

	if _, err := NewBinarySerializer().Serialize(req); err == nil {
		t.Fatalf("Expected an error for message type %d", uint32(req.MsgType))
	}

	req.MsgType = common.MsgTHdel
	data, err := NewBinarySerializer().Serialize(req)
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	result := &common.CommandRequest{}
	if err := NewBinarySerializer().Deserialize(data, result); err != nil || result.MsgType != common.MsgTHdel {
		t.Errorf("Expected hdel after round trip, got %v (err=%v)", result.MsgType, err)
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "gob", "binary", "msgpack", "proto", "PROTOBUF"} {
		if _, err := ByName(name); err != nil {
			t.Errorf("ByName(%s) failed: %v", name, err)
		}
	}
	if _, err := ByName("xml"); err == nil {
		t.Errorf("Expected an error for an unknown serializer")
	}
}

// TestInvalidBinaryData tests how the binary serializer handles corrupt or invalid data
func TestInvalidBinaryData(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name        string
		data        []byte
		expectError bool
	}{
		{
			name:        "Empty data",
			data:        []byte{},
			expectError: true,
		},
		{
			name:        "Too short header",
			data:        []byte{1}, // Only message type, no flags
			expectError: true,
		},
		{
			name:        "Valid header only",
			data:        []byte{1, 0}, // Message type 1, no flags
			expectError: false,
		},
		{
			name:        "Invalid length for table",
			data:        []byte{1, 1, 0, 0, 0, 5, 'a', 'b', 'c'}, // Claims table length 5 but only 3 bytes provided
			expectError: true,
		},
		{
			name:        "Missing pair value",
			data:        []byte{1, 4, 0, 0, 0, 1, 'k'}, // Pair flag with key but no value
			expectError: true,
		},
		{
			name:        "Unknown value kind",
			data:        []byte{1, 4, 0, 0, 0, 1, 'k', 42},
			expectError: true,
		},
		{
			name:        "Trailing bytes",
			data:        []byte{1, 0, 7},
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := serializer.Deserialize(tc.data, &common.CommandRequest{})

			if tc.expectError && err == nil {
				t.Errorf("Expected error but got none")
			} else if !tc.expectError && err != nil {
				t.Errorf("Did not expect error but got: %v", err)
			}
		})
	}

	// A response claiming more values than bytes exist
	if err := serializer.Deserialize([]byte{0, 0, 0, 200, hasValues, 0xff, 0xff, 0xff, 0xff}, &common.CommandResponse{}); err == nil {
		t.Errorf("Expected error for oversized value list")
	}
}

// TestInvalidProtoData tests how the proto serializer handles corrupt or invalid data
func TestInvalidProtoData(t *testing.T) {
	serializer := NewProtoSerializer()

	testCases := []struct {
		name string
		data []byte
	}{
		{"Truncated varint", []byte{0x08, 0x80}},
		{"Truncated bytes", []byte{0x12, 0x05, 'a'}},
		{"Wrong wire type for table", []byte{0x10, 0x01}},
		{"Broken nested pair", []byte{0x22, 0x02, 0x12, 0x05}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := serializer.Deserialize(tc.data, &common.CommandRequest{}); err == nil {
				t.Errorf("Expected error but got none")
			}
		})
	}

	// unknown fields are skipped
	data := []byte{0x08, 0x02, 0x78, 0x01} // msg_type=2, field 15 varint
	result := &common.CommandRequest{}
	if err := serializer.Deserialize(data, result); err != nil || result.MsgType != common.MsgTHget {
		t.Errorf("Unknown field should be skipped, got %+v (err=%v)", result, err)
	}
}
