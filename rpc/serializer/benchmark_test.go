package serializer

import (
	"testing"

	"github.com/ValentinKolb/hKV/lib/store"
	"github.com/ValentinKolb/hKV/rpc/common"
)

// benchmarkMessages returns a set of messages for targeted benchmarking
func benchmarkMessages() map[string]common.Message {
	pairs := make([]store.Kvpair, 100)
	for i := range pairs {
		pairs[i] = store.NewKvpair("key-"+string(rune('a'+i%26)), store.IntValue(int64(i)))
	}

	return map[string]common.Message{
		"Empty":          &common.CommandRequest{},
		"SmallKeyOnly":   common.NewHgetRequest("t", "k"),
		"MediumKeyOnly":  common.NewHgetRequest("users", "medium-length-key-for-testing"),
		"SmallValue":     common.NewHsetRequest("t", "key", store.StringValue("v")),
		"IntegerValue":   common.NewHsetRequest("t", "key", store.IntValue(1<<40)),
		"LargeValue":     common.NewHsetRequest("t", "key", store.BinaryValue(make([]byte, 1024))),
		"VeryLargeValue": common.NewHsetRequest("t", "key", store.BinaryValue(make([]byte, 1024*16))),
		"ValueResponse":  common.NewValueResponse(store.StringValue("medium length value for testing serialization")),
		"PairsResponse":  common.NewPairsResponse(pairs),
		"ErrorMessage":   common.NewErrorResponse(store.NewInternalError("Lorem ipsum dolor sit amet, consectetur adipiscing elit.")),
	}
}

// newTarget returns an empty message of the same shape as msg
func newTarget(msg common.Message) common.Message {
	if _, ok := msg.(*common.CommandRequest); ok {
		return &common.CommandRequest{}
	}
	return &common.CommandResponse{}
}

// BenchmarkSerialize benchmarks serialization for all implementations with various message types
func BenchmarkSerialize(b *testing.B) {
	messages := benchmarkMessages()

	for name, factory := range testSerializers {
		for msgName, msg := range messages {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				serializer := factory()
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					_, err := serializer.Serialize(msg)
					if err != nil {
						b.Fatalf("Failed to serialize: %v", err)
					}
				}
			})
		}
	}
}

// BenchmarkDeserialize benchmarks deserialization for all implementations with various message types
func BenchmarkDeserialize(b *testing.B) {
	messages := benchmarkMessages()

	for name, factory := range testSerializers {
		for msgName, msg := range messages {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				serializer := factory()
				data, err := serializer.Serialize(msg)
				if err != nil {
					b.Fatalf("Failed to serialize %s with %s: %v", msgName, name, err)
				}
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					if err := serializer.Deserialize(data, newTarget(msg)); err != nil {
						b.Fatalf("Failed to deserialize: %v", err)
					}
				}
			})
		}
	}
}

// BenchmarkSize measures and reports the serialized size for each message type
func BenchmarkSize(b *testing.B) {
	messages := benchmarkMessages()

	for name, factory := range testSerializers {
		serializer := factory()

		for msgName, msg := range messages {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				data, err := serializer.Serialize(msg)
				if err != nil {
					b.Fatalf("Failed to serialize: %v", err)
				}

				// Report the size as a custom metric
				b.ReportMetric(float64(len(data)), "bytes")

				for i := 0; i < b.N; i++ {
					_ = data
				}
			})
		}
	}
}
