// Package serializer turns hKV command requests and responses into bytes and back.
// Every format implements IRPCSerializer and is selected by name with ByName, so the
// client and the server only have to agree on the name.
//
// Formats:
//
//   - binary: hand-packed format. A flag byte marks which fields are present, strings
//     and byte slices are length prefixed and values carry a one byte kind tag.
//     Smallest payloads and the default of the CLI.
//
//   - proto: protobuf wire format written with protowire. Request, response, pair and
//     value are messages with fixed field numbers, so non Go clients can decode them
//     with a matching .proto file.
//
//   - msgpack: vmihailenco/msgpack encoding of the message structs.
//
//   - json: encoding/json, readable on the wire. Message types are written by name.
//
//   - gob: encoding/gob. Largest payloads, kept for compatibility.
//
// Deserialize always overwrites the target message completely, fields of a previous
// message never leak into the next one. All implementations are stateless and safe
// for concurrent use.
//
// Example:
//
//	s, _ := serializer.ByName("binary")
//	data, err := s.Serialize(common.NewHgetRequest("users", "alice"))
//	...
//	resp := &common.CommandResponse{}
//	err = s.Deserialize(reply, resp)
package serializer
