package serializer

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/hKV/rpc/common"
)

// IRPCSerializer is the interface for all Message Serializers
type IRPCSerializer interface {
	// Serialize serializes a Message (*common.CommandRequest or *common.CommandResponse) into a byte array
	// It returns the serialized byte array and an error if any
	Serialize(msg common.Message) ([]byte, error)
	// Deserialize deserializes a byte array into a Message
	// msg must be a non-nil *common.CommandRequest or *common.CommandResponse
	// It returns an error if any
	Deserialize(b []byte, msg common.Message) error
}

// Names of all available serializers
const (
	NameJSON    = "json"
	NameGOB     = "gob"
	NameBinary  = "binary"
	NameMsgpack = "msgpack"
	NameProto   = "proto"
)

// ByName returns the serializer with the given name
func ByName(name string) (IRPCSerializer, error) {
	switch strings.ToLower(name) {
	case NameJSON:
		return NewJSONSerializer(), nil
	case NameGOB:
		return NewGOBSerializer(), nil
	case NameBinary:
		return NewBinarySerializer(), nil
	case NameMsgpack:
		return NewMsgpackSerializer(), nil
	case NameProto, "protobuf":
		return NewProtoSerializer(), nil
	default:
		return nil, fmt.Errorf("unknown serializer: %s. must be one of json, gob, binary, msgpack, proto", name)
	}
}

// errUnsupported is returned for message types that are neither request nor response
func errUnsupported(msg common.Message) error {
	return fmt.Errorf("unsupported message type %T", msg)
}
